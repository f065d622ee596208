// Package store persists extraction run history in SQLite.
//
// The pure Go modernc.org/sqlite driver is used, so binaries build without
// cgo. The schema is created on Open:
//
//	runs          one row per run (id, source, timing, dates, empty flag)
//	run_sections  record counts per section type
//	run_files     files written by the run
//	run_sites     site names in sheet order
//
// Example:
//
//	s, err := store.Open(ctx, "data/fuel_runs.db", logger)
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//	err = s.SaveRun(ctx, summary)
package store
