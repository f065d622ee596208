// Package shared holds helpers used by more than one package.
//
// The testutil subpackage is for tests only: a capturing slog handler for
// asserting on warnings, and small sheet fixtures shaped like the fuel
// export (site anchor in column 1, section labels in column 3, products in
// column 4, dates from column 6).
//
//	logger, logs := testutil.NewTestLogger(t)
//	engine := extraction.NewEngine(extraction.Options{Logger: logger})
//	...
//	testutil.AssertLogContains(t, logs, slog.LevelWarn, "section not found")
package shared
