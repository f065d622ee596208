package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vsamautomation/fuel-data-cleaner/internal/config"
	apperrors "github.com/vsamautomation/fuel-data-cleaner/internal/errors"
	"github.com/vsamautomation/fuel-data-cleaner/pkg/contracts/domain"
)

// timeLayout keeps stored timestamps sortable as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	started_at  TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	dates       INTEGER NOT NULL DEFAULT 0,
	absences    INTEGER NOT NULL DEFAULT 0,
	empty       INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);

CREATE TABLE IF NOT EXISTS run_sections (
	run_id  TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	section TEXT NOT NULL,
	records INTEGER NOT NULL,
	PRIMARY KEY (run_id, section)
);

CREATE TABLE IF NOT EXISTS run_files (
	run_id   TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	path     TEXT NOT NULL,
	PRIMARY KEY (run_id, position)
);

CREATE TABLE IF NOT EXISTS run_sites (
	run_id   TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	name     TEXT NOT NULL,
	PRIMARY KEY (run_id, position)
);
`

// RunStore is the run history used by the extraction service.
type RunStore interface {
	SaveRun(ctx context.Context, run domain.RunSummary) error
	ListRuns(ctx context.Context, limit int) ([]domain.RunSummary, error)
	GetRun(ctx context.Context, id string) (*domain.RunSummary, error)
	Close() error
}

// SQLiteStore implements RunStore on a SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for a private in-memory database.
func Open(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path != ":memory:" {
		if err := config.EnsureParentDir(path); err != nil {
			return nil, apperrors.NewStorageError("failed to create database directory", err).
				WithContext("path", path)
		}
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open database", err).WithContext("path", path)
	}
	// SQLite allows one writer; a single connection also keeps ":memory:"
	// databases alive across calls.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, apperrors.NewStorageError("failed to migrate database", err).WithContext("path", path)
	}

	logger.Debug("run store opened", slog.String("path", path))
	return s, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SaveRun inserts or replaces a run and its child rows in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, run domain.RunSummary) error {
	if run.ID == "" {
		return apperrors.NewAppValidationError("run id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStorageError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, run.ID); err != nil {
		return apperrors.NewStorageError("failed to replace run", err).WithContext("run_id", run.ID)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, source, started_at, finished_at, dates, absences, empty)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source,
		run.StartedAt.UTC().Format(timeLayout), run.FinishedAt.UTC().Format(timeLayout),
		run.Dates, run.Absences, run.Empty,
	); err != nil {
		return apperrors.NewStorageError("failed to insert run", err).WithContext("run_id", run.ID)
	}

	for _, section := range domain.AllSections {
		n, ok := run.Counts[section]
		if !ok {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_sections (run_id, section, records) VALUES (?, ?, ?)`,
			run.ID, string(section), n,
		); err != nil {
			return apperrors.NewStorageError("failed to insert section count", err).WithContext("run_id", run.ID)
		}
	}

	for i, path := range run.Files {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_files (run_id, position, path) VALUES (?, ?, ?)`,
			run.ID, i, path,
		); err != nil {
			return apperrors.NewStorageError("failed to insert run file", err).WithContext("run_id", run.ID)
		}
	}

	for i, name := range run.Sites {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_sites (run_id, position, name) VALUES (?, ?, ?)`,
			run.ID, i, name,
		); err != nil {
			return apperrors.NewStorageError("failed to insert run site", err).WithContext("run_id", run.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStorageError("failed to commit run", err).WithContext("run_id", run.ID)
	}

	s.logger.DebugContext(ctx, "run saved",
		slog.String("run_id", run.ID),
		slog.Int("records", run.TotalRecords()))
	return nil
}

// ListRuns returns up to limit runs, newest first. A limit below 1 returns
// every run.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	query := `SELECT id, source, started_at, finished_at, dates, absences, empty
		FROM runs ORDER BY started_at DESC, id`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list runs", err)
	}

	var runs []domain.RunSummary
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, apperrors.NewStorageError("failed to scan run", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, apperrors.NewStorageError("failed to list runs", err)
	}
	rows.Close()

	// Child rows are loaded after the cursor is closed; the pool holds a
	// single connection.
	for i := range runs {
		if err := s.loadChildren(ctx, &runs[i]); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// GetRun returns one run. A missing id is a NOT_FOUND AppError.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*domain.RunSummary, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source, started_at, finished_at, dates, absences, empty
		 FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("extraction run").WithContext("run_id", id)
	}
	if err != nil {
		return nil, apperrors.NewStorageError("failed to get run", err).WithContext("run_id", id)
	}
	if err := s.loadChildren(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(sc scanner) (*domain.RunSummary, error) {
	var (
		run               domain.RunSummary
		started, finished string
	)
	if err := sc.Scan(&run.ID, &run.Source, &started, &finished, &run.Dates, &run.Absences, &run.Empty); err != nil {
		return nil, err
	}

	var err error
	if run.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return nil, fmt.Errorf("bad started_at %q: %w", started, err)
	}
	if run.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
		return nil, fmt.Errorf("bad finished_at %q: %w", finished, err)
	}
	return &run, nil
}

func (s *SQLiteStore) loadChildren(ctx context.Context, run *domain.RunSummary) error {
	run.Counts = make(map[domain.SectionType]int)
	if err := s.each(ctx, `SELECT section, records FROM run_sections WHERE run_id = ?`, run.ID, func(sc scanner) error {
		var section string
		var n int
		if err := sc.Scan(&section, &n); err != nil {
			return err
		}
		run.Counts[domain.SectionType(section)] = n
		return nil
	}); err != nil {
		return err
	}

	if err := s.each(ctx, `SELECT path FROM run_files WHERE run_id = ? ORDER BY position`, run.ID, func(sc scanner) error {
		var path string
		if err := sc.Scan(&path); err != nil {
			return err
		}
		run.Files = append(run.Files, path)
		return nil
	}); err != nil {
		return err
	}

	return s.each(ctx, `SELECT name FROM run_sites WHERE run_id = ? ORDER BY position`, run.ID, func(sc scanner) error {
		var name string
		if err := sc.Scan(&name); err != nil {
			return err
		}
		run.Sites = append(run.Sites, name)
		return nil
	})
}

func (s *SQLiteStore) each(ctx context.Context, query, runID string, fn func(scanner) error) error {
	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return apperrors.NewStorageError("failed to load run details", err).WithContext("run_id", runID)
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return apperrors.NewStorageError("failed to scan run details", err).WithContext("run_id", runID)
		}
	}
	if err := rows.Err(); err != nil {
		return apperrors.NewStorageError("failed to load run details", err).WithContext("run_id", runID)
	}
	return nil
}
