// Package runlog records the history of training, evaluation and cross-validation runs in a SQLite
// database.
package runlog

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // Registers the pure Go "sqlite" driver.
)

// ErrNotFound is returned by Get for unknown run IDs.
var ErrNotFound = errors.New("runlog: run not found")

// Kinds of runs.
const (
	KindTrain         = "train"
	KindEvaluate      = "evaluate"
	KindCrossValidate = "crossvalidate"
)

// Run is one recorded run.
type Run struct {
	ID        string
	Kind      string
	Task      string // namefind, chunker or postag.
	StartedAt time.Time
	Duration  time.Duration

	// Samples is the number of samples trained on or evaluated.
	Samples int
	// Folds is the number of cross-validation folds, 0 for other runs.
	Folds int

	Precision float64
	Recall    float64
	FMeasure  float64

	// ModelDigest is the BLAKE3 digest of the model file trained or evaluated.
	ModelDigest string
	Language    string
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	kind         TEXT NOT NULL,
	task         TEXT NOT NULL,
	started_at   TEXT NOT NULL,
	duration_ms  INTEGER NOT NULL,
	samples      INTEGER NOT NULL,
	folds        INTEGER NOT NULL,
	precision    REAL NOT NULL,
	recall       REAL NOT NULL,
	f_measure    REAL NOT NULL,
	model_digest TEXT NOT NULL,
	language     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_started_at ON runs (started_at);
`

const columns = `id, kind, task, started_at, duration_ms, samples, folds, precision, recall, f_measure, model_digest, language`

// Store is a run history database. It's safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history database at filePath. ":memory:" opens a private in-memory
// database.
func Open(ctx context.Context, filePath string) (*Store, error) {
	if filePath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
			return nil, errors.Wrapf(err, "failed to create directory for history database %q", filePath)
		}
	}
	db, err := sql.Open("sqlite", filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open history database %q", filePath)
	}
	if filePath == ":memory:" {
		// Each connection would see its own in-memory database.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "failed to create schema of history database %q", filePath)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts run, assigning it a new ID if it has none. It returns the run ID.
func (s *Store) Record(ctx context.Context, run *Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO runs (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Kind, run.Task, run.StartedAt.UTC().Format(time.RFC3339Nano), run.Duration.Milliseconds(),
		run.Samples, run.Folds, run.Precision, run.Recall, run.FMeasure, run.ModelDigest, run.Language)
	if err != nil {
		return "", errors.Wrapf(err, "failed to record run %s", run.ID)
	}
	return run.ID, nil
}

// List returns the most recent runs first, at most limit of them (all if limit <= 0).
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + columns + ` FROM runs ORDER BY started_at DESC, id`
	if limit > 0 {
		query += ` LIMIT ?`
	}
	var args []any
	if limit > 0 {
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list runs")
	}
	defer func() { _ = rows.Close() }()
	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, errors.Wrap(rows.Err(), "failed to list runs")
}

// Get returns the run with the given ID, or an error wrapping ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrNotFound, "id %s", id)
	}
	return run, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var run Run
	var startedAt string
	var durationMs int64
	err := row.Scan(&run.ID, &run.Kind, &run.Task, &startedAt, &durationMs, &run.Samples, &run.Folds,
		&run.Precision, &run.Recall, &run.FMeasure, &run.ModelDigest, &run.Language)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read run")
	}
	run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid start time %q of run %s", startedAt, run.ID)
	}
	run.Duration = time.Duration(durationMs) * time.Millisecond
	return &run, nil
}
