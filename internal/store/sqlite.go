package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/leadgen-cli/internal/pipeline"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	industry   TEXT NOT NULL,
	location   TEXT NOT NULL,
	max_leads  INTEGER NOT NULL,
	stages     TEXT NOT NULL,
	status     TEXT NOT NULL,
	completed  TEXT NOT NULL,
	lead_count INTEGER NOT NULL DEFAULT 0,
	report     TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_industry ON runs(industry);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RecordRun appends one finished (or halted) run to the history.
func (s *SQLiteStore) RecordRun(ctx context.Context, identity pipeline.RunIdentity, status string, completed []string, leadCount int, report string) error {
	stagesJSON, err := json.Marshal(identity.Stages)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal stages")
	}
	completedJSON, err := json.Marshal(completed)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal completed stages")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, industry, location, max_leads, stages, status, completed, lead_count, report, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(),
		identity.Industry,
		identity.Location,
		identity.MaxLeads,
		string(stagesJSON),
		status,
		string(completedJSON),
		leadCount,
		report,
		time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: insert run")
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query := `SELECT id, industry, location, max_leads, stages, status, completed, lead_count, report, created_at
	          FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.Industry != "" {
		query += ` AND industry = ?`
		args = append(args, filter.Industry)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, industry, location, max_leads, stages, status, completed, lead_count, report, created_at
		 FROM runs WHERE id = ?`,
		id,
	)
	return scanRun(row)
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*Run, error) {
	var r Run
	var stagesJSON, completedJSON string
	var report sql.NullString

	err := row.Scan(
		&r.ID,
		&r.Identity.Industry,
		&r.Identity.Location,
		&r.Identity.MaxLeads,
		&stagesJSON,
		&r.Status,
		&completedJSON,
		&r.LeadCount,
		&report,
		&r.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if err := json.Unmarshal([]byte(stagesJSON), &r.Identity.Stages); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal stages")
	}
	if err := json.Unmarshal([]byte(completedJSON), &r.Completed); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal completed stages")
	}
	r.Report = report.String
	return &r, nil
}
