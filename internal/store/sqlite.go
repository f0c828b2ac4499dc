package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/webfetch/internal/model"
)

// ErrNotFound is returned by GetFetch for an unknown id.
var ErrNotFound = eris.New("fetch not found")

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
CREATE TABLE IF NOT EXISTS fetches (
	id          TEXT PRIMARY KEY,
	url         TEXT NOT NULL,
	service     TEXT NOT NULL,
	notebook_id TEXT NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	source_url  TEXT NOT NULL DEFAULT '',
	doc_id      TEXT NOT NULL DEFAULT '',
	path        TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL,
	stage       TEXT NOT NULL DEFAULT '',
	error       TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_fetches_status ON fetches(status);
CREATE INDEX IF NOT EXISTS idx_fetches_created_at ON fetches(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RecordFetch inserts rec, or replaces an existing record with the same id.
// A missing id or timestamp is filled in.
func (s *SQLiteStore) RecordFetch(ctx context.Context, rec model.FetchRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO fetches
			(id, url, service, notebook_id, title, source_url, doc_id, path, status, stage, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.URL, string(rec.Service), rec.NotebookID, rec.Title, rec.SourceURL,
		rec.DocID, rec.Path, string(rec.Status), rec.Stage, rec.Error, rec.CreatedAt.UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert fetch %s", rec.ID)
	}
	return nil
}

const fetchColumns = `id, url, service, notebook_id, title, source_url, doc_id, path, status, stage, error, created_at`

func (s *SQLiteStore) GetFetch(ctx context.Context, id string) (*model.FetchRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+fetchColumns+` FROM fetches WHERE id = ?`, id)
	rec, err := scanFetch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get fetch %s", id)
	}
	return rec, err
}

// ListFetches returns matching records, newest first. Limit defaults to 100.
func (s *SQLiteStore) ListFetches(ctx context.Context, filter FetchFilter) ([]model.FetchRecord, error) {
	query := `SELECT ` + fetchColumns + ` FROM fetches WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Service != "" {
		query += ` AND service = ?`
		args = append(args, string(filter.Service))
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
		return nil, eris.Wrap(err, "sqlite: list fetches")
	}
	defer rows.Close()

	var out []model.FetchRecord
	for rows.Next() {
		rec, err := scanFetch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list fetches iterate")
}

func (s *SQLiteStore) DeleteFetchesBefore(ctx context.Context, t time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM fetches WHERE created_at < ?`, t.UTC())
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete fetches")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "rows affected")
	}
	return int(n), nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanFetch(row scannable) (*model.FetchRecord, error) {
	var rec model.FetchRecord
	var service, status string

	err := row.Scan(&rec.ID, &rec.URL, &service, &rec.NotebookID, &rec.Title, &rec.SourceURL,
		&rec.DocID, &rec.Path, &status, &rec.Stage, &rec.Error, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan fetch")
	}
	rec.Service = model.Service(service)
	rec.Status = model.FetchStatus(status)
	return &rec, nil
}
