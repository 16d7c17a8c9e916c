// Package store keeps finished extractions in a SQLite database so they can
// be fetched again by ID.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Cortexa-LLC/mcp/src/docextract/document"
)

// ErrNotFound is returned by Get when no extraction has the requested ID.
var ErrNotFound = errors.New("extraction not found")

const schema = `
CREATE TABLE IF NOT EXISTS extractions (
	id          TEXT PRIMARY KEY,
	source_name TEXT NOT NULL,
	engine      TEXT NOT NULL,
	page_count  INTEGER NOT NULL,
	item_count  INTEGER NOT NULL,
	created_at  INTEGER NOT NULL,
	document    BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS extractions_created_at ON extractions (created_at);
`

// Record is one stored extraction.
type Record struct {
	ID         string
	SourceName string
	Engine     string
	PageCount  int
	ItemCount  int
	CreatedAt  time.Time
	Document   *document.ExtractedDocument
}

// Store is a SQLite-backed extraction store. It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for a throwaway store.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	// SQLite serialises writers; one connection also keeps :memory: databases
	// from splitting across connections.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate store %s: %w", path, err)
	}
	logger.Debug("store opened", "path", path)
	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores doc under a fresh ID and returns the new record.
// sourceName is the user-facing file name, which may differ from
// doc.SourcePath when the input was an upload.
func (s *Store) Save(ctx context.Context, sourceName string, doc *document.ExtractedDocument) (*Record, error) {
	data, err := document.Marshal(doc)
	if err != nil {
		return nil, err
	}
	rec := &Record{
		ID:         uuid.NewString(),
		SourceName: sourceName,
		Engine:     doc.Engine,
		PageCount:  doc.PageCount,
		ItemCount:  doc.ItemCount(),
		CreatedAt:  s.now().UTC().Truncate(time.Millisecond),
		Document:   doc,
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO extractions (id, source_name, engine, page_count, item_count, created_at, document)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SourceName, rec.Engine, rec.PageCount, rec.ItemCount, rec.CreatedAt.UnixMilli(), data)
	if err != nil {
		return nil, fmt.Errorf("save extraction: %w", err)
	}
	s.logger.Debug("extraction saved", "id", rec.ID, "source", sourceName, "pages", rec.PageCount)
	return rec, nil
}

// Get loads the extraction with the given ID, including its document.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source_name, engine, page_count, item_count, created_at, document
		 FROM extractions WHERE id = ?`, id)

	var (
		rec     Record
		created int64
		data    []byte
	)
	err := row.Scan(&rec.ID, &rec.SourceName, &rec.Engine, &rec.PageCount, &rec.ItemCount, &created, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get extraction %s: %w", id, err)
	}
	rec.CreatedAt = time.UnixMilli(created).UTC()
	if rec.Document, err = document.Unmarshal(data); err != nil {
		return nil, fmt.Errorf("get extraction %s: %w", id, err)
	}
	return &rec, nil
}

// List returns the most recent extractions, newest first, without their
// documents. limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_name, engine, page_count, item_count, created_at
		 FROM extractions ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list extractions: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec     Record
			created int64
		)
		if err := rows.Scan(&rec.ID, &rec.SourceName, &rec.Engine, &rec.PageCount, &rec.ItemCount, &created); err != nil {
			return nil, fmt.Errorf("list extractions: %w", err)
		}
		rec.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list extractions: %w", err)
	}
	return out, nil
}

// Delete removes an extraction. Deleting a missing ID returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM extractions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete extraction %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
