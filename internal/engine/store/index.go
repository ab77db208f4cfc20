package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one indexed transcript in the local knowledge base.
type Entry struct {
	VideoID   string  `json:"video_id"`
	Title     string  `json:"title,omitempty"`
	URL       string  `json:"url"`
	Language  string  `json:"language,omitempty"`
	Duration  float64 `json:"duration_seconds"`
	Segments  int     `json:"segments"`
	Path      string  `json:"path"`
	CreatedAt string  `json:"created_at"`
}

const indexSchema = `
CREATE TABLE IF NOT EXISTS transcripts (
	video_id   TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	url        TEXT NOT NULL,
	language   TEXT NOT NULL DEFAULT '',
	duration   REAL NOT NULL DEFAULT 0,
	segments   INTEGER NOT NULL DEFAULT 0,
	path       TEXT NOT NULL,
	transcript TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transcripts_created ON transcripts(created_at);
`

// Index is the SQLite-backed knowledge-base index. Writes are serialized —
// SQLite handles one writer at a time and this is a single-user tool.
type Index struct {
	db *sql.DB
	mu sync.Mutex
}

var (
	localIndex *Index
	indexOnce  sync.Once
	indexErr   error
)

// OpenIndex opens (creating if needed) the index database at
// {root}/transcripts.db. Safe to call more than once.
func OpenIndex() (*Index, error) {
	indexOnce.Do(func() {
		localIndex, indexErr = newIndex(filepath.Join(outputRoot(), "transcripts.db"))
	})
	return localIndex, indexErr
}

func newIndex(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	if _, err := db.Exec(indexSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init index schema: %w", err)
	}
	return &Index{db: db}, nil
}

// Put inserts or replaces the index row for a video. The full transcript text
// is stored alongside the metadata to back substring search.
func (ix *Index) Put(ctx context.Context, e Entry, text string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if e.CreatedAt == "" {
		e.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := ix.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO transcripts
			(video_id, title, url, language, duration, segments, path, transcript, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.VideoID, e.Title, e.URL, e.Language, e.Duration, e.Segments, e.Path, text, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("index put: %w", err)
	}
	return nil
}

// List returns the most recently indexed transcripts.
func (ix *Index) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := ix.db.QueryContext(ctx, `
		SELECT video_id, title, url, language, duration, segments, path, created_at
		FROM transcripts ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("index list: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Search matches the query as a case-insensitive substring of the title or
// transcript text.
func (ix *Index) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + query + "%"
	rows, err := ix.db.QueryContext(ctx, `
		SELECT video_id, title, url, language, duration, segments, path, created_at
		FROM transcripts
		WHERE title LIKE ? COLLATE NOCASE OR transcript LIKE ? COLLATE NOCASE
		ORDER BY created_at DESC LIMIT ?`, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("index search: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Close releases the database handle.
func (ix *Index) Close() error {
	return ix.db.Close()
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.VideoID, &e.Title, &e.URL, &e.Language, &e.Duration, &e.Segments, &e.Path, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
