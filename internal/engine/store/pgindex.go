package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGIndex mirrors the local index into PostgreSQL when DATABASE_URL is set,
// so transcripts are searchable from other machines. Optional — the SQLite
// index remains the source of truth.
type PGIndex struct {
	pool *pgxpool.Pool
}

var pgIndex *PGIndex

// SetPGIndex installs the optional Postgres index, wired from main.
func SetPGIndex(ix *PGIndex) { pgIndex = ix }

// PG returns the optional Postgres index, nil when not configured.
func PG() *PGIndex { return pgIndex }

const pgSchema = `
CREATE TABLE IF NOT EXISTS transcripts (
	video_id   TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	url        TEXT NOT NULL,
	language   TEXT NOT NULL DEFAULT '',
	duration   DOUBLE PRECISION NOT NULL DEFAULT 0,
	segments   INTEGER NOT NULL DEFAULT 0,
	path       TEXT NOT NULL,
	transcript TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// ConnectPG connects to PostgreSQL and ensures the schema.
func ConnectPG(ctx context.Context, databaseURL string) (*PGIndex, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pg connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg schema: %w", err)
	}
	return &PGIndex{pool: pool}, nil
}

// Put upserts the index row for a video.
func (ix *PGIndex) Put(ctx context.Context, e Entry, text string) error {
	_, err := ix.pool.Exec(ctx, `
		INSERT INTO transcripts (video_id, title, url, language, duration, segments, path, transcript)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (video_id) DO UPDATE SET
			title = EXCLUDED.title, url = EXCLUDED.url, language = EXCLUDED.language,
			duration = EXCLUDED.duration, segments = EXCLUDED.segments,
			path = EXCLUDED.path, transcript = EXCLUDED.transcript`,
		e.VideoID, e.Title, e.URL, e.Language, e.Duration, e.Segments, e.Path, text)
	if err != nil {
		return fmt.Errorf("pg put: %w", err)
	}
	return nil
}

// Search matches the query case-insensitively against title and transcript.
func (ix *PGIndex) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + query + "%"
	rows, err := ix.pool.Query(ctx, `
		SELECT video_id, title, url, language, duration, segments, path, created_at::text
		FROM transcripts
		WHERE title ILIKE $1 OR transcript ILIKE $1
		ORDER BY created_at DESC LIMIT $2`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("pg search: %w", err)
	}
	defer rows.Close()

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

// Close releases the pool.
func (ix *PGIndex) Close() { ix.pool.Close() }
