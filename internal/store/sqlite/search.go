package sqlite

import (
	"context"
	"fmt"
)

// EnsureChunkFTS creates the chunk_fts FTS5 virtual table and the triggers
// that keep it synchronized with chunk inserts/deletes/text updates.
// Mirrors _ensure_chunk_fts in service/http_app.py. Safe to call on every
// startup; CREATE ... IF NOT EXISTS makes it idempotent.
func (db *DB) EnsureChunkFTS(ctx context.Context) error {
	stmts := []string{
		`CREATE VIRTUAL TABLE IF NOT EXISTS chunk_fts USING fts5(
			text, content='chunk', content_rowid='rowid'
		)`,
		`CREATE TRIGGER IF NOT EXISTS chunk_ai AFTER INSERT ON chunk BEGIN
			INSERT INTO chunk_fts(rowid, text) VALUES (new.rowid, new.text);
		END`,
		`CREATE TRIGGER IF NOT EXISTS chunk_ad AFTER DELETE ON chunk BEGIN
			INSERT INTO chunk_fts(chunk_fts, rowid, text) VALUES ('delete', old.rowid, old.text);
		END`,
		`CREATE TRIGGER IF NOT EXISTS chunk_au AFTER UPDATE OF text ON chunk BEGIN
			INSERT INTO chunk_fts(chunk_fts, rowid, text) VALUES ('delete', old.rowid, old.text);
			INSERT INTO chunk_fts(rowid, text) VALUES (new.rowid, new.text);
		END`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensuring chunk_fts: %w", err)
		}
	}
	return nil
}

// RebuildChunkFTS repopulates chunk_fts from the current chunk table,
// for use after a bulk resegment or a schema migration.
func (db *DB) RebuildChunkFTS(ctx context.Context) error {
	if _, err := db.ExecContext(ctx,
		`INSERT INTO chunk_fts(chunk_fts) VALUES ('rebuild')`); err != nil {
		return fmt.Errorf("rebuilding chunk_fts: %w", err)
	}
	return nil
}

// SearchHit is one ranked result from a full text search over chunks.
type SearchHit struct {
	WorkID   string
	ChunkIdx int
	Start    int
	End      int
	Snippet  string
	Score    float64
}

// Search runs an FTS5 MATCH query against chunk_fts, ranked by bm25, with a
// highlighted snippet, optionally scoped to a single work. Mirrors the
// /v1/search handler's SQL.
func (s *WorkStore) Search(ctx context.Context, query string, workID string, limit int) ([]SearchHit, error) {
	if err := s.db.EnsureChunkFTS(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	sql := `
		SELECT c.work_id, c.idx, c.char_start, c.char_end,
		       snippet(chunk_fts, 0, '[', ']', '...', 10) AS snip,
		       bm25(chunk_fts) AS score
		FROM chunk_fts
		JOIN chunk c ON c.rowid = chunk_fts.rowid
		WHERE chunk_fts MATCH ?`
	args := []any{query}
	if workID != "" {
		sql += " AND c.work_id = ?"
		args = append(args, workID)
	}
	sql += " ORDER BY score LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var h SearchHit
		if err := rows.Scan(&h.WorkID, &h.ChunkIdx, &h.Start, &h.End, &h.Snippet, &h.Score); err != nil {
			return nil, fmt.Errorf("scanning search hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
