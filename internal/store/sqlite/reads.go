package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ljramones/lore-ingest-go/internal/domain"
)

// WorkSummary is the row shape for GET /v1/works and /v1/works/summary,
// mirroring the LEFT JOIN count projection in service/http_app.py.
type WorkSummary struct {
	domain.Work
	SceneCount int
	ChunkCount int
}

// GetWork loads a single work by id, or domain.ErrNotFound.
func (s *WorkStore) GetWork(ctx context.Context, id string) (domain.Work, error) {
	var w domain.Work
	var title, author, source, license, contentSHA1, ingestRunID sql.NullString
	var charCount sql.NullInt64
	var createdAt string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, author, source, license, norm_text, char_count,
		        content_sha1, ingest_run_id, created_at
		 FROM work WHERE id = ?`, id).Scan(
		&w.ID, &title, &author, &source, &license, &w.NormText, &charCount,
		&contentSHA1, &ingestRunID, &createdAt,
	)
	if err == sql.ErrNoRows {
		return domain.Work{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Work{}, fmt.Errorf("reading work %s: %w", id, err)
	}

	w.Title = title.String
	w.Author = author.String
	w.Source = source.String
	w.License = license.String
	w.CharCount = int(charCount.Int64)
	w.ContentSHA1 = contentSHA1.String
	w.IngestRunID = ingestRunID.String
	return w, nil
}

// ListWorksFilter mirrors the q/author/limit/offset query params on
// GET /v1/works.
type ListWorksFilter struct {
	Query  string
	Author string
	Limit  int
	Offset int
}

// ListWorks returns works matching the filter, most recently created first,
// each annotated with derived scene/chunk counts.
func (s *WorkStore) ListWorks(ctx context.Context, f ListWorksFilter) ([]WorkSummary, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	var conds []string
	var args []any
	if f.Query != "" {
		conds = append(conds, "(title LIKE ? OR author LIKE ?)")
		like := "%" + f.Query + "%"
		args = append(args, like, like)
	}
	if f.Author != "" {
		conds = append(conds, "author = ?")
		args = append(args, f.Author)
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, limit, f.Offset)

	query := fmt.Sprintf(`
		SELECT w.id, w.title, w.author, w.source, w.license, w.char_count,
		       w.content_sha1, w.created_at,
		       COALESCE(sc.n, 0), COALESCE(ch.n, 0)
		FROM work w
		LEFT JOIN (SELECT work_id, COUNT(*) n FROM scene GROUP BY work_id) sc ON sc.work_id = w.id
		LEFT JOIN (SELECT work_id, COUNT(*) n FROM chunk GROUP BY work_id) ch ON ch.work_id = w.id
		%s
		ORDER BY w.created_at DESC
		LIMIT ? OFFSET ?`, where)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing works: %w", err)
	}
	defer rows.Close()

	var out []WorkSummary
	for rows.Next() {
		var ws WorkSummary
		var title, author, source, license, contentSHA1 sql.NullString
		var charCount sql.NullInt64
		var createdAt string
		if err := rows.Scan(&ws.ID, &title, &author, &source, &license, &charCount,
			&contentSHA1, &createdAt, &ws.SceneCount, &ws.ChunkCount); err != nil {
			return nil, fmt.Errorf("scanning work row: %w", err)
		}
		ws.Title = title.String
		ws.Author = author.String
		ws.Source = source.String
		ws.License = license.String
		ws.CharCount = int(charCount.Int64)
		ws.ContentSHA1 = contentSHA1.String
		out = append(out, ws)
	}
	return out, rows.Err()
}

// GetScenes returns every scene of a work ordered by idx.
func (s *WorkStore) GetScenes(ctx context.Context, workID string) ([]domain.SceneSpan, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, char_start, char_end, heading FROM scene WHERE work_id = ? ORDER BY idx`, workID)
	if err != nil {
		return nil, fmt.Errorf("listing scenes: %w", err)
	}
	defer rows.Close()

	var out []domain.SceneSpan
	for rows.Next() {
		var sc domain.SceneSpan
		var heading sql.NullString
		if err := rows.Scan(&sc.Idx, &sc.Start, &sc.End, &heading); err != nil {
			return nil, fmt.Errorf("scanning scene row: %w", err)
		}
		sc.Heading = heading.String
		out = append(out, sc)
	}
	return out, rows.Err()
}

// GetChunks returns every chunk of a work ordered by idx.
func (s *WorkStore) GetChunks(ctx context.Context, workID string) ([]domain.ChunkSpan, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.idx, c.char_start, c.char_end, c.text, c.sha256,
		        COALESCE(sc.idx, -1), COALESCE(c.scene_id, '')
		 FROM chunk c
		 LEFT JOIN scene sc ON sc.id = c.scene_id
		 WHERE c.work_id = ? ORDER BY c.idx`, workID)
	if err != nil {
		return nil, fmt.Errorf("listing chunks: %w", err)
	}
	defer rows.Close()

	var out []domain.ChunkSpan
	for rows.Next() {
		var ch domain.ChunkSpan
		if err := rows.Scan(&ch.Idx, &ch.Start, &ch.End, &ch.Text, &ch.SHA256, &ch.SceneIdx, &ch.SceneID); err != nil {
			return nil, fmt.Errorf("scanning chunk row: %w", err)
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

// Slice returns norm_text[start:end] for a work, or domain.ErrOutOfRange if
// the bounds fall outside [0, char_count] or start > end — mirroring the
// 416 response of GET /v1/works/{id}/slice.
func (s *WorkStore) Slice(ctx context.Context, workID string, start, end int) (string, error) {
	w, err := s.GetWork(ctx, workID)
	if err != nil {
		return "", err
	}
	n := len([]rune(w.NormText))
	if start < 0 || end > n || start > end {
		return "", domain.ErrOutOfRange
	}
	runes := []rune(w.NormText)
	return string(runes[start:end]), nil
}

// WorkIDs returns every work id, oldest first, for GET /v1/works/ids.
func (s *WorkStore) WorkIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM work ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing work ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
