package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"github.com/ljramones/lore-ingest-go/internal/domain"
)

// WorkStore is the transactional read/write surface over work/scene/chunk/
// ingest_run. Grounded on internal/adapters/driven/postgres/document_store.go's
// scan pattern, adapted from Postgres upsert semantics to the spec's
// insert-only-with-precheck idempotency model, and on
// lore_ingest/persist.py for the exact dedup/insert/scene-resolution logic.
type WorkStore struct {
	db *DB
}

func NewWorkStore(db *DB) *WorkStore {
	return &WorkStore{db: db}
}

// Ping proves the underlying database is writable, for GET /v1/readyz.
func (s *WorkStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// FindExistingWorkByDigest returns the id of a Work already stored with
// contentSHA1, or "" if none exists. Mirrors
// find_existing_work_by_digest_or_text's fast path (digest lookup).
func (s *WorkStore) FindExistingWorkByDigest(ctx context.Context, contentSHA1 string) (string, error) {
	if contentSHA1 == "" {
		return "", nil
	}
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM work WHERE content_sha1 = ?`, contentSHA1).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("looking up work by digest: %w", err)
	}
	return id, nil
}

// FindExistingWorkByNormText is the optional fallback exact-match lookup
// used when no digest is available.
func (s *WorkStore) FindExistingWorkByNormText(ctx context.Context, normText string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM work WHERE norm_text = ? LIMIT 1`, normText).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("looking up work by norm_text: %w", err)
	}
	return id, nil
}

// Sizes recomputes {chars, scenes, chunks} for an existing work, used on the
// idempotency-hit fast path. Mirrors _sizes_for_work.
func (s *WorkStore) Sizes(ctx context.Context, workID string) (domain.Sizes, error) {
	var sizes domain.Sizes
	var chars sql.NullInt64
	if err := s.db.QueryRowContext(ctx,
		`SELECT char_count FROM work WHERE id = ?`, workID).Scan(&chars); err != nil {
		return sizes, fmt.Errorf("reading char_count: %w", err)
	}
	sizes.Chars = int(chars.Int64)

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM scene WHERE work_id = ?`, workID).Scan(&sizes.Scenes); err != nil {
		return sizes, fmt.Errorf("counting scenes: %w", err)
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chunk WHERE work_id = ?`, workID).Scan(&sizes.Chunks); err != nil {
		return sizes, fmt.Errorf("counting chunks: %w", err)
	}
	return sizes, nil
}

// PersistWorkAndChildren inserts ingest_run, work, scenes, and chunks in a
// single transaction. scene_id resolution for each chunk follows the
// precedence explicit scene_id > scene_idx mapping > span containment
// (here chunks always carry SceneIdx, so only the first two tiers apply).
// Text for each chunk is materialized via a safe, clamped slice of
// normText. Mirrors persist_work_and_children.
func (s *WorkStore) PersistWorkAndChildren(
	ctx context.Context,
	title, author, source, license string,
	rawText []byte,
	normText string,
	scenes []domain.SceneSpan,
	chunks []domain.ChunkSpan,
	contentSHA1 string,
	runParamsJSON string,
) (workID string, err error) {
	workID = uuid.NewString()
	runID := uuid.NewString()

	err = s.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO ingest_run (id, params_json) VALUES (?, ?)`,
			runID, runParamsJSON); err != nil {
			return fmt.Errorf("inserting ingest_run: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO work (id, title, author, source, license, raw_text, norm_text,
				char_count, content_sha1, ingest_run_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			workID, nullIfEmpty(title), nullIfEmpty(author), nullIfEmpty(source), nullIfEmpty(license),
			rawText, normText, len([]rune(normText)), nullIfEmpty(contentSHA1), runID,
		); err != nil {
			return fmt.Errorf("inserting work: %w", err)
		}

		sceneIDs := make([]string, len(scenes))
		for i, sc := range scenes {
			id := uuid.NewString()
			sceneIDs[i] = id
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO scene (id, work_id, idx, char_start, char_end, heading)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				id, workID, sc.Idx, sc.Start, sc.End, nullIfEmpty(sc.Heading),
			); err != nil {
				return fmt.Errorf("inserting scene %d: %w", sc.Idx, err)
			}
		}

		for _, ch := range chunks {
			sceneID := resolveSceneID(ch, scenes, sceneIDs)
			text := ch.Text
			if text == "" {
				text = safeSlice(normText, ch.Start, ch.End)
			}
			sum := sha256.Sum256([]byte(text))
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO chunk (id, work_id, scene_id, idx, char_start, char_end, text, sha256)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				uuid.NewString(), workID, nullIfEmpty(sceneID), ch.Idx, ch.Start, ch.End, text, hex.EncodeToString(sum[:]),
			); err != nil {
				return fmt.Errorf("inserting chunk %d: %w", ch.Idx, err)
			}
		}

		return nil
	})
	if err != nil {
		return "", err
	}
	return workID, nil
}

// ResegmentChildren deletes and re-inserts scene/chunk rows for an existing
// work, leaving the work row untouched. Mirrors resegment_work's child
// rewrite.
func (s *WorkStore) ResegmentChildren(ctx context.Context, workID string, scenes []domain.SceneSpan, chunks []domain.ChunkSpan, normText string) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM chunk WHERE work_id = ?`, workID); err != nil {
			return fmt.Errorf("deleting chunks: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM scene WHERE work_id = ?`, workID); err != nil {
			return fmt.Errorf("deleting scenes: %w", err)
		}

		sceneIDs := make([]string, len(scenes))
		for i, sc := range scenes {
			id := uuid.NewString()
			sceneIDs[i] = id
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO scene (id, work_id, idx, char_start, char_end, heading)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				id, workID, sc.Idx, sc.Start, sc.End, nullIfEmpty(sc.Heading),
			); err != nil {
				return fmt.Errorf("inserting scene %d: %w", sc.Idx, err)
			}
		}

		for _, ch := range chunks {
			sceneID := resolveSceneID(ch, scenes, sceneIDs)
			text := ch.Text
			if text == "" {
				text = safeSlice(normText, ch.Start, ch.End)
			}
			sum := sha256.Sum256([]byte(text))
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO chunk (id, work_id, scene_id, idx, char_start, char_end, text, sha256)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				uuid.NewString(), workID, nullIfEmpty(sceneID), ch.Idx, ch.Start, ch.End, text, hex.EncodeToString(sum[:]),
			); err != nil {
				return fmt.Errorf("inserting chunk %d: %w", ch.Idx, err)
			}
		}
		return nil
	})
}

// GetNormText loads the stored normalized text for a work, for resegment.
func (s *WorkStore) GetNormText(ctx context.Context, workID string) (string, bool, error) {
	var normText sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT norm_text FROM work WHERE id = ?`, workID).Scan(&normText)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading norm_text: %w", err)
	}
	return normText.String, true, nil
}

// resolveSceneID implements the precedence explicit scene_id > scene_idx
// mapping > span containment. ChunkSpan always carries SceneIdx from the
// chunker, so the span-containment tier is a defensive fallback for
// out-of-range indices.
func resolveSceneID(ch domain.ChunkSpan, scenes []domain.SceneSpan, sceneIDs []string) string {
	if ch.SceneID != "" {
		return ch.SceneID
	}
	if ch.SceneIdx >= 0 && ch.SceneIdx < len(sceneIDs) {
		return sceneIDs[ch.SceneIdx]
	}
	for i, sc := range scenes {
		if sc.Start <= ch.Start && ch.Start < sc.End {
			return sceneIDs[i]
		}
	}
	return ""
}

// safeSlice clamps [start,end) into [0, rune length] and ensures start<=end
// before slicing, per spec.md §9 "Slicing safety". start/end are rune
// offsets (matching char_start/char_end and Work.char_count), not byte
// offsets, so this slices []rune rather than the raw string.
func safeSlice(text string, start, end int) string {
	runes := []rune(text)
	n := len(runes)
	if start < 0 {
		start = 0
	}
	if end > n {
		end = n
	}
	if start > end {
		start = end
	}
	return string(runes[start:end])
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
