package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ljramones/lore-ingest-go/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.EnsureSchema(ctx))
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPersistWorkAndChildrenThenRead(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	store := NewWorkStore(db)

	norm := "CHAPTER I\nThe beginning.\n\n\nScene Two\nMore text.\n"
	scenes := []domain.SceneSpan{
		{Idx: 0, Start: 0, End: 24},
		{Idx: 1, Start: 24, End: len(norm)},
	}
	chunks := []domain.ChunkSpan{
		{Idx: 0, Start: 0, End: 24, SceneIdx: 0},
		{Idx: 1, Start: 24, End: len(norm), SceneIdx: 1},
	}

	workID, err := store.PersistWorkAndChildren(ctx, "Title", "Author", "story.txt", "",
		[]byte(norm), norm, scenes, chunks, "deadbeef", `{"profile":"default"}`)
	require.NoError(t, err)
	require.NotEmpty(t, workID)

	sizes, err := store.Sizes(ctx, workID)
	require.NoError(t, err)
	assert.Equal(t, 2, sizes.Scenes)
	assert.Equal(t, 2, sizes.Chunks)
	assert.Equal(t, len([]rune(norm)), sizes.Chars)

	got, err := store.GetWork(ctx, workID)
	require.NoError(t, err)
	assert.Equal(t, "Title", got.Title)
	assert.Equal(t, "deadbeef", got.ContentSHA1)

	gotScenes, err := store.GetScenes(ctx, workID)
	require.NoError(t, err)
	require.Len(t, gotScenes, 2)
	assert.Equal(t, 0, gotScenes[0].Idx)

	gotChunks, err := store.GetChunks(ctx, workID)
	require.NoError(t, err)
	require.Len(t, gotChunks, 2)
}

func TestFindExistingWorkByDigestIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	store := NewWorkStore(db)

	norm := "hello world"
	scenes := []domain.SceneSpan{{Idx: 0, Start: 0, End: len(norm)}}
	chunks := []domain.ChunkSpan{{Idx: 0, Start: 0, End: len(norm), SceneIdx: 0}}

	workID, err := store.PersistWorkAndChildren(ctx, "", "", "x.txt", "",
		[]byte(norm), norm, scenes, chunks, "abc123", "{}")
	require.NoError(t, err)

	found, err := store.FindExistingWorkByDigest(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, workID, found)

	none, err := store.FindExistingWorkByDigest(ctx, "not-there")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestResegmentChildrenReplacesScenesAndChunks(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	store := NewWorkStore(db)

	norm := "one two three four five six seven eight nine ten"
	workID, err := store.PersistWorkAndChildren(ctx, "", "", "x.txt", "",
		[]byte(norm), norm,
		[]domain.SceneSpan{{Idx: 0, Start: 0, End: len(norm)}},
		[]domain.ChunkSpan{{Idx: 0, Start: 0, End: len(norm), SceneIdx: 0}},
		"digest1", "{}")
	require.NoError(t, err)

	newScenes := []domain.SceneSpan{
		{Idx: 0, Start: 0, End: 20},
		{Idx: 1, Start: 20, End: len(norm)},
	}
	newChunks := []domain.ChunkSpan{
		{Idx: 0, Start: 0, End: 10, SceneIdx: 0},
		{Idx: 1, Start: 10, End: 20, SceneIdx: 0},
		{Idx: 2, Start: 20, End: len(norm), SceneIdx: 1},
	}
	require.NoError(t, store.ResegmentChildren(ctx, workID, newScenes, newChunks, norm))

	sizes, err := store.Sizes(ctx, workID)
	require.NoError(t, err)
	assert.Equal(t, 2, sizes.Scenes)
	assert.Equal(t, 3, sizes.Chunks)
}

func TestSafeSliceClampsOutOfRangeBounds(t *testing.T) {
	text := "hello"
	assert.Equal(t, "hello", safeSlice(text, -3, 100))
	assert.Equal(t, "", safeSlice(text, 10, 2))
	assert.Equal(t, "ell", safeSlice(text, 1, 4))
}

func TestResolveSceneIDPrecedence(t *testing.T) {
	scenes := []domain.SceneSpan{{Idx: 0, Start: 0, End: 10}, {Idx: 1, Start: 10, End: 20}}
	ids := []string{"scene-a", "scene-b"}

	explicit := domain.ChunkSpan{SceneID: "explicit-id", SceneIdx: 1}
	assert.Equal(t, "explicit-id", resolveSceneID(explicit, scenes, ids))

	byIdx := domain.ChunkSpan{SceneIdx: 1, Start: 12}
	assert.Equal(t, "scene-b", resolveSceneID(byIdx, scenes, ids))

	bySpan := domain.ChunkSpan{SceneIdx: -1, Start: 5}
	assert.Equal(t, "scene-a", resolveSceneID(bySpan, scenes, ids))
}
