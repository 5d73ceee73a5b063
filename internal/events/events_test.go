package events

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	name string
	mu   sync.Mutex
	got  []map[string]any
	fail error
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Emit(ctx context.Context, payload map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, payload)
	return s.fail
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEmitAsyncFansOutToEverySink(t *testing.T) {
	a := &recordingSink{name: "a"}
	b := &recordingSink{name: "b"}
	mgr := NewManager(discardLogger(), a, b)

	mgr.EmitAsync(map[string]any{"type": "document.ingested"})

	require.Eventually(t, func() bool { return a.count() == 1 && b.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestEmitAsyncSwallowsSinkErrors(t *testing.T) {
	failing := &recordingSink{name: "failing", fail: assert.AnError}
	mgr := NewManager(discardLogger(), failing)

	assert.NotPanics(t, func() {
		mgr.EmitAsync(map[string]any{"type": "document.failed"})
	})
	require.Eventually(t, func() bool { return failing.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestBuildIngestedEventShape(t *testing.T) {
	ev := BuildIngestedEvent("work-1", "story.txt", "Title", "Author", "sha1", "default", "run-1",
		map[string]int{"chars": 5, "scenes": 1, "chunks": 1})

	assert.Equal(t, "document.ingested", ev["type"])
	assert.Equal(t, "work-1", ev["work_id"])
	assert.Equal(t, "run-1", ev["run_id"])
	assert.Equal(t, "Title", ev["title"])
	assert.NotEmpty(t, ev["created_at"])
}

func TestBuildIngestedEventOmitsRunIDWhenEmpty(t *testing.T) {
	ev := BuildIngestedEvent("work-1", "story.txt", "", "", "sha1", "default", "",
		map[string]int{"chars": 5, "scenes": 1, "chunks": 1})

	_, hasRunID := ev["run_id"]
	assert.False(t, hasRunID)
	assert.Nil(t, ev["title"])
}

func TestBuildFailedEventShape(t *testing.T) {
	ev := BuildFailedEvent("story.txt", "", "", "boom", "ingest-json", "default")

	assert.Equal(t, "document.failed", ev["type"])
	assert.Equal(t, "boom", ev["reason"])
	assert.Equal(t, "ingest-json", ev["stage"])
}
