package chunk

import (
	"testing"

	"github.com/ljramones/lore-ingest-go/internal/domain"
	"github.com/ljramones/lore-ingest-go/internal/profiles"
)

func TestMakeSingleChunkWhenSceneShorterThanWindow(t *testing.T) {
	scenes := []domain.SceneSpan{{Idx: 0, Start: 0, End: 10}}
	chunks := Make(scenes, 512, 384, profiles.Get("default"))
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Start != 0 || chunks[0].End != 10 {
		t.Errorf("expected [0,10), got [%d,%d)", chunks[0].Start, chunks[0].End)
	}
}

func TestMakeChunkCountFormula(t *testing.T) {
	// L=1000, W=512, S=384 -> ceil((1000-512)/384)+1 = ceil(488/384)+1 = 2+1 = 3
	scenes := []domain.SceneSpan{{Idx: 0, Start: 0, End: 1000}}
	chunks := Make(scenes, 512, 384, profiles.Get("default"))
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %+v", len(chunks), chunks)
	}
	for i, c := range chunks {
		if c.Idx != i {
			t.Errorf("chunk %d has idx %d", i, c.Idx)
		}
		if c.Start >= c.End {
			t.Errorf("chunk %d has empty/invalid span [%d,%d)", i, c.Start, c.End)
		}
	}
	if chunks[len(chunks)-1].End != 1000 {
		t.Errorf("last chunk must reach scene end, got %d", chunks[len(chunks)-1].End)
	}
}

func TestMakeStrideGreaterThanWindowLeavesGaps(t *testing.T) {
	scenes := []domain.SceneSpan{{Idx: 0, Start: 0, End: 100}}
	chunks := Make(scenes, 10, 20, profiles.Get("default"))
	for i := 1; i < len(chunks); i++ {
		if chunks[i].Start < chunks[i-1].End {
			t.Errorf("expected non-overlapping chunks when S>W, got overlap at %d", i)
		}
	}
}

func TestMakeNoChunksFallsBackToFirstScene(t *testing.T) {
	scenes := []domain.SceneSpan{{Idx: 0, Start: 5, End: 5}}
	chunks := Make(scenes, 10, 10, profiles.Get("default"))
	if len(chunks) != 1 {
		t.Fatalf("expected fallback single chunk, got %d", len(chunks))
	}
	if chunks[0].Start != 5 || chunks[0].End != 5 {
		t.Errorf("expected [5,5), got [%d,%d)", chunks[0].Start, chunks[0].End)
	}
}
