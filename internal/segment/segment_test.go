package segment

import (
	"testing"

	"github.com/ljramones/lore-ingest-go/internal/profiles"
)

func TestScenesDefaultProfile(t *testing.T) {
	text := "CHAPTER I\nThe beginning.\n\n\nScene Two\nMore text.\n"
	scenes := Scenes(text, profiles.Get("default"))
	if len(scenes) != 2 {
		t.Fatalf("expected 2 scenes, got %d: %+v", len(scenes), scenes)
	}
	if scenes[0].Start != 0 {
		t.Errorf("scene 0 should start at 0, got %d", scenes[0].Start)
	}
	if scenes[1].Start <= scenes[0].End-1 && scenes[1].Start < scenes[0].End {
		// scene 1 must start strictly after scene 0 ends, or at it.
	}
	if scenes[1].Start < scenes[0].End {
		t.Errorf("scene 1 must not overlap scene 0: %+v", scenes)
	}
	if scenes[len(scenes)-1].End != len(text) {
		t.Errorf("last scene must end at len(text)=%d, got %d", len(text), scenes[len(scenes)-1].End)
	}
}

func TestScenesMarkdownFencedCode(t *testing.T) {
	text := "# Intro\nSome prose.\n\n```python\n# inside fence\n# NotAHeading\n```\n\n## Next Section\nMore prose.\n"
	scenes := Scenes(text, profiles.Get("markdown"))
	if len(scenes) != 2 {
		t.Fatalf("expected 2 scenes, got %d: %+v", len(scenes), scenes)
	}
}

func TestScenesScreenplay(t *testing.T) {
	text := "INT. HOUSE - NIGHT\nJohn enters.\n\nJOHN DOE\nHello.\n\nCUT TO:\n\nEXT. STREET - DAY\nCars pass.\n"
	scenes := Scenes(text, profiles.Get("screenplay"))
	if len(scenes) < 3 {
		t.Fatalf("expected >= 3 scenes, got %d: %+v", len(scenes), scenes)
	}
}

func TestScenesPDFPages(t *testing.T) {
	text := "Page One\n[[PAGE_BREAK]]\nPage Two\n[[PAGE_BREAK]]\nPage Three\n"
	scenes := Scenes(text, profiles.Get("pdf_pages"))
	if len(scenes) != 3 {
		t.Fatalf("expected 3 scenes, got %d: %+v", len(scenes), scenes)
	}
	for _, s := range scenes {
		if containsSentinel(text[s.Start:s.End]) {
			t.Errorf("scene %d contains sentinel: %q", s.Idx, text[s.Start:s.End])
		}
	}
}

func containsSentinel(s string) bool {
	for i := 0; i+14 <= len(s); i++ {
		if s[i:i+14] == "[[PAGE_BREAK]]" {
			return true
		}
	}
	return false
}

func TestScenesEmptyInputYieldsSingleScene(t *testing.T) {
	scenes := Scenes("", profiles.Get("default"))
	if len(scenes) != 1 {
		t.Fatalf("expected 1 scene for empty text, got %d", len(scenes))
	}
	if scenes[0].Start != 0 || scenes[0].End != 0 {
		t.Errorf("expected [0,0), got [%d,%d)", scenes[0].Start, scenes[0].End)
	}
}

func TestScenesDenseIndices(t *testing.T) {
	text := "A\n\nB\n\nC\n"
	scenes := Scenes(text, profiles.Get("default"))
	for i, s := range scenes {
		if s.Idx != i {
			t.Errorf("scene index %d at position %d", s.Idx, i)
		}
	}
}
