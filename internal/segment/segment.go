// Package segment implements the single deterministic, pure scene
// segmentation algorithm: a left-to-right pass over lines that emits
// non-overlapping [start,end) scene spans per a profiles.Profile's rules.
// Spans are counted in runes (Unicode codepoints), matching Python's str
// indexing in lore_ingest/segment.py and Work.char_count/the slice endpoint,
// which are also rune-counted — not raw UTF-8 byte offsets.
//
// Ported line-for-line from lore_ingest/segment.py.
package segment

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ljramones/lore-ingest-go/internal/domain"
	"github.com/ljramones/lore-ingest-go/internal/profiles"
)

// splitLines splits text on "\n", keeping the terminator attached to each
// line (equivalent to Python's str.splitlines(keepends=True) given that
// normalize.Text has already collapsed all line endings to bare "\n").
// Splitting on the single-byte '\n' never lands inside a multi-byte UTF-8
// sequence, so each returned line is a valid, complete substring.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, text[start:i+1])
			start = i + 1
		}
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}

// Scenes applies profile p's SceneRules to text, producing ordered,
// non-overlapping scene spans. Blank boundary lines, consumed heading lines
// and spans suppressed by MinSceneChars fall between scenes and are not
// covered by any span.
func Scenes(text string, p profiles.Profile) []domain.SceneSpan {
	rules := p.Scene
	lines := splitLines(text)

	var scenes []domain.SceneSpan
	pos := 0
	curStart := 0
	inFence := false

	emit := func(endPos int) {
		if endPos <= curStart {
			return
		}
		spanLen := endPos - curStart
		if spanLen < rules.MinSceneChars && len(scenes) > 0 {
			return
		}
		scenes = append(scenes, domain.SceneSpan{
			Idx:   len(scenes),
			Start: curStart,
			End:   endPos,
		})
	}

	for _, line := range lines {
		lineStart := pos
		pos += utf8.RuneCountInString(line)
		trimmed := strings.TrimRight(line, "\r\n")

		// 1. Fence tracking.
		if rules.IgnoreFencedCode {
			if !inFence && rules.FenceOpenRegex != nil && rules.FenceOpenRegex.MatchString(line) {
				inFence = true
			} else if inFence && rules.FenceCloseRegex != nil && rules.FenceCloseRegex.MatchString(line) {
				inFence = false
			}
		}

		// 2. Heading boundary.
		if !inFence && rules.HeadingRegex != nil && rules.HeadingRegex.MatchString(line) {
			if lineStart > curStart {
				emit(lineStart)
			}
			if rules.HeadingConsumesLine {
				curStart = pos
			} else {
				curStart = lineStart
			}
			continue
		}

		// 3. Extra splitters (first match wins).
		if !inFence && matchesAny(rules.ExtraSplitRegexes, line) {
			emit(lineStart)
			curStart = lineStart
			continue
		}

		// 4. Blank-line boundary.
		if rules.BreakOnBlank && !inFence && len(trimmed) == 0 {
			emit(lineStart)
			curStart = pos
			continue
		}
	}

	// The trailing span is kept even when it is shorter than MinSceneChars.
	if pos > curStart {
		scenes = append(scenes, domain.SceneSpan{Idx: len(scenes), Start: curStart, End: pos})
	}
	if len(scenes) == 0 {
		scenes = append(scenes, domain.SceneSpan{Idx: 0, Start: 0, End: utf8.RuneCountInString(text)})
	}
	for i := range scenes {
		scenes[i].Idx = i
	}
	return scenes
}

func matchesAny(res []*regexp.Regexp, line string) bool {
	for _, r := range res {
		if r.MatchString(line) {
			return true
		}
	}
	return false
}
