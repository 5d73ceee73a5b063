// Package profiles holds the named, immutable segmentation/chunking rule
// bundles that the segmenter and chunker are parameterized by.
package profiles

import (
	"regexp"
	"strings"
)

// SceneRules governs how the segmenter finds scene boundaries.
type SceneRules struct {
	BreakOnBlank        bool
	HeadingRegex        *regexp.Regexp
	MinSceneChars       int
	MaxSceneChars       int
	HeadingConsumesLine bool
	ExtraSplitRegexes   []*regexp.Regexp
	IgnoreFencedCode    bool
	FenceOpenRegex      *regexp.Regexp
	FenceCloseRegex     *regexp.Regexp
}

// ChunkRules governs the chunker's sliding window.
type ChunkRules struct {
	WindowChars int
	StrideChars int
}

// Profile is a named immutable bundle of SceneRules and ChunkRules.
type Profile struct {
	Name  string
	Scene SceneRules
	Chunk ChunkRules
}

var registry map[string]Profile

func re(pat string) *regexp.Regexp {
	return regexp.MustCompile("(?m)" + pat)
}

func init() {
	registry = map[string]Profile{
		"default": {
			Name: "default",
			Scene: SceneRules{
				BreakOnBlank:  true,
				MinSceneChars: 40,
				MaxSceneChars: 100_000,
			},
			Chunk: ChunkRules{WindowChars: 512, StrideChars: 384},
		},
		"dense": {
			Name: "dense",
			Scene: SceneRules{
				BreakOnBlank:  true,
				MinSceneChars: 20,
				MaxSceneChars: 100_000,
			},
			Chunk: ChunkRules{WindowChars: 384, StrideChars: 256},
		},
		"sparse": {
			Name: "sparse",
			Scene: SceneRules{
				BreakOnBlank:  true,
				MinSceneChars: 80,
				MaxSceneChars: 100_000,
			},
			Chunk: ChunkRules{WindowChars: 1024, StrideChars: 768},
		},
		"markdown": {
			Name: "markdown",
			Scene: SceneRules{
				BreakOnBlank:        false,
				HeadingRegex:        re(`^\s*#{1,6}\s+.+$`),
				MinSceneChars:       1,
				MaxSceneChars:       100_000,
				HeadingConsumesLine: false,
				IgnoreFencedCode:    true,
				FenceOpenRegex:      re("^\\s*(```|~~~)"),
				FenceCloseRegex:     re("^\\s*(```|~~~)\\s*$"),
			},
			Chunk: ChunkRules{WindowChars: 512, StrideChars: 384},
		},
		"screenplay": {
			Name: "screenplay",
			Scene: SceneRules{
				BreakOnBlank:        true,
				HeadingRegex:        re(`^\s*(INT\.|EXT\.|EST\.|INT/EXT\.)\s+.+$`),
				MinSceneChars:       5,
				MaxSceneChars:       100_000,
				HeadingConsumesLine: true,
				ExtraSplitRegexes: []*regexp.Regexp{
					re(`^\s{0,20}[A-Z][A-Z0-9 .'\-()]{2,}$`),
					re(`^\s*(CUT TO:|FADE (IN|OUT):|DISSOLVE TO:)\s*$`),
				},
			},
			Chunk: ChunkRules{WindowChars: 512, StrideChars: 384},
		},
		"pdf_pages": {
			Name: "pdf_pages",
			Scene: SceneRules{
				BreakOnBlank:        false,
				HeadingRegex:        re(`^\s*\[\[PAGE_BREAK\]\]\s*$`),
				MinSceneChars:       1,
				MaxSceneChars:       100_000,
				HeadingConsumesLine: true,
			},
			Chunk: ChunkRules{WindowChars: 512, StrideChars: 384},
		},
	}
}

// Get returns the named profile, case-insensitively, falling back to
// "default" for an empty or unknown name.
func Get(name string) Profile {
	if name == "" {
		return registry["default"]
	}
	if p, ok := registry[strings.ToLower(name)]; ok {
		return p
	}
	return registry["default"]
}

// Names lists all registered profile names, for the /v1/profiles endpoint.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	return out
}
