// Package chunk implements sliding-window chunking constrained to scene
// boundaries. window/stride and the resulting spans are in the same unit
// as the scene spans they walk — runes, per internal/segment. Ported from
// lore_ingest/chunk.py.
package chunk

import (
	"github.com/ljramones/lore-ingest-go/internal/domain"
	"github.com/ljramones/lore-ingest-go/internal/profiles"
)

// Make builds chunk spans for each scene using window W and stride S. If
// window or stride is <= 0, the profile's ChunkRules values are used.
func Make(scenes []domain.SceneSpan, window, stride int, p profiles.Profile) []domain.ChunkSpan {
	w := window
	if w <= 0 {
		w = p.Chunk.WindowChars
	}
	s := stride
	if s <= 0 {
		s = p.Chunk.StrideChars
	}

	var chunks []domain.ChunkSpan
	for _, scene := range scenes {
		start := scene.Start
		for start < scene.End {
			if w <= 0 {
				break
			}
			end := start + w
			if end > scene.End {
				end = scene.End
			}
			if end <= start {
				break
			}
			chunks = append(chunks, domain.ChunkSpan{
				Idx:      len(chunks),
				Start:    start,
				End:      end,
				SceneIdx: scene.Idx,
			})
			if end == scene.End {
				break
			}
			start += s
			if start > scene.End {
				start = scene.End
			}
		}
	}

	if len(chunks) == 0 && len(scenes) > 0 {
		s0 := scenes[0]
		chunks = append(chunks, domain.ChunkSpan{Idx: 0, Start: s0.Start, End: s0.End, SceneIdx: s0.Idx})
	}

	for i := range chunks {
		chunks[i].Idx = i
	}
	return chunks
}
