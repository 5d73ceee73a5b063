// Package normalize detects a byte stream's encoding and normalizes decoded
// text into an offset-stable form consumed by the segmenter and chunker.
package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gogs/chardet"
)

var (
	newlinesRe = regexp.MustCompile(`\r\n?`)
	nullsRe    = regexp.MustCompile("\x00")
)

// DetectEncoding is a best-effort text encoding guess. Empty input is UTF-8.
// Mirrors lore_ingest/normalize.py: detect_encoding.
func DetectEncoding(raw []byte) string {
	if len(raw) == 0 {
		return "utf-8"
	}
	if result, err := chardet.NewTextDetector().DetectBest(raw); err == nil && result != nil {
		if enc := strings.ToLower(strings.TrimSpace(result.Charset)); enc != "" {
			return enc
		}
	}
	if utf8.Valid(raw) {
		return "utf-8"
	}
	return "cp1252"
}

// Text applies the only two allowed substitutions: CRLF/CR -> LF, and NUL
// removal. No other substitution is permitted — character offsets in the
// result are the durable reference used by scenes and chunks.
func Text(s string) string {
	s = newlinesRe.ReplaceAllString(s, "\n")
	s = nullsRe.ReplaceAllString(s, "")
	return s
}
