package parsers

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/ljramones/lore-ingest-go/internal/normalize"
)

// TxtMdParser reads raw bytes and decodes using a best-effort detected
// encoding, replacing undecodable sequences. Ported from
// lore_ingest/parsers/txt_md.py.
type TxtMdParser struct{}

func (p *TxtMdParser) Parse(path string) (*ParseResult, error) {
	raw, err := readFileOrParseError(path)
	if err != nil {
		return nil, err
	}
	enc := normalize.DetectEncoding(raw)
	text := decodeText(raw, enc)

	ext := strings.ToLower(filepath.Ext(path))
	return &ParseResult{
		Raw:  raw,
		Text: text,
		Meta: map[string]any{
			"parser":   "txt_md",
			"encoding": enc,
			"bytes":    len(raw),
			"ext":      ext,
			"filename": filepath.Base(path),
		},
	}, nil
}

// decodeText decodes raw per the detected charset, replacing undecodable
// byte sequences rather than reinterpreting arbitrary bytes as UTF-8.
// Mirrors txt_md.py's raw.decode(enc, errors="replace"): utf-8 input is
// passed through with invalid sequences replaced, and DetectEncoding's
// other candidates (cp1252, ascii, and chardet's single-byte guesses) are
// decoded via the windows-1252 superset table, whose charmap assigns every
// byte 0x00-0xFF a rune (undefined positions already map to the Unicode
// replacement rune).
func decodeText(raw []byte, enc string) string {
	switch strings.ToLower(enc) {
	case "utf-8", "utf8", "":
		return strings.ToValidUTF8(string(raw), "\uFFFD")
	default:
		out, err := charmap.Windows1252.NewDecoder().Bytes(raw)
		if err != nil {
			return strings.ToValidUTF8(string(raw), "\uFFFD")
		}
		return string(out)
	}
}
