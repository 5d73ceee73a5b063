// Package parsers implements the per-extension {bytes -> (raw, text, meta)}
// parser registry: an explicit capability table built once at startup,
// mapping lowercased extension to a Parser, per spec.md §9's redesign of the
// source's dynamic-import registration.
package parsers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ljramones/lore-ingest-go/internal/domain"
)

// ParseResult is the output of parsing a single file.
type ParseResult struct {
	Raw  []byte
	Text string
	Meta map[string]any
}

// Parser parses a file at path into a ParseResult.
type Parser interface {
	Parse(path string) (*ParseResult, error)
}

// Registry is an explicit extension -> Parser capability table.
type Registry struct {
	parsers map[string]Parser
}

// DefaultRegistry builds the registry with the built-in txt/md, pdf, and
// docx parsers, per spec.md §4.2.
func DefaultRegistry() *Registry {
	txtmd := &TxtMdParser{}
	return &Registry{
		parsers: map[string]Parser{
			".txt":  txtmd,
			".md":   txtmd,
			".pdf":  &PdfParser{},
			".docx": &DocxParser{},
		},
	}
}

// ForPath resolves the parser for path's extension, or UnsupportedFileType.
func (r *Registry) ForPath(path string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(path))
	p, ok := r.parsers[ext]
	if !ok {
		return nil, domain.NewIngestError(domain.KindUnsupportedFileType, domain.StagePrecheck,
			fmt.Sprintf("no parser registered for extension %q", ext), nil)
	}
	return p, nil
}

// Available lists the registered extensions, for the /v1/parsers endpoint.
func (r *Registry) Available() []string {
	out := make([]string, 0, len(r.parsers))
	for ext := range r.parsers {
		out = append(out, ext)
	}
	return out
}

// Parse resolves and runs the parser for path in one call.
func (r *Registry) Parse(path string) (*ParseResult, error) {
	p, err := r.ForPath(path)
	if err != nil {
		return nil, err
	}
	return p.Parse(path)
}

func readFileOrParseError(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewIngestError(domain.KindParseError, domain.StageParse,
			"reading "+path, err)
	}
	return raw, nil
}
