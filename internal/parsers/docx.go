package parsers

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	docx "github.com/fumiama/go-docx"
	"github.com/ljramones/lore-ingest-go/internal/domain"
)

var (
	digitsOnlyRe  = regexp.MustCompile(`^\s*\d+\s*$`)
	pageNRe       = regexp.MustCompile(`(?i)^\s*page\s+\d+\s*$`)
	nOfMRe        = regexp.MustCompile(`^\s*\d+\s*/\s*\d+\s*$`)
	headerFooterR = regexp.MustCompile(`(?i)^\s*(header|footer)\b`)
)

// DocxParser extracts plain text from a .docx file, optionally stripping
// header/footer-like lines when DOCX_STRIP_HF is truthy. Ported from
// lore_ingest/parsers/docx.py.
type DocxParser struct{}

func (p *DocxParser) Parse(path string) (*ParseResult, error) {
	raw, err := readFileOrParseError(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, domain.NewIngestError(domain.KindParseError, domain.StageParse,
			"opening docx "+path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, domain.NewIngestError(domain.KindParseError, domain.StageParse,
			"stat docx "+path, err)
	}

	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return nil, domain.NewIngestError(domain.KindParseError, domain.StageParse,
			"parsing docx "+path, err)
	}

	var lines []string
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		var sb strings.Builder
		for _, run := range para.Runs() {
			sb.WriteString(run.Text.Text)
		}
		lines = append(lines, sb.String())
	}

	if stripHeaderFooterEnabled() {
		lines = stripHeadersFooters(lines)
	}

	text := strings.Join(lines, "\n")
	return &ParseResult{
		Raw:  raw,
		Text: text,
		Meta: map[string]any{
			"parser": "docx",
		},
	}, nil
}

func stripHeaderFooterEnabled() bool {
	v, err := strconv.ParseBool(os.Getenv("DOCX_STRIP_HF"))
	return err == nil && v
}

// stripHeadersFooters drops lines matching the same heuristic as
// lore_ingest/parsers/docx.py's _strip_headers_footers_heuristic: pure
// digits, "Page N", "N/M", or lines beginning with header/footer.
func stripHeadersFooters(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if digitsOnlyRe.MatchString(l) || pageNRe.MatchString(l) || nOfMRe.MatchString(l) || headerFooterR.MatchString(l) {
			continue
		}
		out = append(out, l)
	}
	return out
}
