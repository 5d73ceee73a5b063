package parsers

import (
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/ljramones/lore-ingest-go/internal/domain"
)

const pageBreakToken = "[[PAGE_BREAK]]"

// PdfParser extracts text page by page in a single pass, joining pages with
// the PAGE_BREAK sentinel on its own line. Ported from
// lore_ingest/parsers/pdf.py; the Open Question of one- vs two-pass page
// extraction is resolved in favor of one pass (spec.md §9).
type PdfParser struct{}

func (p *PdfParser) Parse(path string) (*ParseResult, error) {
	raw, err := readFileOrParseError(path)
	if err != nil {
		return nil, err
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, domain.NewIngestError(domain.KindParseError, domain.StageParse,
			"opening pdf "+path, err)
	}
	defer f.Close()

	totalPages := r.NumPage()
	pageTexts := make([]string, 0, totalPages)
	for i := 1; i <= totalPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pageTexts = append(pageTexts, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			text = ""
		}
		pageTexts = append(pageTexts, strings.TrimRight(text, " \t\r\n"))
	}

	joined := strings.Join(pageTexts, "\n"+pageBreakToken+"\n")

	return &ParseResult{
		Raw:  raw,
		Text: joined,
		Meta: map[string]any{
			"parser":           "pdf",
			"pages":            totalPages,
			"page_break_token": pageBreakToken,
		},
	}, nil
}
