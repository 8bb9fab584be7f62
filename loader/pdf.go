package loader

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"

	"docindex/types"
)

// PDFLoader extracts text page by page with pdfcpu, recording where each
// page begins so chunks can carry a real page number.
type PDFLoader struct{}

// pdfString matches literal strings in a page content stream next to the
// Tj/TJ show-text operators.
var pdfString = regexp.MustCompile(`\(((?:\\.|[^\\()])*)\)`)

func (PDFLoader) Load(data []byte) (*types.ExtractedDoc, error) {
	conf := api.LoadConfiguration()

	pdfCtx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("%w: read pdf: %v", types.ErrParse, err)
	}
	if err := api.ValidateContext(pdfCtx); err != nil {
		return nil, fmt.Errorf("%w: validate pdf: %v", types.ErrParse, err)
	}

	var sb strings.Builder
	pageStarts := make([]int, 0, pdfCtx.PageCount)
	for page := 1; page <= pdfCtx.PageCount; page++ {
		content, err := pdfcpu.ExtractPageContent(pdfCtx, page)
		if err != nil {
			return nil, fmt.Errorf("%w: extract page %d: %v", types.ErrParse, page, err)
		}
		raw, err := io.ReadAll(content)
		if err != nil {
			return nil, fmt.Errorf("%w: read page %d: %v", types.ErrParse, page, err)
		}

		pageStarts = append(pageStarts, utf8.RuneCountInString(sb.String()))
		sb.WriteString(scrapePageText(raw))
		sb.WriteString("\n\n")
	}

	return &types.ExtractedDoc{
		Text:       sb.String(),
		PageStarts: pageStarts,
	}, nil
}

// scrapePageText pulls the literal strings out of a content stream. This is
// a best-effort extraction: it handles the common uncompressed text
// operators and leaves encoded glyph runs alone.
func scrapePageText(content []byte) string {
	var sb strings.Builder
	for _, line := range bytes.Split(content, []byte("\n")) {
		if !bytes.Contains(line, []byte("Tj")) && !bytes.Contains(line, []byte("TJ")) {
			continue
		}
		for _, m := range pdfString.FindAllSubmatch(line, -1) {
			sb.WriteString(unescapePDFString(string(m[1])))
		}
		sb.WriteString(" ")
	}
	return sb.String()
}

func unescapePDFString(s string) string {
	replacer := strings.NewReplacer(
		`\n`, "\n",
		`\r`, "",
		`\t`, "\t",
		`\(`, "(",
		`\)`, ")",
		`\\`, `\`,
	)
	return replacer.Replace(s)
}
