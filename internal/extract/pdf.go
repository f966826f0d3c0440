package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF reads a job description PDF. Pages without text (scans, cover
// images) are skipped and the rest are joined with newlines.
func extractPDF(content []byte) (string, error) {
	doc, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	n := doc.NumPage()
	var text strings.Builder
	for i := 1; i <= n; i++ {
		p := doc.Page(i)
		if p.V.IsNull() {
			continue
		}
		pageText, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("pdf page %d of %d: %w", i, n, err)
		}
		pageText = strings.TrimSpace(pageText)
		if pageText == "" {
			continue
		}
		if text.Len() > 0 {
			text.WriteByte('\n')
		}
		text.WriteString(pageText)
	}
	return text.String(), nil
}
