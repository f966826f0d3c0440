package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const (
	defaultDocxBody     = "word/document.xml"
	contentTypesPath    = "[Content_Types].xml"
	docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
)

var (
	// wtTag matches <w:t>text</w:t> with any attributes.
	wtTag = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

	// Override elements naming the main part, in either attribute order.
	mainPartRes = []*regexp.Regexp{
		regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"`),
		regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"[^>]+PartName="([^"]+)"`),
	}
)

func readZipEntry(zr *zip.Reader, name string) ([]byte, bool, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, true, err
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		return data, true, err
	}
	return nil, false, nil
}

// docxBodyPath returns the main document part named in [Content_Types].xml, or the default.
func docxBodyPath(zr *zip.Reader) string {
	ct, ok, err := readZipEntry(zr, contentTypesPath)
	if !ok || err != nil {
		return defaultDocxBody
	}
	for _, re := range mainPartRes {
		if m := re.FindSubmatch(ct); len(m) > 1 {
			return strings.TrimPrefix(string(m[1]), "/")
		}
	}
	return defaultDocxBody
}

// extractDOCX joins every <w:t> run of the main document part with spaces.
// Paragraphs often carry attributes such as w:rsidR, so runs are matched directly.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract DOCX: not a zip: %w", err)
	}
	path := docxBodyPath(zr)
	body, ok, err := readZipEntry(zr, path)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: read %s: %w", path, err)
	}
	if !ok {
		return "", fmt.Errorf("extract DOCX: %s not found", path)
	}

	var b strings.Builder
	for _, m := range wtTag.FindAllSubmatch(body, -1) {
		run := strings.TrimSpace(string(m[1]))
		if run == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(run)
	}
	return b.String(), nil
}
