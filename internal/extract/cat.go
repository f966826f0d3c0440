package extract

import (
	"fmt"
	"os"
	"strings"

	"github.com/lu4p/cat"
)

func isCatFormat(ext string) bool {
	return ext == ".odt" || ext == ".rtf"
}

// extractCatFile reads OpenDocument text and RTF files with lu4p/cat.
// DOCX stays on the w:t reader because cat skips paragraphs that carry attributes.
func extractCatFile(path string) (string, error) {
	text, err := cat.File(path)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", path, err)
	}
	return strings.TrimSpace(text), nil
}

// extractCat spools content to a temp file since cat dispatches on the file extension.
func extractCat(content []byte, ext string) (string, error) {
	f, err := os.CreateTemp("", "suisen-*"+strings.ToLower(ext))
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return extractCatFile(f.Name())
}
