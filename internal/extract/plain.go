package extract

import (
	"bytes"
	"errors"
	"strings"
	"unicode/utf8"
)

// ErrBinaryContent is returned when a file read as text contains NUL bytes.
var ErrBinaryContent = errors.New("content is not text")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// extractText reads a plain-text job description. A leading BOM is dropped,
// line endings become \n and invalid UTF-8 becomes U+FFFD.
func extractText(content []byte) (string, error) {
	if bytes.IndexByte(content, 0) >= 0 {
		return "", ErrBinaryContent
	}
	content = bytes.TrimPrefix(content, utf8BOM)
	s := string(content)
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "\ufffd")
	}
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\r", "\n"), nil
}
