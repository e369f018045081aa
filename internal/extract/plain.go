package extract

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// PlainText decodes UTF-8, falling back to Latin-1.
func PlainText(content []byte) (string, bool) {
	if utf8.Valid(content) {
		return string(content), true
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(content)
	if err != nil {
		return "", false
	}
	return string(decoded), true
}
