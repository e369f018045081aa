package extract

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFText reads every page and concatenates whatever text each yields. A
// corrupted document returns "".
func PDFText(content []byte) (out string) {
	if len(content) == 0 {
		return ""
	}
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			out = ""
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return ""
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		b.WriteString(pageText(reader.Page(i)))
	}
	return b.String()
}

func pageText(page pdf.Page) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
		}
	}()
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return text
}
