package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

const docxBody = "word/document.xml"

// maxDocxBody caps the inflated document body at four times the default
// upload limit. Larger bodies are treated as unreadable.
var maxDocxBody int64 = 4 * (20 << 20)

var errDocxTooLarge = errors.New("docx body exceeds size limit")

// DocxText returns the paragraph text of a .docx document, one paragraph per
// line. Unreadable archives yield "".
func DocxText(content []byte) string {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return ""
	}
	for _, f := range zr.File {
		if f.Name != docxBody {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return ""
		}
		defer rc.Close()
		text, err := paragraphs(&capReader{r: rc, left: maxDocxBody})
		if err != nil {
			return ""
		}
		return text
	}
	return ""
}

// capReader fails once more than left bytes have been read, so a truncated
// body is never mistaken for a complete one.
type capReader struct {
	r    io.Reader
	left int64
}

func (c *capReader) Read(p []byte) (int, error) {
	if c.left <= 0 {
		return 0, errDocxTooLarge
	}
	if int64(len(p)) > c.left {
		p = p[:c.left]
	}
	n, err := c.r.Read(p)
	c.left -= int64(n)
	return n, err
}

// paragraphs reports errDocxTooLarge when the cap was hit. Malformed XML
// still yields whatever text was decoded before the error.
func paragraphs(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var (
		b      strings.Builder
		para   strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, errDocxTooLarge) {
			return "", err
		}
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				para.WriteString("\t")
			case "br":
				para.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if para.Len() > 0 {
					b.WriteString(para.String())
					b.WriteString("\n")
					para.Reset()
				}
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	if para.Len() > 0 {
		b.WriteString(para.String())
		b.WriteString("\n")
	}
	return b.String(), nil
}
