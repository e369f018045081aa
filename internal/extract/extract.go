// Package extract turns uploaded claim documents into plain text.
//
// Extraction never fails a batch: unreadable input degrades to an empty
// string or a placeholder naming the file.
package extract

import (
	"path/filepath"
	"strings"
)

// Document is an upload held in memory. The bytes are read once from the
// request and reused for extraction and storage.
type Document struct {
	Filename string
	Content  []byte
}

// Text extracts the text of a single document. ok is false only when a text
// file could not be decoded at all.
func Text(filename string, content []byte) (text string, ok bool) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return PDFText(content), true
	case ".txt":
		return PlainText(content)
	case ".docx":
		return DocxText(content), true
	default:
		return Placeholder(filename), true
	}
}

// Join extracts every document and concatenates the results in order.
func Join(docs []Document) string {
	var b strings.Builder
	for _, doc := range docs {
		text, ok := Text(doc.Filename, doc.Content)
		if !ok {
			continue
		}
		b.WriteString(text)
	}
	return b.String()
}

// Placeholder stands in for files whose type cannot be read.
func Placeholder(filename string) string {
	return "[unsupported file: " + filepath.Base(filename) + "]\n"
}
