package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"claimintake/internal/extract"
	"claimintake/internal/transport/http/response"
)

const uploadField = "files"

var errPayloadTooLarge = errors.New("upload exceeds size limit")

// readMultipart parses the request under maxBytes and reads every file part
// exactly once. The returned documents are the only copy handlers pass on.
func readMultipart(c *gin.Context, maxBytes int64) (*multipart.Form, []extract.Document, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return nil, nil, errPayloadTooLarge
		}
		return nil, nil, fmt.Errorf("parse multipart form failed: %w", err)
	}

	headers := form.File[uploadField]
	docs := make([]extract.Document, 0, len(headers))
	for _, fh := range headers {
		content, err := readPart(fh)
		if err != nil {
			return nil, nil, err
		}
		docs = append(docs, extract.Document{Filename: cleanFilename(fh.Filename), Content: content})
	}
	return form, docs, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %q failed: %w", fh.Filename, err)
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload %q failed: %w", fh.Filename, err)
	}
	return content, nil
}

func cleanFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "upload"
	}
	return name
}

func formValue(form *multipart.Form, key string) string {
	if form == nil {
		return ""
	}
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

func writeUploadError(c *gin.Context, err error) {
	if errors.Is(err, errPayloadTooLarge) {
		response.Error(c, http.StatusRequestEntityTooLarge, response.CodePayloadTooLarge, err.Error())
		return
	}
	response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid multipart payload")
}
