package storage

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// UploadKey is the object key for a raw upload or manual input of a case.
func UploadKey(tenantID, caseID, filename string) string {
	return fmt.Sprintf("%s/%s/uploads/%s_%s", tenantID, caseID, uuid.NewString(), sanitizeName(filename))
}

// ResponseKey is the object key for a case decision.
func ResponseKey(tenantID, caseID string) string {
	return fmt.Sprintf("%s/%s/response/response_%s.json", tenantID, caseID, caseID)
}

// BaseName returns the last path element of a key.
func BaseName(key string) string {
	return path.Base(key)
}

// FileType classifies a key or filename for download listings.
func FileType(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".pdf"):
		return "pdf"
	case strings.HasSuffix(lower, ".txt"):
		return "text"
	case strings.HasSuffix(lower, ".docx"):
		return "docx"
	case strings.HasSuffix(lower, ".json"):
		return "response_json"
	default:
		return "other"
	}
}

func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	if name == "" || name == "." || name == ".." {
		return "upload"
	}
	return name
}
