package app

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const maxConflictAttempts = 1000

// ResolveFilenameConflict returns name unchanged when it is free, otherwise
// "base (n).ext" with the smallest free n. After maxConflictAttempts a random
// suffix is used instead.
func ResolveFilenameConflict(name string, existing []string) string {
	taken := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		taken[e] = struct{}{}
	}
	return resolveName(name, taken)
}

func resolveName(name string, taken map[string]struct{}) string {
	if _, ok := taken[name]; !ok {
		return name
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := 1; n <= maxConflictAttempts; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, n, ext)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
	return fmt.Sprintf("%s (%s)%s", base, uuid.NewString()[:8], ext)
}
