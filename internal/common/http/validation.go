package http

import (
	"strings"

	"github.com/google/uuid"
)

// ExtractIDParam pulls the trailing path segment after prefix and checks it
// parses as a UUID. Returns ok=false for a missing or malformed segment.
func ExtractIDParam(path, prefix string) (string, bool) {
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}

	id := strings.TrimPrefix(path, prefix)
	if idx := strings.Index(id, "/"); idx != -1 {
		id = id[:idx]
	}
	if id == "" {
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}
