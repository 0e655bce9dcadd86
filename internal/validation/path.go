// Package validation checks user-supplied file paths before they reach the
// filesystem.
package validation

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DangerousChars are shell metacharacters rejected in paths.
var DangerousChars = []string{";", "&", "|", "$", "`", "<", ">", "\"", "'"}

// ValidatePath rejects empty paths, paths with a ".." segment anywhere
// and paths containing shell metacharacters.
func ValidatePath(path string) error {
	_, err := CleanPath(path)
	return err
}

// CleanPath validates path and returns its cleaned form.
func CleanPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if HasParentSegment(path) {
		return "", fmt.Errorf("path traversal detected: %s", path)
	}

	for _, char := range DangerousChars {
		if strings.Contains(path, char) {
			return "", fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return filepath.Clean(path), nil
}

// HasParentSegment reports whether path has a ".." element, with either
// slash or backslash as separator. It looks at path as written, so
// "a/../b" counts even though it cleans to "b".
func HasParentSegment(path string) bool {
	parts := strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' })
	for _, part := range parts {
		if part == ".." {
			return true
		}
	}
	return false
}
