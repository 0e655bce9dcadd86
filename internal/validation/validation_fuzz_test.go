package validation

import (
	"path/filepath"
	"strings"
	"testing"
)

// FuzzPathTraversal checks that accepted paths never hold a ".." element
// and never carry shell metacharacters.
func FuzzPathTraversal(f *testing.F) {
	f.Add("templates/welcome.rp")
	f.Add("../../../etc/passwd")
	f.Add("a/../../b")
	f.Add("..\\..\\windows")
	f.Add("./schemas/./order.json")
	f.Add("data;rm -rf /")
	f.Add("$(id)")
	f.Add("")

	f.Fuzz(func(t *testing.T, path string) {
		if len(path) > 4096 {
			t.Skip("path too long")
		}

		clean, err := CleanPath(path)
		if err != nil {
			return
		}
		if clean != filepath.Clean(path) {
			t.Errorf("CleanPath(%q) = %q, want %q", path, clean, filepath.Clean(path))
		}
		for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
			if part == ".." {
				t.Errorf("accepted traversal: %q", path)
			}
		}
		for _, char := range DangerousChars {
			if strings.Contains(path, char) {
				t.Errorf("accepted dangerous character %q in %q", char, path)
			}
		}
	})
}
