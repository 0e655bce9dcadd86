package compiler

import (
	"encoding/json"
	"strings"
	"unicode"

	"github.com/conneroisu/rockplate/internal/scope"
)

// Header is an embedded schema found at the start of a template source.
type Header struct {
	// Schema is the decoded header object. When the object is a reference,
	// Schema holds the reference object itself.
	Schema scope.Scope
	// Ref is set when the header has the form {"schema": "<reference>"}.
	Ref string
	// Len is the number of leading source bytes the header occupies,
	// including one line break that follows it.
	Len int
}

// ExtractHeader looks for a JSON object at the start of source. Only
// whitespace may precede the opening brace. The object ends at the first
// closing brace that makes the prefix valid JSON. When no such object
// exists, ok is false and the whole source is template text.
func ExtractHeader(source string) (h Header, ok bool) {
	start := strings.IndexFunc(source, func(r rune) bool { return !unicode.IsSpace(r) })
	if start == -1 || source[start] != '{' {
		return Header{}, false
	}

	for pos := start + 1; pos < len(source); {
		j := strings.IndexByte(source[pos:], '}')
		if j == -1 {
			break
		}
		end := pos + j + 1

		var obj map[string]any
		if err := json.Unmarshal([]byte(source[start:end]), &obj); err != nil || obj == nil {
			pos = end
			continue
		}

		switch {
		case strings.HasPrefix(source[end:], "\r\n"):
			end += 2
		case strings.HasPrefix(source[end:], "\n"):
			end++
		}
		h = Header{Schema: scope.Scope(obj), Len: end}
		if len(obj) == 1 {
			if ref, isRef := obj["schema"].(string); isRef {
				h.Ref = ref
			}
		}
		return h, true
	}
	return Header{}, false
}
