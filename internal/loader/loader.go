// Package loader reads templates and JSON or YAML scopes from disk.
package loader

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/conneroisu/rockplate/internal/errors"
	"github.com/conneroisu/rockplate/internal/scope"
)

// ScopeExtensions lists the file extensions ReadScope understands.
var ScopeExtensions = []string{".json", ".yaml", ".yml"}

// ReadTemplate returns the contents of a template file.
func ReadTemplate(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeReadFile, "failed to read template", err).
			WithLocation(path, 0, 0)
	}
	return string(data), nil
}

// ReadScope reads a JSON or YAML object from path. The format follows the
// file extension; unknown extensions are tried as JSON, then YAML.
func ReadScope(path string) (scope.Scope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeReadFile, "failed to read scope", err).
			WithLocation(path, 0, 0)
	}
	s, err := DecodeScope(data, filepath.Ext(path))
	if err != nil {
		var re *errors.RockplateError
		if errors.As(err, &re) {
			re.WithLocation(path, re.Line, re.Column)
		}
		return nil, err
	}
	return s, nil
}

// DecodeScope decodes an object in the format named by ext.
func DecodeScope(data []byte, ext string) (scope.Scope, error) {
	switch strings.ToLower(ext) {
	case ".json":
		return decodeJSON(data)
	case ".yaml", ".yml":
		return decodeYAML(data)
	}
	if s, err := decodeJSON(data); err == nil {
		return s, nil
	}
	return decodeYAML(data)
}

func decodeJSON(data []byte) (scope.Scope, error) {
	var s scope.Scope
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&s); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeDecode, "invalid JSON object", err)
	}
	if s == nil {
		return nil, errors.NewIOError(errors.ErrCodeDecode, "JSON document is not an object", nil)
	}
	return s, nil
}

func decodeYAML(data []byte) (scope.Scope, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeDecode, "invalid YAML document", err)
	}
	obj, ok := normalize(raw).(map[string]any)
	if !ok {
		return nil, errors.NewIOError(errors.ErrCodeDecode, "YAML document is not a mapping", nil)
	}
	return scope.Scope(obj), nil
}

// normalize converts YAML mappings with non-string keys into string-keyed
// maps so that nested values behave like decoded JSON.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalize(val)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[scope.Stringify(k)] = normalize(val)
		}
		return out
	case []any:
		for i, val := range t {
			t[i] = normalize(val)
		}
		return t
	}
	return v
}
