package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeForKey(t *testing.T) {
	params := Scope{
		"hello": "world",
		"items": []any{
			map[string]any{"item": map[string]any{"name": "cool"}},
		},
	}

	t.Run("merges first element of array", func(t *testing.T) {
		merged := MergeForKey(params, "items")
		assert.Equal(t, "world", merged["hello"])
		_, isArray := merged.Array("items")
		assert.True(t, isArray)
		assert.Contains(t, merged, "item")
		assert.NotContains(t, params, "item", "parent must not be modified")
	})

	t.Run("unknown key is a no-op", func(t *testing.T) {
		merged := MergeForKey(params, "missing")
		assert.Equal(t, params, merged)
		assert.NotContains(t, merged, "item")
	})

	t.Run("empty array is a no-op", func(t *testing.T) {
		p := Scope{"items": []any{}}
		assert.Equal(t, p, MergeForKey(p, "items"))
	})

	t.Run("nil parent", func(t *testing.T) {
		assert.Nil(t, MergeForKey(nil, "items"))
	})
}

func TestMerge(t *testing.T) {
	parent := Scope{"a": 1, "b": 2}
	child := map[string]any{"b": 3, "c": 4}

	merged := Merge(parent, child)
	assert.Equal(t, Scope{"a": 1, "b": 3, "c": 4}, merged)
	assert.Equal(t, Scope{"a": 1, "b": 2}, parent)

	assert.Equal(t, merged, Merge(merged, child), "merging the same child twice changes nothing")
	assert.Equal(t, parent, Merge(parent, nil))
	assert.Equal(t, parent, MergeElement(parent, "not an object"))
}

func TestOwnKeyLookups(t *testing.T) {
	s := Scope{
		"my":    map[string]any{"name": "X", "pro": true},
		"typed": map[string]string{"name": "Y"},
		"list":  []map[string]any{{"a": 1}},
	}

	v, ok := s.Field("my", "name")
	require.True(t, ok)
	assert.Equal(t, "X", v)

	b, ok := s.Bool("my", "pro")
	assert.True(t, ok)
	assert.True(t, b)

	_, ok = s.Bool("my", "name")
	assert.False(t, ok, "strings are not booleans")

	v, ok = s.Field("typed", "name")
	require.True(t, ok)
	assert.Equal(t, "Y", v)

	arr, ok := s.Array("list")
	require.True(t, ok)
	assert.Len(t, arr, 1)

	_, ok = s.Field("missing", "name")
	assert.False(t, ok)
	_, ok = Scope(nil).Lookup("my")
	assert.False(t, ok)
	_, ok = AsArray("string")
	assert.False(t, ok)
}

func TestVariables(t *testing.T) {
	schema := Scope{
		"brand":   map[string]any{"name": "My Brand"},
		"items":   []any{map[string]any{"item": map[string]any{"name": "x"}}},
		"order":   map[string]any{"paid": true, "total": "$1"},
		"ignored": "yes",
	}

	assert.Equal(t, []Variable{
		{Key: "brand", Subkey: "name", Type: VarIdentifier},
		{Key: "items", Type: VarArray},
		{Key: "order", Subkey: "paid", Type: VarBoolean},
		{Key: "order", Subkey: "total", Type: VarIdentifier},
	}, Variables(schema))

	ids := Identifiers(schema)
	assert.Equal(t, []string{"brand name", "order paid", "order total"}, ids)
	assert.True(t, IsValidIdentifier(ids, "order paid"))
	assert.False(t, IsValidIdentifier(ids, "items"))
}

func TestStringify(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"text", "text"},
		{true, "true"},
		{float64(100), "100"},
		{1.5, "1.5"},
		{42, "42"},
		{nil, "null"},
		{[]any{"a", 1.0, nil}, "a,1,"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Stringify(tt.in))
	}
}
