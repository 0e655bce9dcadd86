package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{name: "relative file", path: "templates/welcome.rp", want: "templates/welcome.rp"},
		{name: "dot prefix", path: "./schemas/order.json", want: "schemas/order.json"},
		{name: "absolute", path: "/srv/mail/data.yaml", want: "/srv/mail/data.yaml"},
		{name: "dots inside a name", path: "file..name.json", want: "file..name.json"},
		{name: "repeated separators", path: "templates//mail/./a.rp", want: "templates/mail/a.rp"},
		{name: "inner parent that cleans away", path: "a/b/../c.rp", wantErr: true},
		{name: "parent segment between names", path: "m/../k", wantErr: true},
		{name: "trailing parent segment", path: "schemas/..", wantErr: true},
		{name: "backslash parent segment", path: "..\\windows", wantErr: true},
		{name: "empty", path: "", wantErr: true},
		{name: "leading traversal", path: "../secret", wantErr: true},
		{name: "traversal past root of relative path", path: "a/../../b", wantErr: true},
		{name: "semicolon", path: "data;rm -rf", wantErr: true},
		{name: "command substitution", path: "$(whoami)", wantErr: true},
		{name: "pipe", path: "a|b", wantErr: true},
		{name: "backtick", path: "a`id`", wantErr: true},
		{name: "quote", path: "it's.rp", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CleanPath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Error(t, ValidatePath(tt.path))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, ValidatePath(tt.path))
		})
	}
}

func TestHasParentSegment(t *testing.T) {
	assert.True(t, HasParentSegment("../a"))
	assert.True(t, HasParentSegment("a/../b"))
	assert.True(t, HasParentSegment("a\\..\\b"))
	assert.True(t, HasParentSegment("a/.."))
	assert.False(t, HasParentSegment("a/..b/c"))
	assert.False(t, HasParentSegment("file..name.json"))
	assert.False(t, HasParentSegment("./a/./b"))
}

func BenchmarkValidatePath(b *testing.B) {
	for n := 0; n < b.N; n++ {
		_ = ValidatePath("templates/mail/welcome.rp")
	}
}
