package compiler

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/rockplate/internal/block"
	"github.com/conneroisu/rockplate/internal/errors"
	"github.com/conneroisu/rockplate/internal/scope"
)

func TestExtractHeader(t *testing.T) {
	tests := []struct {
		name   string
		source string
		found  bool
		ref    string
		length int
		keys   []string
	}{
		{
			name:   "inline schema",
			source: "{\"user\": {\"name\": \"x\"}}\nHi [user name]",
			found:  true,
			length: 24,
			keys:   []string{"user"},
		},
		{
			name:   "reference with CRLF",
			source: "  {\"schema\": \"letters/order\"}\r\nBody",
			found:  true,
			ref:    "letters/order",
			length: 31,
			keys:   []string{"schema"},
		},
		{
			name:   "schema key with other keys is inline",
			source: `{"schema": "a", "b": {"c": true}}rest`,
			found:  true,
			length: 33,
			keys:   []string{"b", "schema"},
		},
		{
			name:   "braces inside strings",
			source: `{"a": {"b": "}"}}tail`,
			found:  true,
			length: 17,
			keys:   []string{"a"},
		},
		{
			name:   "text before brace",
			source: `Hello {"a": {"b": true}}`,
		},
		{
			name:   "unbalanced",
			source: `{"a": {"b": true}`,
		},
		{
			name:   "not an object",
			source: `{nope}`,
		},
		{
			name: "empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, ok := ExtractHeader(tt.source)
			assert.Equal(t, tt.found, ok)
			if !tt.found {
				return
			}
			assert.Equal(t, tt.ref, h.Ref)
			assert.Equal(t, tt.length, h.Len)
			assert.Equal(t, tt.keys, h.Schema.Keys())
		})
	}
}

func TestLoadWithoutHeader(t *testing.T) {
	schema := scope.Scope{"myself": map[string]any{"pro": true}}
	c := Load(context.Background(), "I am [if myself is pro]pro[end if]", WithSchema(schema))
	require.True(t, c.Ready())

	tree, err := c.Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, tree.Strict)
	assert.Len(t, tree.Blocks, 3)
	assert.Zero(t, tree.HeaderLen)
}

func TestLoadInlineHeader(t *testing.T) {
	source := "{\"myself\": {\"pro\": true}}\nI am [if myself is pro]pro[end if]"
	tree, err := Load(context.Background(), source).Wait(context.Background())
	require.NoError(t, err)

	assert.Equal(t, source, tree.Source)
	assert.Equal(t, "I am [if myself is pro]pro[end if]", tree.Template)
	assert.Equal(t, len(source)-len(tree.Template), tree.HeaderLen)
	assert.True(t, tree.Strict)
	require.Len(t, tree.Blocks, 3)
	assert.Equal(t, 5, tree.Blocks[1].Common().Begin)
	assert.True(t, block.ValidateRoundTrip(tree.Blocks, tree.Template))
}

func TestLoadDeferredResolver(t *testing.T) {
	release := make(chan struct{})
	resolver := ResolverFunc(func(ctx context.Context, ref string) (scope.Scope, error) {
		<-release
		if ref != "people" {
			return nil, nil
		}
		return scope.Scope{"myself": map[string]any{"pro": true}}, nil
	})

	source := `{"schema": "people"}` + "\n[if myself is pro]pro[end if]"
	c := Load(context.Background(), source, WithResolver(resolver))
	assert.False(t, c.Ready())

	close(release)
	select {
	case <-c.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("compilation did not settle")
	}

	tree, err := c.Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, tree.Strict)
	assert.Contains(t, tree.Schema, "myself")
	require.Len(t, tree.Blocks, 3)
}

type staticResolver map[string]scope.Scope

func (s staticResolver) Resolve(_ context.Context, ref string) (scope.Scope, error) {
	return s[ref], nil
}

func (s staticResolver) ResolveImmediate(ref string) (scope.Scope, bool) {
	schema, ok := s[ref]
	return schema, ok
}

func TestLoadImmediateResolver(t *testing.T) {
	resolver := staticResolver{"people": {"myself": map[string]any{"pro": true}}}

	c := Load(context.Background(), `{"schema":"people"}[if myself is pro]pro[end if]`, WithResolver(resolver))
	require.True(t, c.Ready())
	tree, err := c.Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, tree.Strict)
}

func TestLoadFalsySchemaIsDynamic(t *testing.T) {
	resolver := ResolverFunc(func(context.Context, string) (scope.Scope, error) {
		return nil, nil
	})
	tree, err := Load(context.Background(), `{"schema":"gone"}[if a is b]x[end if]`, WithResolver(resolver)).
		Wait(context.Background())
	require.NoError(t, err)
	assert.False(t, tree.Strict)
	assert.Nil(t, tree.Schema)
	assert.Len(t, tree.Blocks, 3)
}

func TestLoadResolverFailure(t *testing.T) {
	resolver := ResolverFunc(func(context.Context, string) (scope.Scope, error) {
		return nil, stderrors.New("not found")
	})
	tree, err := Load(context.Background(), `{"schema":"gone"}[if a is b]x[end if]`, WithResolver(resolver)).
		Wait(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeResolver))
	require.NotNil(t, tree)
	assert.Equal(t, "dynamic", tree.Mode())
	assert.Len(t, tree.Blocks, 3)
}

func TestLoadWithoutResolver(t *testing.T) {
	tree, err := Load(context.Background(), `{"schema":"people"}text`).Wait(context.Background())
	require.Error(t, err)
	var re *errors.RockplateError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, errors.ErrCodeNoResolver, re.Code)
	assert.Equal(t, "text", tree.Template)
}

func TestWaitHonorsContext(t *testing.T) {
	hold := make(chan struct{})
	defer close(hold)
	resolver := ResolverFunc(func(context.Context, string) (scope.Scope, error) {
		<-hold
		return nil, nil
	})
	c := Load(context.Background(), `{"schema":"slow"}`, WithResolver(resolver))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := c.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
