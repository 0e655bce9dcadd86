package rockplate

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/rockplate/internal/errors"
	"github.com/conneroisu/rockplate/internal/testutils"
)

func TestCompileAndRender(t *testing.T) {
	for _, schema := range []Scope{testutils.OrderSchema(), nil} {
		tree := Compile(testutils.OrderTemplate, schema)
		assert.Equal(t, schema != nil, tree.Strict)
		assert.Equal(t, testutils.OrderRendered, Render(tree, testutils.OrderSchema()))
		assert.True(t, ValidateRoundTrip(tree, testutils.OrderTemplate))
	}
}

func TestCompileForcedMode(t *testing.T) {
	tpl := "[if a is b]x[end if]"
	strict := Compile(tpl, nil, WithStrict(true))
	assert.True(t, strict.Strict)
	require.Len(t, strict.Blocks, 1)
	assert.IsType(t, &Literal{}, strict.Blocks[0])

	dynamic := Compile(tpl, Scope{"a": map[string]any{"c": true}}, WithStrict(false))
	assert.False(t, dynamic.Strict)
	require.Len(t, dynamic.Blocks, 3)
	assert.Equal(t, "", dynamic.Blocks[0].Common().Raw)
	assert.IsType(t, &If{}, dynamic.Blocks[1])
	assert.Equal(t, "", dynamic.Blocks[2].Common().Raw)
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("without header uses the given schema", func(t *testing.T) {
		tree, err := Load(ctx, testutils.OrderTemplate, testutils.OrderSchema()).Wait(ctx)
		require.NoError(t, err)
		assert.True(t, tree.Strict)
		assert.Zero(t, tree.HeaderLen)
	})

	t.Run("resolver", func(t *testing.T) {
		var calls int
		var mu sync.Mutex
		resolver := ResolverFunc(func(_ context.Context, ref string) (Scope, error) {
			mu.Lock()
			calls++
			mu.Unlock()
			if ref == "order" {
				return testutils.OrderSchema(), nil
			}
			return nil, stderrors.New("unknown schema")
		})

		tree, err := Load(ctx, `{"schema": "order"}`+"\n"+testutils.OrderTemplate, nil, WithResolver(resolver)).Wait(ctx)
		require.NoError(t, err)
		assert.True(t, tree.Strict)
		assert.Equal(t, testutils.OrderTemplate, tree.Template)

		tree, err = Load(ctx, `{"schema": "nope"}`+"\n"+testutils.OrderTemplate, nil, WithResolver(resolver)).Wait(ctx)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeResolver))
		assert.False(t, tree.Strict)
		assert.Equal(t, testutils.OrderRendered, Render(tree, testutils.OrderSchema()))
		assert.Equal(t, 2, calls)
	})
}

func TestLint(t *testing.T) {
	schema := testutils.OrderSchema()

	strictTree := Compile(testutils.AuditTemplate, schema)
	dynamicTree := Compile(testutils.AuditTemplate, schema, WithStrict(false))

	fromStrict := Lint(strictTree, schema, testutils.AuditData())
	fromDynamic := Lint(dynamicTree, schema, testutils.AuditData())
	fromTemplate := LintTemplate(testutils.AuditTemplate, schema, testutils.AuditData())

	assert.Equal(t, fromTemplate, fromStrict, "a strict tree lints like its template")
	assert.Len(t, fromStrict.Diagnostics, 9)
	assert.Equal(t, fromStrict.Diagnostics, fromDynamic.Diagnostics)

	dynamic := Lint(dynamicTree, schema, testutils.AuditData(), WithStrict(false))
	assert.Len(t, dynamic.Diagnostics, 6)

	noPositions := Lint(strictTree, schema, testutils.AuditData(), WithoutPositions())
	for _, d := range noPositions.Diagnostics {
		assert.Equal(t, 1, d.Position.Begin.Line)
		assert.Zero(t, d.Position.Begin.Column)
	}

	assert.Empty(t, Lint(nil, schema, nil).Diagnostics)
}

func TestBlockAt(t *testing.T) {
	tree := Compile(testutils.OrderTemplate, testutils.OrderSchema())
	for _, b := range tree.Blocks {
		n := b.Common()
		got := BlockAt(tree, n.Begin)
		require.NotNil(t, got)
		assert.Equal(t, n.Begin, got.Common().Begin)
	}
	assert.Nil(t, BlockAt(tree, len(tree.Template)))
	assert.Nil(t, BlockAt(tree, -1))
	assert.Nil(t, BlockAt(nil, 0))
}

func TestValidateRoundTrip(t *testing.T) {
	tree := Compile("[if a is b]x[else]y[end if]", nil)
	assert.True(t, ValidateRoundTrip(tree, "[if a is b]x[else]y[end if]"))
	assert.False(t, ValidateRoundTrip(tree, "[if a is b]x[end if]"))
	assert.True(t, ValidateRoundTrip(nil, ""))
}

func TestLocateOffset(t *testing.T) {
	assert.Equal(t, Position{Line: 2, Column: 1}, LocateOffset("ab\ncd", 4))
}

func TestEngine(t *testing.T) {
	engine := NewEngine(testutils.OrderTemplate, testutils.OrderSchema())
	assert.True(t, engine.Strict())
	assert.NotNil(t, engine.Schema())
	require.NoError(t, engine.Validate())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, testutils.OrderRendered, engine.Render(testutils.OrderSchema()))
			assert.False(t, engine.Lint(nil).HasErrors)
		}()
	}
	wg.Wait()

	res := engine.Lint(Scope{})
	assert.True(t, res.HasWarnings)

	b := engine.BlockAt(engine.Tree().Blocks[1].Common().Begin)
	require.NotNil(t, b)
	assert.Equal(t, "comment", string(b.Kind()))
}

func TestEngineValidateFailure(t *testing.T) {
	engine := NewEngine("[if a is b]x[end if]", nil)
	engine.tree.Template = "changed"
	err := engine.Validate()
	require.Error(t, err)
	var re *errors.RockplateError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, errors.ErrCodeRoundTrip, re.Code)
}

func TestLoadEngine(t *testing.T) {
	ctx := context.Background()

	engine, err := LoadEngine(ctx, `{"customer": {"name": ""}}Hi [customer name]`, nil)
	require.NoError(t, err)
	assert.True(t, engine.Strict())
	assert.Equal(t, "Hi Ada", engine.Render(Scope{"customer": map[string]any{"name": "Ada"}}))

	engine, err = LoadEngine(ctx, `{"schema": "x"}Hi [customer name]`, nil)
	require.Error(t, err)
	require.NotNil(t, engine)
	assert.False(t, engine.Strict())
	assert.Equal(t, "Hi Ada", engine.Render(Scope{"customer": map[string]any{"name": "Ada"}}))
}
