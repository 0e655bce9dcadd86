package rockplate

import (
	"context"
	"sync"

	"github.com/conneroisu/rockplate/internal/block"
	"github.com/conneroisu/rockplate/internal/compiler"
	"github.com/conneroisu/rockplate/internal/errors"
	"github.com/conneroisu/rockplate/internal/linter"
	"github.com/conneroisu/rockplate/internal/renderer"
)

// Engine is a template compiled once for many renders. It is safe for
// concurrent use.
type Engine struct {
	tree     *Tree
	schema   Scope
	opts     *options
	renderer *renderer.Renderer

	lintOnce sync.Once
	linter   *linter.Linter
}

// NewEngine compiles template against schema.
func NewEngine(template string, schema Scope, opts ...Option) *Engine {
	o := buildOptions(opts)
	return newEngine(compiler.Compile(template, schema, o.compilerOptions(schema)...), o)
}

// LoadEngine compiles source, honouring an embedded schema header, and
// waits for a referenced schema to resolve. A resolver failure still yields
// a usable dynamic engine next to the error.
func LoadEngine(ctx context.Context, source string, schema Scope, opts ...Option) (*Engine, error) {
	o := buildOptions(opts)
	tree, err := compiler.Load(ctx, source, o.compilerOptions(schema)...).Wait(ctx)
	if tree == nil {
		return nil, err
	}
	return newEngine(tree, o), err
}

func newEngine(tree *Tree, o *options) *Engine {
	return &Engine{
		tree:     tree,
		schema:   tree.Schema,
		opts:     o,
		renderer: renderer.New(renderer.WithLogger(o.logger)),
	}
}

// Tree returns the compiled tree.
func (e *Engine) Tree() *Tree {
	return e.tree
}

// Schema returns the effective schema, nil in dynamic mode without one.
func (e *Engine) Schema() Scope {
	return e.schema
}

// Strict reports whether the template was compiled strictly.
func (e *Engine) Strict() bool {
	return e.tree.Strict
}

// Render renders the template against data.
func (e *Engine) Render(data Scope) string {
	return e.renderer.Render(e.tree, data)
}

// Lint lints the template against data. A nil data lints the template
// against its own schema.
func (e *Engine) Lint(data Scope) LintResult {
	e.lintOnce.Do(func() {
		e.linter = linter.New(e.tree.Template, e.schema, e.opts.linterOptions()...)
	})
	return e.linter.Lint(data)
}

// BlockAt returns the most specific block containing offset, or nil.
func (e *Engine) BlockAt(offset int) Block {
	return block.At(e.tree.Blocks, offset)
}

// Validate checks that the tree serializes back to the template it was
// compiled from.
func (e *Engine) Validate() error {
	if block.ValidateRoundTrip(e.tree.Blocks, e.tree.Template) {
		return nil
	}
	return errors.NewValidationError(errors.ErrCodeRoundTrip,
		"compiled template does not serialize back to its source")
}
