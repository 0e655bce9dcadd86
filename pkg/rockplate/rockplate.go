package rockplate

import (
	"context"

	"github.com/conneroisu/rockplate/internal/block"
	"github.com/conneroisu/rockplate/internal/compiler"
	"github.com/conneroisu/rockplate/internal/linter"
	"github.com/conneroisu/rockplate/internal/logging"
	"github.com/conneroisu/rockplate/internal/renderer"
	"github.com/conneroisu/rockplate/internal/scope"
)

type (
	// Scope is a schema or a data object.
	Scope = scope.Scope
	// Tree is a compiled template.
	Tree = block.Tree
	// Block is one of *Literal, *Comment, *If or *Repeat.
	Block   = block.Block
	Literal = block.Literal
	Comment = block.Comment
	If      = block.If
	Repeat  = block.Repeat
	Span    = block.Span

	Diagnostic = linter.Diagnostic
	LintResult = linter.Result
	Position   = linter.Position

	// Resolver supplies the schema named by an embedded {"schema": "..."}
	// header.
	Resolver = compiler.Resolver
	// ResolverFunc adapts a function to Resolver.
	ResolverFunc = compiler.ResolverFunc
	// Compilation is a compile that may still be waiting on a Resolver.
	Compilation = compiler.Compilation

	Logger = logging.Logger
)

// Option configures compilation, rendering and linting.
type Option func(*options)

type options struct {
	strict    *bool
	logger    logging.Logger
	resolver  compiler.Resolver
	positions bool
}

// WithStrict forces strict (true) or dynamic (false) mode. By default a
// template is strict exactly when it has a schema.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = &strict
	}
}

// WithLogger sets the logger. Library calls log nothing by default.
func WithLogger(logger Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithResolver sets the resolver for schema references in template headers.
func WithResolver(r Resolver) Option {
	return func(o *options) {
		o.resolver = r
	}
}

// WithoutPositions skips line and column resolution when linting.
func WithoutPositions() Option {
	return func(o *options) {
		o.positions = false
	}
}

func buildOptions(opts []Option) *options {
	o := &options{logger: logging.Nop(), positions: true}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *options) compilerOptions(schema Scope) []compiler.Option {
	out := []compiler.Option{compiler.WithLogger(o.logger), compiler.WithSchema(schema)}
	if o.strict != nil {
		out = append(out, compiler.WithStrict(*o.strict))
	}
	if o.resolver != nil {
		out = append(out, compiler.WithResolver(o.resolver))
	}
	return out
}

func (o *options) linterOptions() []linter.Option {
	out := []linter.Option{linter.WithLogger(o.logger)}
	if o.strict != nil {
		out = append(out, linter.WithStrict(*o.strict))
	}
	if !o.positions {
		out = append(out, linter.WithoutPositions())
	}
	return out
}

// Compile compiles template against an optional schema. It does not look
// for an embedded schema header; use Load for that.
func Compile(template string, schema Scope, opts ...Option) *Tree {
	o := buildOptions(opts)
	return compiler.Compile(template, schema, o.compilerOptions(schema)...)
}

// Load compiles source, honouring an embedded schema header. schema is used
// when source has no header.
func Load(ctx context.Context, source string, schema Scope, opts ...Option) *Compilation {
	o := buildOptions(opts)
	return compiler.Load(ctx, source, o.compilerOptions(schema)...)
}

// Render renders tree against data.
func Render(tree *Tree, data Scope, opts ...Option) string {
	o := buildOptions(opts)
	return renderer.New(renderer.WithLogger(o.logger)).Render(tree, data)
}

// Lint reports the references in tree that data or schema cannot satisfy.
// A nil data lints against the schema itself. The template is re-read
// dynamically so that directives a strict compile kept as text are checked
// too.
func Lint(tree *Tree, schema, data Scope, opts ...Option) LintResult {
	if tree == nil {
		return LintResult{}
	}
	o := buildOptions(opts)
	dynamic := tree
	if tree.Strict {
		dynamic = compiler.Compile(tree.Template, schema, compiler.WithStrict(false), compiler.WithLogger(o.logger))
	}
	return linter.Lint(dynamic, schema, data, o.linterOptions()...)
}

// LintTemplate compiles and lints template in one step.
func LintTemplate(template string, schema, data Scope, opts ...Option) LintResult {
	o := buildOptions(opts)
	return linter.New(template, schema, o.linterOptions()...).Lint(data)
}

// BlockAt returns the most specific block of tree whose range contains
// offset, or nil.
func BlockAt(tree *Tree, offset int) Block {
	if tree == nil {
		return nil
	}
	return block.At(tree.Blocks, offset)
}

// ValidateRoundTrip reports whether tree serializes back to template byte
// for byte.
func ValidateRoundTrip(tree *Tree, template string) bool {
	if tree == nil {
		return template == ""
	}
	return block.ValidateRoundTrip(tree.Blocks, template)
}

// LocateOffset converts a byte offset of template into a line and column.
func LocateOffset(template string, offset int) Position {
	return linter.PositionAt(template, offset)
}
