// Package renderer produces output text from a compiled block tree and a
// data scope.
//
// Rendering never fails. Interpolations that do not resolve are copied to
// the output verbatim, and so are whole if and repeat blocks whose
// condition or array cannot be read from the data.
package renderer

import (
	"context"
	"strings"

	"github.com/conneroisu/rockplate/internal/block"
	"github.com/conneroisu/rockplate/internal/logging"
	"github.com/conneroisu/rockplate/internal/scope"
)

// Renderer renders block trees.
type Renderer struct {
	logger logging.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger that traces fail-open decisions at debug level.
func WithLogger(logger logging.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{logger: logging.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithComponent("renderer")
	return r
}

// Render renders tree against data with a default renderer.
func Render(tree *block.Tree, data scope.Scope) string {
	return New().Render(tree, data)
}

// Render renders tree against data.
func (r *Renderer) Render(tree *block.Tree, data scope.Scope) string {
	if tree == nil {
		return ""
	}
	return r.RenderBlocks(tree.Blocks, data)
}

// RenderBlocks renders a sequence of sibling blocks against data.
func (r *Renderer) RenderBlocks(blocks []block.Block, data scope.Scope) string {
	var sb strings.Builder
	r.render(&sb, blocks, data)
	return sb.String()
}

func (r *Renderer) render(sb *strings.Builder, blocks []block.Block, data scope.Scope) {
	for _, b := range blocks {
		switch t := b.(type) {
		case *block.Comment:
		case *block.Literal:
			r.interpolate(sb, t, data)
		case *block.If:
			r.renderIf(sb, t, data)
		case *block.Repeat:
			r.renderRepeat(sb, t, data)
		}
	}
}

func (r *Renderer) renderIf(sb *strings.Builder, b *block.If, data scope.Scope) {
	value, ok := data.Bool(b.Key, b.Subkey)
	if !ok {
		r.logger.Debug(context.Background(), "condition unavailable, passing block through",
			"condition", b.Expression(), "offset", b.Begin)
		sb.WriteString(b.Raw)
		return
	}
	if value == b.Operator.Expect() {
		r.render(sb, b.Positive, data)
		return
	}
	r.render(sb, b.Negative, data)
}

func (r *Renderer) renderRepeat(sb *strings.Builder, b *block.Repeat, data scope.Scope) {
	elements, ok := data.Array(b.Key)
	if !ok {
		r.logger.Debug(context.Background(), "array unavailable, passing block through",
			"key", b.Key, "offset", b.Begin)
		sb.WriteString(b.Raw)
		return
	}
	for _, elem := range elements {
		r.render(sb, b.Children, scope.MergeElement(data, elem))
	}
}

// interpolate copies the literal text, replacing every [key subkey] whose
// value data holds. Replacement values are never rescanned.
func (r *Renderer) interpolate(sb *strings.Builder, lit *block.Literal, data scope.Scope) {
	text := lit.Raw
	for {
		open := strings.IndexByte(text, '[')
		if open == -1 {
			sb.WriteString(text)
			return
		}
		end := strings.IndexByte(text[open+1:], ']')
		if end == -1 {
			sb.WriteString(text)
			return
		}
		end += open + 1

		sb.WriteString(text[:open])
		value, ok := Resolve(lit, text[open+1:end], data)
		if !ok {
			sb.WriteByte('[')
			text = text[open+1:]
			continue
		}
		sb.WriteString(scope.Stringify(value))
		text = text[end+1:]
	}
}

// Resolve looks identifier up in data. The identifier is split at each
// space in turn into key and subkey; the first split naming an own subkey
// of an own object key wins. Literals compiled in strict mode only resolve
// identifiers their schema allows.
func Resolve(lit *block.Literal, identifier string, data scope.Scope) (any, bool) {
	if lit != nil && lit.Strict && !scope.IsValidIdentifier(lit.Identifiers, identifier) {
		return nil, false
	}
	for i := 0; i < len(identifier); i++ {
		if identifier[i] != ' ' {
			continue
		}
		if v, ok := data.Field(identifier[:i], identifier[i+1:]); ok {
			return v, true
		}
	}
	return nil, false
}
