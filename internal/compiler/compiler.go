// Package compiler turns template text into a block tree.
//
// Compilation scans one nesting level at a time. Each level is a flat,
// left-to-right search for the leftmost valid directive; the text between
// directives becomes literal blocks, so every level starts and ends with a
// (possibly empty) literal. The bodies of if and repeat blocks are compiled
// as levels of their own, against the body substring. Offsets found during
// the scan are therefore local to that substring; a final depth-first pass
// rewrites every block's range into template coordinates.
//
// A directive whose closing delimiter cannot be found makes the rest of its
// level a single literal. Compilation never fails.
package compiler

import (
	"context"
	"strings"

	"github.com/conneroisu/rockplate/internal/block"
	"github.com/conneroisu/rockplate/internal/logging"
	"github.com/conneroisu/rockplate/internal/scope"
)

// MaxIterations bounds every scanning loop. Reaching it means the input is
// pathological; the unscanned remainder is kept as literal text.
const MaxIterations = 1000

// Option configures a Compiler.
type Option func(*options)

type options struct {
	strict   *bool
	schema   scope.Scope
	logger   logging.Logger
	resolver Resolver
}

// WithStrict forces strict (true) or dynamic (false) recognition. Without it
// a compiler is strict exactly when it has a schema.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = &strict
	}
}

// WithLogger sets the logger used to report degraded directives.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithSchema sets the schema Load uses when the template has no header.
func WithSchema(schema scope.Scope) Option {
	return func(o *options) {
		o.schema = schema
	}
}

// WithResolver sets the collaborator Load uses for schema references.
func WithResolver(r Resolver) Option {
	return func(o *options) {
		o.resolver = r
	}
}

func buildOptions(opts []Option) *options {
	o := &options{logger: logging.Nop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Compiler compiles templates against one schema.
type Compiler struct {
	schema scope.Scope
	strict bool
	log    logging.Logger
}

// New creates a compiler for schema.
func New(schema scope.Scope, opts ...Option) *Compiler {
	o := buildOptions(opts)
	strict := schema != nil
	if o.strict != nil {
		strict = *o.strict
	}
	return &Compiler{
		schema: schema,
		strict: strict,
		log:    o.logger.WithComponent("compiler"),
	}
}

// Strict reports whether directives are recognized against the schema.
func (c *Compiler) Strict() bool {
	return c.strict
}

// Compile compiles template and returns its tree.
func Compile(template string, schema scope.Scope, opts ...Option) *block.Tree {
	return New(schema, opts...).Compile(template)
}

// Compile compiles template and returns its tree.
func (c *Compiler) Compile(template string) *block.Tree {
	blocks := c.level(template, c.schema)
	repairOffsets(blocks, 0)
	return &block.Tree{
		Source:   template,
		Template: template,
		Schema:   c.schema,
		Strict:   c.strict,
		Blocks:   blocks,
	}
}

// Recognize reports whether an opening directive of kind starts at idx,
// using the compiler's schema and mode.
func (c *Compiler) Recognize(tpl string, idx int, kind block.Kind) (Definition, bool) {
	return Recognize(tpl, idx, kind, c.schema, c.strict)
}

// found is a directive located in a level, in level-local offsets.
type found struct {
	def        Definition
	begin      int
	innerBegin int
	innerEnd   int
	end        int
}

// level compiles one nesting level of tpl and recurses into the bodies of
// its if and repeat blocks.
func (c *Compiler) level(tpl string, schema scope.Scope) []block.Block {
	lits := c.literalFactory(schema)
	var blocks []block.Block

	pos := 0
	for i := 0; ; i++ {
		if i >= MaxIterations {
			c.log.Debug(context.Background(), "iteration ceiling reached, keeping remainder as literal",
				"offset", pos)
			blocks = append(blocks, lits(tpl[pos:], pos))
			break
		}
		f, ok := c.findFirst(tpl[pos:], schema)
		if !ok {
			blocks = append(blocks, lits(tpl[pos:], pos))
			break
		}
		blocks = append(blocks, lits(tpl[pos:pos+f.begin], pos))
		blocks = append(blocks, c.container(tpl[pos:], f, pos, schema))
		pos += f.end
	}
	return blocks
}

// container builds the block for a located directive. rest is the level
// text starting at base.
func (c *Compiler) container(rest string, f found, base int, schema scope.Scope) block.Block {
	node := block.Node{
		Span:  block.Span{Begin: base + f.begin, End: base + f.end},
		Raw:   rest[f.begin:f.end],
		Inner: rest[f.innerBegin:f.innerEnd],
		Open:  f.def.Open(),
		Close: f.def.Close(),
	}
	if c.strict {
		node.Scope = schema
	}

	switch f.def.Kind {
	case block.KindIf:
		children := c.level(node.Inner, schema)
		positive, negative := c.splitElse(children, schema)
		return &block.If{
			Node:     node,
			Key:      f.def.Key,
			Operator: f.def.Operator,
			Subkey:   f.def.Subkey,
			Positive: positive,
			Negative: negative,
		}
	case block.KindRepeat:
		return &block.Repeat{
			Node:     node,
			Key:      f.def.Key,
			Children: c.level(node.Inner, scope.MergeForKey(schema, f.def.Key)),
		}
	default:
		return &block.Comment{Node: node}
	}
}

// findFirst locates the leftmost valid directive in tpl. A valid opening
// whose closer is missing yields no directive at all: the caller keeps the
// whole remaining text as a literal.
func (c *Compiler) findFirst(tpl string, schema scope.Scope) (found, bool) {
	best := -1
	var def Definition
	for _, kind := range scanOrder {
		idx := strings.Index(tpl, Prefix(kind))
		if idx == -1 {
			continue
		}
		d, ok := Recognize(tpl, idx, kind, schema, c.strict)
		if !ok {
			continue
		}
		if best == -1 || idx < best {
			best = idx
			def = d
		}
	}
	if best == -1 {
		return found{}, false
	}

	f, ok := c.enclose(tpl, best, def)
	if !ok {
		c.log.Debug(context.Background(), "unterminated directive, keeping level as literal",
			"directive", def.Open(), "offset", best)
	}
	return f, ok
}

// enclose finds the closing delimiter for the directive def opening at idx.
//
// Same-family directives may nest, so the closer is not simply the next
// occurrence. Every opener of the same prefix met before the first closer
// raises the nesting level by one, and the match is the (level+1)-th closer.
func (c *Compiler) enclose(tpl string, idx int, def Definition) (found, bool) {
	open, closer := def.Open(), def.Close()
	offset := idx + len(open)

	if def.Kind == block.KindComment {
		j := strings.Index(tpl[offset:], closer)
		if j == -1 {
			return found{}, false
		}
		return found{
			def:        def,
			begin:      idx,
			innerBegin: offset,
			innerEnd:   offset + j,
			end:        offset + j + len(closer),
		}, true
	}

	prefix := Prefix(def.Kind)
	rest := tpl[offset:]
	level := 0
	for i := 0; ; i++ {
		if i >= MaxIterations {
			return found{}, false
		}
		next := strings.Index(rest, prefix)
		end := strings.Index(rest, closer)
		if end == -1 {
			return found{}, false
		}
		if next == -1 || end < next {
			break
		}
		level++
		rest = rest[next+len(prefix):]
	}

	pos, innerEnd := offset, -1
	for i := 0; i <= level; i++ {
		j := strings.Index(tpl[pos:], closer)
		if j == -1 {
			return found{}, false
		}
		innerEnd = pos + j
		pos = innerEnd + len(closer)
	}
	return found{
		def:        def,
		begin:      idx,
		innerBegin: offset,
		innerEnd:   innerEnd,
		end:        innerEnd + len(closer),
	}, true
}

// splitElse divides the compiled body of an if block at its [else] marker.
// The marker is searched from the end: the last literal holding it is cut
// at its last occurrence. Blocks before the cut form the positive branch,
// blocks after it the negative branch.
func (c *Compiler) splitElse(children []block.Block, schema scope.Scope) (positive, negative []block.Block) {
	at := -1
	for i := len(children) - 1; i >= 0; i-- {
		lit, ok := children[i].(*block.Literal)
		if ok && strings.Contains(lit.Raw, block.ElseMarker) {
			at = i
			break
		}
	}
	if at == -1 {
		return children, nil
	}

	lits := c.literalFactory(schema)
	lit := children[at].(*block.Literal)
	cut := strings.LastIndex(lit.Raw, block.ElseMarker)
	before := lits(lit.Raw[:cut], lit.Begin)
	after := lits(lit.Raw[cut+len(block.ElseMarker):], lit.Begin+cut+len(block.ElseMarker))

	positive = make([]block.Block, 0, at+1)
	positive = append(positive, children[:at]...)
	positive = append(positive, before)

	negative = make([]block.Block, 0, len(children)-at)
	negative = append(negative, after)
	negative = append(negative, children[at+1:]...)
	return positive, negative
}

// literalFactory returns a constructor for literals of one level. In strict
// mode every literal carries the identifiers the level's schema allows.
func (c *Compiler) literalFactory(schema scope.Scope) func(text string, begin int) block.Block {
	if !c.strict {
		return func(text string, begin int) block.Block {
			return &block.Literal{Node: block.Node{
				Span:  block.Span{Begin: begin, End: begin + len(text)},
				Raw:   text,
				Inner: text,
			}}
		}
	}

	var identifiers, arrays []string
	var booleans []scope.Variable
	for _, v := range scope.Variables(schema) {
		switch v.Type {
		case scope.VarArray:
			arrays = append(arrays, v.Key)
			continue
		case scope.VarBoolean:
			booleans = append(booleans, v)
		}
		identifiers = append(identifiers, v.Identifier())
	}
	return func(text string, begin int) block.Block {
		return &block.Literal{
			Node: block.Node{
				Span:  block.Span{Begin: begin, End: begin + len(text)},
				Raw:   text,
				Inner: text,
				Scope: schema,
			},
			Strict:      true,
			Identifiers: identifiers,
			Booleans:    booleans,
			Arrays:      arrays,
		}
	}
}

// repairOffsets assigns template coordinates to blocks laid out from offset
// and returns the offset after the last block. It walks the tree depth-first
// adding delimiter and content lengths, counting the [else] marker between
// the branches of if blocks.
func repairOffsets(blocks []block.Block, offset int) int {
	for _, b := range blocks {
		n := b.Common()
		n.Begin = offset
		switch t := b.(type) {
		case *block.If:
			offset += len(t.Open)
			offset = repairOffsets(t.Positive, offset)
			if len(t.Negative) > 0 {
				offset += len(block.ElseMarker)
				offset = repairOffsets(t.Negative, offset)
			}
			offset += len(t.Close)
		case *block.Repeat:
			offset += len(t.Open)
			offset = repairOffsets(t.Children, offset)
			offset += len(t.Close)
		default:
			offset += len(n.Raw)
		}
		n.End = offset
	}
	return offset
}
