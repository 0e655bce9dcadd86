// Package linter reports references in a template that the runtime data or
// the schema cannot satisfy.
//
// Templates are always compiled dynamically for linting so that every
// syntactically complete directive is seen, including the ones a strict
// compilation would have degraded to text. Strictness then only decides
// how findings are classified: in strict mode a reference the schema does
// not define is an authoring mistake and reported as a warning, while data
// gaps are errors in either mode.
package linter

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/conneroisu/rockplate/internal/block"
	"github.com/conneroisu/rockplate/internal/compiler"
	"github.com/conneroisu/rockplate/internal/errors"
	"github.com/conneroisu/rockplate/internal/logging"
	"github.com/conneroisu/rockplate/internal/scope"
)

// maxExpressions bounds the bracket expressions scanned in one literal.
const maxExpressions = 10000

// Position is a 1-based line and 0-based byte column.
type Position struct {
	Line   int `json:"line" yaml:"line"`
	Column int `json:"column" yaml:"column"`
}

// Range is the line and column extent of a diagnostic.
type Range struct {
	Begin Position `json:"begin" yaml:"begin"`
	End   Position `json:"end" yaml:"end"`
}

// Diagnostic is one finding.
type Diagnostic struct {
	// Span is the offending byte range of the template.
	Span       block.Span      `json:"offset" yaml:"offset"`
	Position   Range           `json:"position" yaml:"position"`
	Severity   errors.Severity `json:"severity" yaml:"severity"`
	Kind       block.Kind      `json:"blockType" yaml:"blockType"`
	Expression string          `json:"expression" yaml:"expression"`
	Message    string          `json:"message" yaml:"message"`
	Block      block.Block     `json:"-" yaml:"-"`
}

// Result holds the diagnostics of one lint run in template order.
type Result struct {
	Diagnostics []Diagnostic `json:"lints" yaml:"lints"`
	HasErrors   bool         `json:"hasErrors" yaml:"hasErrors"`
	HasWarnings bool         `json:"hasWarnings" yaml:"hasWarnings"`
}

// Errors returns the error-severity diagnostics.
func (r Result) Errors() []Diagnostic {
	return r.filter(errors.SeverityError)
}

// Warnings returns the warning-severity diagnostics.
func (r Result) Warnings() []Diagnostic {
	return r.filter(errors.SeverityWarning)
}

func (r Result) filter(sev errors.Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}

// Option configures a Linter.
type Option func(*options)

type options struct {
	strict    *bool
	positions bool
	logger    logging.Logger
}

// WithStrict forces strict (true) or dynamic (false) classification.
// Without it a linter is strict exactly when it has a schema.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = &strict
	}
}

// WithoutPositions skips line and column resolution. Diagnostics then
// report line 1, column 0.
func WithoutPositions() Option {
	return func(o *options) {
		o.positions = false
	}
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Linter lints one template against an optional schema.
type Linter struct {
	tree      *block.Tree
	schema    scope.Scope
	strict    bool
	positions bool
	log       logging.Logger
}

// New compiles template dynamically and returns a linter for it.
func New(template string, schema scope.Scope, opts ...Option) *Linter {
	o := &options{positions: true, logger: logging.Nop()}
	for _, opt := range opts {
		opt(o)
	}
	tree := compiler.Compile(template, schema, compiler.WithStrict(false), compiler.WithLogger(o.logger))
	return newLinter(tree, schema, o)
}

func newLinter(tree *block.Tree, schema scope.Scope, o *options) *Linter {
	strict := schema != nil
	if o.strict != nil {
		strict = *o.strict
	}
	return &Linter{
		tree:      tree,
		schema:    schema,
		strict:    strict,
		positions: o.positions,
		log:       o.logger.WithComponent("linter"),
	}
}

// Lint lints tree against schema and data. The tree should be compiled
// dynamically; directives a strict compilation degraded to text are not
// checked.
func Lint(tree *block.Tree, schema, data scope.Scope, opts ...Option) Result {
	o := &options{positions: true, logger: logging.Nop()}
	for _, opt := range opts {
		opt(o)
	}
	return newLinter(tree, schema, o).Lint(data)
}

// Strict reports whether schema-illegal references are reported.
func (l *Linter) Strict() bool {
	return l.strict
}

// Tree returns the dynamically compiled tree being linted.
func (l *Linter) Tree() *block.Tree {
	return l.tree
}

// Lint checks the template against data. A nil data scope lints against
// the schema itself, or against an empty scope without a schema.
func (l *Linter) Lint(data scope.Scope) Result {
	schema := l.schema
	if schema == nil {
		schema = scope.Scope{}
	}
	if data == nil {
		data = schema
	}

	op := logging.StartOperation(l.log, "lint")
	w := &walker{strict: l.strict}
	if l.tree != nil {
		w.blocks(l.tree.Blocks, schema, data)
	}

	res := Result{Diagnostics: w.out}
	for i := range res.Diagnostics {
		d := &res.Diagnostics[i]
		switch d.Severity {
		case errors.SeverityError:
			res.HasErrors = true
		case errors.SeverityWarning:
			res.HasWarnings = true
		}
		if l.positions {
			d.Position = Locate(l.tree.Template, d.Span)
		} else {
			d.Position = Range{Begin: Position{Line: 1}, End: Position{Line: 1}}
		}
	}
	op.End(context.Background(), "mode", modeName(l.strict), "diagnostics", len(res.Diagnostics))
	return res
}

func modeName(strict bool) string {
	if strict {
		return "strict"
	}
	return "dynamic"
}

type walker struct {
	strict bool
	out    []Diagnostic
}

func (w *walker) report(b block.Block, span block.Span, sev errors.Severity, expression, message string) {
	w.out = append(w.out, Diagnostic{
		Span:       span,
		Severity:   sev,
		Kind:       b.Kind(),
		Expression: expression,
		Message:    message,
		Block:      b,
	})
}

// severity classifies a finding: schema-illegal findings in strict mode
// are warnings, everything else is an error.
func severity(schemaIllegal bool) errors.Severity {
	if schemaIllegal {
		return errors.SeverityWarning
	}
	return errors.SeverityError
}

func (w *walker) blocks(blocks []block.Block, schema, data scope.Scope) {
	for _, b := range blocks {
		switch t := b.(type) {
		case *block.Literal:
			w.literal(t, schema, data)
		case *block.If:
			w.condition(t, schema, data)
			w.blocks(t.Positive, schema, data)
			w.blocks(t.Negative, schema, data)
		case *block.Repeat:
			w.repeat(t, schema, data)
			w.blocks(t.Children, scope.MergeForKey(schema, t.Key), scope.MergeForKey(data, t.Key))
		}
	}
}

func (w *walker) condition(b *block.If, schema, data scope.Scope) {
	_, inSchema := schema.Bool(b.Key, b.Subkey)
	end := b.Begin + len(b.Open) - 1

	if _, ok := data.Bool(b.Key, b.Subkey); !ok {
		_, keyFound := data.Object(b.Key)
		begin := b.Begin + len(compiler.IfPrefix)
		msg := "Unavailable: "
		if keyFound {
			begin += len(b.Key + " " + string(b.Operator) + " ")
		} else {
			msg += `Object "` + b.Key + `" and `
		}
		msg += `Boolean "` + b.Subkey + `"`

		warn := w.strict && inSchema
		if warn {
			msg = "(STRICT) " + msg
		}
		w.report(b, block.Span{Begin: begin, End: end}, severity(warn), b.Open, msg)
		return
	}

	if w.strict && !inSchema {
		w.report(b, block.Span{Begin: b.Begin + len(compiler.IfPrefix), End: end}, errors.SeverityWarning, b.Open,
			`(STRICT) Illegal: Condition "`+b.Expression()+`"`)
	}
}

func (w *walker) repeat(b *block.Repeat, schema, data scope.Scope) {
	span := block.Span{Begin: b.Begin + len(compiler.RepeatPrefix), End: b.Begin + len(b.Open) - 1}
	_, inSchema := schema.Array(b.Key)

	if _, ok := data.Array(b.Key); !ok {
		if w.strict && inSchema {
			w.report(b, span, errors.SeverityWarning, b.Open, `(STRICT) Unavailable: Array "`+b.Key+`"`)
		} else {
			w.report(b, span, errors.SeverityError, b.Open, `Unavailable: Array "`+b.Key+`"`)
		}
		return
	}
	if w.strict && !inSchema {
		w.report(b, span, errors.SeverityWarning, b.Open, `(STRICT) Illegal: Array "`+b.Key+`"`)
	}
}

// literal checks every [identifier] of a literal. An unterminated bracket
// ends the scan of the literal.
func (w *walker) literal(lit *block.Literal, schema, data scope.Scope) {
	var identifiers []string
	if w.strict {
		identifiers = scope.Identifiers(schema)
	}

	text, offset := lit.Raw, lit.Begin
	for i := 0; i < maxExpressions; i++ {
		open := strings.IndexByte(text, '[')
		if open == -1 {
			return
		}
		end := strings.IndexByte(text[open+1:], ']')
		if end == -1 {
			expr := truncate(text[open:], 10) + "..."
			span := block.Span{Begin: offset + open + 1, End: offset + len(text)}
			w.report(lit, span, errors.SeverityError, expr, `Invalid: Expression "`+expr+`"`)
			return
		}
		end += open + 1

		identifier := text[open+1 : end]
		expr := "[" + identifier + "]"
		span := block.Span{Begin: offset + open + 1}
		span.End = span.Begin + len(identifier)
		offset += end + 1
		text = text[end+1:]

		key, subkeyFound := matchKey(identifier, data)
		known := w.strict && scope.IsValidIdentifier(identifiers, identifier)

		if key != "" && subkeyFound {
			if w.strict && !known {
				w.report(lit, span, errors.SeverityWarning, expr, `(STRICT) Illegal: Identifier "`+identifier+`"`)
			}
			continue
		}
		if known {
			w.report(lit, span, errors.SeverityWarning, expr, `(STRICT) Unavailable: Identifier "`+identifier+`"`)
			continue
		}

		msg := `Unavailable: Identifier "` + identifier + `"`
		if key != "" {
			span.Begin += len(key) + 1
			msg = `Unavailable: Property "` + identifier[len(key)+1:] + `" on Object "` + key + `"`
		}
		w.report(lit, span, errors.SeverityError, expr, msg)
	}
}

// matchKey splits identifier against the keys of data. A key matches when
// identifier starts with the key and a space. The key whose object owns
// the rest of the identifier wins; failing that, the longest matching key
// is returned with subkeyFound false.
func matchKey(identifier string, data scope.Scope) (key string, subkeyFound bool) {
	for _, k := range data.Keys() {
		if !strings.HasPrefix(identifier, k+" ") {
			continue
		}
		if _, ok := data.Field(k, identifier[len(k)+1:]); ok {
			return k, true
		}
		if len(k) > len(key) {
			key = k
		}
	}
	return key, false
}

// truncate shortens s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// PositionAt returns the line and column of offset in template. Line breaks
// are \n, \r\n and a lone \r.
func PositionAt(template string, offset int) Position {
	if offset > len(template) {
		offset = len(template)
	}
	line, start := 1, 0
	for i := 0; i < offset; i++ {
		switch template[i] {
		case '\n':
			line++
			start = i + 1
		case '\r':
			if i+1 < offset && template[i+1] == '\n' {
				i++
			}
			line++
			start = i + 1
		}
	}
	return Position{Line: line, Column: offset - start}
}

// Locate resolves the line and column range of span. Diagnostics never
// span lines, so the end column is the begin column plus the span length.
func Locate(template string, span block.Span) Range {
	begin := PositionAt(template, span.Begin)
	return Range{
		Begin: begin,
		End:   Position{Line: begin.Line, Column: begin.Column + span.Len()},
	}
}
