// Package block defines the compiled form of a template: a tree of typed
// blocks with exact byte ranges into the template they were compiled from.
//
// Block is a closed set of variants. Code consuming a tree switches on the
// concrete type:
//
//	switch b := blk.(type) {
//	case *block.Literal:
//	case *block.Comment:
//	case *block.If:
//	case *block.Repeat:
//	}
//
// Trees are built once by the compiler and never modified afterwards.
package block

import "github.com/conneroisu/rockplate/internal/scope"

// Kind names a block variant.
type Kind string

const (
	KindLiteral Kind = "literal"
	KindComment Kind = "comment"
	KindIf      Kind = "if"
	KindRepeat  Kind = "repeat"
)

// ElseMarker splits the body of an if block into its two branches.
const ElseMarker = "[else]"

// Span is a half-open byte range [Begin, End) into a template.
type Span struct {
	Begin int `json:"begin" yaml:"begin"`
	End   int `json:"end" yaml:"end"`
}

// Len returns the number of bytes covered by s.
func (s Span) Len() int {
	return s.End - s.Begin
}

// Contains reports whether offset lies inside s.
func (s Span) Contains(offset int) bool {
	return offset >= s.Begin && offset < s.End
}

// Node holds the fields shared by every block variant.
type Node struct {
	Span
	// Raw is the exact template text of the block including its delimiters.
	Raw string
	// Inner is the text between the delimiters. It equals Raw for literals.
	Inner string
	// Open and Close are the matched delimiters, empty for literals.
	Open  string
	Close string
	// Scope is the schema visible to the block in strict mode. Informational only.
	Scope scope.Scope
}

// Common returns the shared fields of a block.
func (n *Node) Common() *Node {
	return n
}

// Block is one of *Literal, *Comment, *If or *Repeat.
type Block interface {
	Kind() Kind
	Common() *Node
	sealed()
}

// Literal is plain text, possibly holding [key subkey] interpolations.
type Literal struct {
	Node
	// Strict is set when the literal was compiled against a schema. Only then
	// are Identifiers, Booleans and Arrays meaningful.
	Strict      bool
	Identifiers []string
	Booleans    []scope.Variable
	Arrays      []string
}

// Comment is a [-- ... --] span. It renders to nothing.
type Comment struct {
	Node
}

// If is a conditional block.
type If struct {
	Node
	Key      string
	Operator Operator
	Subkey   string
	// Positive is rendered when the condition holds.
	Positive []Block
	// Negative is rendered otherwise. Empty when the body has no [else].
	Negative []Block
}

// Repeat renders its children once per element of an array.
type Repeat struct {
	Node
	Key      string
	Children []Block
}

func (*Literal) Kind() Kind { return KindLiteral }
func (*Comment) Kind() Kind { return KindComment }
func (*If) Kind() Kind      { return KindIf }
func (*Repeat) Kind() Kind  { return KindRepeat }

func (*Literal) sealed() {}
func (*Comment) sealed() {}
func (*If) sealed()      {}
func (*Repeat) sealed()  {}

// Content returns the literal text.
func (l *Literal) Content() string {
	return l.Raw
}

// Expression returns "key operator subkey" as written between "[if " and "]".
func (b *If) Expression() string {
	return b.Key + " " + string(b.Operator) + " " + b.Subkey
}

// Children returns the direct children of b in template order.
func Children(b Block) []Block {
	switch t := b.(type) {
	case *If:
		out := make([]Block, 0, len(t.Positive)+len(t.Negative))
		out = append(out, t.Positive...)
		return append(out, t.Negative...)
	case *Repeat:
		return t.Children
	}
	return nil
}

// Operator is the comparison of an if block.
type Operator string

const (
	OpIs     Operator = "is"
	OpIsNot  Operator = "is not"
	OpAre    Operator = "are"
	OpAreNot Operator = "are not"
)

// Operators lists the operators in recognition order. Negated forms come
// first so that " is not " is not read as " is " followed by "not ...".
var Operators = []Operator{OpAreNot, OpAre, OpIsNot, OpIs}

// Negated reports whether the condition holds when the value is false.
func (o Operator) Negated() bool {
	return o == OpIsNot || o == OpAreNot
}

// Expect returns the boolean value that satisfies the operator.
func (o Operator) Expect() bool {
	return !o.Negated()
}

// Tree is a compiled template.
type Tree struct {
	// Source is the text handed to the compiler.
	Source string
	// Template is Source without an embedded schema header. All offsets
	// index into Template.
	Template string
	// HeaderLen is the number of leading bytes of Source stripped as header.
	HeaderLen int
	// Schema is the effective schema, nil in dynamic mode without one.
	Schema scope.Scope
	// Strict reports whether directives were recognized against Schema.
	Strict bool
	Blocks []Block
}

// Mode returns "strict" or "dynamic".
func (t *Tree) Mode() string {
	if t.Strict {
		return "strict"
	}
	return "dynamic"
}
