package compiler

import (
	"strings"

	"github.com/conneroisu/rockplate/internal/block"
	"github.com/conneroisu/rockplate/internal/scope"
)

// Delimiters of the directive families.
const (
	CommentOpen  = "[--"
	CommentClose = "--]"
	IfPrefix     = "[if "
	IfClose      = "[end if]"
	RepeatPrefix = "[repeat "
	RepeatClose  = "[end repeat]"
)

// scanOrder is the order in which directive prefixes are looked up. The
// leftmost valid occurrence wins, so the order only matters for ties, which
// cannot happen between distinct prefixes.
var scanOrder = []block.Kind{block.KindComment, block.KindIf, block.KindRepeat}

// Prefix returns the opening prefix of a directive kind, empty for literals.
func Prefix(kind block.Kind) string {
	switch kind {
	case block.KindComment:
		return CommentOpen
	case block.KindIf:
		return IfPrefix
	case block.KindRepeat:
		return RepeatPrefix
	}
	return ""
}

// Closer returns the closing delimiter of a directive kind.
func Closer(kind block.Kind) string {
	switch kind {
	case block.KindComment:
		return CommentClose
	case block.KindIf:
		return IfClose
	case block.KindRepeat:
		return RepeatClose
	}
	return ""
}

// Definition is a recognized opening directive.
type Definition struct {
	Kind     block.Kind
	Key      string
	Operator block.Operator
	Subkey   string
}

// Open returns the exact opening delimiter text.
func (d Definition) Open() string {
	switch d.Kind {
	case block.KindIf:
		return IfPrefix + d.Key + " " + string(d.Operator) + " " + d.Subkey + "]"
	case block.KindRepeat:
		return RepeatPrefix + d.Key + "]"
	}
	return Prefix(d.Kind)
}

// Close returns the closing delimiter text.
func (d Definition) Close() string {
	return Closer(d.Kind)
}

// Recognize reports whether an opening directive of kind starts at idx in tpl.
// In strict mode the directive must name a path of schema: an array key for
// repeat, a boolean subkey of an object key for if. In dynamic mode any
// syntactically complete directive is accepted.
func Recognize(tpl string, idx int, kind block.Kind, schema scope.Scope, strict bool) (Definition, bool) {
	if idx < 0 || idx > len(tpl) {
		return Definition{}, false
	}
	switch kind {
	case block.KindComment:
		return Definition{Kind: kind}, true
	case block.KindIf, block.KindRepeat:
	default:
		return Definition{}, false
	}
	if strict {
		return recognizeStrict(tpl[idx:], kind, schema)
	}
	return recognizeDynamic(tpl[idx:], kind)
}

func recognizeDynamic(rest string, kind block.Kind) (Definition, bool) {
	prefix := Prefix(kind)
	if !strings.HasPrefix(rest, prefix) {
		return Definition{}, false
	}
	rest = rest[len(prefix):]
	end := strings.IndexByte(rest, ']')
	if end == -1 {
		return Definition{}, false
	}
	expr := rest[:end]

	if kind == block.KindRepeat {
		return Definition{Kind: kind, Key: expr}, true
	}
	for _, op := range block.Operators {
		sep := " " + string(op) + " "
		i := strings.Index(expr, sep)
		if i == -1 {
			continue
		}
		return Definition{
			Kind:     kind,
			Key:      expr[:i],
			Operator: op,
			Subkey:   expr[i+len(sep):],
		}, true
	}
	return Definition{}, false
}

func recognizeStrict(rest string, kind block.Kind, schema scope.Scope) (Definition, bool) {
	for _, key := range schema.Keys() {
		if kind == block.KindRepeat {
			if _, ok := schema.Array(key); !ok {
				continue
			}
			def := Definition{Kind: kind, Key: key}
			if strings.HasPrefix(rest, def.Open()) {
				return def, true
			}
			continue
		}

		obj, ok := schema.Object(key)
		if !ok {
			continue
		}
		for _, subkey := range scope.SortedKeys(obj) {
			if _, isBool := obj[subkey].(bool); !isBool {
				continue
			}
			for _, op := range block.Operators {
				def := Definition{Kind: kind, Key: key, Operator: op, Subkey: subkey}
				if strings.HasPrefix(rest, def.Open()) {
					return def, true
				}
			}
		}
	}
	return Definition{}, false
}
