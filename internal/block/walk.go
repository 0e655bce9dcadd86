package block

import "strings"

// Walk visits blocks depth-first in template order. Returning false from fn
// skips the children of the visited block.
func Walk(blocks []Block, fn func(b Block, depth int) bool) {
	walk(blocks, 0, fn)
}

func walk(blocks []Block, depth int, fn func(Block, int) bool) {
	for _, b := range blocks {
		if !fn(b, depth) {
			continue
		}
		walk(Children(b), depth+1, fn)
	}
}

// At returns the most specific block whose range contains offset, or nil
// when offset lies outside every block. Offsets on the delimiters of an if
// or repeat block resolve to that block itself.
func At(blocks []Block, offset int) Block {
	for _, b := range blocks {
		if !b.Common().Contains(offset) {
			continue
		}
		if inner := At(Children(b), offset); inner != nil {
			return inner
		}
		return b
	}
	return nil
}

// Serialize writes blocks back to template text, reinserting [else] between
// the branches of if blocks.
func Serialize(blocks []Block) string {
	var sb strings.Builder
	serialize(&sb, blocks)
	return sb.String()
}

func serialize(sb *strings.Builder, blocks []Block) {
	for _, b := range blocks {
		switch t := b.(type) {
		case *If:
			sb.WriteString(t.Open)
			serialize(sb, t.Positive)
			if len(t.Negative) > 0 {
				sb.WriteString(ElseMarker)
				serialize(sb, t.Negative)
			}
			sb.WriteString(t.Close)
		case *Repeat:
			sb.WriteString(t.Open)
			serialize(sb, t.Children)
			sb.WriteString(t.Close)
		default:
			sb.WriteString(b.Common().Raw)
		}
	}
}

// ValidateRoundTrip reports whether serializing blocks reproduces template
// byte for byte.
func ValidateRoundTrip(blocks []Block, template string) bool {
	return Serialize(blocks) == template
}
