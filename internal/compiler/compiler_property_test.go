//go:build property
// +build property

package compiler

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/conneroisu/rockplate/internal/block"
	"github.com/conneroisu/rockplate/internal/scope"
)

var propertySchema = scope.Scope{
	"a":  map[string]any{"b": true, "c": "text"},
	"xs": []any{map[string]any{"x": map[string]any{"v": 1}}},
}

// genTemplate builds templates from directive fragments, balanced or not.
func genTemplate() gopter.Gen {
	fragments := []any{
		"[if a is b]", "[if a is not b]", "[if a are c]", "[else]", "[end if]",
		"[repeat xs]", "[repeat ys]", "[end repeat]",
		"[--", "--]", "[-- note --]",
		"[a c]", "[x v]", "[a", "]", "[", "text ", "\n", "\r\n", "é",
	}
	return gen.SliceOfN(12, gen.OneConstOf(fragments...)).Map(func(parts []string) string {
		var sb strings.Builder
		for _, p := range parts {
			sb.WriteString(p)
		}
		return sb.String()
	})
}

func TestCompilerProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	modes := map[string]*Compiler{
		"strict":  New(propertySchema),
		"dynamic": New(nil),
	}

	for name, c := range modes {
		properties.Property(name+" trees serialize back to the template", prop.ForAll(
			func(tpl string) bool {
				return block.ValidateRoundTrip(c.Compile(tpl).Blocks, tpl)
			},
			genTemplate(),
		))

		properties.Property(name+" top-level spans tile the template", prop.ForAll(
			func(tpl string) bool {
				blocks := c.Compile(tpl).Blocks
				if len(blocks) == 0 {
					return tpl == ""
				}
				pos := 0
				for _, b := range blocks {
					if b.Common().Begin != pos {
						return false
					}
					pos = b.Common().End
				}
				return pos == len(tpl)
			},
			genTemplate(),
		))

		properties.Property(name+" every block spans its raw text", prop.ForAll(
			func(tpl string) bool {
				ok := true
				block.Walk(c.Compile(tpl).Blocks, func(b block.Block, _ int) bool {
					n := b.Common()
					if n.Begin < 0 || n.End > len(tpl) || tpl[n.Begin:n.End] != n.Raw {
						ok = false
					}
					return ok
				})
				return ok
			},
			genTemplate(),
		))
	}

	properties.Property("text without brackets is one literal", prop.ForAll(
		func(text string) bool {
			blocks := Compile(text, nil).Blocks
			return len(blocks) == 1 && blocks[0].Kind() == block.KindLiteral && blocks[0].Common().Raw == text
		},
		gen.RegexMatch(`^[a-z \n]{0,40}$`),
	))

	properties.TestingRun(t)
}
