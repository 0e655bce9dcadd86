package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conneroisu/rockplate/internal/block"
	"github.com/conneroisu/rockplate/internal/config"
	"github.com/conneroisu/rockplate/internal/scope"
	"github.com/conneroisu/rockplate/pkg/rockplate"
)

var (
	inspectFormat string
	inspectOffset int
	inspectVars   bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <template>",
	Short: "Show the block tree of a template",
	Long: `Inspect compiles a template and prints its block tree with the byte
range of every block.

With --offset only the innermost block containing that byte offset is
shown, together with its line and column. With --vars the variables the
schema makes available are listed instead.

Examples:
  rockplate inspect letter.rp
  rockplate inspect letter.rp --offset 120
  rockplate inspect letter.rp --vars -f json`,
	Aliases: []string{"i"},
	Args:    cobra.ExactArgs(1),
	RunE:    runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	addFormatFlag(inspectCmd, &inspectFormat, config.FormatText)
	inspectCmd.Flags().IntVar(&inspectOffset, "offset", -1, "show the block at this byte offset")
	inspectCmd.Flags().BoolVar(&inspectVars, "vars", false, "list the variables of the schema")
}

// blockReport describes the block found at an offset.
type blockReport struct {
	Offset   int                `json:"offset" yaml:"offset"`
	Position rockplate.Position `json:"position" yaml:"position"`
	Block    *block.Summary     `json:"block" yaml:"block"`
}

// treeReport describes a compiled template.
type treeReport struct {
	File   string          `json:"file" yaml:"file"`
	Mode   string          `json:"mode" yaml:"mode"`
	Blocks []block.Summary `json:"blocks" yaml:"blocks"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	if err := validateFormat(inspectFormat); err != nil {
		return err
	}
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	engine, err := s.engine(commandContext(cmd), args[0])
	if err != nil {
		return err
	}
	tree := engine.Tree()
	out := cmd.OutOrStdout()

	switch {
	case inspectVars:
		vars := scope.Variables(engine.Schema())
		if inspectFormat != config.FormatText {
			return writeStructured(out, inspectFormat, vars)
		}
		outputVariablesText(out, vars)

	case inspectOffset >= 0:
		report := blockReport{
			Offset:   inspectOffset,
			Position: rockplate.LocateOffset(tree.Template, inspectOffset),
		}
		if b := engine.BlockAt(inspectOffset); b != nil {
			summary := block.Summarize([]block.Block{b})[0]
			report.Block = &summary
		}
		if inspectFormat != config.FormatText {
			return writeStructured(out, inspectFormat, report)
		}
		if report.Block == nil {
			return fmt.Errorf("no block at offset %d", inspectOffset)
		}
		fmt.Fprintf(out, "%d:%d ", report.Position.Line, report.Position.Column)
		writeSummary(out, *report.Block, 0, false)

	default:
		report := treeReport{File: args[0], Mode: tree.Mode(), Blocks: block.Summarize(tree.Blocks)}
		if inspectFormat != config.FormatText {
			return writeStructured(out, inspectFormat, report)
		}
		fmt.Fprintf(out, "%s (%s, %d bytes)\n", report.File, report.Mode, len(tree.Template))
		for _, b := range report.Blocks {
			writeSummary(out, b, 1, true)
		}
	}
	return nil
}

func outputVariablesText(w io.Writer, vars []scope.Variable) {
	if len(vars) == 0 {
		fmt.Fprintln(w, "No variables defined")
		return
	}
	for _, v := range vars {
		fmt.Fprintf(w, "%-10s [%s]\n", v.Type, v.Identifier())
	}
}

// writeSummary prints one line per block, children indented below their
// parent when recursive is set.
func writeSummary(w io.Writer, s block.Summary, depth int, recursive bool) {
	indent := strings.Repeat("  ", depth)
	label := string(s.Kind)
	switch s.Kind {
	case block.KindLiteral, block.KindComment:
		label += " " + strconv.Quote(s.Content)
	default:
		label += " " + s.Open
	}
	fmt.Fprintf(w, "%s%s %d-%d\n", indent, label, s.Span.Begin, s.Span.End)
	if !recursive {
		return
	}
	for _, c := range s.Children {
		writeSummary(w, c, depth+1, true)
	}
	if len(s.Else) > 0 {
		fmt.Fprintf(w, "%s  [else]\n", indent)
		for _, c := range s.Else {
			writeSummary(w, c, depth+1, true)
		}
	}
}
