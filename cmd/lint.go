package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/conneroisu/rockplate/internal/config"
	"github.com/conneroisu/rockplate/internal/errors"
	"github.com/conneroisu/rockplate/internal/scope"
	"github.com/conneroisu/rockplate/pkg/rockplate"
)

var lintCmd = &cobra.Command{
	Use:   "lint [template|dir...]",
	Short: "Report references the data or schema cannot satisfy",
	Long: `Lint templates against their schema and runtime data.

Errors are references the data cannot satisfy: rendering would keep them
as written. In strict mode (a schema is present) references the schema does
not define are reported as warnings. Directories are searched for files
with one of the watch extensions.

Examples:
  rockplate lint letter.rp --data order.json
  rockplate lint templates/ --schema schemas/order.json
  rockplate lint templates/ --format json --fail-on-warning`,
	Aliases: []string{"l"},
	RunE:    runLint,
}

var lintFormat string

func init() {
	rootCmd.AddCommand(lintCmd)

	addFormatFlag(lintCmd, &lintFormat, config.FormatText)
	lintCmd.Flags().Bool("positions", true, "resolve line and column of each finding")
	lintCmd.Flags().Bool("fail-on-warning", false, "exit with an error when warnings are reported")
	lintCmd.Flags().IntP("concurrency", "j", 4, "templates linted in parallel")

	bindFlags(lintCmd, map[string]string{
		"format":          "lint.format",
		"positions":       "lint.positions",
		"fail-on-warning": "lint.fail_on_warning",
		"concurrency":     "lint.concurrency",
	})
}

// lintReport is the lint result of one template.
type lintReport struct {
	File   string               `json:"file" yaml:"file"`
	Mode   string               `json:"mode" yaml:"mode"`
	Result rockplate.LintResult `json:"result" yaml:"result"`
}

type lintSummary struct {
	Files    int          `json:"files" yaml:"files"`
	Errors   int          `json:"errors" yaml:"errors"`
	Warnings int          `json:"warnings" yaml:"warnings"`
	Reports  []lintReport `json:"reports" yaml:"reports"`
}

func runLint(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	if len(args) == 0 {
		args = s.cfg.Watch.Paths
	}
	files, err := expandTemplates(args, s.cfg.Watch.Extensions, s.cfg.Watch.Ignore)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No templates found to lint")
		return nil
	}

	data, err := s.data("")
	if err != nil {
		return err
	}

	collector, summary, err := s.lintFiles(ctx, files, data)
	if err != nil {
		return err
	}

	format := s.cfg.Lint.Format
	out := cmd.OutOrStdout()
	if format == config.FormatText {
		outputLintText(out, collector, summary)
	} else if err := writeStructured(out, format, summary); err != nil {
		return err
	}

	if collector.HasErrors() || (s.cfg.Lint.FailOnWarning && collector.HasWarnings()) {
		return errors.NewValidationError(errors.ErrCodeLint,
			fmt.Sprintf("lint failed: %d error(s), %d warning(s)", summary.Errors+len(collector.Errors()), summary.Warnings))
	}
	return nil
}

func outputLintText(w io.Writer, collector *errors.Collector, summary lintSummary) {
	for _, err := range collector.Errors() {
		fmt.Fprintf(w, "error: %v\n", err)
	}
	for _, p := range collector.Problems() {
		fmt.Fprintln(w, p.Error())
	}
	fmt.Fprintf(w, "%d file(s) linted, %d error(s), %d warning(s)\n",
		summary.Files, summary.Errors+len(collector.Errors()), summary.Warnings)
}

// lintFiles lints files in parallel against data, at most
// lint.concurrency at a time.
func (s *session) lintFiles(ctx context.Context, files []string, data scope.Scope) (*errors.Collector, lintSummary, error) {
	collector := errors.NewCollector()
	reports := make([]lintReport, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Lint.Concurrency)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			engine, err := s.engine(gctx, file)
			if err != nil {
				collector.AddError(err)
				return nil
			}
			res := engine.Lint(data)
			reports[i] = lintReport{File: file, Mode: engine.Tree().Mode(), Result: res}
			for _, d := range res.Diagnostics {
				collector.Add(errors.Problem{
					File:     file,
					Line:     d.Position.Begin.Line,
					Column:   d.Position.Begin.Column,
					Severity: d.Severity,
					Message:  d.Message,
				})
			}
			s.log.Debug(gctx, "Template linted", "template", file, "diagnostics", len(res.Diagnostics))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, lintSummary{}, err
	}

	summary := lintSummary{Files: len(files)}
	for _, r := range reports {
		if r.File != "" {
			summary.Reports = append(summary.Reports, r)
		}
	}
	for _, p := range collector.Problems() {
		if p.Severity == errors.SeverityError {
			summary.Errors++
		} else {
			summary.Warnings++
		}
	}
	return collector, summary, nil
}
