package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/conneroisu/rockplate/internal/config"
	"github.com/conneroisu/rockplate/internal/errors"
)

var validateOutput string

// validateCmd represents the validate command.
var validateCmd = &cobra.Command{
	Use:   "validate [template|dir...]",
	Short: "Check that templates compile and serialize back byte for byte",
	Long: `Validate compiles each template and checks that the block tree
serializes back to the exact source text, header included.

A schema reference that cannot be resolved is reported as well, since the
template then compiles dynamically.

Examples:
  rockplate validate                  # Validate the watch paths
  rockplate validate letter.rp        # Validate one template
  rockplate validate mail/ -f json    # Output results as JSON`,
	RunE: runValidateCommand,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	addFormatFlag(validateCmd, &validateOutput, config.FormatText)
}

// ValidationResult is the outcome for one template.
type ValidationResult struct {
	File   string `json:"file" yaml:"file"`
	Valid  bool   `json:"valid" yaml:"valid"`
	Mode   string `json:"mode,omitempty" yaml:"mode,omitempty"`
	Blocks int    `json:"blocks" yaml:"blocks"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

func runValidateCommand(cmd *cobra.Command, args []string) error {
	if err := validateFormat(validateOutput); err != nil {
		return err
	}
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

	results := make([]ValidationResult, 0, len(files))
	failed := 0
	for _, file := range files {
		result := ValidationResult{File: file}
		engine, err := s.engine(ctx, file)
		if err == nil {
			result.Mode = engine.Tree().Mode()
			result.Blocks = len(engine.Tree().Blocks)
			err = engine.Validate()
		}
		if err != nil {
			result.Error = err.Error()
			failed++
		} else {
			result.Valid = true
		}
		results = append(results, result)
	}

	out := cmd.OutOrStdout()
	if validateOutput == config.FormatText {
		outputValidationText(out, results, failed)
	} else if err := writeStructured(out, validateOutput, results); err != nil {
		return err
	}

	if failed > 0 {
		return errors.NewValidationError(errors.ErrCodeRoundTrip,
			fmt.Sprintf("%d of %d template(s) failed validation", failed, len(results)))
	}
	return nil
}

func outputValidationText(w io.Writer, results []ValidationResult, failed int) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No templates found to validate")
		return
	}
	for _, r := range results {
		if r.Valid {
			fmt.Fprintf(w, "ok    %s (%s, %d blocks)\n", r.File, r.Mode, r.Blocks)
		} else {
			fmt.Fprintf(w, "FAIL  %s: %s\n", r.File, r.Error)
		}
	}
	fmt.Fprintf(w, "\n%d template(s) validated, %d failed\n", len(results), failed)
}
