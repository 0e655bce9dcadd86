package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/conneroisu/rockplate/internal/validation"
)

var (
	renderData   string
	renderOutput string
)

var renderCmd = &cobra.Command{
	Use:   "render <template>",
	Short: "Render a template against JSON or YAML data",
	Long: `Render a template and write the result to stdout or a file.

Data comes from --data or the data key of the configuration. Without data
the template is rendered against its schema, which is handy for previews.
Directives the data cannot satisfy are kept as written.

Examples:
  rockplate render letter.rp --data order.json
  rockplate render letter.rp --schema order.schema.yaml
  rockplate render letter.rp -d order.yaml -o letter.txt`,
	Aliases: []string{"r"},
	Args:    cobra.ExactArgs(1),
	RunE:    runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVar(&renderData, "data-file", "", "data file, overrides --data")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "write output to this file instead of stdout")
}

func runRender(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	engine, err := s.engine(ctx, args[0])
	if err != nil {
		return err
	}
	data, err := s.data(renderData)
	if err != nil {
		return err
	}
	if data == nil {
		data = engine.Schema()
	}

	output := engine.Render(data)
	if renderOutput != "" {
		if err := validation.ValidatePath(renderOutput); err != nil {
			return fmt.Errorf("invalid output path: %w", err)
		}
		if err := writeFile(renderOutput, output); err != nil {
			return err
		}
	} else if _, err := io.WriteString(cmd.OutOrStdout(), output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	s.log.Debug(ctx, "Template rendered", "template", args[0], "output", renderOutput)
	return nil
}
