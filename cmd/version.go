package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/rockplate/internal/config"
	"github.com/conneroisu/rockplate/internal/version"
)

var (
	versionFormat string
	versionShort  bool
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information for rockplate including:

- Semantic version number
- Git commit hash
- Build timestamp
- Go version used for compilation
- Target platform (OS/architecture)

Examples:
  rockplate version              # Show version
  rockplate version --detailed   # Show detailed version info
  rockplate version --format json # Output as JSON`,
	RunE: runVersionCommand,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	addFormatFlag(versionCmd, &versionFormat, config.FormatText)
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Show short version only")
	versionCmd.Flags().Bool("detailed", false, "Show detailed version information")
}

func runVersionCommand(cmd *cobra.Command, _ []string) error {
	if err := validateFormat(versionFormat); err != nil {
		return err
	}
	detailed, _ := cmd.Flags().GetBool("detailed")
	info := version.Get()
	out := cmd.OutOrStdout()

	if versionFormat != config.FormatText {
		return writeStructured(out, versionFormat, struct {
			version.BuildInfo `yaml:",inline"`
			IsRelease         bool `json:"is_release" yaml:"is_release"`
		}{info, info.IsRelease()})
	}

	switch {
	case versionShort:
		fmt.Fprintln(out, info.Short())
	case detailed:
		fmt.Fprintln(out, info.Detailed())
		if info.IsRelease() {
			fmt.Fprintln(out, "Build type: release")
		} else {
			fmt.Fprintln(out, "Build type: development")
		}
	default:
		fmt.Fprintf(out, "rockplate %s\n", info.Short())
	}
	return nil
}
