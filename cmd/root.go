// Package cmd provides the command-line interface for rockplate with
// configuration management supporting multiple configuration sources.
//
// Configuration System:
//
//	The CLI supports flexible configuration through multiple sources with clear precedence:
//	1. Command-line flags (--config, --mode, etc.) - highest priority
//	2. ROCKPLATE_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (ROCKPLATE_MODE, etc.)
//	4. Configuration files (.rockplate.yml) - lowest priority
//
// Environment Variables:
//
//	ROCKPLATE_CONFIG_FILE: Path to custom configuration file
//	ROCKPLATE_MODE: Override the compilation mode
//	ROCKPLATE_LINT_FORMAT: Override the lint output format
//	And more following the ROCKPLATE_<SECTION>_<OPTION> pattern
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/conneroisu/rockplate/internal/config"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rockplate",
	Short: "Compile, render and lint bracket-directive text templates",
	Long: `Rockplate renders plain-text templates such as emails, letters and
notifications from JSON or YAML data.

Directives:
  [customer name]                          Interpolate a key and subkey
  [if order is paid]...[else]...[end if]   Conditional on a boolean
  [repeat items]...[end repeat]            Repeat once per array element
  [-- comment --]                          Removed from output

Quick Start:
  rockplate render letter.rp --data order.json
  rockplate lint templates/ --schema schemas/order.json
  rockplate inspect letter.rp --offset 120
  rockplate watch

A template may start with a JSON schema object, or with {"schema": "name"}
to load schemas/name.json (or .yaml) from the schema directory.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is .rockplate.yml, can also use ROCKPLATE_CONFIG_FILE env var)")
	flags.String("mode", "", "compilation mode (auto, strict, dynamic)")
	flags.String("schema", "", "schema file (JSON or YAML)")
	flags.String("schema-dir", "", "directory holding schemas referenced from template headers")
	flags.StringP("data", "d", "", "data file (JSON or YAML)")
	flags.StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")

	bindFlags(rootCmd, map[string]string{
		"mode":       "mode",
		"schema":     "schema",
		"schema-dir": "schema_dir",
		"data":       "data",
		"log-level":  "log.level",
		"log-format": "log.format",
	})
}

// flagBindings records which viper key each bound flag feeds.
var flagBindings = map[string]*pflag.Flag{}

// bindFlags binds the persistent or local flags of cmd to viper keys.
func bindFlags(cmd *cobra.Command, bindings map[string]string) {
	for flagName, key := range bindings {
		flag := cmd.PersistentFlags().Lookup(flagName)
		if flag == nil {
			flag = cmd.Flags().Lookup(flagName)
		}
		if flag != nil {
			flagBindings[key] = flag
			_ = viper.BindPFlag(key, flag)
		}
	}
}

// rebindFlags restores the flag bindings on v, for instance after
// viper.Reset.
func rebindFlags(v *viper.Viper) {
	for key, flag := range flagBindings {
		_ = v.BindPFlag(key, flag)
	}
}

// initConfig initializes the configuration system with support for multiple config sources.
//
// Configuration Loading Priority (highest to lowest):
//  1. --config flag: Explicitly specified config file path
//  2. ROCKPLATE_CONFIG_FILE environment variable: Custom config file path
//  3. Default: .rockplate.yml in current directory
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("ROCKPLATE_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".rockplate")
	}

	config.BindEnv(viper.GetViper())

	// A missing or malformed config file falls back to defaults.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
