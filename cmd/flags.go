package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/rockplate/internal/config"
	"github.com/conneroisu/rockplate/internal/errors"
)

var validFormats = []string{config.FormatText, config.FormatJSON, config.FormatYAML}

// addFormatFlag adds --format/-f bound to target.
func addFormatFlag(cmd *cobra.Command, target *string, def string) {
	cmd.Flags().StringVarP(target, "format", "f", def,
		"Output format ("+strings.Join(validFormats, "|")+")")
}

// validateFormat rejects unknown output formats.
func validateFormat(format string) error {
	if !slices.Contains(validFormats, format) {
		return errors.NewConfigError(errors.ErrCodeConfigValue,
			fmt.Sprintf("invalid output format %s, must be one of: %s", format, strings.Join(validFormats, ", ")))
	}
	return nil
}

// writeStructured encodes v as JSON or YAML.
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return errors.NewInternalError(errors.ErrCodeFormat, "unsupported format: "+format, nil)
	}
}

// expandTemplates turns file and directory arguments into a sorted list of
// template files. Directories are walked for files with one of exts,
// skipping directories named in ignore.
func expandTemplates(args, exts, ignore []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	add := func(path string) {
		if _, ok := seen[path]; !ok {
			seen[path] = struct{}{}
			files = append(files, path)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if !info.IsDir() {
			add(filepath.Clean(arg))
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != arg && slices.Contains(ignore, d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if hasExtension(path, exts) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", arg, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

func hasExtension(path string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	return slices.Contains(exts, strings.ToLower(filepath.Ext(path)))
}

// writeFile writes content to path, creating parent directories.
func writeFile(path, content string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
