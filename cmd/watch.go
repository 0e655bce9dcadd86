package cmd

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conneroisu/rockplate/internal/loader"
	"github.com/conneroisu/rockplate/internal/validation"
	"github.com/conneroisu/rockplate/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [path...]",
	Short: "Watch templates and schemas and lint on every change",
	Long: `Watch template, schema and data files and lint the affected templates
whenever they change.

A changed template is linted on its own. A changed schema or data file
clears the schema cache and relints every template below the watch paths.

Examples:
  rockplate watch                      # Watch the configured paths
  rockplate watch mail/ --verbose      # List every changed file
  rockplate watch --render out/        # Also render each template to out/NAME.out`,
	RunE: runWatch,
}

var (
	watchVerbose   bool
	watchRenderDir string
)

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVarP(&watchVerbose, "verbose", "v", false, "Verbose output")
	watchCmd.Flags().StringVar(&watchRenderDir, "render", "", "render changed templates into this directory")
	watchCmd.Flags().StringSlice("extensions", nil, "template file extensions to watch")
	watchCmd.Flags().Duration("debounce", 0, "delay before a batch of changes is processed")

	bindFlags(watchCmd, map[string]string{
		"extensions": "watch.extensions",
		"debounce":   "watch.debounce",
	})
}

func runWatch(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		s.cfg.Watch.Paths = args
	}
	if watchRenderDir != "" {
		if err := validation.ValidatePath(watchRenderDir); err != nil {
			return fmt.Errorf("invalid render directory: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fileWatcher, err := watcher.NewFileWatcher(s.cfg.Watch.Debounce,
		watcher.WithLogger(s.log),
		watcher.WithIgnore(s.cfg.Watch.Ignore...),
	)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fileWatcher.Stop()

	exts := append(slices.Clone(s.cfg.Watch.Extensions), loader.ScopeExtensions...)
	fileWatcher.AddFilter(watcher.ExtensionFilter(exts...))
	fileWatcher.AddFilter(watcher.NoHiddenFilter)

	out := cmd.OutOrStdout()
	w := &templateWatch{session: s, out: out}
	fileWatcher.AddHandler(w.handle)

	fmt.Fprintln(out, "Setting up file watching...")
	for _, path := range s.cfg.Watch.Paths {
		if err := fileWatcher.AddRecursive(path); err != nil {
			s.log.Warn(ctx, err, "Failed to watch path", "path", path)
			continue
		}
		fmt.Fprintf(out, "   - Watching: %s\n", path)
	}
	if s.cfg.Schema != "" {
		if err := fileWatcher.AddPath(filepath.Dir(s.cfg.Schema)); err != nil {
			s.log.Warn(ctx, err, "Failed to watch schema", "schema", s.cfg.Schema)
		}
	}

	if err := w.lintAll(ctx); err != nil {
		s.log.Error(ctx, err, "Initial lint failed")
	}

	if err := fileWatcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	fmt.Fprintln(out, "Watching for changes... (Press Ctrl+C to stop)")

	<-ctx.Done()
	fmt.Fprintln(out, "\nStopping file watcher...")
	return nil
}

// templateWatch relints templates for batches of file changes.
type templateWatch struct {
	session *session
	out     io.Writer
}

func (w *templateWatch) handle(ctx context.Context, events []watcher.ChangeEvent) error {
	s := w.session
	if watchVerbose {
		fmt.Fprintln(w.out, "File changes detected:")
		for _, event := range events {
			fmt.Fprintf(w.out, "   %s: %s\n", event.Type, event.Path)
		}
	} else {
		fmt.Fprintf(w.out, "%d file(s) changed\n", len(events))
	}

	var templates []string
	scopesChanged := false
	for _, event := range events {
		if isScopeFile(event.Path) && !hasExtension(event.Path, s.cfg.Watch.Extensions) {
			scopesChanged = true
			continue
		}
		if event.Type == watcher.EventTypeDeleted || event.Type == watcher.EventTypeRenamed {
			continue
		}
		templates = append(templates, event.Path)
	}

	if scopesChanged {
		if err := s.reloadSchema(); err != nil {
			return err
		}
		return w.lintAll(ctx)
	}
	return w.lint(ctx, templates)
}

func (w *templateWatch) lintAll(ctx context.Context) error {
	cfg := w.session.cfg
	files, err := expandTemplates(cfg.Watch.Paths, cfg.Watch.Extensions, cfg.Watch.Ignore)
	if err != nil {
		return err
	}
	return w.lint(ctx, files)
}

func (w *templateWatch) lint(ctx context.Context, files []string) error {
	if len(files) == 0 {
		return nil
	}
	s := w.session
	data, err := s.data("")
	if err != nil {
		return err
	}

	collector, summary, err := s.lintFiles(ctx, files, data)
	if err != nil {
		return err
	}
	outputLintText(w.out, collector, summary)

	if watchRenderDir != "" {
		for _, file := range files {
			if err := w.render(ctx, file); err != nil {
				s.log.Error(ctx, err, "Render failed", "template", file)
			}
		}
	}
	return nil
}

// render writes the output of file to the render directory under the
// template's base name.
func (w *templateWatch) render(ctx context.Context, file string) error {
	s := w.session
	engine, err := s.engine(ctx, file)
	if err != nil {
		return err
	}
	data, err := s.data("")
	if err != nil {
		return err
	}
	if data == nil {
		data = engine.Schema()
	}
	target := filepath.Join(watchRenderDir, strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))+".out")
	if err := writeFile(target, engine.Render(data)); err != nil {
		return err
	}
	s.log.Info(ctx, "Template rendered", "template", file, "output", target)
	return nil
}

func isScopeFile(path string) bool {
	return slices.Contains(loader.ScopeExtensions, strings.ToLower(filepath.Ext(path)))
}
