package cmd

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/conneroisu/rockplate/internal/config"
	"github.com/conneroisu/rockplate/internal/loader"
	"github.com/conneroisu/rockplate/internal/logging"
	"github.com/conneroisu/rockplate/internal/resolver"
	"github.com/conneroisu/rockplate/internal/scope"
	"github.com/conneroisu/rockplate/pkg/rockplate"
)

// session carries what every command needs: the loaded configuration, a
// logger, the configured schema and the schema resolvers.
type session struct {
	cfg    *config.Config
	log    logging.Logger
	schema scope.Scope

	mu        sync.Mutex
	resolvers map[string]*resolver.File
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	s := &session{
		cfg:       cfg,
		log:       newLogger(cfg, cmd.ErrOrStderr()),
		resolvers: make(map[string]*resolver.File),
	}
	if cfg.Schema != "" {
		if s.schema, err = loader.ReadScope(cfg.Schema); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func newLogger(cfg *config.Config, out io.Writer) logging.Logger {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logging.LevelInfo
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: strings.ToLower(cfg.Log.Format),
		Output: out,
	})
}

// resolverFor returns the schema resolver for a template: one rooted at
// the configured schema directory, or at the template's own directory.
func (s *session) resolverFor(templatePath string) *resolver.File {
	base := s.cfg.SchemaDir
	if base == "" {
		base = filepath.Dir(templatePath)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.resolvers[base]
	if !ok {
		r = resolver.NewFile(base, resolver.WithLogger(s.log))
		s.resolvers[base] = r
	}
	return r
}

func (s *session) options(templatePath string) []rockplate.Option {
	opts := []rockplate.Option{
		rockplate.WithLogger(s.log),
		rockplate.WithResolver(s.resolverFor(templatePath)),
	}
	if strict := s.cfg.StrictOverride(); strict != nil {
		opts = append(opts, rockplate.WithStrict(*strict))
	}
	if !s.cfg.Lint.Positions {
		opts = append(opts, rockplate.WithoutPositions())
	}
	return opts
}

// engine reads and compiles the template at path. A schema reference that
// fails to resolve is logged and the template is compiled dynamically.
func (s *session) engine(ctx context.Context, path string) (*rockplate.Engine, error) {
	source, err := loader.ReadTemplate(path)
	if err != nil {
		return nil, err
	}
	engine, err := rockplate.LoadEngine(ctx, source, s.schema, s.options(path)...)
	if engine == nil {
		return nil, err
	}
	if err != nil {
		s.log.Warn(ctx, err, "Compiled without schema", "template", path)
	}
	s.log.Debug(ctx, "Template compiled", "template", path, "mode", engine.Tree().Mode(),
		"blocks", len(engine.Tree().Blocks))
	return engine, nil
}

// data returns the scope to render or lint against: the file at path, the
// configured data file, or nil when neither is set.
func (s *session) data(path string) (scope.Scope, error) {
	if path == "" {
		path = s.cfg.Data
	}
	if path == "" {
		return nil, nil
	}
	return loader.ReadScope(path)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// reloadSchema rereads the configured schema file and drops every cached
// schema the resolvers hold.
func (s *session) reloadSchema() error {
	s.mu.Lock()
	for _, r := range s.resolvers {
		r.Forget()
	}
	s.mu.Unlock()

	if s.cfg.Schema == "" {
		return nil
	}
	schema, err := loader.ReadScope(s.cfg.Schema)
	if err != nil {
		return err
	}
	s.schema = schema
	return nil
}
