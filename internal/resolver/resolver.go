// Package resolver supplies schemas for templates whose header refers to a
// schema by name.
package resolver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/conneroisu/rockplate/internal/compiler"
	"github.com/conneroisu/rockplate/internal/errors"
	"github.com/conneroisu/rockplate/internal/loader"
	"github.com/conneroisu/rockplate/internal/logging"
	"github.com/conneroisu/rockplate/internal/scope"
)

var (
	_ compiler.ImmediateResolver = (*Map)(nil)
	_ compiler.ImmediateResolver = (*File)(nil)
)

// Map resolves references from a fixed set of schemas. It answers
// immediately.
type Map struct {
	schemas map[string]scope.Scope
}

// NewMap creates a Map resolver.
func NewMap(schemas map[string]scope.Scope) *Map {
	return &Map{schemas: schemas}
}

// Resolve returns the schema registered under ref, nil when there is none.
func (m *Map) Resolve(_ context.Context, ref string) (scope.Scope, error) {
	return m.schemas[ref], nil
}

// ResolveImmediate implements compiler.ImmediateResolver.
func (m *Map) ResolveImmediate(ref string) (scope.Scope, bool) {
	return m.schemas[ref], true
}

// File resolves references to JSON or YAML files below a base directory.
// A reference names a file relative to the base, with or without one of
// loader.ScopeExtensions. Decoded schemas are cached; concurrent requests
// for the same reference share one read.
type File struct {
	base   string
	logger logging.Logger

	group singleflight.Group
	mu    sync.RWMutex
	cache map[string]scope.Scope
}

// FileOption configures a File resolver.
type FileOption func(*File)

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) FileOption {
	return func(f *File) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFile creates a File resolver rooted at base.
func NewFile(base string, opts ...FileOption) *File {
	f := &File{
		base:   base,
		logger: logging.Nop(),
		cache:  make(map[string]scope.Scope),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.WithComponent("resolver")
	return f
}

// Resolve reads the schema ref names.
func (f *File) Resolve(ctx context.Context, ref string) (scope.Scope, error) {
	if s, ok := f.ResolveImmediate(ref); ok {
		return s, nil
	}

	v, err, shared := f.group.Do(ref, func() (any, error) {
		path, err := f.locate(ref)
		if err != nil {
			return nil, err
		}
		s, err := loader.ReadScope(path)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeResolver, errors.ErrCodeSchemaRef, "failed to load schema")
		}
		f.mu.Lock()
		f.cache[ref] = s
		f.mu.Unlock()
		f.logger.Debug(ctx, "Schema loaded", "ref", ref, "path", path)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		f.logger.Debug(ctx, "Shared schema load", "ref", ref)
	}
	return v.(scope.Scope), nil
}

// ResolveImmediate answers from the cache.
func (f *File) ResolveImmediate(ref string) (scope.Scope, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	s, ok := f.cache[ref]
	return s, ok
}

// Forget drops cached schemas. Without arguments the whole cache is cleared.
func (f *File) Forget(refs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(refs) == 0 {
		f.cache = make(map[string]scope.Scope)
		return
	}
	for _, ref := range refs {
		delete(f.cache, ref)
	}
}

// locate maps ref to an existing file below the base directory.
func (f *File) locate(ref string) (string, error) {
	clean := filepath.FromSlash(strings.ReplaceAll(ref, "\\", "/"))
	if ref == "" || !filepath.IsLocal(clean) {
		return "", errors.NewResolverError(errors.ErrCodeSchemaRef,
			"schema reference "+ref+" leaves the schema directory", nil)
	}

	candidates := []string{clean}
	if filepath.Ext(clean) == "" {
		for _, ext := range loader.ScopeExtensions {
			candidates = append(candidates, clean+ext)
		}
	}
	for _, c := range candidates {
		path := filepath.Join(f.base, c)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", errors.NewResolverError(errors.ErrCodeSchemaRef, "schema "+ref+" not found", nil).
		WithLocation(filepath.Join(f.base, clean), 0, 0)
}
