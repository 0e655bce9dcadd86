package compiler

import (
	"context"
	"sync"

	"github.com/conneroisu/rockplate/internal/block"
	"github.com/conneroisu/rockplate/internal/errors"
	"github.com/conneroisu/rockplate/internal/logging"
	"github.com/conneroisu/rockplate/internal/scope"
)

// Resolver supplies the schema a template header refers to. A nil schema
// with a nil error means there is no schema and compilation is dynamic.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (scope.Scope, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, ref string) (scope.Scope, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, ref string) (scope.Scope, error) {
	return f(ctx, ref)
}

// ImmediateResolver is implemented by resolvers that can answer some
// references without blocking. Load settles such compilations before
// returning.
type ImmediateResolver interface {
	Resolver
	// ResolveImmediate returns ok when ref was answered synchronously.
	ResolveImmediate(ref string) (schema scope.Scope, ok bool)
}

// Compilation is the result of Load. It settles once the effective schema
// is known and the tree is built.
type Compilation struct {
	done chan struct{}
	once sync.Once
	tree *block.Tree
	err  error
}

func newCompilation() *Compilation {
	return &Compilation{done: make(chan struct{})}
}

func (c *Compilation) settle(tree *block.Tree, err error) {
	c.once.Do(func() {
		c.tree = tree
		c.err = err
		close(c.done)
	})
}

// Done is closed when the compilation has settled.
func (c *Compilation) Done() <-chan struct{} {
	return c.done
}

// Ready reports whether the compilation has settled.
func (c *Compilation) Ready() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the compilation settles or ctx ends. The tree is
// always usable once settled: a failed resolution yields a dynamic tree
// together with the resolver error.
func (c *Compilation) Wait(ctx context.Context) (*block.Tree, error) {
	select {
	case <-c.done:
		return c.tree, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Load compiles a template source that may start with an embedded schema
// header. An inline header object becomes the schema. A reference header
// is handed to the configured Resolver; the compilation then settles
// asynchronously unless the resolver answers immediately. Without a
// header the WithSchema schema, if any, is used.
func Load(ctx context.Context, source string, opts ...Option) *Compilation {
	o := buildOptions(opts)
	log := o.logger.WithComponent("loader")
	c := newCompilation()

	header, found := ExtractHeader(source)
	if !found {
		c.settle(build(source, source, 0, o.schema, o), nil)
		return c
	}
	template := source[header.Len:]
	if header.Ref == "" {
		c.settle(build(source, template, header.Len, header.Schema, o), nil)
		return c
	}

	if o.resolver == nil {
		err := errors.NewResolverError(errors.ErrCodeNoResolver,
			"template refers to schema "+header.Ref+" but no resolver is configured", nil)
		log.Warn(ctx, err, "Compiling without schema")
		c.settle(build(source, template, header.Len, nil, o), err)
		return c
	}

	if imm, ok := o.resolver.(ImmediateResolver); ok {
		if schema, ok := imm.ResolveImmediate(header.Ref); ok {
			c.settle(build(source, template, header.Len, schema, o), nil)
			return c
		}
	}

	go func() {
		schema, err := o.resolver.Resolve(ctx, header.Ref)
		if err != nil {
			err = errors.Wrap(err, errors.ErrorTypeResolver, errors.ErrCodeSchemaRef,
				"failed to resolve schema "+header.Ref)
			log.Warn(ctx, err, "Compiling without schema", "ref", header.Ref)
			c.settle(build(source, template, header.Len, nil, o), err)
			return
		}
		log.Debug(ctx, "Schema resolved", "ref", header.Ref, "keys", len(schema))
		c.settle(build(source, template, header.Len, schema, o), nil)
	}()
	return c
}

func build(source, template string, headerLen int, schema scope.Scope, o *options) *block.Tree {
	strict := schema != nil
	if o.strict != nil {
		strict = *o.strict
	}
	c := &Compiler{schema: schema, strict: strict, log: o.logger.WithComponent("compiler")}

	op := logging.StartOperation(c.log, "compile")
	tree := c.Compile(template)
	op.End(context.Background(), "mode", tree.Mode(), "blocks", len(tree.Blocks))

	tree.Source = source
	tree.HeaderLen = headerLen
	return tree
}
