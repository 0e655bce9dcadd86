// Package rockplate compiles and renders bracket-directive text templates.
//
// A template is plain text with four kinds of directives:
//
//	[customer name]                     interpolation of a key and subkey
//	[if order is paid]...[else]...[end if]
//	[repeat items]...[end repeat]
//	[-- a comment --]
//
// Compiling never fails. Text that does not form a complete directive is
// kept verbatim, and rendering passes through any directive the data cannot
// satisfy, so a broken template or incomplete data degrades instead of
// erroring. The linter reports what rendering would have passed through.
//
// # Strict and dynamic compilation
//
// With a schema, compilation is strict: only directives whose keys the
// schema defines are recognized, and an if condition must name a boolean.
// Without one, any syntactically complete directive is recognized. The mode
// can be forced with WithStrict.
//
//	tree := rockplate.Compile(tpl, schema)
//	out := rockplate.Render(tree, data)
//
// # Embedded schemas
//
// A template may begin with a JSON object. The object is stripped and used
// as the schema. An object of the form {"schema": "name"} instead names a
// schema that a Resolver supplies:
//
//	c := rockplate.Load(ctx, source, nil, rockplate.WithResolver(resolver))
//	tree, err := c.Wait(ctx)
//
// # Engine
//
// Engine compiles once and is safe for concurrent rendering:
//
//	engine := rockplate.NewEngine(tpl, schema)
//	for _, order := range orders {
//		fmt.Println(engine.Render(order))
//	}
//
// The rockplate command (module root) wraps these operations for files on
// disk: render, lint, validate, inspect and watch, configured through
// .rockplate.yml and ROCKPLATE_* environment variables.
package rockplate
