// Package internal contains the implementation packages of rockplate.
//
// # Package Organization
//
// The engine is split into small packages that build on each other:
//
//   - scope: typed scope values, merging and identifier validation
//   - block: the block tree, spans and serialization
//   - compiler: turns template text into a block tree, strict or dynamic
//   - renderer: evaluates a block tree against a scope
//   - linter: reports unavailable and illegal references with positions
//   - loader: reads scope documents and the embedded schema header
//   - resolver: finds schemas referenced by a header
//
// The command line is supported by:
//
//   - config: viper-backed configuration with validation
//   - errors: typed errors and the problem collector
//   - logging: slog-backed structured logging
//   - validation: path checks shared by config, watcher and commands
//   - watcher: debounced fsnotify watching
//   - version: build information
//
// The public API lives in pkg/rockplate.
package internal
