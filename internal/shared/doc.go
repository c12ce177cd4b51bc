// Package shared provides common utilities and test helpers used across
// the digest codebase.
//
// The testutil subpackage holds the pieces several package test suites
// need: a buffered slog handler with assertion helpers, and builders
// that synthesize Compend 2000 file families (base test files plus
// numbered high-speed fragments) into temporary directories.
//
// This package should only contain generic helpers with no
// domain-specific processing logic and no dependencies beyond the
// standard library and the test stack.
package shared
