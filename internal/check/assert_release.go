//go:build !debug

// Package check holds invariant assertions compiled in only with -tags debug.
package check

// Assert is a no-op without the debug tag.
func Assert(_ bool, _ string) {}

// Assertf is a no-op without the debug tag.
func Assertf(_ bool, _ string, _ ...any) {}
