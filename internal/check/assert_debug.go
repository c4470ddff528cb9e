//go:build debug

// Package check holds invariant assertions compiled in only with -tags debug.
package check

import (
	"fmt"
	"runtime"
)

// Assert panics if cond is false. Only active in debug builds.
func Assert(cond bool, msg string) {
	if !cond {
		panic(fmt.Sprintf("invariant violated at %s: %s", caller(), msg))
	}
}

// Assertf panics if cond is false with a formatted message. Only active in debug builds.
func Assertf(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("invariant violated at %s: %s", caller(), fmt.Sprintf(format, args...)))
	}
}

func caller() string {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", file, line)
}
