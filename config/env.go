package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Env is the set of environment overrides, parsed once at startup.
type Env struct {
	// Passive overrides the stored passive-mode value when non-nil.
	Passive *bool
	// NoBoard keeps the hardware bridge stopped.
	NoBoard bool
	// Block lists workers that must never be started.
	Block []string
	// PrepareOnly stops after preparing workers.
	PrepareOnly bool
	// Release marks a release build.
	Release bool
}

// FromOS parses the process environment.
func FromOS() (Env, error) {
	return FromEnv(os.LookupEnv)
}

// FromEnv parses the overrides from lookup. NOBOARD, PREPAREONLY and RELEASE
// are presence flags; PASSIVE must be an integer.
func FromEnv(lookup func(string) (string, bool)) (Env, error) {
	var env Env

	if v, ok := lookup("PASSIVE"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return Env{}, fmt.Errorf("parse PASSIVE=%q: %w", v, err)
		}
		passive := n != 0
		env.Passive = &passive
	}
	_, env.NoBoard = lookup("NOBOARD")
	_, env.PrepareOnly = lookup("PREPAREONLY")
	_, env.Release = lookup("RELEASE")

	if v, ok := lookup("BLOCK"); ok {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				env.Block = append(env.Block, name)
			}
		}
	}
	return env, nil
}
