// Package process owns the managed worker table and the per-tick supervisor
// that keeps it converged on the desired running set.
package process

import (
	"fmt"

	"pilotmgr"
)

// Worker is one managed, independently executed long-lived process.
type Worker interface {
	Name() string
	// Prepare performs one-time work before the first start.
	Prepare() error
	Start() error
	// Stop signals the worker. With block it waits for the process to exit
	// and returns its exit code.
	Stop(block bool) *int
	IsAlive() bool
	State() pilotmgr.ProcessState
	// ShouldRun reports whether the worker belongs in the running set for
	// the given operating state.
	ShouldRun(started bool, cp pilotmgr.CarParams) bool
}

// Registry is the ordered, fixed set of managed workers. Enumeration order is
// the order workers were registered in.
type Registry struct {
	workers []Worker
	byName  map[string]Worker
}

// NewRegistry builds a registry. Worker names must be unique.
func NewRegistry(workers ...Worker) (*Registry, error) {
	r := &Registry{byName: make(map[string]Worker, len(workers))}
	for _, w := range workers {
		if _, dup := r.byName[w.Name()]; dup {
			return nil, fmt.Errorf("duplicate worker %q", w.Name())
		}
		r.workers = append(r.workers, w)
		r.byName[w.Name()] = w
	}
	return r, nil
}

// All returns the workers in enumeration order.
func (r *Registry) All() []Worker {
	return r.workers
}

// Get looks up a worker by name.
func (r *Registry) Get(name string) (Worker, bool) {
	w, ok := r.byName[name]
	return w, ok
}

func (r *Registry) Len() int { return len(r.workers) }

// States snapshots every worker's state in enumeration order.
func (r *Registry) States() []pilotmgr.ProcessState {
	out := make([]pilotmgr.ProcessState, 0, len(r.workers))
	for _, w := range r.workers {
		out = append(out, w.State())
	}
	return out
}
