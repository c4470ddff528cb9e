package process

import (
	"log/slog"
	"slices"

	"pilotmgr"
)

// IgnoreSet names workers that must be kept stopped.
type IgnoreSet map[string]struct{}

// NewIgnoreSet builds a set from names. Duplicates collapse.
func NewIgnoreSet(names ...string) IgnoreSet {
	s := make(IgnoreSet, len(names))
	s.Add(names...)
	return s
}

func (s IgnoreSet) Add(names ...string) {
	for _, n := range names {
		s[n] = struct{}{}
	}
}

func (s IgnoreSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the set's members, sorted.
func (s IgnoreSet) Names() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// Supervisor converges the registry on the desired running set. It is safe to
// call every tick; workers already in the right state are left alone, and a
// worker that died is started again on the next call.
type Supervisor struct{}

// EnsureRunning starts every worker that should run and is not ignored, and
// stops every other worker without waiting for it.
func (Supervisor) EnsureRunning(workers []Worker, started bool, ignore IgnoreSet, cp pilotmgr.CarParams) {
	for _, w := range workers {
		run := !ignore.Has(w.Name()) && w.ShouldRun(started, cp)
		switch {
		case run && !w.IsAlive():
			if err := w.Start(); err != nil {
				slog.Error("start worker", "worker", w.Name(), "err", err)
			}
		case !run && w.IsAlive():
			w.Stop(false)
		}
	}
}
