package manager

import (
	"log/slog"

	"pilotmgr/process"
)

// Cleanup stops every worker in two passes: first signal them all without
// waiting, then wait for each in the same order. Total time is bounded by
// the slowest worker rather than the sum.
func Cleanup(workers []process.Worker) {
	for _, w := range workers {
		w.Stop(false)
	}
	for _, w := range workers {
		if code := w.Stop(true); code != nil {
			slog.Debug("worker stopped", "worker", w.Name(), "exit_code", *code)
		}
	}
	slog.Info("everything is dead")
}
