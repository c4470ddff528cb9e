package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"pilotmgr"
	"pilotmgr/process"
)

// Run executes one full manager lifetime: bootstrap, prepare, the lifecycle
// loop, teardown, and the requested power action.
//
// Bootstrap and prepare failures are returned before any teardown is needed.
// Once the loop has started, its error is reported and Cleanup runs exactly
// once before Run returns it as a *LoopError. An interrupted loop skips the
// power action.
func (m *Manager) Run(ctx context.Context) error {
	env := m.settings.Env
	slog.Info("manager start",
		"version", m.settings.Build.Version,
		"branch", m.settings.Build.Branch,
		"release", m.settings.Release(),
		"pc", m.settings.PC,
		"no_board", env.NoBoard,
		"block", env.Block,
		"prepare_only", env.PrepareOnly,
	)

	if err := m.Init(ctx); err != nil {
		return err
	}

	workers := m.deps.Registry.All()
	prepareOnly := m.settings.Env.PrepareOnly

	// The UI starts before prepare so the screen is up while workers build.
	if !prepareOnly {
		if ui, ok := m.deps.Registry.Get(UIWorker); ok {
			if err := ui.Start(); err != nil {
				slog.Warn("start ui", "err", err)
			}
		}
	}
	if err := prepare(workers); err != nil {
		return err
	}
	if prepareOnly {
		slog.Info("prepare only, not starting workers")
		return nil
	}
	if m.onReady != nil {
		m.onReady()
	}

	reason, loopErr := m.supervise(ctx, workers)
	if loopErr != nil && ctx.Err() != nil {
		slog.Info("interrupted, skipping power action", "cause", context.Cause(ctx))
		return &LoopError{Err: loopErr}
	}
	if err := errors.Join(loopErr, m.dispatch(reason)); err != nil {
		return &LoopError{Err: err}
	}
	return nil
}

func prepare(workers []process.Worker) error {
	for _, w := range workers {
		if err := w.Prepare(); err != nil {
			return fmt.Errorf("prepare worker %s: %w", w.Name(), err)
		}
	}
	return nil
}

func (m *Manager) supervise(ctx context.Context, workers []process.Worker) (pilotmgr.ShutdownReason, error) {
	defer Cleanup(workers)

	reason, err := m.Loop(ctx)
	if err != nil {
		m.deps.Reporter.Capture(err)
	}
	return reason, err
}

// dispatch performs the power action for reason. Without a recorded reason
// the flags are read in the same priority order the loop uses.
func (m *Manager) dispatch(reason pilotmgr.ShutdownReason) error {
	flag := reason.Flag
	if flag == "" {
		for _, f := range pilotmgr.ShutdownFlags() {
			if m.deps.Store.GetBool(string(f)) {
				flag = f
				break
			}
		}
	}
	if flag == "" {
		return nil
	}
	if err := m.deps.Power.Perform(flag); err != nil {
		return fmt.Errorf("perform %s: %w", flag, err)
	}
	return nil
}
