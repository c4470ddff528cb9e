package manager

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"pilotmgr"
	"pilotmgr/internal/check"
	"pilotmgr/params"
	"pilotmgr/process"
)

// summaryEvery is how often, in ticks, the worker summary is logged at info
// instead of debug.
const summaryEvery = 10

// Loop keeps workers converged on the operating state until a shutdown flag
// is raised or ctx is cancelled. Cancellation is observed between ticks and
// returned as an error; a panic inside a tick is returned as *RuntimeError.
// The caller owns teardown.
func (m *Manager) Loop(ctx context.Context) (reason pilotmgr.ShutdownReason, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &RuntimeError{Value: r, stack: debug.Stack()}
		}
	}()

	ignore := ComputeIgnoreSet(m.dongleID, m.settings.Env)
	if len(ignore) > 0 {
		slog.Info("ignoring workers", "workers", ignore.Names())
	}
	workers := m.deps.Registry.All()

	if err := m.deps.Safety.WriteOnroad(false); err != nil {
		return pilotmgr.ShutdownReason{}, fmt.Errorf("write initial operating state: %w", err)
	}
	m.deps.Supervisor.EnsureRunning(workers, false, ignore, nil)

	prevStarted := false
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return pilotmgr.ShutdownReason{}, fmt.Errorf("lifecycle loop: %w", err)
		}

		started, done, reason, err := m.tick(ctx, n, workers, ignore, prevStarted)
		if err != nil {
			return pilotmgr.ShutdownReason{}, err
		}
		if done {
			return reason, nil
		}
		prevStarted = started
	}
}

func (m *Manager) tick(
	ctx context.Context,
	n int,
	workers []process.Worker,
	ignore process.IgnoreSet,
	prevStarted bool,
) (started, done bool, reason pilotmgr.ShutdownReason, err error) {
	m.deps.Telemetry.Update(ctx, m.settings.TickTimeout)
	started = m.deps.Telemetry.DeviceState().Started

	if started != prevStarted {
		if err := m.transition(started); err != nil {
			return started, false, reason, err
		}
	}

	m.deps.Supervisor.EnsureRunning(workers, started, ignore, m.deps.Telemetry.CarParams())

	heartbeat := pilotmgr.ManagerState{Processes: m.deps.Registry.States()}
	check.Assertf(len(heartbeat.Processes) == len(workers),
		"heartbeat covers %d of %d workers", len(heartbeat.Processes), len(workers))
	if err := m.deps.Publisher.Publish(pilotmgr.TopicManagerState, heartbeat); err != nil {
		slog.Warn("publish manager state", "err", err)
	}
	logSummary(ctx, n, heartbeat)

	reason, done = m.shutdownRequested()
	return started, done, reason, nil
}

// logSummary logs which workers are running and which are not.
func logSummary(ctx context.Context, n int, state pilotmgr.ManagerState) {
	level := slog.LevelDebug
	if n%summaryEvery == 0 {
		level = slog.LevelInfo
	}
	if !slog.Default().Enabled(ctx, level) {
		return
	}
	var running, stopped []string
	for _, p := range state.Processes {
		if p.Running {
			running = append(running, p.Name)
		} else {
			stopped = append(stopped, p.Name)
		}
	}
	slog.Log(ctx, level, "workers", "tick", n, "running", running, "stopped", stopped)
}

// transition clears the params tied to the new state before notifying the
// safety writer.
func (m *Manager) transition(started bool) error {
	state := pilotmgr.OperatingStateFromStarted(started)
	slog.Info("operating state changed", "state", state)

	category := params.ClearOnOffroadTransition
	if started {
		category = params.ClearOnOnroadTransition
	}
	if err := m.deps.Store.ClearAll(category); err != nil {
		return fmt.Errorf("transition to %s: %w", state, err)
	}
	if err := m.deps.Safety.WriteOnroad(started); err != nil {
		return fmt.Errorf("transition to %s: notify safety: %w", state, err)
	}
	return nil
}

// shutdownRequested checks the flags in priority order and persists the
// first one found as the exit reason.
func (m *Manager) shutdownRequested() (pilotmgr.ShutdownReason, bool) {
	if !m.deps.Power.Enabled() {
		return pilotmgr.ShutdownReason{}, false
	}
	for _, flag := range pilotmgr.ShutdownFlags() {
		if !m.deps.Store.GetBool(string(flag)) {
			continue
		}
		reason := pilotmgr.ShutdownReason{Flag: flag, At: m.now()}
		if err := m.deps.Store.PutString(params.LastManagerExitReason, reason.String()); err != nil {
			slog.Warn("persist exit reason", "reason", reason, "err", err)
		}
		slog.Warn("shutdown requested", "reason", reason)
		return reason, true
	}
	return pilotmgr.ShutdownReason{}, false
}
