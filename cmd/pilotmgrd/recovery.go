package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"pilotmgr/crash"
	"pilotmgr/internal/logging"
	"pilotmgr/internal/ui"
	"pilotmgr/manager"
	"pilotmgr/process"
)

// reportFrames is how many trailing stack lines the failure panel shows.
const reportFrames = 6

const failureTitle = "Manager failed to start"

// recoverStartup makes a fatal startup error durable and visible: it is
// logged to the file at logPath, the UI worker is stopped so the panel can
// take the screen, and the error is shown until acknowledged. It returns err
// so the process exits non-zero and its init system restarts it.
func recoverStartup(err error, logPath string, registry *process.Registry, opts ...ui.WindowOption) error {
	if ferr := logging.AddFileHandler(logPath); ferr != nil {
		slog.Warn("open durable log", "path", logPath, "err", ferr)
	}
	slog.Error("manager failed to start", "err", err)

	if registry != nil {
		if w, ok := registry.Get(manager.UIWorker); ok {
			w.Stop(true)
		}
	}

	if werr := ui.TextWindow(failureTitle, failureReport(err), opts...); werr != nil {
		slog.Warn("show failure panel", "err", werr)
	}
	return err
}

// failureReport is the error message followed by the last frames of its
// stack, when it carries one.
func failureReport(err error) string {
	var b strings.Builder
	b.WriteString(err.Error())

	var be *manager.BootstrapError
	if errors.As(err, &be) {
		fmt.Fprintf(&b, "\n\ncause: %s", be.Kind)
	}
	var st crash.Stacker
	if errors.As(err, &st) {
		b.WriteString("\n\n")
		b.WriteString(ui.Tail(strings.TrimRight(string(st.Stack()), "\n"), reportFrames))
	}
	return b.String()
}
