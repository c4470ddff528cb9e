// Package daemon hosts a manager run next to its bus ingress and status API.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"pilotmgr"
	"pilotmgr/bus"
	"pilotmgr/config"

	systemd "github.com/coreos/go-systemd/v22/daemon"
	"golang.org/x/sync/errgroup"
)

// Runner is one manager lifetime.
// Production: *manager.Manager
type Runner interface {
	Run(ctx context.Context) error
}

type Daemon struct {
	broker *bus.Broker
	paths  config.Paths
	status *StatusServer
	notify func(state string) (bool, error)
}

func New(broker *bus.Broker, paths config.Paths) *Daemon {
	return &Daemon{
		broker: broker,
		paths:  paths,
		status: NewStatusServer(),
		notify: func(state string) (bool, error) { return systemd.SdNotify(false, state) },
	}
}

// Ready tells systemd and status clients that bootstrap finished. It is
// handed to the manager as its ready hook.
func (d *Daemon) Ready() {
	d.status.SetReady()
	if _, err := d.notify(systemd.SdNotifyReady); err != nil {
		slog.Error("Failed to notify systemd that the daemon is ready.", "err", err)
	}
}

// Run serves the bus ingress and status API for as long as r runs. When r
// returns, the servers are stopped and r's error is returned. A server
// failure stops r and is returned in place of the cancellation it caused.
func (d *Daemon) Run(ctx context.Context, r Runner) error {
	if err := os.MkdirAll(filepath.Dir(d.paths.BusSocket), 0o755); err != nil {
		return fmt.Errorf("create bus socket dir: %w", err)
	}
	ingress, err := bus.ListenIngress(d.paths.BusSocket, d.broker)
	if err != nil {
		return err
	}

	heartbeats := d.broker.Subscribe(pilotmgr.TopicManagerState)
	defer heartbeats.Close()

	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var runErr error
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		slog.Info("Starting manager.")
		runErr = r.Run(gctx)
		return nil
	})
	g.Go(func() error { return ingress.Serve(gctx) })
	g.Go(func() error { return d.status.Watch(gctx, heartbeats) })
	g.Go(func() error { return d.status.ListenAndServe(gctx, d.paths.StatusSocket) })

	if err := g.Wait(); err != nil {
		err = fmt.Errorf("serve: %w", err)
		if parent.Err() == nil && errors.Is(runErr, context.Canceled) {
			// The manager only stopped because a server failed.
			return err
		}
		return errors.Join(runErr, err)
	}
	if _, err := d.notify(systemd.SdNotifyStopping); err != nil {
		slog.Debug("notify systemd stopping", "err", err)
	}
	return runErr
}
