package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"pilotmgr"
	"pilotmgr/bus"
	"pilotmgr/config"
	"pilotmgr/crash"
	"pilotmgr/daemon"
	"pilotmgr/identity"
	"pilotmgr/internal/buildinfo"
	"pilotmgr/internal/logging"
	"pilotmgr/internal/telemetry"
	"pilotmgr/internal/ui"
	"pilotmgr/manager"
	"pilotmgr/params"
	"pilotmgr/power"
	"pilotmgr/process"
	"pilotmgr/timesync"

	"github.com/spf13/cobra"
)

func main() {
	if err := logging.Configure(logging.LevelInfo); err != nil {
		_, _ = os.Stderr.WriteString("configure logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logging.Close()

	if err := rootCmd().Execute(); err != nil {
		slog.Error("command failed", "err", err)
		_ = logging.Close()
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string
	var debug bool

	cmd := &cobra.Command{
		Use:           "pilotmgrd",
		Short:         "Device process manager",
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if debug {
				return logging.Configure(logging.LevelDebug)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, configPath)
		},
	}

	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&configPath, "config", config.Path(), "Config file path")
	return cmd
}

// run builds the manager and its collaborators, then hands them to the
// daemon. Failures before or around the lifecycle loop go through recovery.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return recoverStartup(err, config.Default().Paths.LogFile, nil)
	}
	if cfg.LogLevel != "" {
		if err := logging.Configure(cfg.LogLevel); err != nil {
			return recoverStartup(err, cfg.Paths.LogFile, nil)
		}
	}
	env, err := config.FromOS()
	if err != nil {
		return recoverStartup(err, cfg.Paths.LogFile, nil)
	}

	registry, err := process.FromSpecs(cfg.Workers)
	if err != nil {
		return recoverStartup(err, cfg.Paths.LogFile, nil)
	}

	store, err := params.Open(cfg.Paths.Params)
	if err != nil {
		return recoverStartup(err, cfg.Paths.LogFile, registry)
	}
	defer store.Close()

	provider := telemetry.NewProvider()
	defer func() { _ = provider.Shutdown(context.Background()) }()

	broker := bus.NewBroker()
	sm := bus.NewSubMaster(broker,
		[]string{pilotmgr.TopicDeviceState, pilotmgr.TopicCarParams},
		[]string{pilotmgr.TopicDeviceState},
	)
	defer sm.Close()

	interactive := ui.IsInteractive()
	d := daemon.New(broker, cfg.Paths)
	m, err := manager.New(
		manager.Settings{
			Env:            env,
			Build:          buildinfo.Current(),
			PC:             cfg.PC,
			TickTimeout:    cfg.TickTimeout,
			ShmDir:         cfg.Paths.Shm,
			PrebuiltMarker: cfg.Paths.PrebuiltMarker,
			Interactive:    interactive,
		},
		manager.Deps{
			Store:      store,
			Telemetry:  sm,
			Publisher:  broker,
			Registry:   registry,
			Supervisor: process.Supervisor{},
			Registrar:  identity.NewRegistrar(store, identity.WithSpinner(ui.RegistrationWait)),
			Power:      power.NewController(cfg.PowerActions, cfg.Paths.UninstallMarker),
			Clock:      timesync.New(cfg.NTPServer),
			Reporter:   crash.NewReporter(cfg.Paths.Crashes),
		},
		manager.WithTracer(provider.Tracer(telemetry.TracerName)),
		manager.WithReadyHook(d.Ready),
	)
	if err != nil {
		return recoverStartup(err, cfg.Paths.LogFile, registry)
	}

	err = d.Run(ctx, m)
	return finish(ctx, err, func(err error) error {
		return recoverStartup(err, cfg.Paths.LogFile, registry)
	})
}

// finish maps the daemon's result onto the process exit. A cancellation only
// counts as a clean stop when ctx itself was cancelled by a signal; errors
// from the running loop were already reported, so only startup failures go
// through recovery.
func finish(ctx context.Context, err error, fallback func(error) error) error {
	switch {
	case err == nil:
		slog.Info("manager exited")
		return nil
	case ctx.Err() != nil && errors.Is(err, context.Canceled):
		slog.Info("manager stopped", "cause", context.Cause(ctx))
		return nil
	case isContained(err):
		return fmt.Errorf("manager: %w", err)
	default:
		return fallback(err)
	}
}

// isContained reports whether err escaped the lifecycle loop, where the
// manager has already reported it and stopped every worker.
func isContained(err error) bool {
	var lerr *manager.LoopError
	return errors.As(err, &lerr)
}
