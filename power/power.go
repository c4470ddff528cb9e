// Package power performs the device's terminal power actions.
package power

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"pilotmgr"

	"golang.org/x/sys/unix"
)

// Controller uninstalls, reboots or powers off the device. When disabled it
// only logs, so development hosts never act on a stray shutdown flag.
type Controller struct {
	enabled         bool
	uninstallMarker string

	reboot func(cmd int) error
}

type Option func(*Controller)

// WithRebootFunc replaces the reboot syscall. Used by tests.
func WithRebootFunc(f func(cmd int) error) Option {
	return func(c *Controller) { c.reboot = f }
}

// NewController builds a controller. uninstallMarker is the file whose
// presence tells the boot scripts to wipe the installation.
func NewController(enabled bool, uninstallMarker string, opts ...Option) *Controller {
	c := &Controller{
		enabled:         enabled,
		uninstallMarker: uninstallMarker,
		reboot:          rebootSyscall,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether power actions are carried out.
func (c *Controller) Enabled() bool { return c.enabled }

// Perform runs the action for flag. On success Reboot and Shutdown do not
// return on real hardware.
func (c *Controller) Perform(flag pilotmgr.ShutdownFlag) error {
	switch flag {
	case pilotmgr.DoUninstall:
		return c.Uninstall()
	case pilotmgr.DoReboot:
		return c.Reboot()
	case pilotmgr.DoShutdown:
		return c.Shutdown()
	default:
		return fmt.Errorf("unknown power action %q", flag)
	}
}

func (c *Controller) Uninstall() error {
	slog.Warn("uninstalling")
	if !c.enabled {
		slog.Info("power actions disabled, skipping uninstall")
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.uninstallMarker), 0o755); err != nil {
		return fmt.Errorf("create uninstall marker dir: %w", err)
	}
	if err := os.WriteFile(c.uninstallMarker, nil, 0o644); err != nil {
		return fmt.Errorf("write uninstall marker: %w", err)
	}
	return c.Reboot()
}

func (c *Controller) Reboot() error {
	slog.Warn("reboot")
	return c.do(unix.LINUX_REBOOT_CMD_RESTART)
}

func (c *Controller) Shutdown() error {
	slog.Warn("shutdown")
	return c.do(unix.LINUX_REBOOT_CMD_POWER_OFF)
}

func (c *Controller) do(cmd int) error {
	if !c.enabled {
		slog.Info("power actions disabled, skipping", "cmd", cmd)
		return nil
	}
	if err := c.reboot(cmd); err != nil {
		return fmt.Errorf("reboot syscall: %w", err)
	}
	return nil
}

func rebootSyscall(cmd int) error {
	unix.Sync()
	return unix.Reboot(cmd)
}
