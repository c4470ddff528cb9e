package pilotmgr

import (
	"fmt"
	"time"
)

// ShutdownFlag names a persisted request to leave the lifecycle loop.
type ShutdownFlag string

const (
	DoUninstall ShutdownFlag = "DoUninstall"
	DoReboot    ShutdownFlag = "DoReboot"
	DoShutdown  ShutdownFlag = "DoShutdown"
)

// shutdownPriority is the single evaluation order used both when recording
// the exit reason and when dispatching the power action.
var shutdownPriority = [...]ShutdownFlag{DoUninstall, DoReboot, DoShutdown}

// ShutdownFlags returns the shutdown flags in priority order.
func ShutdownFlags() []ShutdownFlag {
	return shutdownPriority[:]
}

// ShutdownReason records why the lifecycle loop exited.
type ShutdownReason struct {
	Flag ShutdownFlag
	At   time.Time
}

func (r ShutdownReason) String() string {
	return fmt.Sprintf("%s %s", r.Flag, r.At.Format("2006-01-02 15:04:05.000000"))
}
