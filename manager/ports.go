package manager

import (
	"context"
	"time"

	"pilotmgr"
	"pilotmgr/params"
	"pilotmgr/process"
	"pilotmgr/timesync"
)

// ConfigStore is the categorized parameter store.
// Production: *params.Store
// Testing: in-memory map with category table
type ConfigStore interface {
	Get(key string) ([]byte, bool, error)
	GetString(key string) (string, error)
	GetBool(key string) bool
	Put(key string, value []byte) error
	PutString(key, value string) error
	PutBool(key string, value bool) error
	ClearAll(c params.Category) error
	RecordBoot(id string, at time.Time, record string) error
}

// Telemetry is the subscriber side of the bus.
// Production: *bus.SubMaster
type Telemetry interface {
	Update(ctx context.Context, timeout time.Duration) bool
	DeviceState() pilotmgr.DeviceState
	CarParams() pilotmgr.CarParams
}

// Publisher is the publisher side of the bus.
// Production: *bus.Broker
type Publisher interface {
	Publish(topic string, v any) error
}

// Supervisor converges workers on the desired running set.
// Production: process.Supervisor
type Supervisor interface {
	EnsureRunning(workers []process.Worker, started bool, ignore process.IgnoreSet, cp pilotmgr.CarParams)
}

// Registrar resolves the device identity.
// Production: *identity.Registrar
type Registrar interface {
	Register(ctx context.Context, interactive bool) (string, error)
	Serial() string
}

// PowerControl performs terminal power actions.
// Production: *power.Controller
type PowerControl interface {
	Enabled() bool
	Perform(flag pilotmgr.ShutdownFlag) error
}

// ClockSyncer brings the system clock in line with a time source.
// Production: *timesync.Syncer
type ClockSyncer interface {
	Sync(ctx context.Context) (timesync.Result, error)
}

// Reporter records unhandled errors.
// Production: *crash.Reporter
type Reporter interface {
	Bind(tags map[string]string)
	Capture(err error)
	ClearMarker() error
}

// SafetyNotifier is told about every operating-state edge.
// Production: ParamsSafetyNotifier
type SafetyNotifier interface {
	WriteOnroad(started bool) error
}
