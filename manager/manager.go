package manager

import (
	"fmt"
	"time"

	"pilotmgr/config"
	"pilotmgr/internal/buildinfo"
	"pilotmgr/internal/telemetry"
	"pilotmgr/params"
	"pilotmgr/process"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// Settings are the startup inputs resolved once before the manager is built.
type Settings struct {
	Env            config.Env
	Build          buildinfo.Info
	PC             bool
	TickTimeout    time.Duration
	ShmDir         string
	PrebuiltMarker string
	Interactive    bool
}

// Release reports whether development-only params must be cleared.
func (s Settings) Release() bool {
	return s.Env.Release || s.Build.IsReleaseBranch
}

// Deps are the collaborators the manager drives.
type Deps struct {
	Store      ConfigStore
	Telemetry  Telemetry
	Publisher  Publisher
	Registry   *process.Registry
	Supervisor Supervisor
	Registrar  Registrar
	Power      PowerControl
	Clock      ClockSyncer
	Reporter   Reporter
	Safety     SafetyNotifier
}

func (d Deps) validate() error {
	switch {
	case d.Store == nil:
		return fmt.Errorf("config store is required")
	case d.Telemetry == nil:
		return fmt.Errorf("telemetry is required")
	case d.Publisher == nil:
		return fmt.Errorf("publisher is required")
	case d.Registry == nil:
		return fmt.Errorf("process registry is required")
	case d.Registrar == nil:
		return fmt.Errorf("registrar is required")
	case d.Power == nil:
		return fmt.Errorf("power control is required")
	case d.Clock == nil:
		return fmt.Errorf("clock syncer is required")
	case d.Reporter == nil:
		return fmt.Errorf("reporter is required")
	}
	return nil
}

// Manager owns one run of the device fleet.
type Manager struct {
	settings Settings
	deps     Deps

	tracer  trace.Tracer
	now     func() time.Time
	newID   func() string
	onReady func()

	dongleID string
}

type Option func(*Manager)

// WithTracer sets the tracer used for bootstrap spans.
func WithTracer(t trace.Tracer) Option {
	return func(m *Manager) { m.tracer = t }
}

// WithClock overrides the wall clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithBootID overrides boot record id generation.
func WithBootID(f func() string) Option {
	return func(m *Manager) { m.newID = f }
}

// WithReadyHook is called once bootstrap succeeded and workers are prepared.
func WithReadyHook(f func()) Option {
	return func(m *Manager) { m.onReady = f }
}

func New(settings Settings, deps Deps, opts ...Option) (*Manager, error) {
	if err := deps.validate(); err != nil {
		return nil, fmt.Errorf("new manager: %w", err)
	}
	if settings.TickTimeout <= 0 {
		settings.TickTimeout = time.Second
	}
	if deps.Supervisor == nil {
		deps.Supervisor = process.Supervisor{}
	}
	if deps.Safety == nil {
		deps.Safety = ParamsSafetyNotifier{Store: deps.Store}
	}
	m := &Manager{
		settings: settings,
		deps:     deps,
		tracer:   telemetry.Tracer(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// DongleID is the identity resolved by Init; empty before Init succeeds.
func (m *Manager) DongleID() string { return m.dongleID }

// ParamsSafetyNotifier mirrors the operating state into the IsOnroad and
// IsOffroad params read by the safety-critical workers.
type ParamsSafetyNotifier struct {
	Store ConfigStore
}

func (n ParamsSafetyNotifier) WriteOnroad(started bool) error {
	if err := n.Store.PutBool(params.IsOnroad, started); err != nil {
		return err
	}
	return n.Store.PutBool(params.IsOffroad, !started)
}
