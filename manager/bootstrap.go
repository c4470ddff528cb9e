package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"pilotmgr/internal/logging"
	"pilotmgr/internal/telemetry"
	"pilotmgr/params"
)

// Bootstrap steps, in execution order.
const (
	stepTimeSync      = "time_sync"
	stepBootRecord    = "boot_record"
	stepClearParams   = "clear_params"
	stepSeedDefaults  = "seed_defaults"
	stepPassiveMode   = "passive_mode"
	stepShmDir        = "shm_dir"
	stepVersionParams = "version_params"
	stepRegister      = "register"
	stepBindContext   = "bind_context"
	stepClearMarkers  = "clear_markers"
)

var bootstrapSteps = []string{
	stepTimeSync,
	stepBootRecord,
	stepClearParams,
	stepSeedDefaults,
	stepPassiveMode,
	stepShmDir,
	stepVersionParams,
	stepRegister,
	stepBindContext,
	stepClearMarkers,
}

// Init brings the device into a known state. It fails fast with a
// *BootstrapError; degraded steps log a warning and continue. Every step is
// idempotent, so a restart after a failure repeats Init from the top.
func (m *Manager) Init(ctx context.Context) (err error) {
	op, err := telemetry.Begin(ctx, m.tracer, "bootstrap", bootstrapSteps...)
	if err != nil {
		return err
	}
	defer func() { op.End(err) }()

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{stepTimeSync, m.syncClock},
		{stepBootRecord, m.recordBoot},
		{stepClearParams, m.clearOnStart},
		{stepSeedDefaults, m.seedDefaults},
		{stepPassiveMode, m.resolvePassive},
		{stepShmDir, m.ensureShmDir},
		{stepVersionParams, m.writeVersionParams},
		{stepRegister, m.register},
		{stepBindContext, m.bindContext},
		{stepClearMarkers, m.clearMarkers},
	}
	for _, s := range steps {
		if err := op.RunStep(s.name, s.fn); err != nil {
			return err
		}
	}
	slog.Info("bootstrap complete", "dongle_id", m.dongleID)
	return nil
}

func (m *Manager) syncClock(ctx context.Context) error {
	res, err := m.deps.Clock.Sync(ctx)
	if err != nil {
		return &BootstrapError{Kind: KindClockSync, Err: err}
	}
	slog.Debug("clock checked", "phase", res.Phase, "offset", res.Offset)
	return nil
}

func (m *Manager) recordBoot(ctx context.Context) error {
	b := m.settings.Build
	record := fmt.Sprintf("version=%s branch=%s commit=%s dirty=%t device=%s",
		b.Version, b.Branch, b.Commit, b.Dirty, b.DeviceType)
	if err := m.deps.Store.RecordBoot(m.newID(), m.now(), record); err != nil {
		slog.Warn("persist boot record", "err", err)
		telemetry.Degraded(ctx, err)
	}
	return nil
}

func (m *Manager) clearOnStart(context.Context) error {
	categories := []params.Category{
		params.ClearOnManagerStart,
		params.ClearOnOnroadTransition,
		params.ClearOnOffroadTransition,
	}
	if m.settings.Release() {
		categories = append(categories, params.DevelopmentOnly)
	}
	for _, c := range categories {
		if err := m.deps.Store.ClearAll(c); err != nil {
			return &BootstrapError{Kind: KindConfigStore, Err: err}
		}
	}
	return nil
}

func (m *Manager) seedDefaults(context.Context) error {
	store := m.deps.Store
	if store.GetBool(params.RecordFrontLock) {
		if err := store.PutBool(params.RecordFront, true); err != nil {
			return &BootstrapError{Kind: KindConfigStore, Err: err}
		}
	}

	defaults := params.Defaults
	if !m.settings.PC {
		defaults = append(defaults[:len(defaults):len(defaults)], params.Default{
			Key:   params.LastUpdateTime,
			Value: m.now().UTC().Format("2006-01-02T15:04:05.000000"),
		})
	}
	for _, d := range defaults {
		_, ok, err := store.Get(d.Key)
		if err != nil {
			return &BootstrapError{Kind: KindConfigStore, Err: err}
		}
		if ok {
			continue
		}
		if err := store.PutString(d.Key, d.Value); err != nil {
			return &BootstrapError{Kind: KindConfigStore, Err: err}
		}
	}
	return nil
}

func (m *Manager) resolvePassive(context.Context) error {
	if p := m.settings.Env.Passive; p != nil {
		if err := m.deps.Store.PutBool(params.Passive, *p); err != nil {
			return &BootstrapError{Kind: KindConfigStore, Err: err}
		}
	}
	_, ok, err := m.deps.Store.Get(params.Passive)
	if err != nil {
		return &BootstrapError{Kind: KindConfigStore, Err: err}
	}
	if !ok {
		return &BootstrapError{Kind: KindPassiveUnset, Err: ErrPassiveUnset}
	}
	return nil
}

func (m *Manager) ensureShmDir(ctx context.Context) error {
	if m.settings.ShmDir == "" {
		return nil
	}
	if err := os.Mkdir(m.settings.ShmDir, 0o777); err != nil && !errors.Is(err, os.ErrExist) {
		slog.Warn("create shared memory dir", "path", m.settings.ShmDir, "err", err)
		telemetry.Degraded(ctx, err)
	}
	return nil
}

func (m *Manager) writeVersionParams(context.Context) error {
	b := m.settings.Build
	values := []struct{ key, value string }{
		{params.Version, b.Version},
		{params.TermsVersion, b.TermsVersion},
		{params.TrainingVersion, b.TrainingVersion},
		{params.GitCommit, b.Commit},
		{params.GitBranch, b.Branch},
		{params.GitRemote, b.Origin},
		{params.IsTestedBranch, boolString(b.IsTestedBranch)},
		{params.IsReleaseBranch, boolString(b.IsReleaseBranch)},
	}
	for _, v := range values {
		if err := m.deps.Store.PutString(v.key, v.value); err != nil {
			return &BootstrapError{Kind: KindVersionParams, Err: err}
		}
	}
	return nil
}

func (m *Manager) register(ctx context.Context) error {
	id, err := m.deps.Registrar.Register(ctx, m.settings.Interactive)
	if err != nil || id == "" {
		serial := m.deps.Registrar.Serial()
		if err == nil {
			err = errors.New("no dongle id returned")
		}
		return &BootstrapError{
			Kind: KindRegistration,
			Err:  fmt.Errorf("registration failed for device with serial %q: %w", serial, err),
		}
	}
	m.dongleID = id
	return nil
}

func (m *Manager) bindContext(context.Context) error {
	b := m.settings.Build
	tags := map[string]string{
		"dongle_id": m.dongleID,
		"version":   b.Version,
		"origin":    b.NormalizedOrigin(),
		"branch":    b.Branch,
		"commit":    b.Commit,
		"dirty":     strconv.FormatBool(b.Dirty),
		"device":    b.DeviceType,
	}
	logging.Bind(
		"dongle_id", m.dongleID,
		"version", b.Version,
		"origin", b.NormalizedOrigin(),
		"branch", b.Branch,
		"commit", b.Commit,
		"dirty", b.Dirty,
		"device", b.DeviceType,
	)
	m.deps.Reporter.Bind(tags)
	return nil
}

func (m *Manager) clearMarkers(ctx context.Context) error {
	if err := m.deps.Reporter.ClearMarker(); err != nil {
		slog.Warn("clear crash marker", "err", err)
		telemetry.Degraded(ctx, err)
	}
	if p := m.settings.PrebuiltMarker; p != "" {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("remove prebuilt marker", "path", p, "err", err)
			telemetry.Degraded(ctx, err)
		}
	}
	return nil
}

func boolString(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
