package manager

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"pilotmgr"
	"pilotmgr/config"
	"pilotmgr/internal/buildinfo"
	"pilotmgr/params"
	"pilotmgr/process"
	"pilotmgr/timesync"
)

// eventLog is shared by fakes whose relative ordering is under test.
type eventLog []string

func (l *eventLog) add(format string, args ...any) {
	*l = append(*l, fmt.Sprintf(format, args...))
}

type memStore struct {
	values map[string][]byte
	events *eventLog
	boots  []string

	recordBootErr error
	clearErrs     map[params.Category]error
}

func newMemStore(events *eventLog) *memStore {
	return &memStore{values: make(map[string][]byte), events: events}
}

func (s *memStore) Get(key string) ([]byte, bool, error) {
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *memStore) GetString(key string) (string, error) { return string(s.values[key]), nil }

func (s *memStore) GetBool(key string) bool { return string(s.values[key]) == "1" }

func (s *memStore) Put(key string, value []byte) error {
	s.values[key] = value
	return nil
}

func (s *memStore) PutString(key, value string) error { return s.Put(key, []byte(value)) }

func (s *memStore) PutBool(key string, value bool) error {
	if value {
		return s.Put(key, []byte("1"))
	}
	return s.Put(key, []byte("0"))
}

func (s *memStore) ClearAll(c params.Category) error {
	if s.events != nil {
		s.events.add("clear:%s", c)
	}
	if err := s.clearErrs[c]; err != nil {
		return err
	}
	for key := range s.values {
		if params.Keys[key]&c != 0 {
			delete(s.values, key)
		}
	}
	return nil
}

func (s *memStore) RecordBoot(id string, _ time.Time, _ string) error {
	if s.recordBootErr != nil {
		return s.recordBootErr
	}
	s.boots = append(s.boots, id)
	return s.PutString(params.LastBootRecord, id)
}

// fakeTelemetry replays one started sample per Update, then cancels the loop.
type fakeTelemetry struct {
	samples []bool
	next    int
	started bool
	cancel  context.CancelFunc
	onTick  func(i int)
	events  *eventLog
}

func (f *fakeTelemetry) Update(context.Context, time.Duration) bool {
	if f.next >= len(f.samples) {
		if f.cancel != nil {
			f.cancel()
		}
		return false
	}
	i := f.next
	f.next++
	f.started = f.samples[i]
	if f.events != nil {
		f.events.add("tick:%d", i)
	}
	if f.onTick != nil {
		f.onTick(i)
	}
	return true
}

func (f *fakeTelemetry) DeviceState() pilotmgr.DeviceState {
	return pilotmgr.DeviceState{Started: f.started}
}

func (f *fakeTelemetry) CarParams() pilotmgr.CarParams { return nil }

type fakePublisher struct {
	heartbeats []pilotmgr.ManagerState
}

func (p *fakePublisher) Publish(topic string, v any) error {
	if topic != pilotmgr.TopicManagerState {
		return fmt.Errorf("unexpected topic %q", topic)
	}
	p.heartbeats = append(p.heartbeats, v.(pilotmgr.ManagerState))
	return nil
}

// panickingSupervisor wraps the real supervisor and panics on call panicAt.
type panickingSupervisor struct {
	calls   int
	panicAt int
}

func (s *panickingSupervisor) EnsureRunning(workers []process.Worker, started bool, ignore process.IgnoreSet, cp pilotmgr.CarParams) {
	s.calls++
	if s.calls == s.panicAt {
		panic(errors.New("supervisor exploded"))
	}
	process.Supervisor{}.EnsureRunning(workers, started, ignore, cp)
}

type fakeRegistrar struct {
	id     string
	err    error
	serial string
	calls  int
}

func (r *fakeRegistrar) Register(context.Context, bool) (string, error) {
	r.calls++
	return r.id, r.err
}

func (r *fakeRegistrar) Serial() string { return r.serial }

type fakePower struct {
	enabled   bool
	err       error
	performed []pilotmgr.ShutdownFlag
}

func (p *fakePower) Enabled() bool { return p.enabled }

func (p *fakePower) Perform(flag pilotmgr.ShutdownFlag) error {
	p.performed = append(p.performed, flag)
	return p.err
}

type fakeClock struct{ err error }

func (c fakeClock) Sync(context.Context) (timesync.Result, error) {
	return timesync.Result{Phase: timesync.PhaseInSync}, c.err
}

type fakeReporter struct {
	tags     map[string]string
	captured []error
	cleared  int
}

func (r *fakeReporter) Bind(tags map[string]string) { r.tags = tags }

func (r *fakeReporter) Capture(err error) { r.captured = append(r.captured, err) }

func (r *fakeReporter) ClearMarker() error {
	r.cleared++
	return nil
}

type fakeSafety struct{ events *eventLog }

func (s fakeSafety) WriteOnroad(started bool) error {
	s.events.add("safety:%s", pilotmgr.OperatingStateFromStarted(started))
	return nil
}

type fakeWorker struct {
	name   string
	alive  bool
	run    func(started bool) bool
	events *eventLog
	calls  []string

	// stopDelay is how long a blocking Stop takes.
	stopDelay time.Duration
}

func (w *fakeWorker) Name() string { return w.name }

func (w *fakeWorker) Prepare() error {
	w.calls = append(w.calls, "Prepare")
	return nil
}

func (w *fakeWorker) Start() error {
	w.calls = append(w.calls, "Start")
	w.alive = true
	return nil
}

func (w *fakeWorker) Stop(block bool) *int {
	call := "Stop"
	if block {
		call = "StopBlock"
		time.Sleep(w.stopDelay)
		w.alive = false
	}
	w.calls = append(w.calls, call)
	if w.events != nil {
		w.events.add("%s:%s", call, w.name)
	}
	return nil
}

func (w *fakeWorker) IsAlive() bool { return w.alive }

func (w *fakeWorker) State() pilotmgr.ProcessState {
	return pilotmgr.ProcessState{Name: w.name, Running: w.alive, ShouldBeRunning: w.alive}
}

func (w *fakeWorker) ShouldRun(started bool, _ pilotmgr.CarParams) bool {
	if w.run == nil {
		return true
	}
	return w.run(started)
}

func (w *fakeWorker) count(call string) int {
	n := 0
	for _, c := range w.calls {
		if c == call {
			n++
		}
	}
	return n
}

// harness bundles a manager with the fakes behind it.
type harness struct {
	events    eventLog
	store     ConfigStore
	telemetry *fakeTelemetry
	publisher *fakePublisher
	registrar *fakeRegistrar
	power     *fakePower
	reporter  *fakeReporter
	workers   []*fakeWorker
	settings  Settings
	deps      Deps
}

func newHarness(t *testing.T, workers ...*fakeWorker) *harness {
	t.Helper()
	h := &harness{
		telemetry: &fakeTelemetry{},
		publisher: &fakePublisher{},
		registrar: &fakeRegistrar{id: "0123456789abcdef", serial: "c0ffee42"},
		power:     &fakePower{enabled: true},
		reporter:  &fakeReporter{},
		workers:   workers,
	}
	h.store = newMemStore(&h.events)
	h.telemetry.events = &h.events

	passive := false
	dir := t.TempDir()
	h.settings = Settings{
		Env:            config.Env{Passive: &passive},
		Build:          buildinfo.Info{Version: "0.9.4", Branch: "devel", DeviceType: "tici"},
		TickTimeout:    time.Millisecond,
		ShmDir:         filepath.Join(dir, "shm"),
		PrebuiltMarker: filepath.Join(dir, "prebuilt"),
	}
	h.deps = Deps{
		Telemetry: h.telemetry,
		Publisher: h.publisher,
		Registrar: h.registrar,
		Power:     h.power,
		Clock:     fakeClock{},
		Reporter:  h.reporter,
		Safety:    fakeSafety{events: &h.events},
	}
	return h
}

func (h *harness) build(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	ws := make([]process.Worker, len(h.workers))
	for i, w := range h.workers {
		ws[i] = w
	}
	reg, err := process.NewRegistry(ws...)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	deps := h.deps
	deps.Store = h.store
	deps.Registry = reg

	n := 0
	opts = append([]Option{
		WithClock(func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }),
		WithBootID(func() string {
			n++
			return fmt.Sprintf("boot-%d", n)
		}),
	}, opts...)
	m, err := New(h.settings, deps, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return m
}

// loopContext returns a context the fake telemetry cancels once samples run out.
func (h *harness) loopContext(t *testing.T, samples ...bool) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h.telemetry.samples = samples
	h.telemetry.cancel = cancel
	return ctx
}
