package process

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"sync"
	"syscall"
	"time"

	"pilotmgr"

	"golang.org/x/sys/unix"
)

const defaultStopTimeout = 5 * time.Second

// RunCondition selects the operating states a worker runs in.
type RunCondition string

const (
	RunAlways  RunCondition = "always"
	RunOnroad  RunCondition = "onroad"
	RunOffroad RunCondition = "offroad"
)

func (c RunCondition) Validate() error {
	switch c {
	case RunAlways, RunOnroad, RunOffroad:
		return nil
	default:
		return fmt.Errorf("invalid run condition %q", c)
	}
}

// Spec describes a native worker process in the worker table.
type Spec struct {
	Name        string            `yaml:"name"`
	Exec        string            `yaml:"exec"`
	Args        []string          `yaml:"args,omitempty"`
	Dir         string            `yaml:"dir,omitempty"`
	Env         map[string]string `yaml:"env,omitempty"`
	Run         RunCondition      `yaml:"run"`
	Enabled     *bool             `yaml:"enabled,omitempty"`
	StopTimeout time.Duration     `yaml:"stop_timeout,omitempty"`
}

func (s Spec) Validate() error {
	if s.Name == "" {
		return errors.New("worker name is required")
	}
	if s.Exec == "" {
		return fmt.Errorf("worker %q: exec is required", s.Name)
	}
	if s.Run != "" {
		if err := s.Run.Validate(); err != nil {
			return fmt.Errorf("worker %q: %w", s.Name, err)
		}
	}
	return nil
}

// FromSpecs builds a registry of native workers in table order.
func FromSpecs(specs []Spec) (*Registry, error) {
	workers := make([]Worker, 0, len(specs))
	for _, s := range specs {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		workers = append(workers, NewNativeProcess(s))
	}
	return NewRegistry(workers...)
}

// NativeProcess runs a worker as a child process in its own process group.
type NativeProcess struct {
	spec Spec

	mu              sync.Mutex
	path            string
	cmd             *exec.Cmd
	done            chan struct{}
	exitCode        *int
	stopping        bool
	shouldBeRunning bool
}

func NewNativeProcess(spec Spec) *NativeProcess {
	if spec.Run == "" {
		spec.Run = RunAlways
	}
	if spec.StopTimeout <= 0 {
		spec.StopTimeout = defaultStopTimeout
	}
	return &NativeProcess{spec: spec}
}

func (p *NativeProcess) Name() string { return p.spec.Name }

// Prepare resolves the executable so a missing binary fails before the loop.
func (p *NativeProcess) Prepare() error {
	path, err := exec.LookPath(p.spec.Exec)
	if err != nil {
		return fmt.Errorf("prepare %s: %w", p.spec.Name, err)
	}
	p.mu.Lock()
	p.path = path
	p.mu.Unlock()
	return nil
}

func (p *NativeProcess) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.shouldBeRunning = true
	if p.aliveLocked() {
		return nil
	}

	path := p.path
	if path == "" {
		path = p.spec.Exec
	}
	cmd := exec.Command(path, p.spec.Args...)
	cmd.Dir = p.spec.Dir
	cmd.Env = append(os.Environ(), envList(p.spec.Env)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", p.spec.Name, err)
	}
	slog.Info("starting worker", "worker", p.spec.Name, "pid", cmd.Process.Pid)

	done := make(chan struct{})
	p.cmd = cmd
	p.done = done
	p.exitCode = nil
	p.stopping = false

	go func() {
		_ = cmd.Wait()
		code := cmd.ProcessState.ExitCode()
		p.mu.Lock()
		p.exitCode = &code
		p.mu.Unlock()
		close(done)
	}()
	return nil
}

func (p *NativeProcess) Stop(block bool) *int {
	p.mu.Lock()
	p.shouldBeRunning = false
	if p.cmd == nil {
		p.mu.Unlock()
		return nil
	}
	if !p.aliveLocked() {
		code := p.exitCode
		p.mu.Unlock()
		return code
	}
	if !p.stopping {
		p.stopping = true
		slog.Info("stopping worker", "worker", p.spec.Name, "pid", p.cmd.Process.Pid)
		p.signalLocked(unix.SIGINT)
	}
	done := p.done
	p.mu.Unlock()

	if !block {
		return nil
	}

	select {
	case <-done:
	case <-time.After(p.spec.StopTimeout):
		slog.Warn("worker did not stop, killing", "worker", p.spec.Name, "timeout", p.spec.StopTimeout)
		p.mu.Lock()
		p.signalLocked(unix.SIGKILL)
		p.mu.Unlock()
		<-done
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	slog.Info("worker stopped", "worker", p.spec.Name, "exit_code", *p.exitCode)
	return p.exitCode
}

func (p *NativeProcess) signalLocked(sig unix.Signal) {
	pid := p.cmd.Process.Pid
	if err := unix.Kill(-pid, sig); err != nil && !errors.Is(err, unix.ESRCH) {
		slog.Warn("signal worker", "worker", p.spec.Name, "signal", sig, "err", err)
	}
}

func (p *NativeProcess) IsAlive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.aliveLocked()
}

func (p *NativeProcess) aliveLocked() bool {
	if p.done == nil {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

func (p *NativeProcess) State() pilotmgr.ProcessState {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := pilotmgr.ProcessState{
		Name:            p.spec.Name,
		Running:         p.aliveLocked(),
		ShouldBeRunning: p.shouldBeRunning,
		ExitCode:        p.exitCode,
	}
	if p.cmd != nil && p.cmd.Process != nil {
		st.Pid = p.cmd.Process.Pid
	}
	return st
}

func (p *NativeProcess) ShouldRun(started bool, _ pilotmgr.CarParams) bool {
	if p.spec.Enabled != nil && !*p.spec.Enabled {
		return false
	}
	switch p.spec.Run {
	case RunOnroad:
		return started
	case RunOffroad:
		return !started
	default:
		return true
	}
}

func envList(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}
