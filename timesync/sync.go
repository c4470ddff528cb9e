// Package timesync steps the system clock from a trusted NTP source before
// anything timestamps a log or a config write.
package timesync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/beevik/ntp"
	"golang.org/x/sys/unix"
)

const (
	defaultThreshold = 500 * time.Millisecond
	defaultTimeout   = 5 * time.Second
)

type Phase uint8

const (
	PhaseSkipped Phase = iota + 1
	PhaseInSync
	PhaseStepped
)

func (p Phase) String() string {
	switch p {
	case PhaseSkipped:
		return "skipped"
	case PhaseInSync:
		return "in_sync"
	case PhaseStepped:
		return "stepped"
	default:
		return "unknown"
	}
}

// Result describes one synchronization.
type Result struct {
	Phase  Phase
	Offset time.Duration
}

// Syncer queries one NTP server and steps the clock when it is off by more
// than the threshold.
type Syncer struct {
	server    string
	threshold time.Duration
	timeout   time.Duration

	query    func(ctx context.Context, server string, timeout time.Duration) (time.Duration, error)
	setClock func(time.Time) error
	now      func() time.Time
}

type Option func(*Syncer)

func WithThreshold(d time.Duration) Option {
	return func(s *Syncer) { s.threshold = d }
}

// WithQuery replaces the NTP query. Used by tests.
func WithQuery(q func(ctx context.Context, server string, timeout time.Duration) (time.Duration, error)) Option {
	return func(s *Syncer) { s.query = q }
}

// WithSetClock replaces the clock setter. Used by tests.
func WithSetClock(f func(time.Time) error) Option {
	return func(s *Syncer) { s.setClock = f }
}

// New builds a Syncer. An empty server disables synchronization.
func New(server string, opts ...Option) *Syncer {
	s := &Syncer{
		server:    server,
		threshold: defaultThreshold,
		timeout:   defaultTimeout,
		query:     queryOffset,
		setClock:  settimeofday,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync measures the offset against the server and steps the clock if needed.
func (s *Syncer) Sync(ctx context.Context) (Result, error) {
	if s.server == "" {
		slog.Debug("time sync disabled")
		return Result{Phase: PhaseSkipped}, nil
	}

	offset, err := s.query(ctx, s.server, s.timeout)
	if err != nil {
		return Result{}, fmt.Errorf("query %s: %w", s.server, err)
	}
	if offset.Abs() < s.threshold {
		return Result{Phase: PhaseInSync, Offset: offset}, nil
	}

	target := s.now().Add(offset)
	if err := s.setClock(target); err != nil {
		return Result{}, fmt.Errorf("set system time: %w", err)
	}
	slog.Info("system time stepped", "server", s.server, "offset", offset)
	return Result{Phase: PhaseStepped, Offset: offset}, nil
}

func queryOffset(ctx context.Context, server string, timeout time.Duration) (time.Duration, error) {
	type result struct {
		resp *ntp.Response
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		resp, err := ntp.QueryWithOptions(server, ntp.QueryOptions{Timeout: timeout})
		ch <- result{resp, err}
	}()

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return 0, r.err
		}
		if err := r.resp.Validate(); err != nil {
			return 0, errors.Join(errors.New("invalid ntp response"), err)
		}
		return r.resp.ClockOffset, nil
	}
}

func settimeofday(t time.Time) error {
	tv := unix.NsecToTimeval(t.UnixNano())
	return unix.Settimeofday(&tv)
}
