package bus

import (
	"context"
	"log/slog"
	"time"

	"pilotmgr"
)

// SubMaster tracks the latest sample of each subscribed topic. Update blocks
// until a poll topic delivers or the timeout passes.
type SubMaster struct {
	sub  *Subscription
	poll map[string]bool

	latest  map[string]Envelope
	updated map[string]bool
	frame   uint64

	deviceState pilotmgr.DeviceState
	carParams   pilotmgr.CarParams
}

// NewSubMaster subscribes to topics on b. Update waits on the poll topics.
func NewSubMaster(b *Broker, topics, poll []string) *SubMaster {
	pm := make(map[string]bool, len(poll))
	for _, t := range poll {
		pm[t] = true
	}
	return &SubMaster{
		sub:     b.Subscribe(topics...),
		poll:    pm,
		latest:  make(map[string]Envelope),
		updated: make(map[string]bool),
	}
}

func (s *SubMaster) Close() {
	s.sub.Close()
}

// Update applies all queued samples. It returns true if a poll topic was
// received, false on timeout or cancellation; in both cases the last known
// values are kept.
func (s *SubMaster) Update(ctx context.Context, timeout time.Duration) bool {
	clear(s.updated)
	s.frame++

	if len(s.poll) == 0 {
		s.drain()
		return false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case env := <-s.sub.C:
			s.apply(env)
			if s.poll[env.Topic] {
				s.drain()
				return true
			}
		case <-timer.C:
			return false
		case <-ctx.Done():
			return false
		}
	}
}

func (s *SubMaster) drain() {
	for {
		select {
		case env := <-s.sub.C:
			s.apply(env)
		default:
			return
		}
	}
}

func (s *SubMaster) apply(env Envelope) {
	s.latest[env.Topic] = env
	s.updated[env.Topic] = true

	switch env.Topic {
	case pilotmgr.TopicDeviceState:
		var ds pilotmgr.DeviceState
		if err := env.Decode(&ds); err != nil {
			slog.Warn("dropping malformed sample", "topic", env.Topic, "err", err)
			return
		}
		s.deviceState = ds
	case pilotmgr.TopicCarParams:
		var cp pilotmgr.CarParams
		if err := env.Decode(&cp); err != nil {
			slog.Warn("dropping malformed sample", "topic", env.Topic, "err", err)
			return
		}
		s.carParams = cp
	}
}

// Updated reports whether topic received a sample in the last Update.
func (s *SubMaster) Updated(topic string) bool { return s.updated[topic] }

// Latest returns the last envelope seen on topic.
func (s *SubMaster) Latest(topic string) (Envelope, bool) {
	env, ok := s.latest[topic]
	return env, ok
}

// Frame counts Update calls.
func (s *SubMaster) Frame() uint64 { return s.frame }

func (s *SubMaster) DeviceState() pilotmgr.DeviceState { return s.deviceState }
func (s *SubMaster) CarParams() pilotmgr.CarParams { return s.carParams }
