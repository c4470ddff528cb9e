// Package bus is the manager's publish/subscribe telemetry channel.
//
// A Broker fans envelopes out to subscribers in-process; an Ingress socket
// lets worker processes publish onto the same broker.
package bus

import (
	"log/slog"
	"sync"
)

const subscriberBufferCap = 64

// Broker routes envelopes by topic. Publish never blocks: a subscriber that
// falls behind loses its oldest queued message.
type Broker struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[string]map[uint64]*Subscription
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[uint64]*Subscription)}
}

// Subscription receives envelopes for its topics on C until closed.
type Subscription struct {
	C <-chan Envelope

	ch      chan Envelope
	id      uint64
	topics  []string
	broker  *Broker
	dropped uint64
}

// Subscribe registers interest in topics.
func (b *Broker) Subscribe(topics ...string) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Envelope, subscriberBufferCap)
	s := &Subscription{C: ch, ch: ch, id: b.nextID, topics: topics, broker: b}
	b.nextID++
	for _, t := range topics {
		if b.subs[t] == nil {
			b.subs[t] = make(map[uint64]*Subscription)
		}
		b.subs[t][s.id] = s
	}
	return s
}

// Close unregisters the subscription. C is not closed so pending reads in a
// select keep working; it simply stops receiving.
func (s *Subscription) Close() {
	b := s.broker
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range s.topics {
		delete(b.subs[t], s.id)
		if len(b.subs[t]) == 0 {
			delete(b.subs, t)
		}
	}
}

// Dropped returns how many envelopes were discarded for this subscriber.
func (s *Subscription) Dropped() uint64 {
	s.broker.mu.Lock()
	defer s.broker.mu.Unlock()
	return s.dropped
}

// Publish encodes v and delivers it on topic.
func (b *Broker) Publish(topic string, v any) error {
	env, err := NewEnvelope(topic, v)
	if err != nil {
		return err
	}
	b.PublishEnvelope(env)
	return nil
}

// PublishEnvelope delivers an already-encoded envelope.
func (b *Broker) PublishEnvelope(env Envelope) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.subs[env.Topic] {
		select {
		case s.ch <- env:
			continue
		default:
		}
		// Full: drop the oldest so the newest sample always lands.
		select {
		case <-s.ch:
			s.dropped++
		default:
		}
		select {
		case s.ch <- env:
		default:
			s.dropped++
			slog.Debug("bus subscriber overflow", "topic", env.Topic)
		}
	}
}
