// Package pubsub fans provisioning progress out to interested listeners.
package pubsub

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// Topic names an event stream.
type Topic string

const (
	TopicFlowPlanned Topic = "flow.planned"
	TopicStepApplied Topic = "step.applied"
	TopicStepFailed  Topic = "step.failed"
	TopicFlowDone    Topic = "flow.done"
)

// ErrClosed is returned by Subscribe after Shutdown.
var ErrClosed = errors.New("pubsub: bus is shut down")

// Event describes one provisioning occurrence.
type Event struct {
	Topic   Topic
	Flow    string
	Node    string
	Kind    string
	Channel int
	Err     string
	Time    time.Time
}

const subscriptionBuffer = 64

// Bus delivers events to subscribers without ever blocking the publisher.
// Events published to a full subscription are dropped and counted.
type Bus struct {
	mu      sync.RWMutex
	subs    map[Topic]map[*Subscription]struct{}
	closed  bool
	dropped atomic.Uint64
}

// Subscription receives the events of one or more topics.
type Subscription struct {
	bus       *Bus
	topics    []Topic
	ch        chan Event
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[Topic]map[*Subscription]struct{})}
}

// Subscribe registers for topics until ctx is done or Unsubscribe is called.
func (b *Bus) Subscribe(ctx context.Context, topics ...Topic) (*Subscription, error) {
	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		bus:    b,
		topics: topics,
		ch:     make(chan Event, subscriptionBuffer),
		cancel: cancel,
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		cancel()
		return nil, ErrClosed
	}
	for _, t := range topics {
		if b.subs[t] == nil {
			b.subs[t] = make(map[*Subscription]struct{})
		}
		b.subs[t][sub] = struct{}{}
	}
	b.mu.Unlock()

	go func() {
		<-subCtx.Done()
		sub.Unsubscribe()
	}()

	return sub, nil
}

// Publish delivers ev to every subscriber of ev.Topic. A zero Time is set
// to now.
func (b *Bus) Publish(ev Event) {
	if b == nil {
		return
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for sub := range b.subs[ev.Topic] {
		select {
		case sub.ch <- ev:
		default:
			b.dropped.Add(1)
		}
	}
}

// SubscriberCount returns the number of subscriptions on topic.
func (b *Bus) SubscriberCount(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

// Dropped returns how many events were discarded on full subscriptions.
func (b *Bus) Dropped() uint64 { return b.dropped.Load() }

// Shutdown closes every subscription. Later publishes are ignored.
func (b *Bus) Shutdown() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	var all []*Subscription
	seen := make(map[*Subscription]struct{})
	for _, set := range b.subs {
		for sub := range set {
			if _, ok := seen[sub]; !ok {
				seen[sub] = struct{}{}
				all = append(all, sub)
			}
		}
	}
	b.subs = make(map[Topic]map[*Subscription]struct{})
	b.mu.Unlock()

	for _, sub := range all {
		sub.cancel()
		sub.close()
	}
}

// Events returns the delivery channel. It is closed on unsubscribe.
func (s *Subscription) Events() <-chan Event { return s.ch }

// Unsubscribe detaches the subscription and closes its channel.
func (s *Subscription) Unsubscribe() {
	s.cancel()

	s.bus.mu.Lock()
	for _, t := range s.topics {
		if set := s.bus.subs[t]; set != nil {
			delete(set, s)
			if len(set) == 0 {
				delete(s.bus.subs, t)
			}
		}
	}
	s.bus.mu.Unlock()

	s.close()
}

func (s *Subscription) close() {
	s.closeOnce.Do(func() { close(s.ch) })
}
