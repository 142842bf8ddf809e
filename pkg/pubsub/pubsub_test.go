package pubsub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func receive(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		if !ok {
			t.Fatal("subscription closed")
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
	return Event{}
}

// TestPublishSubscribe tests delivery of a typed event.
func TestPublishSubscribe(t *testing.T) {
	bus := New()
	defer bus.Shutdown()

	sub, err := bus.Subscribe(context.Background(), TopicStepApplied)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	bus.Publish(Event{Topic: TopicStepApplied, Node: "r1", Kind: "roadm", Channel: 3})

	ev := receive(t, sub)
	if ev.Node != "r1" || ev.Channel != 3 {
		t.Errorf("got %+v", ev)
	}
	if ev.Time.IsZero() {
		t.Error("publish did not stamp time")
	}
}

// TestTopicFiltering tests that subscribers see only their topics.
func TestTopicFiltering(t *testing.T) {
	bus := New()
	defer bus.Shutdown()

	failures, _ := bus.Subscribe(context.Background(), TopicStepFailed)
	both, _ := bus.Subscribe(context.Background(), TopicStepApplied, TopicStepFailed)

	bus.Publish(Event{Topic: TopicStepApplied, Node: "r1"})
	bus.Publish(Event{Topic: TopicStepFailed, Node: "r2"})

	if ev := receive(t, failures); ev.Node != "r2" {
		t.Errorf("failures got %+v", ev)
	}
	if ev := receive(t, both); ev.Node != "r1" {
		t.Errorf("both got %+v first", ev)
	}
	if ev := receive(t, both); ev.Node != "r2" {
		t.Errorf("both got %+v second", ev)
	}
	if n := bus.SubscriberCount(TopicStepFailed); n != 2 {
		t.Errorf("SubscriberCount = %d, want 2", n)
	}
}

// TestPublishNeverBlocks tests that a full subscription drops events.
func TestPublishNeverBlocks(t *testing.T) {
	bus := New()
	defer bus.Shutdown()

	_, _ = bus.Subscribe(context.Background(), TopicFlowPlanned)

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriptionBuffer+10; i++ {
			bus.Publish(Event{Topic: TopicFlowPlanned, Channel: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscription")
	}
	if bus.Dropped() != 10 {
		t.Errorf("Dropped = %d, want 10", bus.Dropped())
	}
}

// TestContextCancelUnsubscribes tests cleanup when the subscriber's context ends.
func TestContextCancelUnsubscribes(t *testing.T) {
	bus := New()
	defer bus.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	sub, _ := bus.Subscribe(ctx, TopicStepApplied)
	cancel()

	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("subscription not closed after cancel")
	}
	if n := bus.SubscriberCount(TopicStepApplied); n != 0 {
		t.Errorf("SubscriberCount = %d, want 0", n)
	}
}

// TestShutdown tests that shutdown closes subscriptions and rejects new ones.
func TestShutdown(t *testing.T) {
	bus := New()
	sub, _ := bus.Subscribe(context.Background(), TopicStepApplied, TopicStepFailed)

	bus.Shutdown()
	bus.Shutdown()

	if _, ok := <-sub.Events(); ok {
		t.Error("channel still open after shutdown")
	}
	if _, err := bus.Subscribe(context.Background(), TopicStepApplied); !errors.Is(err, ErrClosed) {
		t.Errorf("Subscribe after shutdown err = %v", err)
	}

	// Must not panic.
	bus.Publish(Event{Topic: TopicStepApplied})
	sub.Unsubscribe()
}

// TestNilBusPublish tests that publishing on a nil bus is a no-op.
func TestNilBusPublish(t *testing.T) {
	var bus *Bus
	bus.Publish(Event{Topic: TopicStepApplied})
}

// TestConcurrentPublish tests publishing from many goroutines.
func TestConcurrentPublish(t *testing.T) {
	bus := New()
	defer bus.Shutdown()

	sub, _ := bus.Subscribe(context.Background(), TopicStepApplied)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 4; j++ {
				bus.Publish(Event{Topic: TopicStepApplied, Channel: n})
			}
		}(i)
	}
	wg.Wait()

	got := 0
	for got < 32 {
		receive(t, sub)
		got++
	}
}
