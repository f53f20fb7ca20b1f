package bus

import (
	"testing"
)

func TestBus_PublishDeliversInSubscriptionOrder(t *testing.T) {
	b := New(nil)
	var got []int
	b.Subscribe("t", func(any) { got = append(got, 1) })
	b.Subscribe("t", func(any) { got = append(got, 2) })
	b.Subscribe("t", func(any) { got = append(got, 3) })

	b.Publish("t", nil)

	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("expected [1 2 3], got %v", got)
	}
}

func TestBus_PanicInOneHandlerDoesNotStopSiblings(t *testing.T) {
	b := New(nil)
	delivered := false
	b.Subscribe("t", func(any) { panic("boom") })
	b.Subscribe("t", func(any) { delivered = true })

	b.Publish("t", "payload")

	if !delivered {
		t.Fatalf("expected second subscriber to run after first panicked")
	}
}

func TestBus_UnsubscribeStopsDelivery(t *testing.T) {
	b := New(nil)
	calls := 0
	unsub := b.Subscribe("t", func(any) { calls++ })

	b.Publish("t", nil)
	unsub()
	b.Publish("t", nil)
	unsub() // second call is a no-op

	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
	if b.HasSubscribers("t") {
		t.Fatalf("expected no subscribers after unsubscribe")
	}
}

func TestBus_UnsubscribeDuringDispatchKeepsSnapshot(t *testing.T) {
	b := New(nil)
	var got []string
	var unsubSecond UnsubscribeFunc
	b.Subscribe("t", func(any) {
		got = append(got, "first")
		unsubSecond() // removes the next subscriber mid-dispatch
	})
	unsubSecond = b.Subscribe("t", func(any) { got = append(got, "second") })

	b.Publish("t", nil)

	// The dispatch snapshot was taken before the removal, so "second" still fires once.
	if len(got) != 2 || got[1] != "second" {
		t.Fatalf("expected snapshot delivery [first second], got %v", got)
	}

	got = nil
	b.Publish("t", nil)
	if len(got) != 1 || got[0] != "first" {
		t.Fatalf("expected only [first] after removal, got %v", got)
	}
}

func TestBus_ReentrantPublishFromHandler(t *testing.T) {
	b := New(nil)
	var got []string
	b.Subscribe("inner", func(any) { got = append(got, "inner") })
	b.Subscribe("outer", func(any) {
		got = append(got, "outer")
		b.Publish("inner", nil)
	})

	b.Publish("outer", nil)

	if len(got) != 2 || got[0] != "outer" || got[1] != "inner" {
		t.Fatalf("expected [outer inner], got %v", got)
	}
}

func TestBus_SubscribeDuringDispatchNotInvokedThisRound(t *testing.T) {
	b := New(nil)
	lateCalls := 0
	b.Subscribe("t", func(any) {
		b.Subscribe("t", func(any) { lateCalls++ })
	})

	b.Publish("t", nil)
	if lateCalls != 0 {
		t.Fatalf("subscriber added mid-dispatch must not fire in the same round")
	}

	b.Publish("t", nil)
	if lateCalls != 1 {
		t.Fatalf("expected late subscriber to fire on the next publish, got %d", lateCalls)
	}
}

func TestBus_ClearByTopicAndAll(t *testing.T) {
	b := New(nil)
	b.Subscribe("a", func(any) {})
	b.Subscribe("b", func(any) {})

	b.Clear("a")
	if b.HasSubscribers("a") || !b.HasSubscribers("b") {
		t.Fatalf("expected only topic a cleared")
	}

	b.Clear()
	if b.HasSubscribers("b") {
		t.Fatalf("expected all topics cleared")
	}
}
