// Package bus provides the in-process publish/subscribe primitive every other
// component communicates through. Dispatch is synchronous: Publish invokes all
// current subscribers of a topic in subscription order before returning.
package bus

import (
	"sync"

	"github.com/chefwhisper/recipe-viewer/internal/logger"
)

// Handler consumes one published payload.
type Handler func(payload any)

// UnsubscribeFunc detaches the subscription it was returned for. Safe to call
// more than once.
type UnsubscribeFunc func()

type subscription struct {
	id      uint64
	handler Handler
}

// Bus is a topic-keyed pub/sub dispatcher. A handler may publish further
// events (including on its own topic) during its invocation; dispatch works on
// a snapshot of the subscriber list, so mutating subscriptions mid-dispatch
// never skips or double-delivers to sibling subscribers. Recursive publishes
// run on the call stack; bounding the recursion is the caller's discipline.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	topics map[string][]subscription
	log    *logger.Logger
}

// New returns an empty bus.
func New(log *logger.Logger) *Bus {
	return &Bus{
		topics: make(map[string][]subscription),
		log:    log,
	}
}

// Subscribe registers handler for topic and returns its unsubscribe function.
// Handlers for one topic fire in subscription order.
func (b *Bus) Subscribe(topic string, handler Handler) UnsubscribeFunc {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.topics[topic] = append(b.topics[topic], subscription{id: id, handler: handler})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.topics[topic]
		for i, s := range subs {
			if s.id == id {
				// Copy-on-remove so an in-progress dispatch keeps its snapshot intact.
				next := make([]subscription, 0, len(subs)-1)
				next = append(next, subs[:i]...)
				next = append(next, subs[i+1:]...)
				if len(next) == 0 {
					delete(b.topics, topic)
				} else {
					b.topics[topic] = next
				}
				return
			}
		}
	}
}

// Publish delivers payload to every subscriber of topic, fire-and-forget.
// A panic in one handler is recovered and logged; the remaining subscribers
// still run.
func (b *Bus) Publish(topic string, payload any) {
	b.mu.RLock()
	subs := b.topics[topic]
	b.mu.RUnlock()

	for _, s := range subs {
		b.dispatch(topic, s.handler, payload)
	}
}

func (b *Bus) dispatch(topic string, h Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			if b.log != nil {
				b.log.Errorw("bus_handler_panic", "topic", topic, "panic", r)
			}
		}
	}()
	h(payload)
}

// HasSubscribers reports whether any handler is registered for topic.
func (b *Bus) HasSubscribers(topic string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic]) > 0
}

// Clear drops all subscriptions for the given topics, or every subscription
// when none are given.
func (b *Bus) Clear(topics ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(topics) == 0 {
		b.topics = make(map[string][]subscription)
		return
	}
	for _, t := range topics {
		delete(b.topics, t)
	}
}
