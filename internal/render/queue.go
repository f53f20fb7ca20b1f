// Package render turns bus lifecycle and tick events into screen mutations.
// Work is never done inside the event handler that received it: every event
// is queued and drained one entry per scheduling turn by a single worker,
// and an id already being processed is refused re-entry into either queue.
// That guarantees at most one concurrent render/update pass per timer and
// breaks re-entrant render loops.
package render

import (
	"sync"

	"github.com/chefwhisper/recipe-viewer/internal/bus"
	"github.com/chefwhisper/recipe-viewer/internal/logger"
	"github.com/chefwhisper/recipe-viewer/internal/models"
)

// Screen is the sink the coordinator draws on. Render materializes a timer
// card, Update mutates an existing one, Has reports whether the card is still
// attached, Notify fires the completion side-channel.
type Screen interface {
	Render(t models.Timer) error
	Update(t models.Timer) error
	Remove(id string)
	Has(id string) bool
	Notify(t models.Timer)
	Clear()
}

type workItem struct {
	snap   models.Timer
	render bool // first materialization vs subsequent mutation
	notify bool
}

// Coordinator serializes per-timer screen work. Construct with New, wire with
// Start, tear down with Stop.
type Coordinator struct {
	b      *bus.Bus
	screen Screen
	log    *logger.Logger

	mu       sync.Mutex
	renderQ  []workItem
	updateQ  []workItem
	inFlight map[string]struct{} // ids queued or mid-pass
	rendered map[string]struct{} // ids with a materialized card

	wake   chan struct{}
	quit   chan struct{}
	done   chan struct{}
	unsubs []bus.UnsubscribeFunc
}

// New builds an unwired coordinator.
func New(b *bus.Bus, screen Screen, log *logger.Logger) *Coordinator {
	return &Coordinator{
		b:        b,
		screen:   screen,
		log:      log,
		inFlight: make(map[string]struct{}),
		rendered: make(map[string]struct{}),
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start subscribes to the lifecycle topics and launches the worker.
func (c *Coordinator) Start() {
	sub := func(topic string, h bus.Handler) {
		c.unsubs = append(c.unsubs, c.b.Subscribe(topic, h))
	}

	sub(models.TopicCreated, c.eventHandler(func(t models.Timer) { c.enqueue(workItem{snap: t, render: true}) }))

	update := c.eventHandler(func(t models.Timer) { c.enqueue(workItem{snap: t}) })
	sub(models.TopicTick, update)
	sub(models.TopicStarted, update)
	sub(models.TopicPaused, update)
	sub(models.TopicReset, update)
	sub(models.TopicRenamed, update)
	sub(models.TopicUpdated, update)

	sub(models.TopicCompleted, c.eventHandler(func(t models.Timer) {
		c.enqueue(workItem{snap: t, notify: true})
	}))
	sub(models.TopicRemoved, c.eventHandler(c.handleRemoved))
	sub(models.TopicCleared, func(any) { c.handleCleared() })

	go c.worker()
}

// Stop detaches from the bus and waits for the worker to exit. Queued work is
// dropped.
func (c *Coordinator) Stop() {
	for _, unsub := range c.unsubs {
		unsub()
	}
	c.unsubs = nil
	close(c.quit)
	<-c.done
}

func (c *Coordinator) eventHandler(fn func(models.Timer)) bus.Handler {
	return func(p any) {
		ev, ok := p.(models.TimerEvent)
		if !ok {
			if c.log != nil {
				c.log.Errorw("render_event_malformed")
			}
			return
		}
		fn(ev.Timer)
	}
}

// enqueue admits one work item unless its id is already queued or mid-pass.
// Refused events are simply dropped; the next event for that timer carries a
// fresher snapshot anyway.
func (c *Coordinator) enqueue(it workItem) {
	c.mu.Lock()
	if _, busy := c.inFlight[it.snap.ID]; busy {
		c.mu.Unlock()
		return
	}
	c.inFlight[it.snap.ID] = struct{}{}
	if it.render {
		c.renderQ = append(c.renderQ, it)
	} else {
		c.updateQ = append(c.updateQ, it)
	}
	c.mu.Unlock()
	c.signal()
}

func (c *Coordinator) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Coordinator) worker() {
	defer close(c.done)
	for {
		select {
		case <-c.quit:
			return
		case <-c.wake:
			for c.processNext() {
				select {
				case <-c.quit:
					return
				default:
				}
			}
		}
	}
}

// processNext pops one entry, render queue first, runs its pass and releases
// the id. Reports whether more work is queued.
func (c *Coordinator) processNext() bool {
	c.mu.Lock()
	var it workItem
	switch {
	case len(c.renderQ) > 0:
		it = c.renderQ[0]
		c.renderQ = c.renderQ[1:]
	case len(c.updateQ) > 0:
		it = c.updateQ[0]
		c.updateQ = c.updateQ[1:]
	default:
		c.mu.Unlock()
		return false
	}
	c.mu.Unlock()

	c.runPass(it)

	c.mu.Lock()
	delete(c.inFlight, it.snap.ID)
	more := len(c.renderQ)+len(c.updateQ) > 0
	c.mu.Unlock()
	return more
}

func (c *Coordinator) runPass(it workItem) {
	id := it.snap.ID

	doRender := it.render
	if !doRender {
		c.mu.Lock()
		_, known := c.rendered[id]
		c.mu.Unlock()
		// An update for a card that was never rendered, or whose element went
		// missing underneath us, falls back to a fresh render instead of
		// touching a dangling reference.
		if !known || !c.screen.Has(id) {
			doRender = true
		}
	}

	var err error
	if doRender {
		if err = c.screen.Render(it.snap); err == nil {
			c.mu.Lock()
			c.rendered[id] = struct{}{}
			c.mu.Unlock()
		}
	} else {
		err = c.screen.Update(it.snap)
	}
	if err != nil && c.log != nil {
		c.log.Errorw("render_pass_failed", "id", id, "render", doRender, "err", err)
	}

	if it.notify {
		c.screen.Notify(it.snap)
	}
}

// handleRemoved purges any queued work for the id and tears the card down.
// A pass already mid-flight finishes on its own; its id is released by the
// worker afterwards.
func (c *Coordinator) handleRemoved(t models.Timer) {
	c.mu.Lock()
	purged := false
	c.renderQ, purged = purge(c.renderQ, t.ID, purged)
	c.updateQ, purged = purge(c.updateQ, t.ID, purged)
	if purged {
		delete(c.inFlight, t.ID)
	}
	delete(c.rendered, t.ID)
	c.mu.Unlock()

	c.screen.Remove(t.ID)
}

func (c *Coordinator) handleCleared() {
	c.mu.Lock()
	for _, it := range c.renderQ {
		delete(c.inFlight, it.snap.ID)
	}
	for _, it := range c.updateQ {
		delete(c.inFlight, it.snap.ID)
	}
	c.renderQ = nil
	c.updateQ = nil
	c.rendered = make(map[string]struct{})
	c.mu.Unlock()

	c.screen.Clear()
}

func purge(q []workItem, id string, already bool) ([]workItem, bool) {
	out := q[:0]
	found := already
	for _, it := range q {
		if it.snap.ID == id {
			found = true
			continue
		}
		out = append(out, it)
	}
	return out, found
}
