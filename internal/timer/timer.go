// Package timer implements the countdown state machine. Each running timer
// owns one ticking goroutine which decrements the remaining seconds once per
// second and publishes the refreshed snapshot on the bus, so subscribers never
// need to poll. Completion is announced the same way; the entity holds no
// callback references and stays fully serializable.
package timer

import (
	"sync"
	"time"

	"github.com/chefwhisper/recipe-viewer/internal/bus"
	"github.com/chefwhisper/recipe-viewer/internal/models"
)

// Timer is one countdown. All state transitions go through its methods; the
// registry is the only component holding a live reference.
type Timer struct {
	mu        sync.Mutex
	id        string
	name      string
	duration  int // seconds, fixed at creation
	remaining int
	status    models.TimerStatus
	metadata  map[string]any
	createdAt time.Time

	b         *bus.Bus
	tickEvery time.Duration
	stop      chan struct{} // non-nil while the tick goroutine runs
}

// New returns an idle timer with remaining == duration. tickEvery <= 0 falls
// back to one second.
func New(b *bus.Bus, id, name string, duration int, metadata map[string]any, tickEvery time.Duration) *Timer {
	if tickEvery <= 0 {
		tickEvery = time.Second
	}
	return &Timer{
		id:        id,
		name:      name,
		duration:  duration,
		remaining: duration,
		status:    models.StatusIdle,
		metadata:  cloneMetadata(metadata),
		createdAt: time.Now().UTC(),
		b:         b,
		tickEvery: tickEvery,
	}
}

// Restore rebuilds a timer from a persisted snapshot. A snapshot recorded as
// running comes back at its last known point but not ticking; it has to be
// started again explicitly.
func Restore(b *bus.Bus, snap models.Timer, tickEvery time.Duration) *Timer {
	if tickEvery <= 0 {
		tickEvery = time.Second
	}
	remaining := snap.RemainingTime
	if remaining < 0 {
		remaining = 0
	}
	if remaining > snap.Duration {
		remaining = snap.Duration
	}
	createdAt := snap.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return &Timer{
		id:        snap.ID,
		name:      snap.Name,
		duration:  snap.Duration,
		remaining: remaining,
		status:    snap.Status,
		metadata:  cloneMetadata(snap.Metadata),
		createdAt: createdAt,
		b:         b,
		tickEvery: tickEvery,
	}
}

// ID returns the immutable identifier.
func (t *Timer) ID() string { return t.id }

// Name returns the current label.
func (t *Timer) Name() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.name
}

// Snapshot returns a copy of the current state. The caller may keep or mutate
// it freely; it is detached from the entity.
func (t *Timer) Snapshot() models.Timer {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Timer) snapshotLocked() models.Timer {
	return models.Timer{
		ID:            t.id,
		Name:          t.name,
		Duration:      t.duration,
		RemainingTime: t.remaining,
		Status:        t.status,
		Completion:    models.CompletionPct(t.duration, t.remaining),
		Metadata:      cloneMetadata(t.metadata),
		CreatedAt:     t.createdAt,
	}
}

// Start moves the timer to running and spawns its tick goroutine. Calling it
// on an already-running timer is a no-op, so a double start never produces a
// second tick. Completed timers stay completed; reset them first.
func (t *Timer) Start() (models.Timer, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status == models.StatusCompleted {
		return t.snapshotLocked(), false
	}
	if t.status == models.StatusRunning && t.stop != nil {
		return t.snapshotLocked(), false
	}
	t.status = models.StatusRunning
	stop := make(chan struct{})
	t.stop = stop
	go t.run(stop)
	return t.snapshotLocked(), true
}

// Pause suspends a running timer. No-op in any other state.
func (t *Timer) Pause() (models.Timer, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != models.StatusRunning {
		return t.snapshotLocked(), false
	}
	t.cancelTickLocked()
	t.status = models.StatusPaused
	return t.snapshotLocked(), true
}

// Reset returns the timer to idle with remaining == duration, from any state.
func (t *Timer) Reset() (models.Timer, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelTickLocked()
	t.status = models.StatusIdle
	t.remaining = t.duration
	return t.snapshotLocked(), true
}

// Complete forces the terminal state, cancels the tick and publishes the
// completed event, same as a natural zero crossing.
func (t *Timer) Complete() (models.Timer, bool) {
	t.mu.Lock()
	if t.status == models.StatusCompleted {
		snap := t.snapshotLocked()
		t.mu.Unlock()
		return snap, false
	}
	t.cancelTickLocked()
	t.status = models.StatusCompleted
	t.remaining = 0
	snap := t.snapshotLocked()
	t.mu.Unlock()

	t.b.Publish(models.TopicCompleted, models.TimerEvent{Timer: snap})
	return snap, true
}

// Stop cancels the tick goroutine without changing status. The registry calls
// it right before dropping the entity; once it returns no further tick events
// are published for this timer.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelTickLocked()
}

// Rename changes the label.
func (t *Timer) Rename(name string) models.Timer {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.name = name
	return t.snapshotLocked()
}

// MergeMetadata merges entries into the metadata mapping, overwriting on key
// collisions.
func (t *Timer) MergeMetadata(meta map[string]any) models.Timer {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.metadata == nil {
		t.metadata = make(map[string]any, len(meta))
	}
	for k, v := range meta {
		t.metadata[k] = v
	}
	return t.snapshotLocked()
}

// cancelTickLocked stops the tick goroutine if one is running. Caller holds mu.
func (t *Timer) cancelTickLocked() {
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

// run is the per-timer tick loop. stop identifies this goroutine's generation;
// a newer Start replaces t.stop and the stale loop exits without publishing.
func (t *Timer) run(stop chan struct{}) {
	ticker := time.NewTicker(t.tickEvery)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			snap, completed, alive := t.advance(stop)
			if !alive {
				return
			}
			if completed {
				t.b.Publish(models.TopicCompleted, models.TimerEvent{Timer: snap})
				return
			}
			t.b.Publish(models.TopicTick, models.TimerEvent{Timer: snap})
		}
	}
}

// advance applies one tick. Returns the snapshot to publish, whether the timer
// just completed, and whether this loop generation is still current.
func (t *Timer) advance(stop chan struct{}) (models.Timer, bool, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != stop || t.status != models.StatusRunning {
		return models.Timer{}, false, false
	}
	if t.remaining > 0 {
		t.remaining--
	}
	if t.remaining <= 0 {
		t.remaining = 0
		t.status = models.StatusCompleted
		t.stop = nil
		return t.snapshotLocked(), true, true
	}
	return t.snapshotLocked(), false, true
}

func cloneMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return nil
	}
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}
