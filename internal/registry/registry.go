// Package registry is the core service owning every timer instance. All
// mutating operations arrive as bus requests and are answered on response
// topics; reads are plain lookup calls returning detached snapshots. The
// registry persists the whole timer set after each mutation and restores it
// at startup.
package registry

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chefwhisper/recipe-viewer/internal/bus"
	"github.com/chefwhisper/recipe-viewer/internal/logger"
	"github.com/chefwhisper/recipe-viewer/internal/models"
	"github.com/chefwhisper/recipe-viewer/internal/repository"
	"github.com/chefwhisper/recipe-viewer/internal/timer"
)

const (
	defaultName     = "Timer"
	defaultDuration = 60 // seconds

	// autoStart delays the start request so consumers can render the idle
	// card before the first tick mutates it.
	autoStartDelay = 250 * time.Millisecond
)

// Registry owns the id -> timer mapping and the per-step duplicate
// signatures. Construct with New, wire with Init, tear down with Close; the
// composition root owns the lifecycle.
type Registry struct {
	b         *bus.Bus
	repo      repository.SnapshotRepo
	log       *logger.Logger
	tickEvery time.Duration

	mu     sync.RWMutex
	timers map[string]*timer.Timer
	sigs   map[string]map[string]struct{} // step key -> signatures created for it

	unsubs []bus.UnsubscribeFunc
}

// New builds an unwired registry.
func New(b *bus.Bus, repo repository.SnapshotRepo, log *logger.Logger) *Registry {
	return &Registry{
		b:         b,
		repo:      repo,
		log:       log,
		tickEvery: time.Second,
		timers:    make(map[string]*timer.Timer),
		sigs:      make(map[string]map[string]struct{}),
	}
}

// Init restores persisted timers and subscribes the request handlers.
func (r *Registry) Init(ctx context.Context) error {
	r.restore(ctx)

	sub := func(topic string, h bus.Handler) {
		r.unsubs = append(r.unsubs, r.b.Subscribe(topic, h))
	}

	sub(models.TopicRequestCreate, r.handleCreate)

	sub(models.TopicRequestStart, r.controlHandler(models.TopicStartResponse, r.Start))
	sub(models.TopicRequestPause, r.controlHandler(models.TopicPauseResponse, r.Pause))
	sub(models.TopicRequestReset, r.controlHandler(models.TopicResetResponse, r.Reset))
	sub(models.TopicRequestRemove, r.controlHandler(models.TopicRemoveResponse, r.Remove))

	sub(models.TopicRequestRename, r.handleRename)
	sub(models.TopicRequestMetadata, r.handleMetadata)

	sub(models.TopicRequestStartAll, r.batchHandler(models.TopicStartAllResponse, r.StartAll))
	sub(models.TopicRequestPauseAll, r.batchHandler(models.TopicPauseAllResponse, r.PauseAll))
	sub(models.TopicRequestResetAll, r.batchHandler(models.TopicResetAllResponse, r.ResetAll))

	sub(models.TopicRequestStartByName, r.byNameHandler(r.Start))
	sub(models.TopicRequestPauseByName, r.byNameHandler(r.Pause))
	sub(models.TopicRequestResetByName, r.byNameHandler(r.Reset))
	sub(models.TopicRequestRemoveByName, r.byNameHandler(r.Remove))

	sub(models.TopicRequestClear, r.handleClear)

	// Entities announce their own completion; the registry only has to persist.
	sub(models.TopicCompleted, func(any) { r.persist() })

	return nil
}

// Close detaches the bus handlers and cancels every tick. Persisted state is
// left untouched.
func (r *Registry) Close() {
	for _, unsub := range r.unsubs {
		unsub()
	}
	r.unsubs = nil

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tm := range r.timers {
		tm.Stop()
	}
}

// ---- operations ----

// Create builds and stores a new timer, returning its id. An empty id means
// the request was duplicate-suppressed; callers treat that as "no timer".
func (r *Registry) Create(req models.CreateRequest) string {
	name := req.Name
	if name == "" {
		name = defaultName
	}
	duration := req.Duration
	if duration <= 0 {
		duration = defaultDuration
	}

	stepKey, sig, hasSig := signature(req.Metadata, duration)

	r.mu.Lock()
	if hasSig {
		if _, dup := r.sigs[stepKey][sig]; dup {
			r.mu.Unlock()
			r.log.Infow("timer_create_suppressed", "step", stepKey, "name", name)
			return ""
		}
	}
	id := uuid.NewString()
	tm := timer.New(r.b, id, name, duration, req.Metadata, r.tickEvery)
	r.timers[id] = tm
	if hasSig {
		if r.sigs[stepKey] == nil {
			r.sigs[stepKey] = make(map[string]struct{})
		}
		r.sigs[stepKey][sig] = struct{}{}
	}
	snap := tm.Snapshot()
	r.mu.Unlock()

	r.persist()
	r.log.Infow("timer_created", "id", id, "name", name, "duration", duration)
	r.b.Publish(models.TopicCreated, models.TimerEvent{Timer: snap})

	if req.AutoStart {
		time.AfterFunc(autoStartDelay, func() {
			r.b.Publish(models.TopicRequestStart, models.ControlRequest{ID: id})
		})
	}
	return id
}

// Start begins the countdown. False only when the id is unknown; starting an
// already-running timer succeeds as a no-op.
func (r *Registry) Start(id string) bool {
	tm := r.lookup(id)
	if tm == nil {
		return false
	}
	if snap, changed := tm.Start(); changed {
		r.persist()
		r.b.Publish(models.TopicStarted, models.TimerEvent{Timer: snap})
	}
	return true
}

// Pause suspends the countdown; a no-op unless running.
func (r *Registry) Pause(id string) bool {
	tm := r.lookup(id)
	if tm == nil {
		return false
	}
	if snap, changed := tm.Pause(); changed {
		r.persist()
		r.b.Publish(models.TopicPaused, models.TimerEvent{Timer: snap})
	}
	return true
}

// Reset returns the timer to idle with its full duration.
func (r *Registry) Reset(id string) bool {
	tm := r.lookup(id)
	if tm == nil {
		return false
	}
	snap, _ := tm.Reset()
	r.persist()
	r.b.Publish(models.TopicReset, models.TimerEvent{Timer: snap})
	return true
}

// Remove cancels the tick and drops the entity. No tick event can be observed
// once Remove returns.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	tm, ok := r.timers[id]
	if !ok {
		r.mu.Unlock()
		return false
	}
	tm.Stop()
	delete(r.timers, id)
	snap := tm.Snapshot()
	r.mu.Unlock()

	r.persist()
	r.log.Infow("timer_removed", "id", id, "name", snap.Name)
	r.b.Publish(models.TopicRemoved, models.TimerEvent{Timer: snap})
	return true
}

// Rename changes a timer's label.
func (r *Registry) Rename(id, name string) bool {
	tm := r.lookup(id)
	if tm == nil {
		return false
	}
	snap := tm.Rename(name)
	r.persist()
	r.b.Publish(models.TopicRenamed, models.TimerEvent{Timer: snap})
	return true
}

// AddMetadata merges entries into a timer's metadata mapping.
func (r *Registry) AddMetadata(id string, meta map[string]any) bool {
	tm := r.lookup(id)
	if tm == nil {
		return false
	}
	snap := tm.MergeMetadata(meta)
	r.persist()
	r.b.Publish(models.TopicUpdated, models.TimerEvent{Timer: snap})
	return true
}

// StartAll starts every timer not already running or completed and returns
// how many it touched.
func (r *Registry) StartAll() int {
	count := 0
	for _, snap := range r.GetAll() {
		if snap.Status == models.StatusRunning || snap.Status == models.StatusCompleted {
			continue
		}
		if r.Start(snap.ID) {
			count++
		}
	}
	return count
}

// PauseAll pauses every running timer and returns how many it touched.
func (r *Registry) PauseAll() int {
	count := 0
	for _, snap := range r.GetAll() {
		if snap.Status != models.StatusRunning {
			continue
		}
		if r.Pause(snap.ID) {
			count++
		}
	}
	return count
}

// ResetAll resets every timer not already sitting idle at full duration.
func (r *Registry) ResetAll() int {
	count := 0
	for _, snap := range r.GetAll() {
		if snap.Status == models.StatusIdle && snap.RemainingTime == snap.Duration {
			continue
		}
		if r.Reset(snap.ID) {
			count++
		}
	}
	return count
}

// ClearAll removes every timer, cancels every tick and empties the signature
// map. The persisted snapshot is guaranteed to end up empty even if a single
// teardown misbehaves.
func (r *Registry) ClearAll() int {
	r.mu.Lock()
	removed := make([]*timer.Timer, 0, len(r.timers))
	for _, tm := range r.timers {
		removed = append(removed, tm)
	}
	r.timers = make(map[string]*timer.Timer)
	r.sigs = make(map[string]map[string]struct{})
	r.mu.Unlock()

	for _, tm := range removed {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					r.log.Errorw("timer_teardown_panic", "id", tm.ID(), "panic", rec)
				}
			}()
			tm.Stop()
		}()
	}

	r.persist()
	r.log.Infow("timers_cleared", "count", len(removed))
	r.b.Publish(models.TopicCleared, models.BatchResponse{Count: len(removed)})
	return len(removed)
}

// Get returns a snapshot of one timer.
func (r *Registry) Get(id string) (models.Timer, bool) {
	tm := r.lookup(id)
	if tm == nil {
		return models.Timer{}, false
	}
	return tm.Snapshot(), true
}

// GetAll returns snapshots of every timer, oldest first.
func (r *Registry) GetAll() []models.Timer {
	r.mu.RLock()
	out := make([]models.Timer, 0, len(r.timers))
	for _, tm := range r.timers {
		out = append(out, tm.Snapshot())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r *Registry) lookup(id string) *timer.Timer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.timers[id]
}

// ---- bus handlers ----

func (r *Registry) handleCreate(p any) {
	req, ok := p.(models.CreateRequest)
	if !ok {
		r.log.Errorw("timer_request_malformed", "topic", models.TopicRequestCreate)
		return
	}
	id := r.Create(req)
	r.b.Publish(models.TopicCreatedResponse, models.CreateResponse{ID: id})
}

func (r *Registry) controlHandler(respTopic string, op func(string) bool) bus.Handler {
	return func(p any) {
		req, ok := p.(models.ControlRequest)
		if !ok || req.ID == "" {
			r.log.Errorw("timer_request_malformed", "topic", respTopic)
			return
		}
		success := op(req.ID)
		r.b.Publish(respTopic, models.ControlResponse{ID: req.ID, Success: success})
	}
}

func (r *Registry) handleRename(p any) {
	req, ok := p.(models.RenameRequest)
	if !ok || req.ID == "" || req.Name == "" {
		r.log.Errorw("timer_request_malformed", "topic", models.TopicRequestRename)
		return
	}
	success := r.Rename(req.ID, req.Name)
	r.b.Publish(models.TopicRenameResponse, models.ControlResponse{ID: req.ID, Success: success})
}

func (r *Registry) handleMetadata(p any) {
	req, ok := p.(models.MetadataRequest)
	if !ok || req.ID == "" {
		r.log.Errorw("timer_request_malformed", "topic", models.TopicRequestMetadata)
		return
	}
	success := r.AddMetadata(req.ID, req.Metadata)
	r.b.Publish(models.TopicMetadataResponse, models.ControlResponse{ID: req.ID, Success: success})
}

func (r *Registry) batchHandler(respTopic string, op func() int) bus.Handler {
	return func(any) {
		r.b.Publish(respTopic, models.BatchResponse{Count: op()})
	}
}

// byNameHandler resolves the spoken name and applies op. Fire-and-forget: an
// unresolved name is a quiet no-op.
func (r *Registry) byNameHandler(op func(string) bool) bus.Handler {
	return func(p any) {
		req, ok := p.(models.NameRequest)
		if !ok || req.Name == "" {
			return
		}
		if id, found := r.ResolveByName(req.Name); found {
			op(id)
		}
	}
}

func (r *Registry) handleClear(any) {
	count := r.ClearAll()
	r.b.Publish(models.TopicClearResponse, models.BatchResponse{Count: count})
}

// ---- persistence ----

// persist writes the full snapshot array. In-memory state is the source of
// truth; a failed write is logged and not rolled back.
func (r *Registry) persist() {
	snaps := r.GetAll()
	if err := r.repo.Save(context.Background(), snaps); err != nil {
		r.log.Errorw("timer_persist_failed", "err", err, "count", len(snaps))
	}
}

// restore loads the persisted snapshot array and rebuilds entities plus the
// duplicate-signature map. Previously running timers come back paused at
// their last known point in practice: recorded status is kept but no tick is
// resumed until an explicit start.
func (r *Registry) restore(ctx context.Context) {
	snaps, err := r.repo.Load(ctx)
	if err != nil {
		r.log.Errorw("timer_restore_failed", "err", err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, snap := range snaps {
		if snap.ID == "" {
			continue
		}
		r.timers[snap.ID] = timer.Restore(r.b, snap, r.tickEvery)
		if stepKey, sig, ok := signature(snap.Metadata, snap.Duration); ok {
			if r.sigs[stepKey] == nil {
				r.sigs[stepKey] = make(map[string]struct{})
			}
			r.sigs[stepKey][sig] = struct{}{}
		}
	}
	if len(snaps) > 0 {
		r.log.Infow("timers_restored", "count", len(snaps))
	}
}
