package service

import (
	"context"
	"fmt"

	"github.com/chefwhisper/recipe-viewer/internal/bus"
	"github.com/chefwhisper/recipe-viewer/internal/logger"
	"github.com/chefwhisper/recipe-viewer/internal/models"
	"github.com/chefwhisper/recipe-viewer/internal/repository"
)

// EventRecorder mirrors timer lifecycle events into the persistent log.
// Ticks are not recorded; one entry per second per timer would drown the log.
type EventRecorder struct {
	b      *bus.Bus
	repo   repository.EventRepo
	log    *logger.Logger
	unsubs []bus.UnsubscribeFunc
}

func NewEventRecorder(b *bus.Bus, repo repository.EventRepo, log *logger.Logger) *EventRecorder {
	return &EventRecorder{b: b, repo: repo, log: log}
}

// Start subscribes to every lifecycle topic.
func (r *EventRecorder) Start() {
	lifecycle := func(topic, typ, verb string) {
		r.unsubs = append(r.unsubs, r.b.Subscribe(topic, func(p any) {
			ev, ok := p.(models.TimerEvent)
			if !ok {
				return
			}
			r.record(typ,
				fmt.Sprintf("timer %q %s", ev.Timer.DisplayName(), verb),
				map[string]any{"id": ev.Timer.ID, "name": ev.Timer.Name})
		}))
	}

	lifecycle(models.TopicCreated, "CREATED", "created")
	lifecycle(models.TopicStarted, "STARTED", "started")
	lifecycle(models.TopicPaused, "PAUSED", "paused")
	lifecycle(models.TopicReset, "RESET", "reset")
	lifecycle(models.TopicRenamed, "RENAMED", "renamed")
	lifecycle(models.TopicUpdated, "UPDATED", "updated")
	lifecycle(models.TopicCompleted, "COMPLETED", "completed")
	lifecycle(models.TopicRemoved, "REMOVED", "removed")

	r.unsubs = append(r.unsubs, r.b.Subscribe(models.TopicCleared, func(p any) {
		resp, ok := p.(models.BatchResponse)
		if !ok {
			return
		}
		r.record("CLEARED",
			fmt.Sprintf("all timers cleared (%d removed)", resp.Count),
			map[string]any{"count": resp.Count})
	}))
}

// Stop detaches from the bus.
func (r *EventRecorder) Stop() {
	for _, unsub := range r.unsubs {
		unsub()
	}
	r.unsubs = nil
}

func (r *EventRecorder) record(typ, description string, meta any) {
	e := models.LogEntry{Type: typ, Description: description, Metadata: meta}
	if err := r.repo.Append(context.Background(), e); err != nil && r.log != nil {
		r.log.Errorw("event_append_failed", "type", typ, "err", err)
	}
}
