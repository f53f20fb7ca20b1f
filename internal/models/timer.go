package models

import "time"

// TimerStatus is the lifecycle state of a countdown timer.
type TimerStatus string

const (
	StatusIdle      TimerStatus = "idle"
	StatusRunning   TimerStatus = "running"
	StatusPaused    TimerStatus = "paused"
	StatusCompleted TimerStatus = "completed"
)

// Metadata keys recognized across the system. Metadata stays an open mapping;
// the keys below are the subset with defined meaning.
const (
	MetaStepID       = "stepId"       // originating workflow step
	MetaSource       = "source"       // sentence the timer was extracted from
	MetaBulletIndex  = "bulletIndex"  // bullet within the step
	MetaMatchIndex   = "matchIndex"   // character offset of the duration match
	MetaPhase        = "phase"        // display grouping (prep | cook | rest)
	MetaDisplayTitle = "displayTitle" // overrides Name on screen when set
)

// Timer is the serializable snapshot of one countdown.
type Timer struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Duration      int            `json:"duration"`      // total seconds, fixed at creation
	RemainingTime int            `json:"remainingTime"` // seconds left
	Status        TimerStatus    `json:"status"`        // idle | running | paused | completed
	Completion    float64        `json:"completion"`    // percent elapsed, clamped [0,100]
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// CompletionPct returns elapsed progress as a percentage, clamped to [0,100].
func CompletionPct(duration, remaining int) float64 {
	if duration <= 0 {
		return 0
	}
	pct := float64(duration-remaining) / float64(duration) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// DisplayName returns the title to show on screen: the displayTitle metadata
// entry when present, the timer name otherwise.
func (t Timer) DisplayName() string {
	if t.Metadata != nil {
		if v, ok := t.Metadata[MetaDisplayTitle].(string); ok && v != "" {
			return v
		}
	}
	return t.Name
}

// LogEntry is a persisted lifecycle event, append-only.
type LogEntry struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // CREATED | STARTED | PAUSED | RESET | RENAMED | UPDATED | COMPLETED | REMOVED | CLEARED
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}

// User is an account allowed to drive the API.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // never expose hash
}
