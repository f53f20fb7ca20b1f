package models

// Bus topics. Requests are answered on their response topic; lifecycle topics
// broadcast the mutated snapshot to whoever listens.
const (
	TopicRequestCreate   = "timer:request:create"
	TopicCreatedResponse = "timer:created:response"
	TopicCreated         = "timer:created"

	TopicRequestStart  = "timer:request:start"
	TopicStartResponse = "timer:start:response"
	TopicStarted       = "timer:started"

	TopicRequestPause  = "timer:request:pause"
	TopicPauseResponse = "timer:pause:response"
	TopicPaused        = "timer:paused"

	TopicRequestReset  = "timer:request:reset"
	TopicResetResponse = "timer:reset:response"
	TopicReset         = "timer:reset"

	TopicRequestRemove  = "timer:request:remove"
	TopicRemoveResponse = "timer:remove:response"
	TopicRemoved        = "timer:removed"

	TopicRequestRename  = "timer:request:rename"
	TopicRenameResponse = "timer:rename:response"
	TopicRenamed        = "timer:renamed"

	TopicRequestMetadata  = "timer:request:metadata"
	TopicMetadataResponse = "timer:metadata:response"
	TopicUpdated          = "timer:updated"

	TopicRequestStartAll  = "timer:request:start:all"
	TopicStartAllResponse = "timer:start:all:response"
	TopicRequestPauseAll  = "timer:request:pause:all"
	TopicPauseAllResponse = "timer:pause:all:response"
	TopicRequestResetAll  = "timer:request:reset:all"
	TopicResetAllResponse = "timer:reset:all:response"

	TopicRequestStartByName  = "timer:request:start:byName"
	TopicRequestPauseByName  = "timer:request:pause:byName"
	TopicRequestResetByName  = "timer:request:reset:byName"
	TopicRequestRemoveByName = "timer:request:remove:byName"

	TopicRequestClear  = "timer:request:clear"
	TopicClearResponse = "timer:clear:response"
	TopicCleared       = "timer:cleared"

	TopicTick      = "timer:tick"
	TopicCompleted = "timer:completed"

	TopicCommandProcess = "timer:command:process"
	TopicCommandResult  = "timer:command:result"
)

// CreateRequest asks the registry to create a timer. Zero values fall back to
// defaults ("Timer", 60 s).
type CreateRequest struct {
	Name      string         `json:"name,omitempty"`
	Duration  int            `json:"duration,omitempty"` // seconds
	AutoStart bool           `json:"autoStart,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// CreateResponse carries the new timer id. Empty means the request was
// duplicate-suppressed or failed; callers treat it as "nothing was created".
type CreateResponse struct {
	ID string `json:"id"`
}

// ControlRequest targets one timer by id (start/pause/reset/remove).
type ControlRequest struct {
	ID string `json:"id"`
}

// ControlResponse reports the outcome of a control request. Success is false
// when the id is unknown.
type ControlResponse struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
}

// RenameRequest changes a timer's label.
type RenameRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MetadataRequest merges entries into a timer's metadata.
type MetadataRequest struct {
	ID       string         `json:"id"`
	Metadata map[string]any `json:"metadata"`
}

// NameRequest targets a timer by fuzzy name resolution.
type NameRequest struct {
	Name string `json:"name"`
}

// BatchResponse reports how many timers a batch operation touched.
type BatchResponse struct {
	Count int `json:"count"`
}

// TimerEvent is the payload of every lifecycle and tick topic.
type TimerEvent struct {
	Timer Timer `json:"timer"`
}

// CommandRequest carries one free-text command into the interpreter.
type CommandRequest struct {
	Command string `json:"command"`
}

// CommandResult reports whether the interpreter recognized anything.
type CommandResult struct {
	Recognized bool `json:"recognized"`
}
