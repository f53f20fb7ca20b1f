package service

import "time"

// LogFilter supports history filtering by time range and type (per test).
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "CREATED", "STARTED", "PAUSED", "RESET", "RENAMED", "UPDATED", "COMPLETED", "REMOVED", "CLEARED"
}
