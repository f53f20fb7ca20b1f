package service

import (
	"context"

	"github.com/chefwhisper/recipe-viewer/internal/bus"
	"github.com/chefwhisper/recipe-viewer/internal/models"
	"github.com/chefwhisper/recipe-viewer/internal/registry"
	"github.com/chefwhisper/recipe-viewer/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// TimerReader serves the read endpoints directly from the in-memory registry.
// Mutations never go through it; those travel the bus as requests.
type TimerReader interface {
	Get(id string) (models.Timer, bool)
	GetAll() []models.Timer
}

// EventLog exposes the append-only lifecycle log with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.LogEntry, error)
}

//
// Root Service aggregates everything the HTTP layer needs.
//

type Service struct {
	Timers *registry.Client
	Reader TimerReader
	EventLog
	Authorization
}

// NewService wires the repository layer and the bus into the service
// aggregate. The reader is the registry itself; the client issues mutations
// over the bus like any other participant.
func NewService(repos *repository.Repository, b *bus.Bus, reader TimerReader) *Service {
	return &Service{
		Timers:        registry.NewClient(b),
		Reader:        reader,
		EventLog:      NewEventLogService(repos.EventRepo),
		Authorization: NewAuthService(repos.Auth),
	}
}
