package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/chefwhisper/recipe-viewer/internal/models"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

// SnapshotRepo persists the whole timer set as one keyed record. An absent
// record means an empty timer set.
type SnapshotRepo interface {
	Save(ctx context.Context, snaps []models.Timer) error
	Load(ctx context.Context) ([]models.Timer, error)
}

// EventRepo is the append-only lifecycle log with filtered access.
type EventRepo interface {
	Append(ctx context.Context, e models.LogEntry) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.LogEntry, error)
}

type Repository struct {
	Snapshots SnapshotRepo
	EventRepo EventRepo
	Auth      Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Snapshots: NewSnapshotSQLite(db),
		EventRepo: NewEventSQLite(db),
		Auth:      NewUserRepository(db),
	}
}
