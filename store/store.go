// Package store declares the persistence ports used by the services and the
// sentinel errors every implementation returns.
// file: store/store.go
package store

import (
	"context"
	"errors"

	"go-event-checkin/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned on a unique constraint violation.
	ErrConflict = errors.New("record already exists")
	// ErrGuardRejected is returned by VisitRepository.ApplyTransition when a
	// conditional single-entry update lost to a concurrent entry.
	ErrGuardRejected = errors.New("single-entry guard rejected transition")
)

type AccountRepository interface {
	CreateAccount(ctx context.Context, a *models.Account) error
	FindAccountByID(ctx context.Context, id string) (*models.Account, error)
	FindAccountByEmail(ctx context.Context, email string) (*models.Account, error)
}

type EventRepository interface {
	CreateEvent(ctx context.Context, e *models.Event) error
	FindEventByID(ctx context.Context, id string) (*models.Event, error)
	ListEventsByOwner(ctx context.Context, ownerID string) ([]models.Event, error)
	// UpdateEvent writes name and status.
	UpdateEvent(ctx context.Context, e *models.Event) error
}

type StaffRepository interface {
	CreateStaff(ctx context.Context, s *models.Staff) error
	FindStaffByID(ctx context.Context, id string) (*models.Staff, error)
	ListStaffByEmail(ctx context.Context, email string) ([]models.Staff, error)
	ListStaffByEvent(ctx context.Context, eventID string) ([]models.Staff, error)
	// UpdateStaff writes role and active flag.
	UpdateStaff(ctx context.Context, s *models.Staff) error
}

type ParticipantRepository interface {
	// CreateParticipants inserts all rows or none.
	CreateParticipants(ctx context.Context, ps []*models.Participant) error
	FindParticipantByID(ctx context.Context, id string) (*models.Participant, error)
	FindParticipantByToken(ctx context.Context, token string) (*models.Participant, error)
	ListParticipantsByEvent(ctx context.Context, eventID string) ([]models.Participant, error)
	CountParticipantsByEvent(ctx context.Context, eventID string) (int, error)
	UpdateParticipant(ctx context.Context, p *models.Participant) error
	// DeleteParticipant also removes the participant's visits.
	DeleteParticipant(ctx context.Context, id string) error
}

type CheckpointRepository interface {
	CreateCheckpoint(ctx context.Context, c *models.Checkpoint) error
	FindCheckpointByID(ctx context.Context, id string) (*models.Checkpoint, error)
	FindCheckpointByName(ctx context.Context, eventID, name string) (*models.Checkpoint, error)
	// ListCheckpointsByEvent returns checkpoints in creation order.
	ListCheckpointsByEvent(ctx context.Context, eventID string) ([]models.Checkpoint, error)
	UpdateCheckpoint(ctx context.Context, c *models.Checkpoint) error
	// DeleteCheckpoint also removes the checkpoint's visits.
	DeleteCheckpoint(ctx context.Context, id string) error
}

type VisitRepository interface {
	// FindOrCreateVisit returns the row for the pair, creating it as
	// NOT_VISITED/0/nil when absent. Concurrent callers get the same row.
	FindOrCreateVisit(ctx context.Context, participantID, checkpointID string) (*models.Visit, error)
	FindVisit(ctx context.Context, participantID, checkpointID string) (*models.Visit, error)
	// ApplyTransition applies t to the row atomically and returns the new state.
	ApplyTransition(ctx context.Context, visitID string, t models.Transition) (*models.Visit, error)
	CountActive(ctx context.Context, checkpointID string) (int, error)
	// BulkExit forces every visit at the checkpoint to EXITED.
	BulkExit(ctx context.Context, checkpointID string) (int, error)
	ListVisitsByCheckpoint(ctx context.Context, checkpointID string) ([]models.Visit, error)
	ListVisitsByEvent(ctx context.Context, eventID string) ([]models.Visit, error)
	// RecentVisits returns scanned visits of the event, newest scan first.
	RecentVisits(ctx context.Context, eventID string, limit int) ([]models.Visit, error)
}

// Store is the full persistence surface.
type Store interface {
	AccountRepository
	EventRepository
	StaffRepository
	ParticipantRepository
	CheckpointRepository
	VisitRepository
	Close()
}
