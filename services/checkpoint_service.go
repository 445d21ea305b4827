// file: services/checkpoint_service.go
package services

import (
	"context"
	"errors"
	"strings"

	"go-event-checkin/logger"
	"go-event-checkin/models"
	"go-event-checkin/store"
	"go-event-checkin/websocket"
)

// CheckpointInput is the mutable part of a checkpoint.
type CheckpointInput struct {
	Name             string                `json:"name"`
	Type             models.CheckpointType `json:"type"`
	IsFoodCheckpoint bool                  `json:"isFoodCheckpoint"`
}

func (in *CheckpointInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return ValidationError("Checkpoint name is required")
	}
	if in.Type == "" {
		in.Type = models.CheckpointMultiple
	}
	in.Type = models.CheckpointType(strings.ToUpper(string(in.Type)))
	if !in.Type.Valid() {
		return ValidationError("Checkpoint type must be SINGLE or MULTIPLE")
	}
	return nil
}

// CheckpointService is the checkpoint registry.
type CheckpointService struct {
	store store.Store
	hub   websocket.Messenger
	live  LiveUpdater
}

// NewCheckpointService wires the registry.
func NewCheckpointService(st store.Store, hub websocket.Messenger, live LiveUpdater) *CheckpointService {
	return &CheckpointService{store: st, hub: hub, live: live}
}

// Create adds a checkpoint to an event.
func (s *CheckpointService) Create(ctx context.Context, p models.Principal, eventID string, in CheckpointInput) (*models.Checkpoint, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if _, err := loadManagedEvent(ctx, s.store, p, eventID); err != nil {
		return nil, err
	}

	cp := &models.Checkpoint{
		EventID:          eventID,
		Name:             in.Name,
		Type:             in.Type,
		IsFoodCheckpoint: in.IsFoodCheckpoint,
	}
	if err := s.store.CreateCheckpoint(ctx, cp); err != nil {
		return nil, fromStore("create checkpoint", err, "Event not found")
	}

	logger.Info.Printf("[CheckpointService.Create] event=%s checkpoint=%q type=%s", eventID, cp.Name, cp.Type)
	s.hub.Publish(websocket.TopicCheckpointCreated, eventID, cp)
	return cp, nil
}

// Update renames or retypes a checkpoint. The Registration Desk keeps its
// name, and no other checkpoint may take it.
func (s *CheckpointService) Update(ctx context.Context, p models.Principal, id string, in CheckpointInput) (*models.Checkpoint, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	cp, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if cp.IsRegistrationDesk() && in.Name != models.RegistrationDesk {
		return nil, ProtectedResourceError("Registration Desk cannot be renamed")
	}
	if !cp.IsRegistrationDesk() && in.Name == models.RegistrationDesk {
		return nil, ProtectedResourceError("Registration Desk is a reserved checkpoint name")
	}
	if _, err := loadManagedEvent(ctx, s.store, p, cp.EventID); err != nil {
		return nil, err
	}

	cp.Name = in.Name
	cp.Type = in.Type
	cp.IsFoodCheckpoint = in.IsFoodCheckpoint
	if err := s.store.UpdateCheckpoint(ctx, cp); err != nil {
		return nil, fromStore("update checkpoint", err, "Checkpoint not found")
	}

	s.hub.Publish(websocket.TopicCheckpointUpdated, cp.EventID, cp)
	return cp, nil
}

// Delete removes a checkpoint and its visits. The Registration Desk is
// refused before the caller is even considered.
func (s *CheckpointService) Delete(ctx context.Context, p models.Principal, id string) error {
	cp, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if cp.IsRegistrationDesk() {
		return ProtectedResourceError("Registration Desk cannot be deleted")
	}
	if _, err := loadManagedEvent(ctx, s.store, p, cp.EventID); err != nil {
		return err
	}

	if err := s.store.DeleteCheckpoint(ctx, id); err != nil {
		return fromStore("delete checkpoint", err, "Checkpoint not found")
	}

	logger.Info.Printf("[CheckpointService.Delete] event=%s checkpoint=%q", cp.EventID, cp.Name)
	s.hub.Publish(websocket.TopicCheckpointDeleted, cp.EventID, map[string]string{"id": id})
	return nil
}

// Get returns a checkpoint by id.
func (s *CheckpointService) Get(ctx context.Context, id string) (*models.Checkpoint, error) {
	cp, err := s.store.FindCheckpointByID(ctx, id)
	if err != nil {
		return nil, fromStore("find checkpoint", err, "Checkpoint not found")
	}
	return cp, nil
}

// List returns the event's checkpoints in creation order.
func (s *CheckpointService) List(ctx context.Context, p models.Principal, eventID string) ([]models.Checkpoint, error) {
	if _, err := loadEvent(ctx, s.store, p, eventID); err != nil {
		return nil, err
	}
	cps, err := s.store.ListCheckpointsByEvent(ctx, eventID)
	if err != nil {
		return nil, StorageError("list checkpoints", err)
	}
	return cps, nil
}

// EnsureRegistrationDesk creates the event's SINGLE sentinel checkpoint if it
// does not exist yet.
func (s *CheckpointService) EnsureRegistrationDesk(ctx context.Context, eventID string) (*models.Checkpoint, error) {
	cp, err := s.store.FindCheckpointByName(ctx, eventID, models.RegistrationDesk)
	if err == nil {
		return cp, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, StorageError("find registration desk", err)
	}

	cp = &models.Checkpoint{
		EventID: eventID,
		Name:    models.RegistrationDesk,
		Type:    models.CheckpointSingle,
	}
	if err := s.store.CreateCheckpoint(ctx, cp); err != nil {
		// a concurrent import created it first
		if existing, findErr := s.store.FindCheckpointByName(ctx, eventID, models.RegistrationDesk); findErr == nil {
			return existing, nil
		}
		return nil, fromStore("create registration desk", err, "Event not found")
	}

	logger.Info.Printf("[CheckpointService.EnsureRegistrationDesk] created for event=%s", eventID)
	s.hub.Publish(websocket.TopicCheckpointCreated, eventID, cp)
	return cp, nil
}

// BulkExit marks every visit at the checkpoint EXITED (end-of-event close
// out) and refreshes the live views.
func (s *CheckpointService) BulkExit(ctx context.Context, p models.Principal, id string) (int, error) {
	cp, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	if _, err := loadManagedEvent(ctx, s.store, p, cp.EventID); err != nil {
		return 0, err
	}

	n, err := s.store.BulkExit(context.WithoutCancel(ctx), id)
	if err != nil {
		return 0, StorageError("bulk exit", err)
	}

	logger.Info.Printf("[CheckpointService.BulkExit] checkpoint=%q exited=%d", cp.Name, n)
	s.live.Trigger(ScanEvent{EventID: cp.EventID, Checkpoint: cp, Action: models.ActionExit})
	return n, nil
}
