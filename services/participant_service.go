// file: services/participant_service.go
package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"go-event-checkin/logger"
	"go-event-checkin/models"
	"go-event-checkin/store"
)

// ImportResult summarises one onboarding batch.
type ImportResult struct {
	Created          []*models.Participant `json:"created"`
	CreatedCount     int                   `json:"createdCount"`
	DuplicateCount   int                   `json:"duplicateCount"`
	SkippedCount     int                   `json:"skippedCount"`
	RegistrationDesk *models.Checkpoint    `json:"registrationDesk,omitempty"`
}

// ParticipantService turns already-parsed records into participants.
type ParticipantService struct {
	store       store.Store
	checkpoints *CheckpointService
	live        LiveUpdater
	newToken    func() string
}

// NewParticipantService wires onboarding.
func NewParticipantService(st store.Store, checkpoints *CheckpointService, live LiveUpdater) *ParticipantService {
	return &ParticipantService{store: st, checkpoints: checkpoints, live: live, newToken: uuid.NewString}
}

// Import creates a participant per new email. Rows without a name or email
// are skipped; emails already in the event (case-insensitive) count as
// duplicates. Any import into an event with participants ensures the
// Registration Desk exists.
func (s *ParticipantService) Import(ctx context.Context, p models.Principal, eventID string, rows []models.ParticipantInput) (*ImportResult, error) {
	if _, err := loadManagedEvent(ctx, s.store, p, eventID); err != nil {
		return nil, err
	}

	existing, err := s.store.ListParticipantsByEvent(ctx, eventID)
	if err != nil {
		return nil, StorageError("list participants", err)
	}
	seen := make(map[string]bool, len(existing)+len(rows))
	for _, e := range existing {
		seen[strings.ToLower(e.Email)] = true
	}

	res := &ImportResult{Created: []*models.Participant{}}
	for _, row := range rows {
		name := strings.TrimSpace(row.Name)
		email := strings.TrimSpace(row.Email)
		if name == "" || email == "" {
			res.SkippedCount++
			continue
		}
		key := strings.ToLower(email)
		if seen[key] {
			res.DuplicateCount++
			continue
		}
		seen[key] = true

		participant := &models.Participant{
			EventID:    eventID,
			Name:       name,
			Email:      email,
			Phone:      strings.TrimSpace(row.Phone),
			PhotoURL:   strings.TrimSpace(row.PhotoURL),
			Token:      s.newToken(),
			Attributes: map[string]string{},
		}
		participant.MergeAttributes(row.Attributes)
		res.Created = append(res.Created, participant)
	}

	if len(res.Created) > 0 {
		if err := s.store.CreateParticipants(ctx, res.Created); err != nil {
			return nil, fromStore("create participants", err, "Event not found")
		}
	}
	res.CreatedCount = len(res.Created)

	// checked on every import with participants, so a retry after a failed
	// desk creation still creates it even when every row is a duplicate
	if res.CreatedCount > 0 || len(existing) > 0 {
		desk, err := s.checkpoints.EnsureRegistrationDesk(ctx, eventID)
		if err != nil {
			return nil, err
		}
		res.RegistrationDesk = desk
	}
	if res.CreatedCount > 0 {
		s.live.Trigger(ScanEvent{EventID: eventID})
	}

	logger.Info.Printf("[ParticipantService.Import] event=%s created=%d duplicates=%d skipped=%d",
		eventID, res.CreatedCount, res.DuplicateCount, res.SkippedCount)
	return res, nil
}

// List returns the event's participants in import order.
func (s *ParticipantService) List(ctx context.Context, p models.Principal, eventID string) ([]models.Participant, error) {
	if _, err := loadEvent(ctx, s.store, p, eventID); err != nil {
		return nil, err
	}
	ps, err := s.store.ListParticipantsByEvent(ctx, eventID)
	if err != nil {
		return nil, StorageError("list participants", err)
	}
	return ps, nil
}

func (s *ParticipantService) load(ctx context.Context, p models.Principal, eventID, id string) (*models.Participant, error) {
	if _, err := loadManagedEvent(ctx, s.store, p, eventID); err != nil {
		return nil, err
	}
	participant, err := s.store.FindParticipantByID(ctx, id)
	if err != nil {
		return nil, fromStore("find participant", err, "Participant not found")
	}
	if participant.EventID != eventID {
		return nil, NotFoundError("Participant not found")
	}
	return participant, nil
}

// Update corrects contact info and merges attributes. The token never changes.
func (s *ParticipantService) Update(ctx context.Context, p models.Principal, eventID, id string, upd models.ParticipantUpdate) (*models.Participant, error) {
	participant, err := s.load(ctx, p, eventID, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, ValidationError("Participant name cannot be empty")
		}
		participant.Name = name
	}
	if upd.Email != nil {
		email := strings.TrimSpace(*upd.Email)
		if email == "" {
			return nil, ValidationError("Participant email cannot be empty")
		}
		participant.Email = email
	}
	if upd.Phone != nil {
		participant.Phone = strings.TrimSpace(*upd.Phone)
	}
	if upd.PhotoURL != nil {
		participant.PhotoURL = strings.TrimSpace(*upd.PhotoURL)
	}
	participant.MergeAttributes(upd.Attributes)

	if err := s.store.UpdateParticipant(ctx, participant); err != nil {
		return nil, fromStore("update participant", err, "Participant not found")
	}
	s.live.Trigger(ScanEvent{EventID: eventID})
	return participant, nil
}

// Delete removes a participant and every visit they made.
func (s *ParticipantService) Delete(ctx context.Context, p models.Principal, eventID, id string) error {
	if _, err := s.load(ctx, p, eventID, id); err != nil {
		return err
	}
	if err := s.store.DeleteParticipant(ctx, id); err != nil {
		return fromStore("delete participant", err, "Participant not found")
	}
	logger.Info.Printf("[ParticipantService.Delete] event=%s participant=%s", eventID, id)
	s.live.Trigger(ScanEvent{EventID: eventID})
	return nil
}
