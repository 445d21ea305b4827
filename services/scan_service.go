// file: services/scan_service.go
package services

import (
	"context"
	"errors"

	"github.com/juju/clock"

	"go-event-checkin/i18n"
	"go-event-checkin/logger"
	"go-event-checkin/models"
	"go-event-checkin/store"
	"go-event-checkin/websocket"
)

// ScanRequest is one scanner action.
type ScanRequest struct {
	Token        string `json:"token"`
	CheckpointID string `json:"checkpointId"`
	Action       string `json:"action"`
	Locale       string `json:"-"`
}

// UnknownActiveCount is reported when the INSIDE count could not be read
// after the scan was saved.
const UnknownActiveCount = -1

// ScanResult is returned synchronously for a committed scan.
type ScanResult struct {
	Participant *models.Participant `json:"participant"`
	Visit       *models.Visit       `json:"visit"`
	ActiveCount int                 `json:"activeCount"`
	Message     string              `json:"message"`
}

// ParticipantSummary is what a preview reveals about the ticket holder.
type ParticipantSummary struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

// ValidateResult previews the next scan.
type ValidateResult struct {
	Participant   ParticipantSummary `json:"participant"`
	CurrentStatus models.VisitStatus `json:"currentStatus"`
	NextAction    models.Action      `json:"nextAction"`
	CanEnter      bool               `json:"canEnter"`
	Message       string             `json:"message"`
}

// ScanService is the visit state machine.
type ScanService struct {
	store   store.Store
	live    LiveUpdater
	metrics websocket.Metrics
	tr      Translator
	clock   clock.Clock
}

// NewScanService wires the scan engine.
func NewScanService(st store.Store, live LiveUpdater, metrics websocket.Metrics, tr Translator, clk clock.Clock) *ScanService {
	if metrics == nil {
		metrics = websocket.NopMetrics{}
	}
	if clk == nil {
		clk = clock.WallClock
	}
	return &ScanService{store: st, live: live, metrics: metrics, tr: tr, clock: clk}
}

// resolve runs the read-only prefix shared by Scan and Validate: the
// participant, the checkpoint and the tenancy check, in that order.
func (s *ScanService) resolve(ctx context.Context, p models.Principal, token, checkpointID string) (*models.Participant, *models.Checkpoint, error) {
	participant, err := s.store.FindParticipantByToken(ctx, token)
	if err != nil {
		return nil, nil, fromStore("find participant", err, "Participant not found")
	}
	cp, err := s.store.FindCheckpointByID(ctx, checkpointID)
	if err != nil {
		return nil, nil, fromStore("find checkpoint", err, "Checkpoint not found")
	}
	if _, err := loadEvent(ctx, s.store, p, cp.EventID); err != nil {
		if IsKind(err, KindForbidden) {
			return nil, nil, ForbiddenError("Unauthorized checkpoint")
		}
		return nil, nil, err
	}
	if participant.EventID != cp.EventID {
		return nil, nil, NotFoundError("Participant not registered for this event")
	}
	return participant, cp, nil
}

// Scan validates and commits one entry or exit.
func (s *ScanService) Scan(ctx context.Context, p models.Principal, req ScanRequest) (*ScanResult, error) {
	action, err := models.ParseAction(req.Action)
	if err != nil {
		return nil, ValidationError("Invalid action. Must be 'entry' or 'exit'")
	}

	participant, cp, err := s.resolve(ctx, p, req.Token, req.CheckpointID)
	if err != nil {
		return nil, err
	}

	// from here on the write must survive a dropped client
	wctx := context.WithoutCancel(ctx)

	visit, err := s.store.FindOrCreateVisit(wctx, participant.ID, cp.ID)
	if err != nil {
		return nil, fromStore("find or create visit", err, "Visit not found")
	}

	if action == models.ActionEntry && models.EntryBlocked(cp.Type, visit) {
		return nil, s.reject(req.Locale, cp, participant)
	}

	updated, err := s.store.ApplyTransition(wctx, visit.ID, models.Transition{
		Action:      action,
		At:          s.clock.Now(),
		SingleEntry: cp.Type == models.CheckpointSingle,
	})
	if errors.Is(err, store.ErrGuardRejected) {
		return nil, s.reject(req.Locale, cp, participant)
	}
	if err != nil {
		return nil, fromStore("apply transition", err, "Visit not found")
	}

	// the transition is committed: a failed count must not hide it or skip
	// the refresh, which recounts anyway
	active, err := s.store.CountActive(wctx, cp.ID)
	if err != nil {
		logger.Error.Printf("[ScanService.Scan] count active at %q after commit: %v", cp.Name, err)
		active = UnknownActiveCount
	}

	s.metrics.ScanRecorded(cp.EventID, cp.Name, string(action))
	logger.Info.Printf("[ScanService.Scan] %s participant=%s checkpoint=%q count=%d active=%d",
		action, participant.ID, cp.Name, updated.VisitCount, active)

	key := i18n.EntryValidated
	if action == models.ActionExit {
		key = i18n.ExitValidated
	}

	s.live.Trigger(ScanEvent{
		EventID:     cp.EventID,
		Checkpoint:  cp,
		Action:      action,
		Participant: participant,
		Visit:       updated,
		ActiveCount: active,
	})

	return &ScanResult{
		Participant: participant,
		Visit:       updated,
		ActiveCount: active,
		Message:     s.tr.T(req.Locale, key, nil),
	}, nil
}

func (s *ScanService) reject(locale string, cp *models.Checkpoint, participant *models.Participant) error {
	s.metrics.ScanRejected(cp.EventID, "reentry")
	logger.Warn.Printf("[ScanService.Scan] re-entry refused participant=%s checkpoint=%q", participant.ID, cp.Name)
	return ReentryNotAllowedError(s.tr.T(locale, i18n.ReentryNotAllowed, nil))
}

// Validate previews the next scan without creating or changing a visit.
func (s *ScanService) Validate(ctx context.Context, p models.Principal, token, checkpointID, locale string) (*ValidateResult, error) {
	participant, cp, err := s.resolve(ctx, p, token, checkpointID)
	if err != nil {
		return nil, err
	}

	visit, err := s.findVisit(ctx, participant.ID, cp.ID)
	if err != nil {
		return nil, err
	}

	status := models.NotVisited
	if visit != nil {
		status = visit.LastStatus
	}
	next, canEnter := models.NextAction(cp.Type, visit)

	key := i18n.ReadyForEntry
	switch next {
	case models.ActionExit:
		key = i18n.ReadyForExit
	case models.ActionNone:
		key = i18n.AlreadyVisited
	}

	return &ValidateResult{
		Participant: ParticipantSummary{
			Name:  participant.Name,
			Email: participant.Email,
			Token: participant.Token,
		},
		CurrentStatus: status,
		NextAction:    next,
		CanEnter:      canEnter,
		Message:       s.tr.T(locale, key, nil),
	}, nil
}

// ParticipantStatus reports the participant's status at one checkpoint.
func (s *ScanService) ParticipantStatus(ctx context.Context, p models.Principal, token, checkpointID string) (models.VisitStatus, error) {
	participant, cp, err := s.resolve(ctx, p, token, checkpointID)
	if err != nil {
		return "", err
	}
	visit, err := s.findVisit(ctx, participant.ID, cp.ID)
	if err != nil {
		return "", err
	}
	if visit == nil {
		return models.NotVisited, nil
	}
	return visit.LastStatus, nil
}

// findVisit returns nil when the pair has never been scanned.
func (s *ScanService) findVisit(ctx context.Context, participantID, checkpointID string) (*models.Visit, error) {
	visit, err := s.store.FindVisit(ctx, participantID, checkpointID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, StorageError("find visit", err)
	}
	return visit, nil
}
