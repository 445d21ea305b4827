// file: services/helpers_test.go
package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/require"

	"go-event-checkin/i18n"
	"go-event-checkin/models"
	"go-event-checkin/services"
	"go-event-checkin/store/memory"
	"go-event-checkin/websocket"
	"go-event-checkin/worker"
)

// recordingHub keeps every published message in order.
type recordingHub struct {
	mu       sync.Mutex
	messages []websocket.Message
}

func (h *recordingHub) Publish(topic, eventID string, data any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, websocket.Message{Topic: topic, EventID: eventID, Data: data})
}

func (h *recordingHub) Topics() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.messages))
	for i, m := range h.messages {
		out[i] = m.Topic
	}
	return out
}

// Last returns the most recent message on topic.
func (h *recordingHub) Last(topic string) (websocket.Message, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := len(h.messages) - 1; i >= 0; i-- {
		if h.messages[i].Topic == topic {
			return h.messages[i], true
		}
	}
	return websocket.Message{}, false
}

func (h *recordingHub) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = nil
}

// recordingLive captures triggers instead of refreshing.
type recordingLive struct {
	mu     sync.Mutex
	events []services.ScanEvent
}

func (l *recordingLive) Trigger(ev services.ScanEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *recordingLive) Events() []services.ScanEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]services.ScanEvent(nil), l.events...)
}

// inlineQueue runs submitted tasks on the caller's goroutine.
type inlineQueue struct{}

func (inlineQueue) Submit(_ string, task worker.Task) bool {
	task(context.Background())
	return true
}

var epoch = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

// fixture is one organizer with one event, wired over the memory store.
type fixture struct {
	store       *memory.Store
	hub         *recordingHub
	live        *recordingLive
	clock       *testclock.Clock
	admin       models.Principal
	event       *models.Event
	checkpoints *services.CheckpointService
	scans       *services.ScanService
	people      *services.ParticipantService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := memory.New()

	acc := &models.Account{Name: "Olive Organizer", Email: "olive@example.com", PasswordHash: "x"}
	require.NoError(t, st.CreateAccount(ctx, acc))
	ev := &models.Event{OwnerID: acc.ID, Name: "Spring Expo", Status: models.EventPublished}
	require.NoError(t, st.CreateEvent(ctx, ev))

	f := &fixture{
		store: st,
		hub:   &recordingHub{},
		live:  &recordingLive{},
		clock: testclock.NewClock(epoch),
		admin: models.Principal{ID: acc.ID, Type: models.PrincipalAdmin, Email: acc.Email},
		event: ev,
	}
	f.checkpoints = services.NewCheckpointService(st, f.hub, f.live)
	f.scans = services.NewScanService(st, f.live, nil, i18n.NewTranslator("en"), f.clock)
	f.people = services.NewParticipantService(st, f.checkpoints, f.live)
	return f
}

func (f *fixture) checkpoint(t *testing.T, name string, typ models.CheckpointType) *models.Checkpoint {
	t.Helper()
	cp, err := f.checkpoints.Create(context.Background(), f.admin, f.event.ID, services.CheckpointInput{Name: name, Type: typ})
	require.NoError(t, err)
	return cp
}

func (f *fixture) participant(t *testing.T, name, email string) *models.Participant {
	t.Helper()
	res, err := f.people.Import(context.Background(), f.admin, f.event.ID, []models.ParticipantInput{{Name: name, Email: email}})
	require.NoError(t, err)
	require.Len(t, res.Created, 1)
	return res.Created[0]
}

func (f *fixture) scan(p *models.Participant, cp *models.Checkpoint, action string) (*services.ScanResult, error) {
	return f.scans.Scan(context.Background(), f.admin, services.ScanRequest{
		Token:        p.Token,
		CheckpointID: cp.ID,
		Action:       action,
	})
}

// stubTranslator echoes the message key.
type stubTranslator struct{}

func (stubTranslator) T(_, key string, _ map[string]any) string { return key }

// faultyStore fails selected operations on top of the memory store.
type faultyStore struct {
	*memory.Store
	failCheckpointCreate bool
	failCountActive      bool
}

func (s *faultyStore) CreateCheckpoint(ctx context.Context, c *models.Checkpoint) error {
	if s.failCheckpointCreate {
		return errors.New("disk full")
	}
	return s.Store.CreateCheckpoint(ctx, c)
}

func (s *faultyStore) CountActive(ctx context.Context, checkpointID string) (int, error) {
	if s.failCountActive {
		return 0, errors.New("connection reset")
	}
	return s.Store.CountActive(ctx, checkpointID)
}
