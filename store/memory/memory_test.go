// file: store/memory/memory_test.go
package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-event-checkin/models"
	"go-event-checkin/store"
	"go-event-checkin/store/memory"
)

func seed(t *testing.T, s *memory.Store, cpType models.CheckpointType) (*models.Participant, *models.Checkpoint) {
	t.Helper()
	ctx := context.Background()
	ev := &models.Event{OwnerID: "owner", Name: "Expo", Status: models.EventPublished}
	require.NoError(t, s.CreateEvent(ctx, ev))
	p := &models.Participant{EventID: ev.ID, Name: "Ada", Email: "ada@example.com", Token: "tok-ada"}
	require.NoError(t, s.CreateParticipants(ctx, []*models.Participant{p}))
	cp := &models.Checkpoint{EventID: ev.ID, Name: "Hall A", Type: cpType}
	require.NoError(t, s.CreateCheckpoint(ctx, cp))
	return p, cp
}

func TestFindOrCreateVisit_Idempotent(t *testing.T) {
	s := memory.New()
	p, cp := seed(t, s, models.CheckpointMultiple)
	ctx := context.Background()

	first, err := s.FindOrCreateVisit(ctx, p.ID, cp.ID)
	require.NoError(t, err)
	second, err := s.FindOrCreateVisit(ctx, p.ID, cp.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, models.NotVisited, first.LastStatus)
	assert.Equal(t, 0, first.VisitCount)
	assert.Nil(t, first.LastScanTime)
}

func TestFindOrCreateVisit_ConcurrentCallersShareRow(t *testing.T) {
	s := memory.New()
	p, cp := seed(t, s, models.CheckpointMultiple)

	const n = 20
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := s.FindOrCreateVisit(context.Background(), p.ID, cp.ID)
			if err == nil {
				ids[i] = v.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	visits, err := s.ListVisitsByCheckpoint(context.Background(), cp.ID)
	require.NoError(t, err)
	assert.Len(t, visits, 1)
}

func TestFindVisit_AbsentIsNotFound(t *testing.T) {
	s := memory.New()
	p, cp := seed(t, s, models.CheckpointSingle)

	_, err := s.FindVisit(context.Background(), p.ID, cp.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestApplyTransition_EntryThenExit(t *testing.T) {
	s := memory.New()
	p, cp := seed(t, s, models.CheckpointMultiple)
	ctx := context.Background()
	v, err := s.FindOrCreateVisit(ctx, p.ID, cp.ID)
	require.NoError(t, err)

	t1 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	v, err = s.ApplyTransition(ctx, v.ID, models.Transition{Action: models.ActionEntry, At: t1})
	require.NoError(t, err)
	assert.Equal(t, models.Inside, v.LastStatus)
	assert.Equal(t, 1, v.VisitCount)
	assert.Equal(t, t1, *v.LastScanTime)

	active, err := s.CountActive(ctx, cp.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, active)

	t2 := t1.Add(time.Minute)
	v, err = s.ApplyTransition(ctx, v.ID, models.Transition{Action: models.ActionExit, At: t2})
	require.NoError(t, err)
	assert.Equal(t, models.Exited, v.LastStatus)
	assert.Equal(t, 1, v.VisitCount)
	assert.Equal(t, t2, *v.LastScanTime)

	active, err = s.CountActive(ctx, cp.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, active)
}

func TestApplyTransition_SingleEntryGuard(t *testing.T) {
	s := memory.New()
	p, cp := seed(t, s, models.CheckpointSingle)
	ctx := context.Background()
	v, err := s.FindOrCreateVisit(ctx, p.ID, cp.ID)
	require.NoError(t, err)

	entry := models.Transition{Action: models.ActionEntry, At: time.Now(), SingleEntry: true}
	_, err = s.ApplyTransition(ctx, v.ID, entry)
	require.NoError(t, err)

	_, err = s.ApplyTransition(ctx, v.ID, entry)
	assert.ErrorIs(t, err, store.ErrGuardRejected)

	got, err := s.FindVisit(ctx, p.ID, cp.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.VisitCount)
}

// Many scanners racing on one SINGLE checkpoint must admit exactly one entry.
func TestApplyTransition_ConcurrentSingleEntry(t *testing.T) {
	s := memory.New()
	p, cp := seed(t, s, models.CheckpointSingle)
	ctx := context.Background()
	v, err := s.FindOrCreateVisit(ctx, p.ID, cp.ID)
	require.NoError(t, err)

	const scanners = 50
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		rejected int
	)
	for i := 0; i < scanners; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.ApplyTransition(ctx, v.ID, models.Transition{Action: models.ActionEntry, At: time.Now(), SingleEntry: true})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if assert.ErrorIs(t, err, store.ErrGuardRejected) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, scanners-1, rejected)
	got, err := s.FindVisit(ctx, p.ID, cp.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.VisitCount)
}

func TestBulkExit_ForcesEveryRow(t *testing.T) {
	s := memory.New()
	p, cp := seed(t, s, models.CheckpointSingle)
	ctx := context.Background()

	other := &models.Participant{EventID: p.EventID, Name: "Bob", Email: "bob@example.com", Token: "tok-bob"}
	require.NoError(t, s.CreateParticipants(ctx, []*models.Participant{other}))

	v, err := s.FindOrCreateVisit(ctx, p.ID, cp.ID)
	require.NoError(t, err)
	_, err = s.ApplyTransition(ctx, v.ID, models.Transition{Action: models.ActionEntry, At: time.Now()})
	require.NoError(t, err)
	_, err = s.FindOrCreateVisit(ctx, other.ID, cp.ID)
	require.NoError(t, err)

	n, err := s.BulkExit(ctx, cp.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	never, err := s.FindVisit(ctx, other.ID, cp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Exited, never.LastStatus)
	assert.Equal(t, 0, never.VisitCount)
	assert.True(t, models.EntryBlocked(cp.Type, never))
}

func TestDeleteCheckpoint_CascadesVisits(t *testing.T) {
	s := memory.New()
	p, cp := seed(t, s, models.CheckpointMultiple)
	ctx := context.Background()
	_, err := s.FindOrCreateVisit(ctx, p.ID, cp.ID)
	require.NoError(t, err)

	require.NoError(t, s.DeleteCheckpoint(ctx, cp.ID))

	_, err = s.FindVisit(ctx, p.ID, cp.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteCheckpoint(ctx, cp.ID), store.ErrNotFound)
}

func TestDeleteParticipant_CascadesVisits(t *testing.T) {
	s := memory.New()
	p, cp := seed(t, s, models.CheckpointMultiple)
	ctx := context.Background()
	_, err := s.FindOrCreateVisit(ctx, p.ID, cp.ID)
	require.NoError(t, err)

	require.NoError(t, s.DeleteParticipant(ctx, p.ID))

	visits, err := s.ListVisitsByCheckpoint(ctx, cp.ID)
	require.NoError(t, err)
	assert.Empty(t, visits)
}

func TestDeletes_ForgetCreationOrder(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	require.NoError(t, s.CreateAccount(ctx, &models.Account{Name: "Olive", Email: "olive@example.com"}))
	assert.Equal(t, 1, s.TrackedRows())

	p, cp := seed(t, s, models.CheckpointMultiple)
	_, err := s.FindOrCreateVisit(ctx, p.ID, cp.ID)
	require.NoError(t, err)
	// account, event, participant, checkpoint, visit
	assert.Equal(t, 5, s.TrackedRows())

	require.NoError(t, s.DeleteParticipant(ctx, p.ID))
	assert.Equal(t, 3, s.TrackedRows())

	require.NoError(t, s.DeleteCheckpoint(ctx, cp.ID))
	assert.Equal(t, 2, s.TrackedRows())
}

func TestCreateCheckpoint_DuplicateNameConflicts(t *testing.T) {
	s := memory.New()
	_, cp := seed(t, s, models.CheckpointMultiple)

	dup := &models.Checkpoint{EventID: cp.EventID, Name: cp.Name, Type: models.CheckpointSingle}
	assert.ErrorIs(t, s.CreateCheckpoint(context.Background(), dup), store.ErrConflict)

	// same name in another event is fine
	elsewhere := &models.Checkpoint{EventID: "other-event", Name: cp.Name, Type: models.CheckpointSingle}
	assert.NoError(t, s.CreateCheckpoint(context.Background(), elsewhere))
}

func TestCreateParticipants_AllOrNothing(t *testing.T) {
	s := memory.New()
	p, _ := seed(t, s, models.CheckpointMultiple)
	ctx := context.Background()

	batch := []*models.Participant{
		{EventID: p.EventID, Name: "New", Email: "new@example.com", Token: "tok-new"},
		{EventID: p.EventID, Name: "Clash", Email: "clash@example.com", Token: p.Token},
	}
	assert.ErrorIs(t, s.CreateParticipants(ctx, batch), store.ErrConflict)

	n, err := s.CountParticipantsByEvent(ctx, p.EventID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestListCheckpointsByEvent_CreationOrder(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	for _, name := range []string{"Gate", "Food Court", "Stage"} {
		require.NoError(t, s.CreateCheckpoint(ctx, &models.Checkpoint{EventID: "ev", Name: name, Type: models.CheckpointMultiple}))
	}

	cps, err := s.ListCheckpointsByEvent(ctx, "ev")
	require.NoError(t, err)
	require.Len(t, cps, 3)
	assert.Equal(t, "Gate", cps[0].Name)
	assert.Equal(t, "Food Court", cps[1].Name)
	assert.Equal(t, "Stage", cps[2].Name)
}

func TestRecentVisits_NewestFirstAndLimited(t *testing.T) {
	s := memory.New()
	p, cp := seed(t, s, models.CheckpointMultiple)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	tokens := []string{"t1", "t2", "t3"}
	for i, tok := range tokens {
		other := &models.Participant{EventID: p.EventID, Name: tok, Email: tok + "@example.com", Token: tok}
		require.NoError(t, s.CreateParticipants(ctx, []*models.Participant{other}))
		v, err := s.FindOrCreateVisit(ctx, other.ID, cp.ID)
		require.NoError(t, err)
		_, err = s.ApplyTransition(ctx, v.ID, models.Transition{Action: models.ActionEntry, At: base.Add(time.Duration(i) * time.Minute)})
		require.NoError(t, err)
	}
	// never scanned, must not appear
	_, err := s.FindOrCreateVisit(ctx, p.ID, cp.ID)
	require.NoError(t, err)

	recent, err := s.RecentVisits(ctx, p.EventID, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, base.Add(2*time.Minute), *recent[0].LastScanTime)
	assert.Equal(t, base.Add(time.Minute), *recent[1].LastScanTime)
}

func TestUpdateParticipant_KeepsToken(t *testing.T) {
	s := memory.New()
	p, _ := seed(t, s, models.CheckpointMultiple)
	ctx := context.Background()

	changed := *p
	changed.Name = "Ada L."
	changed.Token = "forged"
	require.NoError(t, s.UpdateParticipant(ctx, &changed))

	got, err := s.FindParticipantByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", got.Name)
	assert.Equal(t, p.Token, got.Token)
}
