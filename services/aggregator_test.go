// file: services/aggregator_test.go
package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-event-checkin/i18n"
	"go-event-checkin/models"
	"go-event-checkin/services"
	"go-event-checkin/websocket"
	"go-event-checkin/worker"
)

// wireAggregator replaces the fixture's recording live updater with a real
// aggregator that refreshes inline.
func wireAggregator(f *fixture, recent int) *services.Aggregator {
	agg := services.NewAggregator(f.store, f.hub, nil, inlineQueue{}, recent)
	f.checkpoints = services.NewCheckpointService(f.store, f.hub, agg)
	f.scans = services.NewScanService(f.store, agg, nil, i18n.NewTranslator("en"), f.clock)
	f.people = services.NewParticipantService(f.store, f.checkpoints, agg)
	return agg
}

func TestAggregator_PublishOrderAfterScan(t *testing.T) {
	f := newFixture(t)
	wireAggregator(f, 10)
	cp := f.checkpoint(t, "Gate", models.CheckpointMultiple)
	p := f.participant(t, "Ada", "ada@example.com")
	f.hub.Reset()

	_, err := f.scan(p, cp, "entry")
	require.NoError(t, err)

	assert.Equal(t, []string{
		websocket.TopicScanUpdated,
		websocket.TopicLiveStatusUpdated,
		websocket.TopicLiveCountUpdated,
		websocket.TopicDashboardStatsUpdated,
		websocket.TopicParticipantUpdated,
	}, f.hub.Topics())

	msg, _ := f.hub.Last(websocket.TopicScanUpdated)
	update := msg.Data.(*models.ScanUpdate)
	assert.Equal(t, "Gate", update.CheckpointName)
	assert.Equal(t, models.ActionEntry, update.Action)
	assert.Equal(t, 1, update.ActiveCount)
	assert.Equal(t, f.event.ID, msg.EventID)
}

func TestAggregator_DashboardShapeDependsOnCheckpoint(t *testing.T) {
	f := newFixture(t)
	wireAggregator(f, 10)
	gate := f.checkpoint(t, "Gate", models.CheckpointMultiple)
	p := f.participant(t, "Ada", "ada@example.com")
	desk, err := f.store.FindCheckpointByName(context.Background(), f.event.ID, models.RegistrationDesk)
	require.NoError(t, err)

	_, err = f.scan(p, desk, "entry")
	require.NoError(t, err)
	msg, _ := f.hub.Last(websocket.TopicDashboardStatsUpdated)
	deskStats, ok := msg.Data.(*models.RegistrationDeskStats)
	require.True(t, ok, "desk scans publish desk stats, got %T", msg.Data)
	assert.Equal(t, models.RegistrationDeskStats{TotalRegistered: 1, CheckedIn: 1, ActiveCheckpoints: 2}, *deskStats)

	_, err = f.scan(p, gate, "entry")
	require.NoError(t, err)
	msg, _ = f.hub.Last(websocket.TopicDashboardStatsUpdated)
	_, ok = msg.Data.(*models.DashboardStats)
	assert.True(t, ok, "other scans publish generic stats, got %T", msg.Data)
}

func TestAggregator_DashboardStats(t *testing.T) {
	f := newFixture(t)
	agg := wireAggregator(f, 10)
	gate := f.checkpoint(t, "Gate", models.CheckpointMultiple)
	lounge := f.checkpoint(t, "Lounge", models.CheckpointMultiple)
	a := f.participant(t, "A", "a@example.com")
	b := f.participant(t, "B", "b@example.com")
	f.participant(t, "C", "c@example.com")

	for _, step := range []struct {
		p      *models.Participant
		cp     *models.Checkpoint
		action string
	}{
		{a, gate, "entry"},
		{a, lounge, "entry"},
		{b, gate, "entry"},
		{b, gate, "exit"},
	} {
		_, err := f.scan(step.p, step.cp, step.action)
		require.NoError(t, err)
	}

	stats, err := agg.DashboardStats(context.Background(), f.event.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalParticipants)
	assert.Equal(t, 1, stats.CheckedIn, "a participant inside two checkpoints counts once")
	assert.Equal(t, 2, stats.Exited)
	assert.Equal(t, []models.NamedCount{{Name: "Gate", Count: 1}, {Name: "Lounge", Count: 1}}, stats.CheckpointData)

	live, err := agg.LiveStatus(context.Background(), f.event.ID)
	require.NoError(t, err)
	require.Len(t, live, 3)
	assert.Equal(t, models.CheckpointCount{ID: gate.ID, Name: "Gate", Count: 1}, live[0])
	assert.Equal(t, models.RegistrationDesk, live[2].Name)
	assert.Equal(t, 0, live[2].Count)
}

func TestAggregator_EmptyCheckpointsOmittedFromDashboard(t *testing.T) {
	f := newFixture(t)
	agg := wireAggregator(f, 10)
	f.checkpoint(t, "Gate", models.CheckpointMultiple)

	stats, err := agg.DashboardStats(context.Background(), f.event.ID)
	require.NoError(t, err)
	assert.NotNil(t, stats.CheckpointData)
	assert.Empty(t, stats.CheckpointData)
}

func TestAggregator_RegistrationDeskStatsRequiresDesk(t *testing.T) {
	f := newFixture(t)
	agg := wireAggregator(f, 10)

	_, err := agg.RegistrationDeskStats(context.Background(), f.event.ID)
	assert.True(t, services.IsKind(err, services.KindNotFound))
}

func TestAggregator_RecentScans(t *testing.T) {
	f := newFixture(t)
	agg := wireAggregator(f, 2)
	gate := f.checkpoint(t, "Gate", models.CheckpointMultiple)
	a := f.participant(t, "A", "a@example.com")
	b := f.participant(t, "B", "b@example.com")
	c := f.participant(t, "C", "c@example.com")

	for _, p := range []*models.Participant{a, b, c} {
		f.clock.Advance(time.Second)
		_, err := f.scan(p, gate, "entry")
		require.NoError(t, err)
	}

	recent, err := agg.RecentScans(context.Background(), f.event.ID, 0)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "C", recent[0].ParticipantName)
	assert.Equal(t, "B", recent[1].ParticipantName)
	assert.Equal(t, "Gate", recent[0].CheckpointName)
	assert.Nil(t, recent[0].ParticipantPhoto)
	require.NotNil(t, recent[0].Time)
	assert.Equal(t, "2026-03-14T09:00:03.000Z", *recent[0].Time)

	all, err := agg.RecentScans(context.Background(), f.event.ID, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestAggregator_ParticipantTree(t *testing.T) {
	f := newFixture(t)
	agg := wireAggregator(f, 10)
	gate := f.checkpoint(t, "Gate", models.CheckpointMultiple)
	a := f.participant(t, "A", "a@example.com")
	b := f.participant(t, "B", "b@example.com")

	_, err := f.scan(a, gate, "entry")
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	_, err = f.scan(b, gate, "entry")
	require.NoError(t, err)

	tree, err := agg.ParticipantTree(context.Background(), f.event.ID)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, "Gate", tree[0].Name)
	require.Len(t, tree[0].Visits, 2)
	assert.Equal(t, "B", tree[0].Visits[0].Participant.Name)
	assert.Equal(t, "A", tree[0].Visits[1].Participant.Name)

	assert.Equal(t, models.RegistrationDesk, tree[1].Name)
	assert.NotNil(t, tree[1].Visits)
	assert.Empty(t, tree[1].Visits)
}

func TestAggregator_RefreshSwallowsHubPanics(t *testing.T) {
	f := newFixture(t)
	agg := services.NewAggregator(f.store, panickyHub{}, nil, inlineQueue{}, 5)

	assert.NotPanics(t, func() {
		agg.Refresh(context.Background(), services.ScanEvent{EventID: f.event.ID})
	})
}

type panickyHub struct{}

func (panickyHub) Publish(string, string, any) { panic("hub down") }

// gatedHub holds the first publish until release is closed.
type gatedHub struct {
	*recordingHub
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedHub() *gatedHub {
	return &gatedHub{recordingHub: &recordingHub{}, entered: make(chan struct{}), release: make(chan struct{})}
}

func (h *gatedHub) Publish(topic, eventID string, data any) {
	h.once.Do(func() {
		close(h.entered)
		<-h.release
	})
	h.recordingHub.Publish(topic, eventID, data)
}

func (h *recordingHub) count(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, m := range h.messages {
		if m.Topic == topic {
			n++
		}
	}
	return n
}

func closeQueue(t *testing.T, q *worker.Queue) {
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = q.Close(ctx)
	})
}

func TestAggregator_RefreshRunsWhenSharedQueueIsFull(t *testing.T) {
	f := newFixture(t)
	gate := f.checkpoint(t, "Gate", models.CheckpointMultiple)
	p := f.participant(t, "Ada", "ada@example.com")
	f.hub.Reset()

	// Given a queue whose only worker and only slot hold slow external calls
	shared := worker.New(1, 1)
	closeQueue(t, shared)
	block := make(chan struct{})
	defer close(block)
	started := make(chan struct{})
	require.True(t, shared.Submit("discord:post", func(context.Context) {
		close(started)
		<-block
	}))
	<-started
	require.True(t, shared.Submit("cloudwatch:Scans", func(context.Context) { <-block }))

	// When a scan triggers a refresh on that queue
	agg := services.NewAggregator(f.store, f.hub, nil, shared, 10)
	agg.Trigger(services.ScanEvent{
		EventID:     f.event.ID,
		Checkpoint:  gate,
		Action:      models.ActionEntry,
		Participant: p,
		ActiveCount: 1,
	})

	// Then the dashboards are still updated
	require.Eventually(t, func() bool {
		return f.hub.count(websocket.TopicParticipantUpdated) == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{
		websocket.TopicScanUpdated,
		websocket.TopicLiveStatusUpdated,
		websocket.TopicLiveCountUpdated,
		websocket.TopicDashboardStatsUpdated,
		websocket.TopicParticipantUpdated,
	}, f.hub.Topics())
}

func TestAggregator_BurstMergesIntoOneRefresh(t *testing.T) {
	f := newFixture(t)
	gate := f.checkpoint(t, "Gate", models.CheckpointMultiple)
	p := f.participant(t, "Ada", "ada@example.com")

	hub := newGatedHub()
	queue := worker.New(1, 1)
	closeQueue(t, queue)
	agg := services.NewAggregator(f.store, hub, nil, queue, 10)
	scan := func(n int) services.ScanEvent {
		return services.ScanEvent{EventID: f.event.ID, Checkpoint: gate, Action: models.ActionEntry, Participant: p, ActiveCount: n}
	}

	// Given a refresh stuck on a slow subscriber
	agg.Trigger(scan(0))
	select {
	case <-hub.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh never started")
	}

	// When a burst of scans arrives for the same event
	for i := 1; i <= 50; i++ {
		agg.Trigger(scan(i))
	}
	assert.Zero(t, queue.Dropped(), "merged triggers never reach the queue")
	close(hub.release)

	// Then every scan is announced and the views are recomputed once more
	require.Eventually(t, func() bool {
		return hub.count(websocket.TopicParticipantUpdated) == 2
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 51, hub.count(websocket.TopicScanUpdated))
	assert.Equal(t, 2, hub.count(websocket.TopicLiveStatusUpdated))

	msg, ok := hub.Last(websocket.TopicScanUpdated)
	require.True(t, ok)
	assert.Equal(t, 50, msg.Data.(*models.ScanUpdate).ActiveCount)
}

func TestAggregator_CheckpointStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	agg := services.NewAggregator(f.store, f.hub, nil, inlineQueue{}, 10)
	gate := f.checkpoint(t, "Gate", models.CheckpointMultiple)
	lounge := f.checkpoint(t, "Lounge", models.CheckpointMultiple)
	res, err := f.people.Import(ctx, f.admin, f.event.ID, []models.ParticipantInput{
		{Name: "Ada", Email: "ada@example.com", Attributes: map[string]string{"team": "red"}},
		{Name: "Ben", Email: "ben@example.com", Attributes: map[string]string{"shirt": "M"}},
		{Name: "Cy", Email: "cy@example.com"},
	})
	require.NoError(t, err)
	ada, ben, cy := res.Created[0], res.Created[1], res.Created[2]

	for _, s := range []struct {
		p      *models.Participant
		cp     *models.Checkpoint
		action string
	}{
		{ada, gate, "entry"}, {ada, gate, "exit"}, {ben, gate, "entry"},
		{ada, lounge, "entry"}, {cy, lounge, "entry"},
	} {
		f.clock.Advance(time.Second)
		_, err := f.scan(s.p, s.cp, s.action)
		require.NoError(t, err)
	}

	// plain view of the gate
	stats, err := agg.CheckpointStats(ctx, f.event.ID, gate.ID, models.CompareNone, "")
	require.NoError(t, err)
	assert.Equal(t, "Gate", stats.CheckpointName)
	assert.Equal(t, []models.CheckpointActivity{
		{ID: gate.ID, Name: "Gate", Visited: 1, Exited: 1},
		{ID: lounge.ID, Name: "Lounge", Visited: 2},
		{ID: res.RegistrationDesk.ID, Name: models.RegistrationDesk},
	}, stats.OverviewGraph)
	assert.Equal(t, []string{"shirt", "team"}, stats.AvailableKeys)
	require.Len(t, stats.Lists.Visited, 2)
	assert.Equal(t, ada.ID, stats.Lists.Visited[0].ID)
	assert.Equal(t, models.Exited, stats.Lists.Visited[0].Status)
	assert.Equal(t, ben.ID, stats.Lists.Visited[1].ID)
	assert.Equal(t, models.Inside, stats.Lists.Visited[1].Status)
	assert.Empty(t, stats.Lists.Gap)
	assert.Equal(t, models.CheckpointSummary{TotalVisits: 2, TotalParticipants: 3}, stats.Summary)

	// compared with everyone registered
	stats, err = agg.CheckpointStats(ctx, f.event.ID, gate.ID, models.CompareTotal, "")
	require.NoError(t, err)
	require.Len(t, stats.Lists.Gap, 1)
	assert.Equal(t, cy.ID, stats.Lists.Gap[0].ID)
	assert.Equal(t, 1, stats.Summary.TotalGap)

	// seen at the gate but never in the lounge
	stats, err = agg.CheckpointStats(ctx, f.event.ID, lounge.ID, models.CompareCheckpoint, gate.ID)
	require.NoError(t, err)
	require.Len(t, stats.Lists.Gap, 1)
	assert.Equal(t, ben.ID, stats.Lists.Gap[0].ID)
}

func TestAggregator_CheckpointStatsRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	agg := services.NewAggregator(f.store, f.hub, nil, inlineQueue{}, 10)
	gate := f.checkpoint(t, "Gate", models.CheckpointMultiple)

	elsewhere := &models.Event{OwnerID: f.admin.ID, Name: "Other"}
	require.NoError(t, f.store.CreateEvent(ctx, elsewhere))
	foreign := &models.Checkpoint{EventID: elsewhere.ID, Name: "Hall", Type: models.CheckpointMultiple}
	require.NoError(t, f.store.CreateCheckpoint(ctx, foreign))

	_, err := agg.CheckpointStats(ctx, f.event.ID, "missing", models.CompareNone, "")
	assert.True(t, services.IsKind(err, services.KindNotFound))
	_, err = agg.CheckpointStats(ctx, f.event.ID, foreign.ID, models.CompareNone, "")
	assert.True(t, services.IsKind(err, services.KindNotFound), "checkpoints of another event are invisible")
	_, err = agg.CheckpointStats(ctx, f.event.ID, gate.ID, models.CompareCheckpoint, "")
	assert.True(t, services.IsKind(err, services.KindValidation))
	_, err = agg.CheckpointStats(ctx, f.event.ID, gate.ID, models.CompareCheckpoint, foreign.ID)
	assert.True(t, services.IsKind(err, services.KindNotFound))
	_, err = agg.CheckpointStats(ctx, f.event.ID, gate.ID, models.CompareMode("SOMETIMES"), "")
	assert.True(t, services.IsKind(err, services.KindValidation))
}
