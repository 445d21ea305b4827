// file: services/aggregator.go
package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"go-event-checkin/logger"
	"go-event-checkin/models"
	"go-event-checkin/store"
	"go-event-checkin/websocket"
)

// ScanEvent is what a committed transition hands to the aggregator.
// Participant and Visit are nil for bulk operations.
type ScanEvent struct {
	EventID     string
	Checkpoint  *models.Checkpoint
	Action      models.Action
	Participant *models.Participant
	Visit       *models.Visit
	ActiveCount int
}

// LiveUpdater schedules a live refresh without blocking the caller.
type LiveUpdater interface {
	Trigger(ev ScanEvent)
}

const (
	unknownName = "Unknown"

	// maxPendingScans bounds the scan:updated notices kept for one event
	// while its refresh is busy. The recomputed views are never skipped.
	maxPendingScans = 512
)

// pendingRefresh is the work waiting for one event. active is set while a
// drain task for the event is queued or running.
type pendingRefresh struct {
	scans  []ScanEvent
	active bool
}

// Aggregator recomputes the live dashboard views of an event from the store
// and broadcasts them. Every read is a full recomputation.
type Aggregator struct {
	store       store.Store
	hub         websocket.Messenger
	metrics     websocket.Metrics
	queue       Submitter
	recentLimit int

	mu      sync.Mutex
	pending map[string]*pendingRefresh
}

var _ LiveUpdater = (*Aggregator)(nil)

// NewAggregator wires the aggregator. recentLimit bounds the recent scan feed.
func NewAggregator(st store.Store, hub websocket.Messenger, metrics websocket.Metrics, queue Submitter, recentLimit int) *Aggregator {
	if metrics == nil {
		metrics = websocket.NopMetrics{}
	}
	if recentLimit <= 0 {
		recentLimit = 20
	}
	return &Aggregator{
		store:       st,
		hub:         hub,
		metrics:     metrics,
		queue:       queue,
		recentLimit: recentLimit,
		pending:     make(map[string]*pendingRefresh),
	}
}

// Trigger schedules a refresh of ev's event. Triggers arriving while that
// event's refresh is queued or running are merged into it, so each event has
// at most one task on the queue. When the queue refuses the task the drain
// runs on its own goroutine instead; a trigger is never lost.
func (a *Aggregator) Trigger(ev ScanEvent) {
	a.mu.Lock()
	p := a.pending[ev.EventID]
	if p == nil {
		p = &pendingRefresh{}
		a.pending[ev.EventID] = p
	}
	p.scans = append(p.scans, ev)
	if n := len(p.scans); n > maxPendingScans {
		logger.Warn.Printf("[Aggregator.Trigger] event=%s: %d scan notices pending, dropping the oldest", ev.EventID, n)
		p.scans = append([]ScanEvent(nil), p.scans[n-maxPendingScans:]...)
	}
	if p.active {
		a.mu.Unlock()
		return
	}
	p.active = true
	a.mu.Unlock()

	eventID := ev.EventID
	if !a.queue.Submit("aggregate:"+eventID, func(ctx context.Context) { a.drain(ctx, eventID) }) {
		logger.Warn.Printf("[Aggregator.Trigger] queue refused refresh for event=%s, running it directly", eventID)
		go a.drain(context.Background(), eventID)
	}
}

// drain refreshes eventID until nothing is pending for it.
func (a *Aggregator) drain(ctx context.Context, eventID string) {
	for {
		a.mu.Lock()
		p := a.pending[eventID]
		if p == nil || len(p.scans) == 0 {
			delete(a.pending, eventID)
			a.mu.Unlock()
			return
		}
		batch := p.scans
		p.scans = nil
		a.mu.Unlock()

		a.refresh(ctx, eventID, batch)
	}
}

// snapshot is everything one refresh needs, read in parallel.
type snapshot struct {
	checkpoints  []models.Checkpoint
	people       []models.Participant // import order
	participants map[string]*models.Participant
	visits       []models.Visit
	recent       []models.Visit
}

func (a *Aggregator) load(ctx context.Context, eventID string, recentLimit int) (*snapshot, error) {
	var (
		s            snapshot
		participants []models.Participant
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		s.checkpoints, err = a.store.ListCheckpointsByEvent(gctx, eventID)
		return err
	})
	g.Go(func() (err error) {
		participants, err = a.store.ListParticipantsByEvent(gctx, eventID)
		return err
	})
	g.Go(func() (err error) {
		s.visits, err = a.store.ListVisitsByEvent(gctx, eventID)
		return err
	})
	if recentLimit >= 0 {
		g.Go(func() (err error) {
			s.recent, err = a.store.RecentVisits(gctx, eventID, recentLimit)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, StorageError("load live snapshot", err)
	}

	s.people = participants
	s.participants = make(map[string]*models.Participant, len(participants))
	for i := range participants {
		s.participants[participants[i].ID] = &participants[i]
	}
	return &s, nil
}

func (s *snapshot) insideBy(checkpointID string) int {
	n := 0
	for _, v := range s.visits {
		if v.CheckpointID == checkpointID && v.LastStatus == models.Inside {
			n++
		}
	}
	return n
}

func (s *snapshot) liveStatus() []models.CheckpointCount {
	out := make([]models.CheckpointCount, 0, len(s.checkpoints))
	for _, cp := range s.checkpoints {
		out = append(out, models.CheckpointCount{ID: cp.ID, Name: cp.Name, Count: s.insideBy(cp.ID)})
	}
	return out
}

func (s *snapshot) dashboardStats() *models.DashboardStats {
	inside := make(map[string]bool)
	for _, v := range s.visits {
		if v.LastStatus == models.Inside {
			inside[v.ParticipantID] = true
		}
	}
	total := len(s.participants)

	data := []models.NamedCount{}
	for _, cp := range s.checkpoints {
		// only checkpoints that currently hold someone
		if n := s.insideBy(cp.ID); n > 0 {
			data = append(data, models.NamedCount{Name: cp.Name, Count: n})
		}
	}

	return &models.DashboardStats{
		TotalParticipants: total,
		CheckedIn:         len(inside),
		Exited:            total - len(inside),
		CheckpointData:    data,
	}
}

func (s *snapshot) registrationDesk() *models.Checkpoint {
	for i := range s.checkpoints {
		if s.checkpoints[i].IsRegistrationDesk() {
			return &s.checkpoints[i]
		}
	}
	return nil
}

func (s *snapshot) registrationDeskStats(desk *models.Checkpoint) *models.RegistrationDeskStats {
	stats := &models.RegistrationDeskStats{
		TotalRegistered:   len(s.participants),
		ActiveCheckpoints: len(s.checkpoints),
	}
	for _, v := range s.visits {
		if v.CheckpointID != desk.ID {
			continue
		}
		switch v.LastStatus {
		case models.Inside:
			stats.CheckedIn++
		case models.Exited:
			stats.Exited++
		}
	}
	return stats
}

func (s *snapshot) checkpointName(id string) string {
	for _, cp := range s.checkpoints {
		if cp.ID == id {
			return cp.Name
		}
	}
	return unknownName
}

// isoTime matches the millisecond UTC form browsers produce.
func isoTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
	return &s
}

func (s *snapshot) recentScans() []models.RecentScan {
	out := make([]models.RecentScan, 0, len(s.recent))
	for _, v := range s.recent {
		scan := models.RecentScan{
			ID:              v.ID,
			ParticipantID:   v.ParticipantID,
			ParticipantName: unknownName,
			CheckpointName:  s.checkpointName(v.CheckpointID),
			Status:          v.LastStatus,
			Time:            isoTime(v.LastScanTime),
		}
		if p, ok := s.participants[v.ParticipantID]; ok {
			if p.Name != "" {
				scan.ParticipantName = p.Name
			}
			if p.PhotoURL != "" {
				photo := p.PhotoURL
				scan.ParticipantPhoto = &photo
			}
		}
		out = append(out, scan)
	}
	return out
}

func (s *snapshot) participantTree() []models.CheckpointTree {
	byCheckpoint := make(map[string][]models.VisitWithParticipant, len(s.checkpoints))
	for _, v := range s.visits {
		byCheckpoint[v.CheckpointID] = append(byCheckpoint[v.CheckpointID], models.VisitWithParticipant{
			Visit:       v,
			Participant: s.participants[v.ParticipantID],
		})
	}

	out := make([]models.CheckpointTree, 0, len(s.checkpoints))
	for _, cp := range s.checkpoints {
		visits := byCheckpoint[cp.ID]
		if visits == nil {
			visits = []models.VisitWithParticipant{}
		}
		sort.SliceStable(visits, func(i, j int) bool {
			a, b := visits[i].LastScanTime, visits[j].LastScanTime
			if a == nil || b == nil {
				return a != nil
			}
			return a.After(*b)
		})
		out = append(out, models.CheckpointTree{Checkpoint: cp, Visits: visits})
	}
	return out
}

func (s *snapshot) checkpoint(id string) *models.Checkpoint {
	for i := range s.checkpoints {
		if s.checkpoints[i].ID == id {
			return &s.checkpoints[i]
		}
	}
	return nil
}

// visitors maps each participant seen at checkpointID to their status there.
func (s *snapshot) visitors(checkpointID string) map[string]models.VisitStatus {
	out := make(map[string]models.VisitStatus)
	for _, v := range s.visits {
		if v.CheckpointID != checkpointID {
			continue
		}
		if v.LastStatus == models.Inside || v.LastStatus == models.Exited {
			out[v.ParticipantID] = v.LastStatus
		}
	}
	return out
}

func (s *snapshot) checkpointStats(cp *models.Checkpoint, mode models.CompareMode, targetID string) *models.CheckpointStats {
	graph := make([]models.CheckpointActivity, 0, len(s.checkpoints))
	for _, c := range s.checkpoints {
		row := models.CheckpointActivity{ID: c.ID, Name: c.Name}
		for _, v := range s.visits {
			if v.CheckpointID != c.ID {
				continue
			}
			switch v.LastStatus {
			case models.Inside:
				row.Visited++
			case models.Exited:
				row.Exited++
			}
		}
		graph = append(graph, row)
	}

	keySet := make(map[string]bool)
	for _, p := range s.people {
		for k := range p.Attributes {
			keySet[k] = true
		}
	}
	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	seen := s.visitors(cp.ID)
	lists := models.CheckpointLists{Visited: []models.VisitedParticipant{}, Gap: []models.Participant{}}
	for _, p := range s.people {
		if status, ok := seen[p.ID]; ok {
			lists.Visited = append(lists.Visited, models.VisitedParticipant{Participant: p, Status: status})
		}
	}

	switch mode {
	case models.CompareTotal:
		for _, p := range s.people {
			if _, ok := seen[p.ID]; !ok {
				lists.Gap = append(lists.Gap, p)
			}
		}
	case models.CompareCheckpoint:
		// seen at the target but never here
		target := s.visitors(targetID)
		for _, p := range s.people {
			_, atTarget := target[p.ID]
			_, here := seen[p.ID]
			if atTarget && !here {
				lists.Gap = append(lists.Gap, p)
			}
		}
	}

	return &models.CheckpointStats{
		CheckpointName: cp.Name,
		OverviewGraph:  graph,
		AvailableKeys:  keys,
		Lists:          lists,
		Summary: models.CheckpointSummary{
			TotalVisits:       len(lists.Visited),
			TotalParticipants: len(s.people),
			TotalGap:          len(lists.Gap),
		},
	}
}

// ---------------- read endpoints ----------------

// LiveStatus is the per-checkpoint INSIDE count.
func (a *Aggregator) LiveStatus(ctx context.Context, eventID string) ([]models.CheckpointCount, error) {
	s, err := a.load(ctx, eventID, -1)
	if err != nil {
		return nil, err
	}
	return s.liveStatus(), nil
}

// DashboardStats is the generic dashboard.
func (a *Aggregator) DashboardStats(ctx context.Context, eventID string) (*models.DashboardStats, error) {
	s, err := a.load(ctx, eventID, -1)
	if err != nil {
		return nil, err
	}
	return s.dashboardStats(), nil
}

// RegistrationDeskStats is computed from the Registration Desk's own visits.
func (a *Aggregator) RegistrationDeskStats(ctx context.Context, eventID string) (*models.RegistrationDeskStats, error) {
	s, err := a.load(ctx, eventID, -1)
	if err != nil {
		return nil, err
	}
	desk := s.registrationDesk()
	if desk == nil {
		return nil, NotFoundError("Registration Desk not found")
	}
	return s.registrationDeskStats(desk), nil
}

// RecentScans returns the newest scans first. A non-positive limit uses the
// configured default.
func (a *Aggregator) RecentScans(ctx context.Context, eventID string, limit int) ([]models.RecentScan, error) {
	if limit <= 0 {
		limit = a.recentLimit
	}
	s, err := a.load(ctx, eventID, limit)
	if err != nil {
		return nil, err
	}
	return s.recentScans(), nil
}

// ParticipantTree is the checkpoint -> visits -> participant view used to
// rebuild a dashboard after reconnect.
func (a *Aggregator) ParticipantTree(ctx context.Context, eventID string) ([]models.CheckpointTree, error) {
	s, err := a.load(ctx, eventID, -1)
	if err != nil {
		return nil, err
	}
	return s.participantTree(), nil
}

// CheckpointStats is the analytics view of one checkpoint. mode TOTAL lists
// the participants who never reached it; mode CHECKPOINT lists those seen at
// targetID but not here.
func (a *Aggregator) CheckpointStats(ctx context.Context, eventID, checkpointID string, mode models.CompareMode, targetID string) (*models.CheckpointStats, error) {
	switch mode {
	case "":
		mode = models.CompareNone
	case models.CompareNone, models.CompareTotal:
	case models.CompareCheckpoint:
		if targetID == "" {
			return nil, ValidationError("compareTargetId is required when comparing checkpoints")
		}
	default:
		return nil, ValidationError("compareMode must be NONE, TOTAL or CHECKPOINT")
	}

	s, err := a.load(ctx, eventID, -1)
	if err != nil {
		return nil, err
	}
	cp := s.checkpoint(checkpointID)
	if cp == nil {
		return nil, NotFoundError("Checkpoint not found")
	}
	if mode == models.CompareCheckpoint && s.checkpoint(targetID) == nil {
		return nil, NotFoundError("Comparison checkpoint not found")
	}
	return s.checkpointStats(cp, mode, targetID), nil
}

// ---------------- fan-out ----------------

// Refresh recomputes every live view of the event and publishes them in a
// fixed order. Failures are logged and swallowed.
func (a *Aggregator) Refresh(ctx context.Context, ev ScanEvent) {
	a.refresh(ctx, ev.EventID, []ScanEvent{ev})
}

// refresh publishes one scan:updated per committed scan in batch, then a
// single recomputation of the views. The last scan picks the dashboard shape.
func (a *Aggregator) refresh(ctx context.Context, eventID string, batch []ScanEvent) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error.Printf("[Aggregator.Refresh] panic for event=%s: %v", eventID, r)
		}
	}()

	for _, ev := range batch {
		if ev.Participant == nil || ev.Checkpoint == nil {
			continue
		}
		a.hub.Publish(websocket.TopicScanUpdated, eventID, &models.ScanUpdate{
			Participant:    ev.Participant,
			Visit:          ev.Visit,
			CheckpointID:   ev.Checkpoint.ID,
			CheckpointName: ev.Checkpoint.Name,
			Action:         ev.Action,
			ActiveCount:    ev.ActiveCount,
		})
	}
	ev := batch[len(batch)-1]

	s, err := a.load(ctx, eventID, a.recentLimit)
	if err != nil {
		logger.Error.Printf("[Aggregator.Refresh] event=%s: %v", eventID, err)
		return
	}

	live := s.liveStatus()
	for _, c := range live {
		a.metrics.ActiveCount(eventID, c.Name, c.Count)
	}
	a.hub.Publish(websocket.TopicLiveStatusUpdated, eventID, live)
	a.hub.Publish(websocket.TopicLiveCountUpdated, eventID, s.recentScans())

	// the Registration Desk publishes its own stats shape on the same topic
	desk := s.registrationDesk()
	if ev.Checkpoint != nil && ev.Checkpoint.IsRegistrationDesk() && desk != nil {
		a.hub.Publish(websocket.TopicDashboardStatsUpdated, eventID, s.registrationDeskStats(desk))
	} else {
		a.hub.Publish(websocket.TopicDashboardStatsUpdated, eventID, s.dashboardStats())
	}

	a.hub.Publish(websocket.TopicParticipantUpdated, eventID, s.participantTree())
	logger.Debug.Printf("[Aggregator.Refresh] event=%s checkpoint=%s refreshed (%d scans)", eventID, checkpointLabel(ev.Checkpoint), len(batch))
}

func checkpointLabel(cp *models.Checkpoint) string {
	if cp == nil {
		return "-"
	}
	return cp.Name
}
