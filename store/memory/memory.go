// Package memory is an in-process Store used for tests and for running
// without a database. Every operation holds a single store-wide lock, which
// makes each row mutation atomic.
// file: store/memory/memory.go
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"go-event-checkin/models"
	"go-event-checkin/store"
)

var _ store.Store = (*Store)(nil)

type pairKey struct {
	participantID string
	checkpointID  string
}

// Store keeps every table in maps.
type Store struct {
	mu sync.RWMutex

	accounts     map[string]*models.Account
	events       map[string]*models.Event
	staff        map[string]*models.Staff
	participants map[string]*models.Participant
	checkpoints  map[string]*models.Checkpoint
	visits       map[string]*models.Visit
	visitByPair  map[pairKey]string

	// seq orders rows created within the same clock tick.
	seq     int64
	created map[string]int64

	now func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		accounts:     make(map[string]*models.Account),
		events:       make(map[string]*models.Event),
		staff:        make(map[string]*models.Staff),
		participants: make(map[string]*models.Participant),
		checkpoints:  make(map[string]*models.Checkpoint),
		visits:       make(map[string]*models.Visit),
		visitByPair:  make(map[pairKey]string),
		created:      make(map[string]int64),
		now:          time.Now,
	}
}

// Close is a no-op.
func (s *Store) Close() {}

func (s *Store) stamp(id string) {
	s.seq++
	s.created[id] = s.seq
}

func (s *Store) unstamp(id string) {
	delete(s.created, id)
}

// ---------------- accounts ----------------

func (s *Store) CreateAccount(_ context.Context, a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if strings.EqualFold(existing.Email, a.Email) {
			return fmt.Errorf("create account: %w", store.ErrConflict)
		}
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = s.now()
	cp := *a
	s.accounts[a.ID] = &cp
	s.stamp(a.ID)
	return nil
}

func (s *Store) FindAccountByID(_ context.Context, id string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, fmt.Errorf("find account %s: %w", id, store.ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

func (s *Store) FindAccountByEmail(_ context.Context, email string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if strings.EqualFold(a.Email, email) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("find account by email: %w", store.ErrNotFound)
}

// ---------------- events ----------------

func (s *Store) CreateEvent(_ context.Context, e *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.CreatedAt = s.now()
	cp := *e
	s.events[e.ID] = &cp
	s.stamp(e.ID)
	return nil
}

func (s *Store) FindEventByID(_ context.Context, id string) (*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return nil, fmt.Errorf("find event %s: %w", id, store.ErrNotFound)
	}
	cp := *e
	return &cp, nil
}

func (s *Store) ListEventsByOwner(_ context.Context, ownerID string) ([]models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Event{}
	for _, e := range s.events {
		if e.OwnerID == ownerID {
			out = append(out, *e)
		}
	}
	// newest first
	sort.Slice(out, func(i, j int) bool { return s.created[out[i].ID] > s.created[out[j].ID] })
	return out, nil
}

func (s *Store) UpdateEvent(_ context.Context, e *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.events[e.ID]
	if !ok {
		return fmt.Errorf("update event %s: %w", e.ID, store.ErrNotFound)
	}
	existing.Name = e.Name
	existing.Status = e.Status
	*e = *existing
	return nil
}

// ---------------- staff ----------------

func (s *Store) CreateStaff(_ context.Context, st *models.Staff) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.staff {
		if existing.EventID == st.EventID && strings.EqualFold(existing.Email, st.Email) {
			return fmt.Errorf("create staff: %w", store.ErrConflict)
		}
	}
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	st.CreatedAt = s.now()
	cp := *st
	s.staff[st.ID] = &cp
	s.stamp(st.ID)
	return nil
}

func (s *Store) FindStaffByID(_ context.Context, id string) (*models.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.staff[id]
	if !ok {
		return nil, fmt.Errorf("find staff %s: %w", id, store.ErrNotFound)
	}
	cp := *st
	return &cp, nil
}

func (s *Store) ListStaffByEmail(_ context.Context, email string) ([]models.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Staff{}
	for _, st := range s.staff {
		if strings.EqualFold(st.Email, email) {
			out = append(out, *st)
		}
	}
	s.sortByCreation(len(out), func(i int) string { return out[i].ID }, func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out, nil
}

func (s *Store) ListStaffByEvent(_ context.Context, eventID string) ([]models.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Staff{}
	for _, st := range s.staff {
		if st.EventID == eventID {
			out = append(out, *st)
		}
	}
	s.sortByCreation(len(out), func(i int) string { return out[i].ID }, func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out, nil
}

func (s *Store) UpdateStaff(_ context.Context, st *models.Staff) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.staff[st.ID]
	if !ok {
		return fmt.Errorf("update staff %s: %w", st.ID, store.ErrNotFound)
	}
	existing.Role = st.Role
	existing.IsActive = st.IsActive
	*st = *existing
	return nil
}

// ---------------- participants ----------------

func copyParticipant(p *models.Participant) *models.Participant {
	cp := *p
	cp.Attributes = make(map[string]string, len(p.Attributes))
	for k, v := range p.Attributes {
		cp.Attributes[k] = v
	}
	return &cp
}

func (s *Store) CreateParticipants(_ context.Context, ps []*models.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool, len(ps))
	for _, p := range ps {
		if seen[p.Token] {
			return fmt.Errorf("create participants: duplicate token: %w", store.ErrConflict)
		}
		seen[p.Token] = true
		for _, existing := range s.participants {
			if existing.Token == p.Token {
				return fmt.Errorf("create participants: %w", store.ErrConflict)
			}
		}
	}
	now := s.now()
	for _, p := range ps {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if p.Attributes == nil {
			p.Attributes = map[string]string{}
		}
		p.CreatedAt = now
		s.participants[p.ID] = copyParticipant(p)
		s.stamp(p.ID)
	}
	return nil
}

func (s *Store) FindParticipantByID(_ context.Context, id string) (*models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.participants[id]
	if !ok {
		return nil, fmt.Errorf("find participant %s: %w", id, store.ErrNotFound)
	}
	return copyParticipant(p), nil
}

func (s *Store) FindParticipantByToken(_ context.Context, token string) (*models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.participants {
		if p.Token == token {
			return copyParticipant(p), nil
		}
	}
	return nil, fmt.Errorf("find participant by token: %w", store.ErrNotFound)
}

func (s *Store) ListParticipantsByEvent(_ context.Context, eventID string) ([]models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Participant{}
	for _, p := range s.participants {
		if p.EventID == eventID {
			out = append(out, *copyParticipant(p))
		}
	}
	s.sortByCreation(len(out), func(i int) string { return out[i].ID }, func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out, nil
}

func (s *Store) CountParticipantsByEvent(_ context.Context, eventID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.participants {
		if p.EventID == eventID {
			n++
		}
	}
	return n, nil
}

func (s *Store) UpdateParticipant(_ context.Context, p *models.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.participants[p.ID]
	if !ok {
		return fmt.Errorf("update participant %s: %w", p.ID, store.ErrNotFound)
	}
	updated := copyParticipant(p)
	// token and ownership are fixed at import
	updated.Token = existing.Token
	updated.EventID = existing.EventID
	updated.CreatedAt = existing.CreatedAt
	s.participants[p.ID] = updated
	return nil
}

func (s *Store) DeleteParticipant(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.participants[id]; !ok {
		return fmt.Errorf("delete participant %s: %w", id, store.ErrNotFound)
	}
	delete(s.participants, id)
	s.unstamp(id)
	for vid, v := range s.visits {
		if v.ParticipantID == id {
			s.dropVisit(vid, v)
		}
	}
	return nil
}

// ---------------- checkpoints ----------------

func (s *Store) CreateCheckpoint(_ context.Context, c *models.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.checkpoints {
		if existing.EventID == c.EventID && existing.Name == c.Name {
			return fmt.Errorf("create checkpoint %q: %w", c.Name, store.ErrConflict)
		}
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = s.now()
	cp := *c
	s.checkpoints[c.ID] = &cp
	s.stamp(c.ID)
	return nil
}

func (s *Store) FindCheckpointByID(_ context.Context, id string) (*models.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.checkpoints[id]
	if !ok {
		return nil, fmt.Errorf("find checkpoint %s: %w", id, store.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (s *Store) FindCheckpointByName(_ context.Context, eventID, name string) (*models.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.checkpoints {
		if c.EventID == eventID && c.Name == name {
			cp := *c
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("find checkpoint %q: %w", name, store.ErrNotFound)
}

func (s *Store) ListCheckpointsByEvent(_ context.Context, eventID string) ([]models.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checkpointsOf(eventID), nil
}

func (s *Store) checkpointsOf(eventID string) []models.Checkpoint {
	out := []models.Checkpoint{}
	for _, c := range s.checkpoints {
		if c.EventID == eventID {
			out = append(out, *c)
		}
	}
	s.sortByCreation(len(out), func(i int) string { return out[i].ID }, func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func (s *Store) UpdateCheckpoint(_ context.Context, c *models.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.checkpoints[c.ID]
	if !ok {
		return fmt.Errorf("update checkpoint %s: %w", c.ID, store.ErrNotFound)
	}
	for id, other := range s.checkpoints {
		if id != c.ID && other.EventID == existing.EventID && other.Name == c.Name {
			return fmt.Errorf("update checkpoint %q: %w", c.Name, store.ErrConflict)
		}
	}
	existing.Name = c.Name
	existing.Type = c.Type
	existing.IsFoodCheckpoint = c.IsFoodCheckpoint
	*c = *existing
	return nil
}

func (s *Store) DeleteCheckpoint(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.checkpoints[id]; !ok {
		return fmt.Errorf("delete checkpoint %s: %w", id, store.ErrNotFound)
	}
	delete(s.checkpoints, id)
	s.unstamp(id)
	for vid, v := range s.visits {
		if v.CheckpointID == id {
			s.dropVisit(vid, v)
		}
	}
	return nil
}

// ---------------- visits ----------------

func copyVisit(v *models.Visit) *models.Visit {
	cp := *v
	if v.LastScanTime != nil {
		t := *v.LastScanTime
		cp.LastScanTime = &t
	}
	return &cp
}

func (s *Store) dropVisit(id string, v *models.Visit) {
	delete(s.visits, id)
	delete(s.visitByPair, pairKey{v.ParticipantID, v.CheckpointID})
	s.unstamp(id)
}

func (s *Store) FindOrCreateVisit(_ context.Context, participantID, checkpointID string) (*models.Visit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{participantID, checkpointID}
	if id, ok := s.visitByPair[key]; ok {
		return copyVisit(s.visits[id]), nil
	}
	if _, ok := s.participants[participantID]; !ok {
		return nil, fmt.Errorf("create visit: participant %s: %w", participantID, store.ErrNotFound)
	}
	if _, ok := s.checkpoints[checkpointID]; !ok {
		return nil, fmt.Errorf("create visit: checkpoint %s: %w", checkpointID, store.ErrNotFound)
	}
	v := models.NewVisit(uuid.NewString(), participantID, checkpointID, s.now())
	s.visits[v.ID] = v
	s.visitByPair[key] = v.ID
	s.stamp(v.ID)
	return copyVisit(v), nil
}

func (s *Store) FindVisit(_ context.Context, participantID, checkpointID string) (*models.Visit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.visitByPair[pairKey{participantID, checkpointID}]
	if !ok {
		return nil, fmt.Errorf("find visit: %w", store.ErrNotFound)
	}
	return copyVisit(s.visits[id]), nil
}

func (s *Store) ApplyTransition(_ context.Context, visitID string, t models.Transition) (*models.Visit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.visits[visitID]
	if !ok {
		return nil, fmt.Errorf("apply transition to visit %s: %w", visitID, store.ErrNotFound)
	}
	if t.Action == models.ActionEntry && t.SingleEntry && models.EntryBlocked(models.CheckpointSingle, v) {
		return nil, fmt.Errorf("apply transition to visit %s: %w", visitID, store.ErrGuardRejected)
	}
	t.Apply(v)
	return copyVisit(v), nil
}

func (s *Store) CountActive(_ context.Context, checkpointID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, v := range s.visits {
		if v.CheckpointID == checkpointID && v.LastStatus == models.Inside {
			n++
		}
	}
	return n, nil
}

func (s *Store) BulkExit(_ context.Context, checkpointID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.visits {
		if v.CheckpointID == checkpointID {
			v.LastStatus = models.Exited
			n++
		}
	}
	return n, nil
}

func (s *Store) ListVisitsByCheckpoint(_ context.Context, checkpointID string) ([]models.Visit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Visit{}
	for _, v := range s.visits {
		if v.CheckpointID == checkpointID {
			out = append(out, *copyVisit(v))
		}
	}
	sortByScanTimeDesc(out)
	return out, nil
}

func (s *Store) ListVisitsByEvent(_ context.Context, eventID string) ([]models.Visit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Visit{}
	for _, v := range s.visits {
		if c, ok := s.checkpoints[v.CheckpointID]; ok && c.EventID == eventID {
			out = append(out, *copyVisit(v))
		}
	}
	s.sortByCreation(len(out), func(i int) string { return out[i].ID }, func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out, nil
}

func (s *Store) RecentVisits(_ context.Context, eventID string, limit int) ([]models.Visit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Visit{}
	for _, v := range s.visits {
		if v.LastScanTime == nil {
			continue
		}
		if c, ok := s.checkpoints[v.CheckpointID]; ok && c.EventID == eventID {
			out = append(out, *copyVisit(v))
		}
	}
	sortByScanTimeDesc(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// sortByScanTimeDesc puts the newest scan first and never-scanned rows last.
func sortByScanTimeDesc(vs []models.Visit) {
	sort.SliceStable(vs, func(i, j int) bool {
		a, b := vs[i].LastScanTime, vs[j].LastScanTime
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}

func (s *Store) sortByCreation(n int, id func(int) string, swap func(i, j int)) {
	// insertion sort keeps this generic over the row types
	for i := 1; i < n; i++ {
		for j := i; j > 0 && s.created[id(j)] < s.created[id(j-1)]; j-- {
			swap(j, j-1)
		}
	}
}
