// file: store/postgres/visit_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"go-event-checkin/models"
	"go-event-checkin/store"
)

// FindOrCreateVisit relies on the (participant_id, checkpoint_id) unique key
// so concurrent first scans converge on one row.
func (s *Store) FindOrCreateVisit(ctx context.Context, participantID, checkpointID string) (*models.Visit, error) {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO visits (id, participant_id, checkpoint_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (participant_id, checkpoint_id) DO NOTHING`,
		uuid.NewString(), participantID, checkpointID)
	if err != nil {
		return nil, wrap("create visit", err)
	}
	return s.FindVisit(ctx, participantID, checkpointID)
}

func (s *Store) FindVisit(ctx context.Context, participantID, checkpointID string) (*models.Visit, error) {
	v, err := scanVisit(s.pool.QueryRow(ctx,
		`SELECT `+visitColumns+` FROM visits WHERE participant_id = $1 AND checkpoint_id = $2`,
		participantID, checkpointID))
	if err != nil {
		return nil, wrap("find visit", err)
	}
	return &v, nil
}

// ApplyTransition is a single UPDATE. A guarded entry carries the guard in
// its WHERE clause; zero rows then means either a missing row or a lost race.
func (s *Store) ApplyTransition(ctx context.Context, visitID string, t models.Transition) (*models.Visit, error) {
	var row pgx.Row
	switch t.Action {
	case models.ActionEntry:
		row = s.pool.QueryRow(ctx,
			`UPDATE visits
			    SET last_status = 'INSIDE', visit_count = visit_count + 1, last_scan_time = $2
			  WHERE id = $1
			    AND (NOT $3::boolean OR (visit_count = 0 AND last_status <> 'EXITED'))
			  RETURNING `+visitColumns,
			visitID, t.At, t.SingleEntry)
	case models.ActionExit:
		row = s.pool.QueryRow(ctx,
			`UPDATE visits
			    SET last_status = 'EXITED', last_scan_time = $2
			  WHERE id = $1
			  RETURNING `+visitColumns,
			visitID, t.At)
	default:
		return nil, fmt.Errorf("apply transition: unsupported action %q", t.Action)
	}

	v, err := scanVisit(row)
	if err == nil {
		return &v, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) || t.Action != models.ActionEntry || !t.SingleEntry {
		return nil, wrap("apply transition", err)
	}

	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM visits WHERE id = $1)`, visitID).Scan(&exists); err != nil {
		return nil, wrap("apply transition", err)
	}
	if !exists {
		return nil, fmt.Errorf("apply transition to visit %s: %w", visitID, store.ErrNotFound)
	}
	return nil, fmt.Errorf("apply transition to visit %s: %w", visitID, store.ErrGuardRejected)
}

func (s *Store) CountActive(ctx context.Context, checkpointID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM visits WHERE checkpoint_id = $1 AND last_status = 'INSIDE'`,
		checkpointID).Scan(&n)
	if err != nil {
		return 0, wrap("count active", err)
	}
	return n, nil
}

func (s *Store) BulkExit(ctx context.Context, checkpointID string) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE visits SET last_status = 'EXITED' WHERE checkpoint_id = $1`, checkpointID)
	if err != nil {
		return 0, wrap("bulk exit", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) ListVisitsByCheckpoint(ctx context.Context, checkpointID string) ([]models.Visit, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+visitColumns+` FROM visits
		  WHERE checkpoint_id = $1
		  ORDER BY last_scan_time DESC NULLS LAST, id`, checkpointID)
	if err != nil {
		return nil, wrap("list visits", err)
	}
	out, err := pgx.CollectRows(rows, collect(scanVisit))
	if err != nil {
		return nil, wrap("list visits", err)
	}
	return out, nil
}

func (s *Store) ListVisitsByEvent(ctx context.Context, eventID string) ([]models.Visit, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT v.id, v.participant_id, v.checkpoint_id, v.last_status, v.visit_count, v.last_scan_time, v.created_at
		   FROM visits v
		   JOIN checkpoints c ON c.id = v.checkpoint_id
		  WHERE c.event_id = $1
		  ORDER BY v.created_at, v.id`, eventID)
	if err != nil {
		return nil, wrap("list event visits", err)
	}
	out, err := pgx.CollectRows(rows, collect(scanVisit))
	if err != nil {
		return nil, wrap("list event visits", err)
	}
	return out, nil
}

func (s *Store) RecentVisits(ctx context.Context, eventID string, limit int) ([]models.Visit, error) {
	var lim any
	if limit > 0 {
		lim = limit
	}
	rows, err := s.pool.Query(ctx,
		`SELECT v.id, v.participant_id, v.checkpoint_id, v.last_status, v.visit_count, v.last_scan_time, v.created_at
		   FROM visits v
		   JOIN checkpoints c ON c.id = v.checkpoint_id
		  WHERE c.event_id = $1 AND v.last_scan_time IS NOT NULL
		  ORDER BY v.last_scan_time DESC, v.id
		  LIMIT $2`, eventID, lim)
	if err != nil {
		return nil, wrap("recent visits", err)
	}
	out, err := pgx.CollectRows(rows, collect(scanVisit))
	if err != nil {
		return nil, wrap("recent visits", err)
	}
	return out, nil
}
