// file: store/postgres/mapper.go
package postgres

import (
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"go-event-checkin/models"
)

// timestamptzToPtr returns nil for SQL NULL.
func timestamptzToPtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

const (
	accountColumns     = `id, name, email, password_hash, created_at`
	eventColumns       = `id, owner_id, name, status, created_at`
	staffColumns       = `id, event_id, name, email, password_hash, role, is_active, created_at`
	participantColumns = `id, event_id, name, email, phone, photo_url, token, data, created_at`
	checkpointColumns  = `id, event_id, name, type, is_food_checkpoint, created_at`
	visitColumns       = `id, participant_id, checkpoint_id, last_status, visit_count, last_scan_time, created_at`
)

func scanAccount(row pgx.Row) (models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.CreatedAt)
	return a, err
}

func scanEvent(row pgx.Row) (models.Event, error) {
	var e models.Event
	err := row.Scan(&e.ID, &e.OwnerID, &e.Name, &e.Status, &e.CreatedAt)
	return e, err
}

func scanStaff(row pgx.Row) (models.Staff, error) {
	var s models.Staff
	err := row.Scan(&s.ID, &s.EventID, &s.Name, &s.Email, &s.PasswordHash, &s.Role, &s.IsActive, &s.CreatedAt)
	return s, err
}

func scanParticipant(row pgx.Row) (models.Participant, error) {
	var p models.Participant
	err := row.Scan(&p.ID, &p.EventID, &p.Name, &p.Email, &p.Phone, &p.PhotoURL, &p.Token, &p.Attributes, &p.CreatedAt)
	if p.Attributes == nil {
		p.Attributes = map[string]string{}
	}
	return p, err
}

func scanCheckpoint(row pgx.Row) (models.Checkpoint, error) {
	var c models.Checkpoint
	err := row.Scan(&c.ID, &c.EventID, &c.Name, &c.Type, &c.IsFoodCheckpoint, &c.CreatedAt)
	return c, err
}

func scanVisit(row pgx.Row) (models.Visit, error) {
	var (
		v        models.Visit
		lastScan pgtype.Timestamptz
	)
	err := row.Scan(&v.ID, &v.ParticipantID, &v.CheckpointID, &v.LastStatus, &v.VisitCount, &lastScan, &v.CreatedAt)
	v.LastScanTime = timestamptzToPtr(lastScan)
	return v, err
}

// collect adapts a row scanner for pgx.CollectRows.
func collect[T any](scan func(pgx.Row) (T, error)) pgx.RowToFunc[T] {
	return func(row pgx.CollectableRow) (T, error) { return scan(row) }
}
