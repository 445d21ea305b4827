// file: store/postgres/participant_repo.go
package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"go-event-checkin/models"
)

// CreateParticipants inserts the batch in one transaction.
func (s *Store) CreateParticipants(ctx context.Context, ps []*models.Participant) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, p := range ps {
			if p.ID == "" {
				p.ID = uuid.NewString()
			}
			if p.Attributes == nil {
				p.Attributes = map[string]string{}
			}
			row := tx.QueryRow(ctx,
				`INSERT INTO participants (id, event_id, name, email, phone, photo_url, token, data)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				 RETURNING created_at`,
				p.ID, p.EventID, p.Name, p.Email, p.Phone, p.PhotoURL, p.Token, p.Attributes)
			if err := row.Scan(&p.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return wrap("create participants", err)
	}
	return nil
}

func (s *Store) FindParticipantByID(ctx context.Context, id string) (*models.Participant, error) {
	p, err := scanParticipant(s.pool.QueryRow(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE id = $1`, id))
	if err != nil {
		return nil, wrap("find participant", err)
	}
	return &p, nil
}

func (s *Store) FindParticipantByToken(ctx context.Context, token string) (*models.Participant, error) {
	p, err := scanParticipant(s.pool.QueryRow(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE token = $1`, token))
	if err != nil {
		return nil, wrap("find participant by token", err)
	}
	return &p, nil
}

func (s *Store) ListParticipantsByEvent(ctx context.Context, eventID string) ([]models.Participant, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE event_id = $1 ORDER BY created_at, id`, eventID)
	if err != nil {
		return nil, wrap("list participants", err)
	}
	out, err := pgx.CollectRows(rows, collect(scanParticipant))
	if err != nil {
		return nil, wrap("list participants", err)
	}
	return out, nil
}

func (s *Store) CountParticipantsByEvent(ctx context.Context, eventID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM participants WHERE event_id = $1`, eventID).Scan(&n)
	if err != nil {
		return 0, wrap("count participants", err)
	}
	return n, nil
}

// UpdateParticipant never touches the token or the owning event.
func (s *Store) UpdateParticipant(ctx context.Context, p *models.Participant) error {
	if p.Attributes == nil {
		p.Attributes = map[string]string{}
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE participants
		    SET name = $2, email = $3, phone = $4, photo_url = $5, data = $6
		  WHERE id = $1`,
		p.ID, p.Name, p.Email, p.Phone, p.PhotoURL, p.Attributes)
	if err != nil {
		return wrap("update participant", err)
	}
	return mustAffect("update participant", tag)
}

func (s *Store) DeleteParticipant(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM participants WHERE id = $1`, id)
	if err != nil {
		return wrap("delete participant", err)
	}
	return mustAffect("delete participant", tag)
}
