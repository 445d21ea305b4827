// file: store/postgres/checkpoint_repo.go
package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"go-event-checkin/models"
)

func (s *Store) CreateCheckpoint(ctx context.Context, c *models.Checkpoint) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	row := s.pool.QueryRow(ctx,
		`INSERT INTO checkpoints (id, event_id, name, type, is_food_checkpoint)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		c.ID, c.EventID, c.Name, c.Type, c.IsFoodCheckpoint)
	if err := row.Scan(&c.CreatedAt); err != nil {
		return wrap("create checkpoint", err)
	}
	return nil
}

func (s *Store) FindCheckpointByID(ctx context.Context, id string) (*models.Checkpoint, error) {
	c, err := scanCheckpoint(s.pool.QueryRow(ctx,
		`SELECT `+checkpointColumns+` FROM checkpoints WHERE id = $1`, id))
	if err != nil {
		return nil, wrap("find checkpoint", err)
	}
	return &c, nil
}

func (s *Store) FindCheckpointByName(ctx context.Context, eventID, name string) (*models.Checkpoint, error) {
	c, err := scanCheckpoint(s.pool.QueryRow(ctx,
		`SELECT `+checkpointColumns+` FROM checkpoints WHERE event_id = $1 AND name = $2`, eventID, name))
	if err != nil {
		return nil, wrap("find checkpoint by name", err)
	}
	return &c, nil
}

func (s *Store) ListCheckpointsByEvent(ctx context.Context, eventID string) ([]models.Checkpoint, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+checkpointColumns+` FROM checkpoints WHERE event_id = $1 ORDER BY created_at, id`, eventID)
	if err != nil {
		return nil, wrap("list checkpoints", err)
	}
	out, err := pgx.CollectRows(rows, collect(scanCheckpoint))
	if err != nil {
		return nil, wrap("list checkpoints", err)
	}
	return out, nil
}

func (s *Store) UpdateCheckpoint(ctx context.Context, c *models.Checkpoint) error {
	updated, err := scanCheckpoint(s.pool.QueryRow(ctx,
		`UPDATE checkpoints
		    SET name = $2, type = $3, is_food_checkpoint = $4
		  WHERE id = $1
		  RETURNING `+checkpointColumns,
		c.ID, c.Name, c.Type, c.IsFoodCheckpoint))
	if err != nil {
		return wrap("update checkpoint", err)
	}
	*c = updated
	return nil
}

func (s *Store) DeleteCheckpoint(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM checkpoints WHERE id = $1`, id)
	if err != nil {
		return wrap("delete checkpoint", err)
	}
	return mustAffect("delete checkpoint", tag)
}
