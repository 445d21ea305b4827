// file: store/postgres/account_repo.go
package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"go-event-checkin/models"
)

// ---------------- accounts ----------------

func (s *Store) CreateAccount(ctx context.Context, a *models.Account) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	row := s.pool.QueryRow(ctx,
		`INSERT INTO accounts (id, name, email, password_hash)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		a.ID, a.Name, a.Email, a.PasswordHash)
	if err := row.Scan(&a.CreatedAt); err != nil {
		return wrap("create account", err)
	}
	return nil
}

func (s *Store) FindAccountByID(ctx context.Context, id string) (*models.Account, error) {
	a, err := scanAccount(s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if err != nil {
		return nil, wrap("find account", err)
	}
	return &a, nil
}

func (s *Store) FindAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	a, err := scanAccount(s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE LOWER(email) = LOWER($1)`, email))
	if err != nil {
		return nil, wrap("find account by email", err)
	}
	return &a, nil
}

// ---------------- events ----------------

func (s *Store) CreateEvent(ctx context.Context, e *models.Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Status == "" {
		e.Status = models.EventDraft
	}
	row := s.pool.QueryRow(ctx,
		`INSERT INTO events (id, owner_id, name, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		e.ID, e.OwnerID, e.Name, e.Status)
	if err := row.Scan(&e.CreatedAt); err != nil {
		return wrap("create event", err)
	}
	return nil
}

func (s *Store) FindEventByID(ctx context.Context, id string) (*models.Event, error) {
	e, err := scanEvent(s.pool.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		return nil, wrap("find event", err)
	}
	return &e, nil
}

func (s *Store) ListEventsByOwner(ctx context.Context, ownerID string) ([]models.Event, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+eventColumns+` FROM events WHERE owner_id = $1 ORDER BY created_at DESC, id`, ownerID)
	if err != nil {
		return nil, wrap("list events", err)
	}
	out, err := pgx.CollectRows(rows, collect(scanEvent))
	if err != nil {
		return nil, wrap("list events", err)
	}
	return out, nil
}

func (s *Store) UpdateEvent(ctx context.Context, e *models.Event) error {
	updated, err := scanEvent(s.pool.QueryRow(ctx,
		`UPDATE events
		    SET name = $2, status = $3
		  WHERE id = $1
		  RETURNING `+eventColumns,
		e.ID, e.Name, e.Status))
	if err != nil {
		return wrap("update event", err)
	}
	*e = updated
	return nil
}

// ---------------- staff ----------------

func (s *Store) CreateStaff(ctx context.Context, st *models.Staff) error {
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	row := s.pool.QueryRow(ctx,
		`INSERT INTO staff (id, event_id, name, email, password_hash, role, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at`,
		st.ID, st.EventID, st.Name, st.Email, st.PasswordHash, st.Role, st.IsActive)
	if err := row.Scan(&st.CreatedAt); err != nil {
		return wrap("create staff", err)
	}
	return nil
}

func (s *Store) FindStaffByID(ctx context.Context, id string) (*models.Staff, error) {
	st, err := scanStaff(s.pool.QueryRow(ctx,
		`SELECT `+staffColumns+` FROM staff WHERE id = $1`, id))
	if err != nil {
		return nil, wrap("find staff", err)
	}
	return &st, nil
}

func (s *Store) ListStaffByEmail(ctx context.Context, email string) ([]models.Staff, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+staffColumns+` FROM staff WHERE LOWER(email) = LOWER($1) ORDER BY created_at, id`, email)
	if err != nil {
		return nil, wrap("list staff by email", err)
	}
	out, err := pgx.CollectRows(rows, collect(scanStaff))
	if err != nil {
		return nil, wrap("list staff by email", err)
	}
	return out, nil
}

func (s *Store) ListStaffByEvent(ctx context.Context, eventID string) ([]models.Staff, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+staffColumns+` FROM staff WHERE event_id = $1 ORDER BY created_at, id`, eventID)
	if err != nil {
		return nil, wrap("list staff", err)
	}
	out, err := pgx.CollectRows(rows, collect(scanStaff))
	if err != nil {
		return nil, wrap("list staff", err)
	}
	return out, nil
}

func (s *Store) UpdateStaff(ctx context.Context, st *models.Staff) error {
	updated, err := scanStaff(s.pool.QueryRow(ctx,
		`UPDATE staff
		    SET role = $2, is_active = $3
		  WHERE id = $1
		  RETURNING `+staffColumns,
		st.ID, st.Role, st.IsActive))
	if err != nil {
		return wrap("update staff", err)
	}
	*st = updated
	return nil
}
