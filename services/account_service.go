// file: services/account_service.go
package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"go-event-checkin/logger"
	"go-event-checkin/models"
	"go-event-checkin/store"
)

const minPasswordLength = 8

// AccountService covers organizer accounts, their events and event staff.
type AccountService struct {
	store       store.Store
	hash        func(password []byte) ([]byte, error)
	newPassword func() string
}

// NewAccountService wires accounts with bcrypt.
func NewAccountService(st store.Store) *AccountService {
	return &AccountService{
		store: st,
		hash: func(pw []byte) ([]byte, error) {
			return bcrypt.GenerateFromPassword(pw, bcrypt.DefaultCost)
		},
		newPassword: generatePassword,
	}
}

// generatePassword returns 12 random hex characters.
func generatePassword() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// checkPassword compares the plain password against the bcrypt hash.
func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func validEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

// Signup creates an organizer account.
func (s *AccountService) Signup(ctx context.Context, name, email, password string) (*models.Account, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" {
		return nil, ValidationError("Name is required")
	}
	if !validEmail(email) {
		return nil, ValidationError("A valid email is required")
	}
	if len(password) < minPasswordLength {
		return nil, ValidationError("Password must be at least 8 characters")
	}

	hashed, err := s.hash([]byte(password))
	if err != nil {
		return nil, StorageError("hash password", err)
	}
	acc := &models.Account{Name: name, Email: email, PasswordHash: string(hashed)}
	if err := s.store.CreateAccount(ctx, acc); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ConflictError("An account with this email already exists")
		}
		return nil, StorageError("create account", err)
	}
	logger.Info.Printf("[AccountService.Signup] account=%s", acc.ID)
	return acc, nil
}

// Login verifies organizer credentials.
func (s *AccountService) Login(ctx context.Context, email, password string) (models.Principal, error) {
	acc, err := s.store.FindAccountByEmail(ctx, strings.TrimSpace(email))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return models.Principal{}, StorageError("find account", err)
	}
	if acc == nil || !checkPassword(acc.PasswordHash, password) {
		logger.Warn.Printf("[AccountService.Login] failed login for %q", email)
		return models.Principal{}, UnauthorizedError("Invalid email or password")
	}
	return models.Principal{ID: acc.ID, Type: models.PrincipalAdmin, Email: acc.Email}, nil
}

// Account returns the organizer behind an admin principal.
func (s *AccountService) Account(ctx context.Context, id string) (*models.Account, error) {
	acc, err := s.store.FindAccountByID(ctx, id)
	if err != nil {
		return nil, fromStore("find account", err, "Account not found")
	}
	return acc, nil
}

// ---------------- events ----------------

// CreateEvent creates an event owned by the admin principal.
func (s *AccountService) CreateEvent(ctx context.Context, p models.Principal, name string) (*models.Event, error) {
	if p.Type != models.PrincipalAdmin {
		return nil, ForbiddenError("Only organizers can create events")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ValidationError("Event name is required")
	}
	ev := &models.Event{OwnerID: p.ID, Name: name, Status: models.EventDraft}
	if err := s.store.CreateEvent(ctx, ev); err != nil {
		return nil, fromStore("create event", err, "Account not found")
	}
	logger.Info.Printf("[AccountService.CreateEvent] owner=%s event=%s", p.ID, ev.ID)
	return ev, nil
}

// ListEvents returns the admin's events; staff see their own event only.
func (s *AccountService) ListEvents(ctx context.Context, p models.Principal) ([]models.Event, error) {
	if p.IsStaff() {
		ev, err := loadEvent(ctx, s.store, p, p.EventID)
		if err != nil {
			return nil, err
		}
		return []models.Event{*ev}, nil
	}
	events, err := s.store.ListEventsByOwner(ctx, p.ID)
	if err != nil {
		return nil, StorageError("list events", err)
	}
	return events, nil
}

// GetEvent returns one event the principal can access.
func (s *AccountService) GetEvent(ctx context.Context, p models.Principal, eventID string) (*models.Event, error) {
	return loadEvent(ctx, s.store, p, eventID)
}

// EventUpdate carries the editable event fields. Nil fields are left alone.
type EventUpdate struct {
	Name   *string             `json:"name"`
	Status *models.EventStatus `json:"status"`
}

// UpdateEvent renames an event or moves it through DRAFT, PUBLISHED and
// CLOSED. Only the owning organizer may do so.
func (s *AccountService) UpdateEvent(ctx context.Context, p models.Principal, eventID string, in EventUpdate) (*models.Event, error) {
	if p.IsStaff() {
		return nil, ForbiddenError("Only organizers can update events")
	}
	ev, err := loadEvent(ctx, s.store, p, eventID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, ValidationError("Event name is required")
		}
		ev.Name = name
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, ValidationError("Event status must be DRAFT, PUBLISHED or CLOSED")
		}
		ev.Status = *in.Status
	}
	if err := s.store.UpdateEvent(ctx, ev); err != nil {
		return nil, fromStore("update event", err, "Event not found")
	}
	logger.Info.Printf("[AccountService.UpdateEvent] event=%s status=%s", ev.ID, ev.Status)
	return ev, nil
}

// ---------------- staff ----------------

// StaffInput describes a new staff member.
type StaffInput struct {
	Name  string           `json:"name"`
	Email string           `json:"email"`
	Role  models.StaffRole `json:"role"`
}

// NewStaff is returned once, with the generated plain password.
type NewStaff struct {
	Staff    *models.Staff `json:"staff"`
	Password string        `json:"password"`
}

// AddStaff creates a staff login for the event with a generated password.
func (s *AccountService) AddStaff(ctx context.Context, p models.Principal, eventID string, in StaffInput) (*NewStaff, error) {
	if p.IsStaff() {
		return nil, ForbiddenError("Only organizers can add staff")
	}
	if _, err := loadEvent(ctx, s.store, p, eventID); err != nil {
		return nil, err
	}

	in.Name, in.Email = strings.TrimSpace(in.Name), strings.TrimSpace(in.Email)
	if in.Name == "" || !validEmail(in.Email) {
		return nil, ValidationError("Staff name and a valid email are required")
	}
	switch in.Role {
	case "":
		in.Role = models.StaffScanner
	case models.StaffAdmin, models.StaffShowAdmin, models.StaffScanner:
	default:
		return nil, ValidationError("Staff role must be ADMIN, SHOWADMIN or SCANNER")
	}

	password := s.newPassword()
	hashed, err := s.hash([]byte(password))
	if err != nil {
		return nil, StorageError("hash password", err)
	}
	st := &models.Staff{
		EventID:      eventID,
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hashed),
		Role:         in.Role,
		IsActive:     true,
	}
	if err := s.store.CreateStaff(ctx, st); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ConflictError("Staff with this email already exists for the event")
		}
		return nil, StorageError("create staff", err)
	}
	logger.Info.Printf("[AccountService.AddStaff] event=%s staff=%s role=%s", eventID, st.ID, st.Role)
	return &NewStaff{Staff: st, Password: password}, nil
}

// ListStaff returns the event's staff.
func (s *AccountService) ListStaff(ctx context.Context, p models.Principal, eventID string) ([]models.Staff, error) {
	if _, err := loadManagedEvent(ctx, s.store, p, eventID); err != nil {
		return nil, err
	}
	staff, err := s.store.ListStaffByEvent(ctx, eventID)
	if err != nil {
		return nil, StorageError("list staff", err)
	}
	return staff, nil
}

// StaffUpdate carries the editable staff fields. Nil fields are left alone.
type StaffUpdate struct {
	Role     *models.StaffRole `json:"role"`
	IsActive *bool             `json:"isActive"`
}

// UpdateStaff changes a staff member's role or deactivates them. A
// deactivated member is refused on their next request.
func (s *AccountService) UpdateStaff(ctx context.Context, p models.Principal, eventID, staffID string, in StaffUpdate) (*models.Staff, error) {
	if p.IsStaff() {
		return nil, ForbiddenError("Only organizers can update staff")
	}
	if _, err := loadEvent(ctx, s.store, p, eventID); err != nil {
		return nil, err
	}
	st, err := s.store.FindStaffByID(ctx, staffID)
	if err != nil {
		return nil, fromStore("find staff", err, "Staff not found")
	}
	if st.EventID != eventID {
		return nil, NotFoundError("Staff not found")
	}
	if in.Role != nil {
		switch *in.Role {
		case models.StaffAdmin, models.StaffShowAdmin, models.StaffScanner:
			st.Role = *in.Role
		default:
			return nil, ValidationError("Staff role must be ADMIN, SHOWADMIN or SCANNER")
		}
	}
	if in.IsActive != nil {
		st.IsActive = *in.IsActive
	}
	if err := s.store.UpdateStaff(ctx, st); err != nil {
		return nil, fromStore("update staff", err, "Staff not found")
	}
	logger.Info.Printf("[AccountService.UpdateStaff] event=%s staff=%s role=%s active=%t", eventID, st.ID, st.Role, st.IsActive)
	return st, nil
}

// StaffActive reports whether a staff login may still act. A missing row
// counts as inactive.
func (s *AccountService) StaffActive(ctx context.Context, staffID string) (bool, error) {
	st, err := s.store.FindStaffByID(ctx, staffID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, StorageError("find staff", err)
	}
	return st.IsActive, nil
}

// StaffLogin verifies staff credentials and yields an event-scoped principal.
// The same email may staff several events; the password picks the login.
func (s *AccountService) StaffLogin(ctx context.Context, email, password string) (models.Principal, error) {
	candidates, err := s.store.ListStaffByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return models.Principal{}, StorageError("find staff", err)
	}
	for _, st := range candidates {
		if !checkPassword(st.PasswordHash, password) {
			continue
		}
		if !st.IsActive {
			return models.Principal{}, UnauthorizedError("Staff account is inactive")
		}
		return models.Principal{
			ID:      st.ID,
			Type:    models.PrincipalStaff,
			Role:    st.Role,
			EventID: st.EventID,
			Email:   st.Email,
		}, nil
	}
	logger.Warn.Printf("[AccountService.StaffLogin] failed login for %q", email)
	return models.Principal{}, UnauthorizedError("Invalid email or password")
}
