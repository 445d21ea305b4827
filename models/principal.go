// File: models/principal.go
package models

// PrincipalType distinguishes event owners from event-scoped staff.
type PrincipalType string

const (
	PrincipalAdmin PrincipalType = "admin"
	PrincipalStaff PrincipalType = "staff"
)

// Principal is the already-authenticated actor behind a request.
// EventID is only set for staff.
type Principal struct {
	ID      string        `json:"id"`
	Type    PrincipalType `json:"type"`
	Role    StaffRole     `json:"role,omitempty"`
	EventID string        `json:"eventId,omitempty"`
	Email   string        `json:"email,omitempty"`
}

// IsStaff reports whether p is event-scoped staff.
func (p Principal) IsStaff() bool { return p.Type == PrincipalStaff }

// CanAccessEvent is the tenancy check: admins must own the event, staff must
// be scoped to exactly that event.
func (p Principal) CanAccessEvent(e *Event) bool {
	if e == nil || p.ID == "" {
		return false
	}
	if p.IsStaff() {
		return p.EventID == e.ID
	}
	return p.Type == PrincipalAdmin && e.OwnerID == p.ID
}
