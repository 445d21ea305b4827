// Package models defines data structures used across the application.
// File: models/event.go
package models

import "time"

// ----------------------- account model -----------------------

// Account is an organizer who owns events. Accounts log in to the admin dashboard.
type Account struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ------------------------ event model -----------------------

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	EventDraft     EventStatus = "DRAFT"
	EventPublished EventStatus = "PUBLISHED"
	EventClosed    EventStatus = "CLOSED"
)

// Valid reports whether s is a known event status.
func (s EventStatus) Valid() bool {
	switch s {
	case EventDraft, EventPublished, EventClosed:
		return true
	}
	return false
}

// Event is the tenancy boundary: checkpoints, participants and staff all
// belong to exactly one event.
type Event struct {
	ID        string      `json:"id"`
	OwnerID   string      `json:"ownerId"`
	Name      string      `json:"name"`
	Status    EventStatus `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
}

// ---------------------- staff model ----------------------

// StaffRole narrows what an event-scoped staff member may do.
type StaffRole string

const (
	StaffAdmin     StaffRole = "ADMIN"
	StaffShowAdmin StaffRole = "SHOWADMIN"
	StaffScanner   StaffRole = "SCANNER"
)

// Staff is a scanner operator scoped to a single event.
type Staff struct {
	ID           string    `json:"id"`
	EventID      string    `json:"eventId"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         StaffRole `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
}
