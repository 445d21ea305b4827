// file: services/access.go
package services

import (
	"context"

	"go-event-checkin/models"
	"go-event-checkin/store"
	"go-event-checkin/websocket"
	"go-event-checkin/worker"
)

// Submitter runs fire-and-forget work off the request goroutine.
type Submitter interface {
	Submit(name string, task worker.Task) bool
}

// Translator renders user-facing messages.
type Translator interface {
	T(locale, key string, data map[string]any) string
}

var (
	_ Submitter           = (*worker.Queue)(nil)
	_ websocket.Messenger = (*websocket.Hub)(nil)
)

// loadEvent resolves an event and applies the tenancy check.
func loadEvent(ctx context.Context, events store.EventRepository, p models.Principal, eventID string) (*models.Event, error) {
	event, err := events.FindEventByID(ctx, eventID)
	if err != nil {
		return nil, fromStore("find event", err, "Event not found")
	}
	if !p.CanAccessEvent(event) {
		return nil, ForbiddenError("You do not have access to this event")
	}
	return event, nil
}

// loadManagedEvent additionally requires a principal allowed to change the
// event's setup: the owning admin, or event staff with an admin role.
func loadManagedEvent(ctx context.Context, events store.EventRepository, p models.Principal, eventID string) (*models.Event, error) {
	event, err := loadEvent(ctx, events, p, eventID)
	if err != nil {
		return nil, err
	}
	if p.IsStaff() && p.Role != models.StaffAdmin && p.Role != models.StaffShowAdmin {
		return nil, ForbiddenError("Scanner staff cannot manage this event")
	}
	return event, nil
}
