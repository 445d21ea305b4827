// File: models/participant.go
package models

import "time"

// Participant is issued at import time. Token is the QR payload and never
// changes once issued; Attributes holds any extra columns from the source list.
type Participant struct {
	ID         string            `json:"id"`
	EventID    string            `json:"eventId"`
	Name       string            `json:"name"`
	Email      string            `json:"email"`
	Phone      string            `json:"phone,omitempty"`
	PhotoURL   string            `json:"photoUrl,omitempty"`
	Token      string            `json:"token"`
	Attributes map[string]string `json:"data"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// MergeAttributes folds updates into the participant's attribute map.
// Keys absent from updates are kept.
func (p *Participant) MergeAttributes(updates map[string]string) {
	if p.Attributes == nil {
		p.Attributes = make(map[string]string, len(updates))
	}
	for k, v := range updates {
		p.Attributes[k] = v
	}
}

// ParticipantInput is one already-parsed record handed over by an onboarding
// source (CSV import, form, etc.).
type ParticipantInput struct {
	Name       string            `json:"name"`
	Email      string            `json:"email"`
	Phone      string            `json:"phone,omitempty"`
	PhotoURL   string            `json:"photoUrl,omitempty"`
	Attributes map[string]string `json:"data,omitempty"`
}

// ParticipantUpdate carries contact-info corrections. Nil fields are left alone.
type ParticipantUpdate struct {
	Name       *string           `json:"name,omitempty"`
	Email      *string           `json:"email,omitempty"`
	Phone      *string           `json:"phone,omitempty"`
	PhotoURL   *string           `json:"photoUrl,omitempty"`
	Attributes map[string]string `json:"data,omitempty"`
}
