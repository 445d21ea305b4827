// File: models/checkpoint.go
package models

import "time"

// RegistrationDesk is the name of the protected checkpoint every event gets
// on its first participant import.
const RegistrationDesk = "Registration Desk"

// CheckpointType is the access policy of a checkpoint.
type CheckpointType string

const (
	// CheckpointSingle admits each participant once.
	CheckpointSingle CheckpointType = "SINGLE"
	// CheckpointMultiple allows entry and exit to alternate freely.
	CheckpointMultiple CheckpointType = "MULTIPLE"
)

// Valid reports whether t is a known checkpoint type.
func (t CheckpointType) Valid() bool {
	return t == CheckpointSingle || t == CheckpointMultiple
}

// Checkpoint is a named entry point participants scan at.
type Checkpoint struct {
	ID               string         `json:"id"`
	EventID          string         `json:"eventId"`
	Name             string         `json:"name"`
	Type             CheckpointType `json:"type"`
	IsFoodCheckpoint bool           `json:"isFoodCheckpoint"`
	CreatedAt        time.Time      `json:"createdAt"`
}

// IsRegistrationDesk reports whether c is the event's protected sentinel.
func (c *Checkpoint) IsRegistrationDesk() bool {
	return c.Name == RegistrationDesk
}
