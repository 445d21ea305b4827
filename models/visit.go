// File: models/visit.go
package models

import (
	"fmt"
	"time"
)

// VisitStatus is a participant's presence at one checkpoint.
type VisitStatus string

const (
	NotVisited VisitStatus = "NOT_VISITED"
	Inside     VisitStatus = "INSIDE"
	Exited     VisitStatus = "EXITED"
)

// Action is what a scanner asks for.
type Action string

const (
	ActionEntry Action = "entry"
	ActionExit  Action = "exit"
	// ActionNone is only ever returned by a preview, never accepted by a scan.
	ActionNone Action = "none"
)

// ParseAction accepts "entry" or "exit".
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionEntry, ActionExit:
		return Action(s), nil
	default:
		return "", fmt.Errorf("invalid action %q: must be entry or exit", s)
	}
}

// Visit is the state of one participant at one checkpoint. At most one row
// exists per (ParticipantID, CheckpointID).
type Visit struct {
	ID            string      `json:"id"`
	ParticipantID string      `json:"participantId"`
	CheckpointID  string      `json:"checkpointId"`
	LastStatus    VisitStatus `json:"lastStatus"`
	VisitCount    int         `json:"visitCount"`
	LastScanTime  *time.Time  `json:"lastScanTime"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// NewVisit returns the lazily created initial state.
func NewVisit(id, participantID, checkpointID string, now time.Time) *Visit {
	return &Visit{
		ID:            id,
		ParticipantID: participantID,
		CheckpointID:  checkpointID,
		LastStatus:    NotVisited,
		CreatedAt:     now,
	}
}

// EntryBlocked is the single-entry guard. Both the scan path and the preview
// path go through it, and stores re-check it inside their atomic update.
//
// A SINGLE checkpoint stays closed to a participant once they have entered,
// or once their row was forced to EXITED (bulk exit can do that to a row that
// never entered).
func EntryBlocked(cpType CheckpointType, v *Visit) bool {
	if cpType != CheckpointSingle || v == nil {
		return false
	}
	return v.VisitCount > 0 || v.LastStatus == Exited
}

// Transition is one atomic mutation of a visit row.
type Transition struct {
	Action Action
	At     time.Time
	// SingleEntry makes an entry conditional on EntryBlocked being false at
	// the moment of the write.
	SingleEntry bool
}

// Apply mutates v in place. Callers that need atomicity hold the row.
func (t Transition) Apply(v *Visit) {
	at := t.At
	switch t.Action {
	case ActionEntry:
		v.LastStatus = Inside
		v.VisitCount++
	case ActionExit:
		v.LastStatus = Exited
	}
	v.LastScanTime = &at
}

// NextAction previews what the next scan would do.
func NextAction(cpType CheckpointType, v *Visit) (Action, bool) {
	if v != nil && v.LastStatus == Inside {
		return ActionExit, true
	}
	if EntryBlocked(cpType, v) {
		return ActionNone, false
	}
	return ActionEntry, true
}
