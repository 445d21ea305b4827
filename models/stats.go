// File: models/stats.go
package models

// ------------------- live aggregate payloads -------------------

// CheckpointCount is one row of the live-status feed.
type CheckpointCount struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// NamedCount is a checkpoint name with its INSIDE count.
type NamedCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DashboardStats is the generic dashboard shape.
type DashboardStats struct {
	TotalParticipants int          `json:"totalParticipants"`
	CheckedIn         int          `json:"checkedIn"`
	Exited            int          `json:"exited"`
	CheckpointData    []NamedCount `json:"checkpointData"`
}

// RegistrationDeskStats is computed from the Registration Desk's own visits.
// It is published on the same topic as DashboardStats but has a different
// shape; dashboards distinguish them by the totalRegistered key.
type RegistrationDeskStats struct {
	TotalRegistered   int `json:"totalRegistered"`
	CheckedIn         int `json:"checkedIn"`
	Exited            int `json:"exited"`
	ActiveCheckpoints int `json:"activeCheckpoints"`
}

// RecentScan is one entry of the live-count feed.
type RecentScan struct {
	ID               string      `json:"id"`
	ParticipantID    string      `json:"participantId"`
	ParticipantName  string      `json:"participantName"`
	ParticipantPhoto *string     `json:"participantPhoto"`
	CheckpointName   string      `json:"checkpointName"`
	Status           VisitStatus `json:"status"`
	Time             *string     `json:"time"`
}

// VisitWithParticipant is a visit annotated with its participant.
type VisitWithParticipant struct {
	Visit
	Participant *Participant `json:"participant"`
}

// CheckpointTree is a checkpoint with every visit recorded at it.
type CheckpointTree struct {
	Checkpoint
	Visits []VisitWithParticipant `json:"visits"`
}

// ScanUpdate is the scan:updated payload.
type ScanUpdate struct {
	Participant    *Participant `json:"participant"`
	Visit          *Visit       `json:"visit"`
	CheckpointID   string       `json:"checkpointId"`
	CheckpointName string       `json:"checkpointName"`
	Action         Action       `json:"action"`
	ActiveCount    int          `json:"activeCount"`
}

// ------------------- checkpoint analytics -------------------

// CompareMode picks the population a checkpoint's visitors are compared with.
type CompareMode string

const (
	CompareNone       CompareMode = "NONE"
	CompareTotal      CompareMode = "TOTAL"
	CompareCheckpoint CompareMode = "CHECKPOINT"
)

// CheckpointActivity is one bar of the overview graph.
type CheckpointActivity struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Visited int    `json:"visited"`
	Exited  int    `json:"exited"`
}

// VisitedParticipant is a participant with their status at the checkpoint.
type VisitedParticipant struct {
	Participant
	Status VisitStatus `json:"status"`
}

// CheckpointLists holds who came and, when comparing, who did not.
type CheckpointLists struct {
	Visited []VisitedParticipant `json:"visited"`
	Gap     []Participant        `json:"gap"`
}

// CheckpointSummary totals the lists.
type CheckpointSummary struct {
	TotalVisits       int `json:"totalVisits"`
	TotalParticipants int `json:"totalParticipants"`
	TotalGap          int `json:"totalGap"`
}

// CheckpointStats is the analytics view of one checkpoint.
type CheckpointStats struct {
	CheckpointName string               `json:"checkpointName"`
	OverviewGraph  []CheckpointActivity `json:"overviewGraph"`
	AvailableKeys  []string             `json:"availableKeys"`
	Lists          CheckpointLists      `json:"lists"`
	Summary        CheckpointSummary    `json:"summary"`
}
