// Package websocket fans broadcast messages out to dashboard clients and
// in-process subscribers.
// file: websocket/messenger.go
package websocket

// Topics published on the hub.
const (
	TopicScanUpdated           = "scan:updated"
	TopicLiveStatusUpdated     = "live-status:updated"
	TopicLiveCountUpdated      = "live-count:updated"
	TopicDashboardStatsUpdated = "dashboard-stats:updated"
	TopicParticipantUpdated    = "participant:updated"
	TopicCheckpointCreated     = "checkpoint:created"
	TopicCheckpointUpdated     = "checkpoint:updated"
	TopicCheckpointDeleted     = "checkpoint:deleted"
)

// Messenger is the publishing side of the hub.
type Messenger interface {
	Publish(topic, eventID string, data any)
}

// Message is the envelope every subscriber receives. Data keeps the
// publisher's value for in-process subscribers; websocket clients get it
// JSON-encoded.
type Message struct {
	Topic   string `json:"topic"`
	EventID string `json:"eventId"`
	Data    any    `json:"data"`
}

var _ Messenger = (*Hub)(nil)
