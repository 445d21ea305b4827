// file: heartbeat.go
package main

import (
	"context"
	"time"

	"github.com/juju/clock"

	"go-event-checkin/logger"
)

// queueStats is the worker.Queue surface the heartbeat reports on.
type queueStats interface {
	Pending() int
	Dropped() int64
	Completed() int64
}

// connCounter is the websocket.Hub surface the heartbeat reports on.
type connCounter interface {
	ConnectionCount(eventID string) int
}

// HeartbeatStatus is one periodic snapshot of the background machinery.
type HeartbeatStatus struct {
	Connections int
	Pending     int
	Dropped     int64
	Completed   int64
}

// Heartbeat periodically logs queue and dashboard connection health, and
// warns when background tasks have started to be dropped.
type Heartbeat struct {
	clock    clock.Clock
	interval time.Duration
	queue    queueStats
	hub      connCounter

	lastDropped int64
	onBeat      func(HeartbeatStatus)
}

// NewHeartbeat builds a heartbeat ticking every interval.
func NewHeartbeat(clk clock.Clock, interval time.Duration, queue queueStats, hub connCounter) *Heartbeat {
	return &Heartbeat{clock: clk, interval: interval, queue: queue, hub: hub}
}

// Run beats until ctx is cancelled.
func (h *Heartbeat) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			logger.Debug.Println("[Heartbeat.Run] stopped")
			return
		case <-h.clock.After(h.interval):
			st := h.beat()
			if h.onBeat != nil {
				h.onBeat(st)
			}
		}
	}
}

func (h *Heartbeat) beat() HeartbeatStatus {
	st := HeartbeatStatus{
		Connections: h.hub.ConnectionCount(""),
		Pending:     h.queue.Pending(),
		Dropped:     h.queue.Dropped(),
		Completed:   h.queue.Completed(),
	}
	if st.Dropped > h.lastDropped {
		logger.Warn.Printf("[Heartbeat] %d background tasks dropped since last beat (pending=%d)", st.Dropped-h.lastDropped, st.Pending)
	}
	h.lastDropped = st.Dropped
	logger.Debug.Printf("[Heartbeat] connections=%d pending=%d completed=%d dropped=%d",
		st.Connections, st.Pending, st.Completed, st.Dropped)
	return st
}
