// file: websocket/broadcast.go
package websocket

import (
	"encoding/json"
	"sync"

	"go-event-checkin/logger"
)

type outbound struct {
	msg Message
	raw []byte
}

// Hub owns the connection registry and the broadcast channel. Publish never
// blocks: a full channel or a slow client loses that message.
type Hub struct {
	broadcast chan outbound
	quit      chan struct{}
	stopOnce  sync.Once

	mu          sync.RWMutex
	connections map[*Connection]bool
	subscribers map[int]func(Message)
	nextSubID   int

	upgrader upgrader
	metrics  Metrics
}

// HubOptions configures NewHub.
type HubOptions struct {
	// Buffer is the broadcast channel capacity.
	Buffer int
	// AllowedOrigins restricts websocket upgrades; empty allows any origin.
	AllowedOrigins []string
	Metrics        Metrics
}

// NewHub builds a hub. Call Run to start delivery.
func NewHub(opts HubOptions) *Hub {
	if opts.Buffer <= 0 {
		opts.Buffer = 256
	}
	if opts.Metrics == nil {
		opts.Metrics = NopMetrics{}
	}
	return &Hub{
		broadcast:   make(chan outbound, opts.Buffer),
		quit:        make(chan struct{}),
		connections: make(map[*Connection]bool),
		subscribers: make(map[int]func(Message)),
		upgrader:    newUpgrader(opts.AllowedOrigins),
		metrics:     opts.Metrics,
	}
}

// Publish enqueues a message for every subscriber and every connection
// watching eventID.
func (h *Hub) Publish(topic, eventID string, data any) {
	msg := Message{Topic: topic, EventID: eventID, Data: data}
	raw, err := json.Marshal(msg)
	if err != nil {
		logger.Error.Printf("[Hub.Publish] marshal %s: %v", topic, err)
		return
	}
	select {
	case h.broadcast <- outbound{msg: msg, raw: raw}:
	case <-h.quit:
	default:
		logger.Warn.Printf("[Hub.Publish] broadcast channel full, dropping %s for event %s", topic, eventID)
		h.metrics.BroadcastDropped(topic)
	}
}

// Subscribe registers an in-process observer. Observers run on the hub
// goroutine in publish order and must not block.
func (h *Hub) Subscribe(fn func(Message)) (unsubscribe func()) {
	h.mu.Lock()
	id := h.nextSubID
	h.nextSubID++
	h.subscribers[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.subscribers, id)
		h.mu.Unlock()
	}
}

// Run delivers messages until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case out := <-h.broadcast:
			h.deliver(out)
		case <-h.quit:
			h.closeAll()
			return
		}
	}
}

// Stop ends Run and closes every client connection.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}

func (h *Hub) deliver(out outbound) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, fn := range h.subscribers {
		h.notify(fn, out.msg)
	}

	for c := range h.connections {
		// a connection with an event filter only sees that event
		if c.eventID != "" && c.eventID != out.msg.EventID {
			continue
		}
		select {
		case c.send <- out.raw:
		default:
			logger.Warn.Printf("[Hub] dropping %s for slow connection %v", out.msg.Topic, c.conn.RemoteAddr())
			h.metrics.BroadcastDropped(out.msg.Topic)
		}
	}
}

func (h *Hub) notify(fn func(Message), msg Message) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error.Printf("[Hub] subscriber panicked on %s: %v", msg.Topic, r)
		}
	}()
	fn(msg)
}

func (h *Hub) register(c *Connection) {
	h.mu.Lock()
	h.connections[c] = true
	n := len(h.connections)
	h.mu.Unlock()
	h.metrics.Connections(n)
}

func (h *Hub) unregister(c *Connection) {
	h.mu.Lock()
	if _, ok := h.connections[c]; ok {
		delete(h.connections, c)
		close(c.send)
	}
	n := len(h.connections)
	h.mu.Unlock()
	h.metrics.Connections(n)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.connections {
		delete(h.connections, c)
		close(c.send)
	}
}

// ConnectionCount returns how many clients watch eventID. An empty eventID
// counts every client.
func (h *Hub) ConnectionCount(eventID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if eventID == "" {
		return len(h.connections)
	}
	n := 0
	for c := range h.connections {
		if c.eventID == eventID {
			n++
		}
	}
	return n
}
