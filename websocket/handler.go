// file: websocket/handler.go
package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"

	"go-event-checkin/logger"
)

type upgrader interface {
	Upgrade(w http.ResponseWriter, r *http.Request, responseHeader http.Header) (*websocket.Conn, error)
}

// newUpgrader allows any origin when allowed is empty.
func newUpgrader(allowed []string) *websocket.Upgrader {
	origins := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		origins[o] = true
	}
	return &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if len(origins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			return origin == "" || origins[origin]
		},
	}
}

// ServeWs upgrades the request and starts the read and write pumps. The
// optional eventId query parameter limits the stream to one event.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	eventID := r.URL.Query().Get("eventId")

	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client
		logger.Warn.Printf("[ServeWs] upgrade error from %v: %v", r.RemoteAddr, err)
		return
	}
	logger.Info.Printf("[ServeWs] connected: remoteAddr=%v, eventId=%q", r.RemoteAddr, eventID)

	c := newConnection(h, wsConn, eventID)
	h.register(c)

	go c.writePump()
	go c.readPump()
}
