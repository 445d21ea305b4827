// file: websocket/test_helpers_test.go
package websocket

import (
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// fakeConn implements WSConn without network I/O. ReadMessage blocks until
// Close so the read pump behaves like an idle client.
type fakeConn struct {
	mu      sync.Mutex
	written [][]byte
	pings   int
	closed  chan struct{}
	once    sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{closed: make(chan struct{})}
}

func (fc *fakeConn) WriteMessage(messageType int, data []byte) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	switch messageType {
	case websocket.PingMessage:
		fc.pings++
	case websocket.TextMessage:
		fc.written = append(fc.written, data)
	}
	return nil
}

func (fc *fakeConn) messages() [][]byte {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return append([][]byte(nil), fc.written...)
}

func (fc *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (fc *fakeConn) ReadMessage() (int, []byte, error) {
	<-fc.closed
	return 0, nil, &websocket.CloseError{Code: websocket.CloseNormalClosure}
}

func (fc *fakeConn) Close() error {
	fc.once.Do(func() { close(fc.closed) })
	return nil
}

func (fc *fakeConn) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 12345}
}

func (fc *fakeConn) SetReadLimit(int64)                {}
func (fc *fakeConn) SetReadDeadline(time.Time) error   { return nil }
func (fc *fakeConn) SetPongHandler(func(string) error) {}
