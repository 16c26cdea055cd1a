package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Sink is the write side of a live connection as seen by the fan-out.
type Sink interface {
	WriteEnvelope(env Envelope) error
}

type clientConn struct {
	rawConn *websocket.Conn
	mu      sync.Mutex
}

func (c *clientConn) write(mt int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.rawConn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.rawConn.WriteMessage(mt, data)
}

func (c *clientConn) WriteEnvelope(env Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.rawConn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.rawConn.WriteJSON(env)
}

func (c *clientConn) close() {
	_ = c.rawConn.Close()
}
