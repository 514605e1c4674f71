package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn wraps a websocket connection with a write lock so the tick pusher and
// the action loop never interleave frames.
type Conn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// Wrap creates a synchronized connection.
func Wrap(conn *websocket.Conn) *Conn {
	return &Conn{conn: conn}
}

// WriteTyped sends a strongly-typed event payload over the WebSocket.
func (c *Conn) WriteTyped(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(v)
}

// WriteError sends a typed ErrorResponse over the WebSocket.
func (c *Conn) WriteError(errMsg string) error {
	return c.WriteTyped(ErrorResponse{Event: EventError, Error: errMsg})
}

// ReadJSON reads and decodes a message into the provided structure.
// It sets a read deadline.
func (c *Conn) ReadJSON(v interface{}) error {
	c.conn.SetReadDeadline(time.Now().Add(5 * time.Minute))
	return c.conn.ReadJSON(v)
}

// Close releases the underlying connection.
func (c *Conn) Close() error {
	return c.conn.Close()
}
