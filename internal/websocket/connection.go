package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

// Connection is what a Client needs from a websocket peer. Tests drive
// clients through fakes of it.
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(string) error)
	RemoteAddr() string
}

// ConnectionWrapper adapts a gorilla connection to Connection.
type ConnectionWrapper struct {
	conn *websocket.Conn
}

// NewConnectionWrapper wraps conn.
func NewConnectionWrapper(conn *websocket.Conn) Connection {
	return &ConnectionWrapper{conn: conn}
}

func (c *ConnectionWrapper) WriteMessage(messageType int, data []byte) error {
	return c.conn.WriteMessage(messageType, data)
}

func (c *ConnectionWrapper) ReadMessage() (int, []byte, error)   { return c.conn.ReadMessage() }
func (c *ConnectionWrapper) Close() error                        { return c.conn.Close() }
func (c *ConnectionWrapper) SetReadDeadline(t time.Time) error   { return c.conn.SetReadDeadline(t) }
func (c *ConnectionWrapper) SetWriteDeadline(t time.Time) error  { return c.conn.SetWriteDeadline(t) }
func (c *ConnectionWrapper) SetReadLimit(limit int64)            { c.conn.SetReadLimit(limit) }
func (c *ConnectionWrapper) SetPongHandler(h func(string) error) { c.conn.SetPongHandler(h) }

// RemoteAddr returns the peer address, or "" when unknown.
func (c *ConnectionWrapper) RemoteAddr() string {
	if addr := c.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
