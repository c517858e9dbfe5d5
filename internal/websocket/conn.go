package websocket

import (
	"sync"
	"time"

	"voice-ordering-be/internal/dto"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 1 << 20 // audio frames come base64-encoded in JSON
)

// conn wraps one websocket connection with a single-writer pump. Emit is
// safe from any goroutine and becomes a no-op once the socket is gone, so
// late speech callbacks or in-flight pipeline results never crash a closed
// connection.
type conn struct {
	ws   *websocket.Conn
	send chan dto.WsServerMessage

	done      chan struct{}
	closeOnce sync.Once
}

func newConn(ws *websocket.Conn) *conn {
	return &conn{
		ws:   ws,
		send: make(chan dto.WsServerMessage, 64),
		done: make(chan struct{}),
	}
}

func (c *conn) emit(msg dto.WsServerMessage) {
	select {
	case <-c.done:
	case c.send <- msg:
	}
}

// writePump is the only goroutine that touches the socket for writes.
func (c *conn) writePump() {
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(msg); err != nil {
				c.close()
				return
			}
		}
	}
}

func (c *conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.ws.Close()
	})
}

func (c *conn) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}
