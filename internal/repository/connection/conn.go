package connection

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 256
)

// Conn wraps a websocket connection behind a buffered outbound queue drained
// by a single writer goroutine. All outbound frames go through Send, so
// concurrent broadcasts never interleave bytes on the wire, and a slow
// consumer overflows its own queue instead of stalling delivery to others.
type Conn struct {
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func NewConn(ws *websocket.Conn) *Conn {
	c := &Conn{
		ws:   ws,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}

	if ws != nil {
		go c.writePump()
	}

	return c
}

// Send enqueues one text frame for delivery. It never blocks: a closed
// connection reports ErrConnClosed and a full queue reports
// ErrSendBufferFull, leaving the frame dropped (delivery is at most once).
func (c *Conn) Send(data []byte) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (c *Conn) Close() error {
	c.once.Do(func() { close(c.done) })

	if c.ws == nil {
		return nil
	}

	return c.ws.Close()
}

func (c *Conn) writePump() {
	defer c.Close()

	for {
		select {
		case <-c.done:
			return
		case message := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		}
	}
}
