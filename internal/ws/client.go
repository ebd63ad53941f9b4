package ws

import (
	"log"
	"sync"

	"github.com/VictoriaMetrics/metrics"
)

var droppedTotal = metrics.NewCounter("pixelboard_ws_dropped_messages_total")

// Conn is the write side of a websocket connection. *websocket.Conn from
// gorilla satisfies it; tests substitute fakes.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Client is one connected viewer. Outbound messages go through a buffered
// channel drained by a single writer goroutine, so publishers never block on
// a slow socket and the connection only ever has one concurrent writer.
type Client struct {
	conn Conn
	send chan Envelope

	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(conn Conn) *Client {
	c := &Client{
		conn: conn,
		send: make(chan Envelope, 64),
		done: make(chan struct{}),
	}
	go c.writePump()
	return c
}

func (c *Client) writePump() {
	for {
		select {
		case <-c.done:
			return
		case env := <-c.send:
			if err := c.conn.WriteJSON(env); err != nil {
				log.Printf("[ws] write failed, closing client: %v", err)
				c.Close()
				return
			}
		}
	}
}

// Send queues a message for delivery. Delivery is fire-and-forget: when the
// client's buffer is full or the client is closed, the message is dropped.
func (c *Client) Send(env Envelope) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- env:
		return true
	default:
		droppedTotal.Inc()
		return false
	}
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}
