package websocket

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/taskwire/taskwire/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Client is one live connection. UserId is the authenticated account bound
// at upgrade time; it is the actor for every event on this connection.
type Client struct {
	ID     string
	UserId int

	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// lists is the set of sheet ids this client has open. Guarded by
	// hub.mu, mutated only through hub.Subscribe/Unsubscribe.
	lists map[int]bool
}

// NewClient wraps an upgraded connection for the given account.
func NewClient(hub *Hub, conn *websocket.Conn, userID int) *Client {
	return &Client{
		ID:     uuid.NewString(),
		UserId: userID,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 64),
		lists:  make(map[int]bool),
	}
}

// watching reports whether the client has the sheet open. Callers hold
// hub.mu.
func (c *Client) watching(listID int) bool {
	return c.lists[listID]
}

// Serve registers the client and pumps messages until the connection drops.
// It blocks; run it from the connection's handler goroutine.
func (c *Client) Serve(d *Dispatcher) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	go c.writePump()
	c.readPump(d)
}

// readPump decodes inbound frames and dispatches them sequentially, so two
// events from the same connection never interleave their store calls.
func (c *Client) readPump(d *Dispatcher) {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debugf("websocket client %s read error: %v", c.ID, err)
			}
			return
		}

		var event Event
		if err := json.Unmarshal(raw, &event); err != nil {
			logger.Debugf("websocket client %s sent malformed frame: %v", c.ID, err)
			continue
		}
		d.Dispatch(c, event)
	}
}

// writePump drains the send channel and keeps the connection alive with
// pings. It exits when the hub closes the channel or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Ack replies to the originating connection only, reporting the outcome of
// one inbound event.
func (c *Client) Ack(e Event, success bool, msg string, obj any) {
	data, err := json.Marshal(Envelope{
		Event: EventAck,
		Data: Ack{
			Id:      e.Id,
			Event:   e.Name,
			Success: success,
			Msg:     msg,
			Obj:     obj,
		},
		Time: time.Now().UnixMilli(),
	})
	if err != nil {
		logger.Error("failed to marshal ack:", err)
		return
	}

	defer func() {
		// The hub may have closed the send channel between dispatch and
		// reply; a lost ack on a dead connection is fine.
		if r := recover(); r != nil {
			logger.Debugf("websocket ack dropped for client %s", c.ID)
		}
	}()
	select {
	case c.send <- data:
	default:
		logger.Debugf("websocket client %s send buffer full, ack dropped", c.ID)
	}
}
