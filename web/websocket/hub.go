// Package websocket implements the realtime side of the task board: the
// broadcast hub, per-connection clients and the inbound event dispatcher.
package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/atomic"

	"github.com/taskwire/taskwire/logger"
)

// Envelope is the outbound message frame pushed to clients.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
	Time  int64  `json:"time"`
}

// broadcastAll addresses every connected client regardless of topic.
const broadcastAll = 0

// outbound carries a marshalled frame with its targets already resolved.
// Targets are snapshotted when the broadcast is issued, so an unsubscribe
// or topic closure that follows cannot drop a frame already in flight.
type outbound struct {
	targets []*Client
	payload []byte
}

// Hub maintains the set of active clients and fans mutation events out to
// them. Broadcasts are scoped by list id: a client only receives events for
// sheets it has open.
type Hub struct {
	clients map[*Client]bool

	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	connected *atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub creates a hub; call Run in a goroutine to start it.
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan outbound, 1024),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		connected:  atomic.NewInt64(0),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run is the hub's main loop: it serializes registration, retirement and
// fan-out so the client set is only ever mutated here.
func (h *Hub) Run() {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("websocket hub panic recovered:", r)
			go h.Run()
		}
	}()

	for {
		select {
		case <-h.ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
			}
			h.clients = make(map[*Client]bool)
			h.mu.Unlock()
			h.connected.Store(0)
			logger.Info("websocket hub stopped")
			return

		case client := <-h.register:
			if client == nil {
				continue
			}
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			count := h.connected.Inc()
			logger.Debugf("websocket client connected: %s (total: %d)", client.ID, count)

		case client := <-h.unregister:
			if client == nil {
				continue
			}
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.connected.Dec()
			}
			h.mu.Unlock()
			logger.Debugf("websocket client disconnected: %s (total: %d)", client.ID, h.connected.Load())

		case msg := <-h.broadcast:
			h.mu.Lock()
			for _, client := range msg.targets {
				// The client may have been retired since the snapshot.
				if !h.clients[client] {
					continue
				}
				select {
				case client.send <- msg.payload:
				default:
					// Slow consumer: drop the connection rather than
					// blocking fan-out for everyone else. Removal happens
					// inline; re-entering the unregister channel from the
					// loop's own goroutine would deadlock once it fills.
					logger.Debugf("websocket client %s send buffer full, disconnecting", client.ID)
					delete(h.clients, client)
					close(client.send)
					h.connected.Dec()
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends an event to every connected client.
func (h *Hub) Broadcast(event string, payload any) {
	h.send(broadcastAll, event, payload)
}

// BroadcastList sends an event to the clients subscribed to the given
// sheet. The recipients are fixed when the call returns: unsubscribing or
// closing the topic afterwards does not affect this broadcast.
func (h *Hub) BroadcastList(listID int, event string, payload any) {
	if listID == broadcastAll {
		return
	}
	h.send(listID, event, payload)
}

func (h *Hub) send(listID int, event string, payload any) {
	if h == nil {
		return
	}

	data, err := json.Marshal(Envelope{
		Event: event,
		Data:  payload,
		Time:  time.Now().UnixMilli(),
	})
	if err != nil {
		logger.Error("failed to marshal websocket message:", err)
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		if listID == broadcastAll || client.watching(listID) {
			targets = append(targets, client)
		}
	}
	h.mu.RUnlock()
	if len(targets) == 0 {
		return
	}

	select {
	case h.broadcast <- outbound{targets: targets, payload: data}:
	case <-time.After(100 * time.Millisecond):
		logger.Warning("websocket broadcast channel is full, dropping message")
	case <-h.ctx.Done():
	}
}

// Subscribe marks the client as watching a sheet.
func (h *Hub) Subscribe(client *Client, listID int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	client.lists[listID] = true
}

// Unsubscribe stops delivery of a sheet's events to the client.
func (h *Hub) Unsubscribe(client *Client, listID int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(client.lists, listID)
}

// CloseTopic drops every subscription to a sheet, used after the sheet
// itself is deleted.
func (h *Hub) CloseTopic(listID int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		delete(client.lists, listID)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	return int(h.connected.Load())
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	if h == nil || client == nil {
		return
	}
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

// Unregister retires a client from the hub.
func (h *Hub) Unregister(client *Client) {
	if h == nil || client == nil {
		return
	}
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// Stop shuts the hub down and closes all client send channels.
func (h *Hub) Stop() {
	if h == nil {
		return
	}
	h.cancel()
}
