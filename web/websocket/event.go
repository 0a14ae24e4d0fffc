package websocket

import (
	"github.com/goccy/go-json"

	"github.com/taskwire/taskwire/logger"
)

// Inbound and outbound event names. Outbound mutation events mirror the
// inbound name that caused them.
const (
	EventNewTask        = "new-task"
	EventEditTask       = "edit-task"
	EventDeleteTask     = "delete-task"
	EventStartTask      = "start-task"
	EventCompleteTask   = "complete-task"
	EventNewCategory    = "new-category"
	EventDeleteCategory = "delete-category"
	EventRemoveCategory = "remove-category"
	EventNewUser        = "new-user"
	EventDeleteUser     = "delete-user"
	EventDeleteSheet    = "delete-sheet"
	EventLeaveSheet     = "leave-sheet"
	EventEditNameSheet  = "edit-name-sheet"
	EventOpenSheet      = "open-sheet"
	EventCloseSheet     = "close-sheet"

	EventAck          = "ack"
	EventDeadlineSoon = "deadline-soon"
)

// Event is the inbound message frame. Id is a client-chosen correlation id
// echoed back in the ack.
type Event struct {
	Name string          `json:"event"`
	Id   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data"`
}

// Ack reports the outcome of one inbound event to its originator.
type Ack struct {
	Id      string `json:"id,omitempty"`
	Event   string `json:"event"`
	Success bool   `json:"success"`
	Msg     string `json:"msg,omitempty"`
	Obj     any    `json:"obj,omitempty"`
}

// HandlerFunc is the unit of logic bound to one inbound event name.
type HandlerFunc func(c *Client, e Event)

// Dispatcher routes inbound events to their handlers by name. Unknown
// event names are dropped without error, as reconnecting clients may still
// emit retired events.
type Dispatcher struct {
	handlers map[string]HandlerFunc
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]HandlerFunc)}
}

// Handle binds an event name to a handler. Later bindings win.
func (d *Dispatcher) Handle(name string, fn HandlerFunc) {
	d.handlers[name] = fn
}

func (d *Dispatcher) Dispatch(c *Client, e Event) {
	fn, ok := d.handlers[e.Name]
	if !ok {
		logger.Debugf("websocket: ignoring unknown event %q from client %s", e.Name, c.ID)
		return
	}
	fn(c, e)
}
