package service

import (
	"github.com/goccy/go-json"

	"github.com/taskwire/taskwire/database/model"
	"github.com/taskwire/taskwire/logger"
	"github.com/taskwire/taskwire/web/websocket"
)

// Broadcast payload shapes shared by several events.
type idPayload struct {
	TaskId int `json:"task_id"`
	ListId int `json:"list_id"`
}

type statePayload struct {
	TaskId int    `json:"task_id"`
	ListId int    `json:"list_id"`
	State  string `json:"state"`
}

type memberPayload struct {
	User   *model.User `json:"user"`
	ListId int         `json:"list_id"`
}

type listPayload struct {
	ListId int `json:"list_id"`
}

// BoardService binds the inbound realtime events to store mutations and
// broadcast fan-out. Every handler follows the same shape: decode and
// validate the payload, mutate through the store services, broadcast the
// delta to the sheet's subscribers and ack the originator. On any error the
// handler acks a failure and nothing is broadcast.
type BoardService struct {
	hub *websocket.Hub

	taskService TaskService
	listService ListService
	userService UserService
}

func NewBoardService(hub *websocket.Hub) *BoardService {
	return &BoardService{hub: hub}
}

// RegisterHandlers wires every event name to its handler. delete-category
// and remove-category were two identical code paths upstream; both names
// now share one handler.
func (s *BoardService) RegisterHandlers(d *websocket.Dispatcher) {
	d.Handle(websocket.EventNewTask, s.handleNewTask)
	d.Handle(websocket.EventEditTask, s.handleEditTask)
	d.Handle(websocket.EventDeleteTask, s.handleDeleteTask)
	d.Handle(websocket.EventStartTask, s.handleStartTask)
	d.Handle(websocket.EventCompleteTask, s.handleCompleteTask)
	d.Handle(websocket.EventNewCategory, s.handleNewCategory)
	d.Handle(websocket.EventDeleteCategory, s.handleRemoveCategory)
	d.Handle(websocket.EventRemoveCategory, s.handleRemoveCategory)
	d.Handle(websocket.EventNewUser, s.handleNewUser)
	d.Handle(websocket.EventDeleteUser, s.handleDeleteUser)
	d.Handle(websocket.EventDeleteSheet, s.handleDeleteSheet)
	d.Handle(websocket.EventLeaveSheet, s.handleLeaveSheet)
	d.Handle(websocket.EventEditNameSheet, s.handleEditNameSheet)
	d.Handle(websocket.EventOpenSheet, s.handleOpenSheet)
	d.Handle(websocket.EventCloseSheet, s.handleCloseSheet)
}

type newTaskPayload struct {
	TaskFields
	ListId int `json:"list_id"`
}

func (s *BoardService) handleNewTask(c *websocket.Client, e websocket.Event) {
	var p newTaskPayload
	if err := decode(e, &p); err != nil {
		s.fail(c, e, err)
		return
	}

	task, err := s.taskService.CreateTask(p.ListId, p.TaskFields, c.UserId)
	if err != nil {
		s.fail(c, e, err)
		return
	}
	s.hub.BroadcastList(task.ListId, websocket.EventNewTask, task)
	c.Ack(e, true, "", task)
}

type editTaskPayload struct {
	TaskFields
	TaskId int `json:"task_id"`
}

func (s *BoardService) handleEditTask(c *websocket.Client, e websocket.Event) {
	var p editTaskPayload
	if err := decode(e, &p); err != nil {
		s.fail(c, e, err)
		return
	}

	task, err := s.taskService.UpdateTask(p.TaskId, p.TaskFields)
	if err != nil {
		s.fail(c, e, err)
		return
	}
	s.hub.BroadcastList(task.ListId, websocket.EventEditTask, task)
	c.Ack(e, true, "", task)
}

func (s *BoardService) handleDeleteTask(c *websocket.Client, e websocket.Event) {
	taskID, err := decodeID(e, "task_id")
	if err != nil {
		s.fail(c, e, err)
		return
	}

	task, err := s.taskService.DeleteTask(taskID)
	if err != nil {
		s.fail(c, e, err)
		return
	}
	s.hub.BroadcastList(task.ListId, websocket.EventDeleteTask, idPayload{TaskId: task.Id, ListId: task.ListId})
	c.Ack(e, true, "", nil)
}

func (s *BoardService) handleStartTask(c *websocket.Client, e websocket.Event) {
	s.handleTransition(c, e, websocket.EventStartTask, s.taskService.StartTask)
}

func (s *BoardService) handleCompleteTask(c *websocket.Client, e websocket.Event) {
	s.handleTransition(c, e, websocket.EventCompleteTask, s.taskService.CompleteTask)
}

func (s *BoardService) handleTransition(c *websocket.Client, e websocket.Event, event string, move func(int) (*model.Task, error)) {
	taskID, err := decodeID(e, "task_id")
	if err != nil {
		s.fail(c, e, err)
		return
	}

	task, err := move(taskID)
	if err != nil {
		s.fail(c, e, err)
		return
	}
	s.hub.BroadcastList(task.ListId, event, statePayload{TaskId: task.Id, ListId: task.ListId, State: string(task.State)})
	c.Ack(e, true, "", task)
}

type categoryPayload struct {
	Category string `json:"category"`
	ListId   int    `json:"list_id"`
}

func (s *BoardService) handleNewCategory(c *websocket.Client, e websocket.Event) {
	var p categoryPayload
	if err := decode(e, &p); err != nil {
		s.fail(c, e, err)
		return
	}

	if err := s.listService.AddCategory(p.ListId, p.Category); err != nil {
		s.fail(c, e, err)
		return
	}
	s.hub.BroadcastList(p.ListId, websocket.EventNewCategory, p)
	c.Ack(e, true, "", nil)
}

func (s *BoardService) handleRemoveCategory(c *websocket.Client, e websocket.Event) {
	var p categoryPayload
	if err := decode(e, &p); err != nil {
		s.fail(c, e, err)
		return
	}

	if err := s.listService.RemoveCategory(p.ListId, p.Category); err != nil {
		s.fail(c, e, err)
		return
	}
	s.hub.BroadcastList(p.ListId, websocket.EventDeleteCategory, p)
	c.Ack(e, true, "", nil)
}

type newUserPayload struct {
	Username string `json:"username"`
	ListId   int    `json:"list_id"`
}

func (s *BoardService) handleNewUser(c *websocket.Client, e websocket.Event) {
	var p newUserPayload
	if err := decode(e, &p); err != nil {
		s.fail(c, e, err)
		return
	}

	member, err := s.listService.AddMember(p.ListId, p.Username)
	if err != nil {
		s.fail(c, e, err)
		return
	}
	s.hub.BroadcastList(p.ListId, websocket.EventNewUser, memberPayload{User: member, ListId: p.ListId})
	c.Ack(e, true, "", member)
}

type deleteUserPayload struct {
	UserId int `json:"user_id"`
	ListId int `json:"list_id"`
}

func (s *BoardService) handleDeleteUser(c *websocket.Client, e websocket.Event) {
	var p deleteUserPayload
	if err := decode(e, &p); err != nil {
		s.fail(c, e, err)
		return
	}

	if err := s.listService.RemoveMember(p.ListId, p.UserId); err != nil {
		s.fail(c, e, err)
		return
	}
	s.hub.BroadcastList(p.ListId, websocket.EventDeleteUser, p)
	c.Ack(e, true, "", nil)
}

func (s *BoardService) handleDeleteSheet(c *websocket.Client, e websocket.Event) {
	listID, err := decodeID(e, "list_id")
	if err != nil {
		s.fail(c, e, err)
		return
	}

	if err := s.listService.Delete(listID); err != nil {
		s.fail(c, e, err)
		return
	}
	s.hub.BroadcastList(listID, websocket.EventDeleteSheet, listPayload{ListId: listID})
	s.hub.CloseTopic(listID)
	c.Ack(e, true, "", nil)
}

// handleLeaveSheet removes the requesting user, taken from the connection's
// session identity rather than the payload.
func (s *BoardService) handleLeaveSheet(c *websocket.Client, e websocket.Event) {
	listID, err := decodeID(e, "list_id")
	if err != nil {
		s.fail(c, e, err)
		return
	}

	if err := s.listService.RemoveMember(listID, c.UserId); err != nil {
		s.fail(c, e, err)
		return
	}
	s.hub.BroadcastList(listID, websocket.EventLeaveSheet, deleteUserPayload{UserId: c.UserId, ListId: listID})
	s.hub.Unsubscribe(c, listID)
	c.Ack(e, true, "", nil)
}

type renamePayload struct {
	ListId int    `json:"list_id"`
	Name   string `json:"name"`
}

func (s *BoardService) handleEditNameSheet(c *websocket.Client, e websocket.Event) {
	var p renamePayload
	if err := decode(e, &p); err != nil {
		s.fail(c, e, err)
		return
	}

	list, err := s.listService.Rename(p.ListId, p.Name)
	if err != nil {
		s.fail(c, e, err)
		return
	}
	s.hub.BroadcastList(list.Id, websocket.EventEditNameSheet, renamePayload{ListId: list.Id, Name: list.Name})
	c.Ack(e, true, "", nil)
}

// handleOpenSheet subscribes the connection to a sheet's events. Only
// members may watch a sheet.
func (s *BoardService) handleOpenSheet(c *websocket.Client, e websocket.Event) {
	listID, err := decodeID(e, "list_id")
	if err != nil {
		s.fail(c, e, err)
		return
	}

	list, err := s.listService.GetList(listID)
	if err != nil {
		s.fail(c, e, err)
		return
	}
	if !list.HasMember(c.UserId) {
		s.fail(c, e, newValidationErrorf("user %d is not a member of list %d", c.UserId, listID))
		return
	}
	s.hub.Subscribe(c, listID)
	c.Ack(e, true, "", list)
}

func (s *BoardService) handleCloseSheet(c *websocket.Client, e websocket.Event) {
	listID, err := decodeID(e, "list_id")
	if err != nil {
		s.fail(c, e, err)
		return
	}
	s.hub.Unsubscribe(c, listID)
	c.Ack(e, true, "", nil)
}

// fail acks a failed event to its originator. Validation and not-found
// errors carry their message; store failures stay internal.
func (s *BoardService) fail(c *websocket.Client, e websocket.Event, err error) {
	switch {
	case IsStore(err):
		logger.Error("event", e.Name, "failed:", err)
		c.Ack(e, false, "internal store error", nil)
	default:
		logger.Warningf("event %s rejected: %v", e.Name, err)
		c.Ack(e, false, err.Error(), nil)
	}
}

func decode(e websocket.Event, dest any) error {
	if len(e.Data) == 0 {
		return newValidationErrorf("event %s: missing payload", e.Name)
	}
	if err := json.Unmarshal(e.Data, dest); err != nil {
		return newValidationErrorf("event %s: malformed payload: %v", e.Name, err)
	}
	return nil
}

// decodeID accepts either a bare numeric payload or an object with the
// given field, the two shapes clients historically sent.
func decodeID(e websocket.Event, field string) (int, error) {
	if len(e.Data) == 0 {
		return 0, newValidationErrorf("event %s: missing payload", e.Name)
	}

	var id int
	if err := json.Unmarshal(e.Data, &id); err == nil && id > 0 {
		return id, nil
	}

	var obj map[string]int
	if err := json.Unmarshal(e.Data, &obj); err == nil {
		if id, ok := obj[field]; ok && id > 0 {
			return id, nil
		}
	}
	return 0, newValidationErrorf("event %s: missing or invalid %s", e.Name, field)
}
