// Package entity defines the data structures shared by the web layer.
package entity

import (
	"github.com/taskwire/taskwire/database/model"
)

// Msg is the standard API response envelope.
type Msg struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg"`
	Obj     any    `json:"obj"`
}

// Board is the full state of one sheet as served to a freshly loaded (or
// reconnected) client: the list row, its tasks and its members. Member
// passwords are never serialized.
type Board struct {
	List    *model.List   `json:"list"`
	Tasks   []*model.Task `json:"tasks"`
	Members []*model.User `json:"members"`
}
