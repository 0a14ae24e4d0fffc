// Package model defines the persisted entities of the task board.
package model

// TaskState tracks task progress. Transitions only move forward:
// not-started -> in-progress -> completed.
type TaskState string

const (
	TaskNotStarted TaskState = "not-started"
	TaskInProgress TaskState = "in-progress"
	TaskCompleted  TaskState = "completed"
)

// Uncategorized is the sentinel category for tasks whose category was
// removed from the owning list.
const Uncategorized = "uncategorized"

// User is an account. The password hash never leaves the server.
type User struct {
	Id       int    `json:"id" gorm:"primaryKey;autoIncrement"`
	Username string `json:"username" gorm:"unique"`
	Password string `json:"-"`
	Name     string `json:"name"`
}

// List is a named sheet of tasks shared among its member users.
type List struct {
	Id         int         `json:"id" gorm:"primaryKey;autoIncrement"`
	Name       string      `json:"name"`
	Categories StringArray `json:"categories" gorm:"type:text"`
	UserIds    IntArray    `json:"users_id" gorm:"column:users_id;type:text"`
	AdmId      int         `json:"adm_id"`
}

// HasMember reports whether the user belongs to the list.
func (l *List) HasMember(userID int) bool {
	return l.UserIds.Contains(userID)
}

// Task belongs to exactly one list. UserId is the optional assignee,
// AdmId the creator.
type Task struct {
	Id          int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Task        string    `json:"task"`
	Deadline    string    `json:"deadline"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	State       TaskState `json:"state"`
	ListId      int       `json:"list_id"`
	UserId      int       `json:"user_id"`
	AdmId       int       `json:"adm_id"`
}
