package service

import (
	"strings"

	"gorm.io/gorm"

	"github.com/taskwire/taskwire/database"
	"github.com/taskwire/taskwire/database/model"
)

// TaskService manages task rows and their forward-only progress state.
type TaskService struct{}

// TaskFields carries the mutable attributes for create and edit. State is
// deliberately absent: it only moves through Start and Complete.
type TaskFields struct {
	Task        string `json:"task"`
	Deadline    string `json:"deadline"`
	Category    string `json:"category"`
	Description string `json:"description"`
	UserId      int    `json:"user_id"`
}

// CreateTask inserts a task into the given list with state not-started.
// The list must exist and the category must be one of its categories (empty
// coerces to the uncategorized sentinel).
func (s *TaskService) CreateTask(listID int, fields TaskFields, admID int) (*model.Task, error) {
	title := strings.TrimSpace(fields.Task)
	if title == "" {
		return nil, newValidationErrorf("task title can not be empty")
	}

	var created *model.Task
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		list, err := getList(tx, listID)
		if err != nil {
			return err
		}
		category, err := normalizeCategory(list, fields.Category)
		if err != nil {
			return err
		}

		task := &model.Task{
			Task:        title,
			Deadline:    fields.Deadline,
			Category:    category,
			Description: fields.Description,
			State:       model.TaskNotStarted,
			ListId:      list.Id,
			UserId:      fields.UserId,
			AdmId:       admID,
		}
		if err := tx.Create(task).Error; err != nil {
			return wrapStore("insert task", err)
		}
		created = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateTask edits title, deadline, category, description and assignee of an
// existing task. State is untouched.
func (s *TaskService) UpdateTask(taskID int, fields TaskFields) (*model.Task, error) {
	title := strings.TrimSpace(fields.Task)
	if title == "" {
		return nil, newValidationErrorf("task title can not be empty")
	}

	var updated *model.Task
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		task, err := getTask(tx, taskID)
		if err != nil {
			return err
		}
		list, err := getList(tx, task.ListId)
		if err != nil {
			return err
		}
		category, err := normalizeCategory(list, fields.Category)
		if err != nil {
			return err
		}

		task.Task = title
		task.Deadline = fields.Deadline
		task.Category = category
		task.Description = fields.Description
		task.UserId = fields.UserId
		if err := tx.Save(task).Error; err != nil {
			return wrapStore("update task", err)
		}
		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTask removes a task by id and returns the deleted row, so callers
// still know which list it belonged to.
func (s *TaskService) DeleteTask(taskID int) (*model.Task, error) {
	var deleted *model.Task
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		task, err := getTask(tx, taskID)
		if err != nil {
			return err
		}
		if err := tx.Delete(task).Error; err != nil {
			return wrapStore("delete task", err)
		}
		deleted = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// StartTask moves a not-started task to in-progress.
func (s *TaskService) StartTask(taskID int) (*model.Task, error) {
	return s.transition(taskID, model.TaskNotStarted, model.TaskInProgress)
}

// CompleteTask moves an in-progress task to completed.
func (s *TaskService) CompleteTask(taskID int) (*model.Task, error) {
	return s.transition(taskID, model.TaskInProgress, model.TaskCompleted)
}

// transition advances task state. Any other combination is rejected, which
// keeps the not-started -> in-progress -> completed order strict.
func (s *TaskService) transition(taskID int, from, to model.TaskState) (*model.Task, error) {
	var moved *model.Task
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		task, err := getTask(tx, taskID)
		if err != nil {
			return err
		}
		if task.State != from {
			return newValidationErrorf("task %d is %s, can not move to %s", taskID, task.State, to)
		}
		task.State = to
		if err := tx.Save(task).Error; err != nil {
			return wrapStore("update task state", err)
		}
		moved = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

// GetTasks returns every task of a list.
func (s *TaskService) GetTasks(listID int) ([]*model.Task, error) {
	db := database.GetDB()
	var tasks []*model.Task
	err := db.Model(model.Task{}).Where("list_id = ?", listID).Find(&tasks).Error
	if err != nil {
		return nil, wrapStore("select tasks by list", err)
	}
	return tasks, nil
}

// GetDueTasks returns unfinished tasks of any list whose deadline matches
// one of the given dates (deadlines are stored as YYYY-MM-DD strings).
func (s *TaskService) GetDueTasks(dates []string) ([]*model.Task, error) {
	db := database.GetDB()
	var tasks []*model.Task
	err := db.Model(model.Task{}).
		Where("deadline IN ? AND state <> ?", dates, model.TaskCompleted).
		Find(&tasks).
		Error
	if err != nil {
		return nil, wrapStore("select due tasks", err)
	}
	return tasks, nil
}

func getTask(db *gorm.DB, id int) (*model.Task, error) {
	task := &model.Task{}
	err := db.Model(model.Task{}).Where("id = ?", id).First(task).Error
	if database.IsNotFound(err) {
		return nil, newNotFoundError("task", id)
	} else if err != nil {
		return nil, wrapStore("select task by id", err)
	}
	return task, nil
}

func normalizeCategory(list *model.List, category string) (string, error) {
	category = strings.TrimSpace(category)
	if category == "" || category == model.Uncategorized {
		return model.Uncategorized, nil
	}
	if !list.Categories.Contains(category) {
		return "", newValidationErrorf("category %q does not exist on list %d", category, list.Id)
	}
	return category, nil
}
