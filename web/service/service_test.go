package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"

	"github.com/taskwire/taskwire/database"
	"github.com/taskwire/taskwire/database/model"
	"github.com/taskwire/taskwire/logger"
)

func setup(t *testing.T) {
	t.Helper()
	os.Setenv("TW_LOG_FOLDER", t.TempDir())
	logger.InitLogger(logging.DEBUG)

	dbPath := filepath.Join(t.TempDir(), "test.db")
	if err := database.InitDB(dbPath); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		db, _ := database.GetDB().DB()
		db.Close()
	})
}

func mustCreateUser(t *testing.T, username string) *model.User {
	t.Helper()
	userService := UserService{}
	user, err := userService.CreateUser(username, "secret", username)
	if err != nil {
		t.Fatal(err)
	}
	return user
}

func mustCreateList(t *testing.T, name string, ownerID int) *model.List {
	t.Helper()
	listService := ListService{}
	list, err := listService.CreateList(name, ownerID)
	if err != nil {
		t.Fatal(err)
	}
	return list
}

func TestUserService(t *testing.T) {
	setup(t)
	userService := UserService{}

	user, err := userService.CreateUser("alice", "hunter2", "Alice")
	assert.NoError(t, err)
	assert.NotZero(t, user.Id)
	assert.NotEqual(t, "hunter2", user.Password, "password must be stored hashed")

	_, err = userService.CreateUser("alice", "other", "Alice Again")
	assert.True(t, IsValidation(err))

	assert.NotNil(t, userService.CheckUser("alice", "hunter2"))
	assert.Nil(t, userService.CheckUser("alice", "wrong"))
	assert.Nil(t, userService.CheckUser("nobody", "hunter2"))

	_, err = userService.GetUserByUsername("nobody")
	assert.True(t, IsNotFound(err))
}

func TestListCategories(t *testing.T) {
	setup(t)
	listService := ListService{}
	taskService := TaskService{}

	owner := mustCreateUser(t, "owner")
	list := mustCreateList(t, "groceries", owner.Id)

	assert.NoError(t, listService.AddCategory(list.Id, "Urgent"))
	err := listService.AddCategory(list.Id, "Urgent")
	assert.True(t, IsValidation(err), "repeated add must be rejected")

	got, err := listService.GetList(list.Id)
	assert.NoError(t, err)
	assert.Equal(t, model.StringArray{"Urgent"}, got.Categories)

	task, err := taskService.CreateTask(list.Id, TaskFields{Task: "buy milk", Category: "Urgent"}, owner.Id)
	assert.NoError(t, err)

	// Removing the category retags its tasks in the same transaction.
	assert.NoError(t, listService.RemoveCategory(list.Id, "Urgent"))

	got, err = listService.GetList(list.Id)
	assert.NoError(t, err)
	assert.NotContains(t, got.Categories, "Urgent")

	tasks, err := taskService.GetTasks(list.Id)
	assert.NoError(t, err)
	assert.Len(t, tasks, 1)
	assert.Equal(t, task.Id, tasks[0].Id)
	assert.Equal(t, model.Uncategorized, tasks[0].Category)

	err = listService.RemoveCategory(list.Id, "Urgent")
	assert.True(t, IsNotFound(err))
}

func TestListMembership(t *testing.T) {
	setup(t)
	listService := ListService{}
	taskService := TaskService{}

	owner := mustCreateUser(t, "owner")
	bob := mustCreateUser(t, "bob")
	list := mustCreateList(t, "sprint", owner.Id)

	member, err := listService.AddMember(list.Id, "bob")
	assert.NoError(t, err)
	assert.Equal(t, bob.Id, member.Id)

	_, err = listService.AddMember(list.Id, "bob")
	assert.True(t, IsValidation(err), "duplicate membership must be rejected")

	_, err = listService.AddMember(list.Id, "ghost")
	assert.True(t, IsNotFound(err))

	task, err := taskService.CreateTask(list.Id, TaskFields{Task: "review", UserId: bob.Id}, owner.Id)
	assert.NoError(t, err)

	assert.NoError(t, listService.RemoveMember(list.Id, bob.Id))
	got, err := listService.GetList(list.Id)
	assert.NoError(t, err)
	assert.False(t, got.HasMember(bob.Id))

	// Removing a member never touches task assignments.
	tasks, err := taskService.GetTasks(list.Id)
	assert.NoError(t, err)
	assert.Equal(t, bob.Id, tasks[0].UserId)
	assert.Equal(t, task.Id, tasks[0].Id)

	// array_remove semantics: removing an absent member is a no-op.
	assert.NoError(t, listService.RemoveMember(list.Id, bob.Id))
}

func TestListsForUser(t *testing.T) {
	setup(t)
	listService := ListService{}

	owner := mustCreateUser(t, "owner")
	other := mustCreateUser(t, "other")
	mine := mustCreateList(t, "mine", owner.Id)
	mustCreateList(t, "theirs", other.Id)

	lists, err := listService.GetListsForUser(owner.Id)
	assert.NoError(t, err)
	assert.Len(t, lists, 1)
	assert.Equal(t, mine.Id, lists[0].Id)
}

func TestTaskLifecycle(t *testing.T) {
	setup(t)
	taskService := TaskService{}

	owner := mustCreateUser(t, "owner")
	list := mustCreateList(t, "work", owner.Id)

	_, err := taskService.CreateTask(999, TaskFields{Task: "orphan"}, owner.Id)
	assert.True(t, IsNotFound(err), "task creation requires an existing list")

	_, err = taskService.CreateTask(list.Id, TaskFields{Task: "x", Category: "nope"}, owner.Id)
	assert.True(t, IsValidation(err), "unknown category must be rejected")

	task, err := taskService.CreateTask(list.Id, TaskFields{Task: "write report", Deadline: "2026-09-01"}, owner.Id)
	assert.NoError(t, err)
	assert.Equal(t, model.TaskNotStarted, task.State)
	assert.Equal(t, model.Uncategorized, task.Category)
	assert.Equal(t, owner.Id, task.AdmId)

	// completing before starting would skip a state
	_, err = taskService.CompleteTask(task.Id)
	assert.True(t, IsValidation(err))

	started, err := taskService.StartTask(task.Id)
	assert.NoError(t, err)
	assert.Equal(t, model.TaskInProgress, started.State)

	_, err = taskService.StartTask(task.Id)
	assert.True(t, IsValidation(err), "start is not re-entrant")

	completed, err := taskService.CompleteTask(task.Id)
	assert.NoError(t, err)
	assert.Equal(t, model.TaskCompleted, completed.State)

	// no event drives state backward
	_, err = taskService.StartTask(task.Id)
	assert.True(t, IsValidation(err))

	updated, err := taskService.UpdateTask(task.Id, TaskFields{Task: "write final report", Deadline: "2026-09-02"})
	assert.NoError(t, err)
	assert.Equal(t, "write final report", updated.Task)
	assert.Equal(t, model.TaskCompleted, updated.State, "editing never touches state")

	deleted, err := taskService.DeleteTask(task.Id)
	assert.NoError(t, err)
	assert.Equal(t, list.Id, deleted.ListId)

	_, err = taskService.DeleteTask(task.Id)
	assert.True(t, IsNotFound(err))
}

func TestSheetRenameAndDelete(t *testing.T) {
	setup(t)
	listService := ListService{}
	taskService := TaskService{}

	owner := mustCreateUser(t, "owner")
	list := mustCreateList(t, "old name", owner.Id)

	renamed, err := listService.Rename(list.Id, "  new name  ")
	assert.NoError(t, err)
	assert.Equal(t, "new name", renamed.Name)

	_, err = listService.Rename(list.Id, "   ")
	assert.True(t, IsValidation(err))

	task, err := taskService.CreateTask(list.Id, TaskFields{Task: "survivor"}, owner.Id)
	assert.NoError(t, err)

	assert.NoError(t, listService.Delete(list.Id))
	_, err = listService.GetList(list.Id)
	assert.True(t, IsNotFound(err))

	// deleting a sheet orphans its tasks, it does not cascade
	tasks, err := taskService.GetTasks(list.Id)
	assert.NoError(t, err)
	assert.Len(t, tasks, 1)
	assert.Equal(t, task.Id, tasks[0].Id)

	err = listService.Delete(list.Id)
	assert.True(t, IsNotFound(err))
}

func TestDueTasks(t *testing.T) {
	setup(t)
	taskService := TaskService{}

	owner := mustCreateUser(t, "owner")
	list := mustCreateList(t, "deadlines", owner.Id)

	due, err := taskService.CreateTask(list.Id, TaskFields{Task: "due", Deadline: "2026-08-28"}, owner.Id)
	assert.NoError(t, err)
	_, err = taskService.CreateTask(list.Id, TaskFields{Task: "later", Deadline: "2026-12-31"}, owner.Id)
	assert.NoError(t, err)
	done, err := taskService.CreateTask(list.Id, TaskFields{Task: "done", Deadline: "2026-08-28"}, owner.Id)
	assert.NoError(t, err)
	_, err = taskService.StartTask(done.Id)
	assert.NoError(t, err)
	_, err = taskService.CompleteTask(done.Id)
	assert.NoError(t, err)

	tasks, err := taskService.GetDueTasks([]string{"2026-08-28", "2026-08-29"})
	assert.NoError(t, err)
	assert.Len(t, tasks, 1)
	assert.Equal(t, due.Id, tasks[0].Id)
}
