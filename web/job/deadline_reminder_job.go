// Package job contains scheduled background jobs for the task board.
package job

import (
	"time"

	"github.com/taskwire/taskwire/database/model"
	"github.com/taskwire/taskwire/logger"
	"github.com/taskwire/taskwire/web/service"
	"github.com/taskwire/taskwire/web/websocket"
)

// DeadlineReminderJob periodically notifies sheet subscribers about
// unfinished tasks due today or tomorrow.
type DeadlineReminderJob struct {
	taskService service.TaskService
	hub         *websocket.Hub
}

func NewDeadlineReminderJob(hub *websocket.Hub) *DeadlineReminderJob {
	return &DeadlineReminderJob{hub: hub}
}

// Run implements cron.Job.
func (j *DeadlineReminderJob) Run() {
	if j.hub.ClientCount() == 0 {
		return
	}

	tasks, err := j.taskService.GetDueTasks(upcomingDates(time.Now(), 2))
	if err != nil {
		logger.Warning("deadline reminder query failed:", err)
		return
	}
	if len(tasks) == 0 {
		return
	}

	for listID, due := range groupByList(tasks) {
		j.hub.BroadcastList(listID, websocket.EventDeadlineSoon, due)
	}
}

// upcomingDates returns days consecutive dates starting at now, formatted
// the way task deadlines are stored.
func upcomingDates(now time.Time, days int) []string {
	dates := make([]string, 0, days)
	for i := 0; i < days; i++ {
		dates = append(dates, now.AddDate(0, 0, i).Format("2006-01-02"))
	}
	return dates
}

func groupByList(tasks []*model.Task) map[int][]*model.Task {
	grouped := make(map[int][]*model.Task)
	for _, t := range tasks {
		grouped[t.ListId] = append(grouped[t.ListId], t)
	}
	return grouped
}
