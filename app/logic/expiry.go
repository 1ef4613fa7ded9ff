package logic

import (
	"time"

	"taskbank/app/models"
)

// ExpiredTasks returns the unfinished tasks whose due time has passed.
// Callers use it to decide what to purge; nothing is removed here.
func ExpiredTasks(tasks []models.Task, now time.Time) []models.Task {
	now = resolveNow(now)
	var expired []models.Task
	for _, t := range tasks {
		if !t.IsDone && t.IsExpired(now) {
			expired = append(expired, t)
		}
	}
	return expired
}
