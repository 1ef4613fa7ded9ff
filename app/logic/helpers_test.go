package logic

import (
	"time"

	"taskbank/app/models"
)

var now = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func task(id string, cat models.Category, dueIn time.Duration) models.Task {
	return models.Task{
		ID:          id,
		Title:       id,
		Category:    cat,
		DueDatetime: now.Add(dueIn),
		CreatedAt:   now.Add(-time.Hour),
	}
}

func pinned(t models.Task, pos int) models.Task {
	t.Locked = true
	t.FixedPos = &pos
	return t
}

func ids(tasks []models.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}
