// Package logic orders the Main workspace. Every function here is pure: it
// reads task records and the supplied time, and never touches storage.
package logic

import (
	"sort"
	"time"

	"taskbank/app/models"
)

// BoostWindow is how close to its due time a College task must be before it
// outranks every other category.
const BoostWindow = 24 * time.Hour

const (
	boostedRank = 0
	unknownRank = 99
)

var categoryRank = map[models.Category]int{
	models.CategoryNecessary:  1,
	models.CategoryCollege:    2,
	models.CategoryHome:       3,
	models.CategoryAwaragardi: 4,
}

// CategoryRank returns the base rank of a category. Lower sorts first.
func CategoryRank(c models.Category) int {
	if rank, ok := categoryRank[c]; ok {
		return rank
	}
	return unknownRank
}

// EffectiveRank folds the College boost into the base category rank.
func EffectiveRank(t models.Task, now time.Time) int {
	if t.Category == models.CategoryCollege && t.DueDatetime.Sub(now) < BoostWindow {
		return boostedRank
	}
	return CategoryRank(t.Category)
}

// IsActive reports whether a task is neither done nor expired at now.
func IsActive(t models.Task, now time.Time) bool {
	return !t.IsDone && !t.IsExpired(now)
}

// IsReorderable reports whether a task is eligible for automatic placement.
func IsReorderable(t models.Task, now time.Time) bool {
	return IsActive(t, now) && !t.Locked
}

// Less compares two tasks by due time, effective rank and creation time.
func Less(a, b models.Task, now time.Time) bool {
	if !a.DueDatetime.Equal(b.DueDatetime) {
		return a.DueDatetime.Before(b.DueDatetime)
	}
	if ra, rb := EffectiveRank(a, now), EffectiveRank(b, now); ra != rb {
		return ra < rb
	}
	// A zero CreatedAt is the earliest possible time.
	return a.CreatedAt.Before(b.CreatedAt)
}

// SortReorderable returns the unlocked, active tasks in priority order.
func SortReorderable(tasks []models.Task, now time.Time) []models.Task {
	return sortWhere(tasks, resolveNow(now), IsReorderable)
}

func sortWhere(tasks []models.Task, now time.Time, keep func(models.Task, time.Time) bool) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if keep(t, now) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return Less(out[i], out[j], now)
	})
	return out
}

func resolveNow(now time.Time) time.Time {
	if now.IsZero() {
		return time.Now()
	}
	return now
}
