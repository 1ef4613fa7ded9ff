// Package store persists tasks. Stores never order or filter tasks beyond
// what List and RemoveExpired promise; ordering belongs to the logic package.
package store

import (
	"context"
	"errors"
	"time"

	"taskbank/app/models"
)

// ErrNotFound is returned when no task has the requested id.
var ErrNotFound = errors.New("task not found")

// Store is the task persistence contract.
type Store interface {
	Create(ctx context.Context, task models.NewTask) (string, error)
	Get(ctx context.Context, id string) (*models.Task, error)
	List(ctx context.Context, filter models.ListFilter) ([]models.Task, error)
	Update(ctx context.Context, id string, patch models.TaskPatch) error
	Delete(ctx context.Context, id string) error
	// SetLock pins or unpins a task. A nil fixedPos keeps the stored slot
	// when locking and clears it when unlocking.
	SetLock(ctx context.Context, id string, locked bool, fixedPos *int) error
	// RemoveExpired deletes every unfinished task due at or before now and
	// returns the removed ids.
	RemoveExpired(ctx context.Context, now time.Time) ([]string, error)
	Close(ctx context.Context) error
}

// lockPatch expresses SetLock as a patch so stores share its semantics.
func lockPatch(locked bool, fixedPos *int) models.TaskPatch {
	patch := models.TaskPatch{Locked: &locked}
	switch {
	case fixedPos != nil:
		patch.FixedPos = fixedPos
	case !locked:
		patch.ClearFixedPos = true
	}
	return patch
}
