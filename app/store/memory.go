package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskbank/app/models"
)

// MemoryStore keeps tasks in process memory. Used for tests and for running
// the board without a database.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]models.Task
	order []string
	clock func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks: make(map[string]models.Task),
		clock: time.Now,
	}
}

// Create stores a new task and returns its id.
func (s *MemoryStore) Create(_ context.Context, nt models.NewTask) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.clock()
	task := models.Task{
		ID:          uuid.New().String(),
		Title:       nt.Title,
		Category:    nt.Category,
		DueDatetime: nt.DueDatetime,
		CreatedAt:   ts,
		UpdatedAt:   ts,
		InMain:      nt.InMain,
		IsGym:       nt.IsGym,
	}
	task.PartLabel = cloneString(nt.PartLabel)
	task.SplitFrom = cloneString(nt.SplitFrom)
	s.tasks[task.ID] = task
	s.order = append(s.order, task.ID)
	return task.ID, nil
}

// Get returns a copy of the task with the given id.
func (s *MemoryStore) Get(_ context.Context, id string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	task = cloneTask(task)
	return &task, nil
}

// List returns copies of the stored tasks in insertion order.
func (s *MemoryStore) List(_ context.Context, filter models.ListFilter) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]models.Task, 0, len(s.order))
	for _, id := range s.order {
		task := s.tasks[id]
		if task.IsDone && !filter.IncludeDone {
			continue
		}
		tasks = append(tasks, cloneTask(task))
	}
	return tasks, nil
}

// Update applies a partial update to a task.
func (s *MemoryStore) Update(_ context.Context, id string, patch models.TaskPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return ErrNotFound
	}
	patch.Apply(&task)
	task.UpdatedAt = s.clock()
	s.tasks[id] = task
	return nil
}

// SetLock pins or unpins a task.
func (s *MemoryStore) SetLock(ctx context.Context, id string, locked bool, fixedPos *int) error {
	return s.Update(ctx, id, lockPatch(locked, fixedPos))
}

// Delete removes a task.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return ErrNotFound
	}
	s.remove(id)
	return nil
}

// RemoveExpired deletes unfinished tasks due at or before now.
func (s *MemoryStore) RemoveExpired(_ context.Context, now time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	for _, id := range s.order {
		task := s.tasks[id]
		if !task.IsDone && task.IsExpired(now) {
			removed = append(removed, id)
		}
	}
	for _, id := range removed {
		s.remove(id)
	}
	return removed, nil
}

// Close is a no-op.
func (s *MemoryStore) Close(context.Context) error { return nil }

// remove must be called with s.mu held.
func (s *MemoryStore) remove(id string) {
	delete(s.tasks, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// cloneTask copies the pointer fields so callers cannot write into the store.
func cloneTask(t models.Task) models.Task {
	if t.FixedPos != nil {
		pos := *t.FixedPos
		t.FixedPos = &pos
	}
	t.PartLabel = cloneString(t.PartLabel)
	t.SplitFrom = cloneString(t.SplitFrom)
	return t
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
