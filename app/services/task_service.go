package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"taskbank/app/logic"
	"taskbank/app/models"
	"taskbank/app/store"
)

// TargetMain is the move destination naming the Main workspace.
const TargetMain = "Main"

var (
	// ErrInvalidTask reports a create request missing required fields.
	ErrInvalidTask = errors.New("invalid task")
	// ErrSideToSide rejects moves between two side banks.
	ErrSideToSide = errors.New("cannot move directly between side banks")
	// ErrLeaveMain rejects moves out of Main back to a side bank.
	ErrLeaveMain = errors.New("cannot move tasks out of Main back to side banks")
)

// Board is the full view: the compiled Main list plus the side banks.
type Board struct {
	MainList       []models.Task `json:"main_list"`
	AwaragardiList []models.Task `json:"awaragardi_list"`
	HomeList       []models.Task `json:"home_list"`
	RemovedExpired []string      `json:"removed_expired"`
}

// MoveRequest describes a drag between lists. NewIndex is already validated;
// nil means no usable index was supplied.
type MoveRequest struct {
	TaskID      string
	NewIndex    *int
	NewCategory string
	Locked      bool
}

// TaskService handles task-related operations.
type TaskService struct {
	store    store.Store
	compiler logic.Compiler
	logger   *zap.Logger
	clock    func() time.Time
}

// Option configures a TaskService.
type Option func(*TaskService)

// WithClock replaces the wall clock used to expire and rank tasks.
func WithClock(clock func() time.Time) Option {
	return func(s *TaskService) { s.clock = clock }
}

// WithCompiler sets how Main is compiled.
func WithCompiler(c logic.Compiler) Option {
	return func(s *TaskService) { s.compiler = c }
}

// NewTaskService creates a new instance of TaskService.
func NewTaskService(st store.Store, logger *zap.Logger, opts ...Option) *TaskService {
	s := &TaskService{
		store:  st,
		logger: logger,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Board purges expired tasks and returns the current lists.
func (s *TaskService) Board(ctx context.Context) (*Board, error) {
	now := s.clock()

	removed, err := s.store.RemoveExpired(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("purge expired: %w", err)
	}
	if len(removed) > 0 {
		s.logger.Info("removed expired tasks", zap.Strings("ids", removed))
	}

	tasks, err := s.store.List(ctx, models.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	board := &Board{
		AwaragardiList: []models.Task{},
		HomeList:       []models.Task{},
		RemovedExpired: removed,
	}
	if board.RemovedExpired == nil {
		board.RemovedExpired = []string{}
	}

	var pool []models.Task
	for _, t := range tasks {
		if t.InMain || t.Category.InMainByDefault() {
			pool = append(pool, t)
			continue
		}
		if t.IsDone {
			continue
		}
		switch t.Category {
		case models.CategoryAwaragardi:
			board.AwaragardiList = append(board.AwaragardiList, t)
		case models.CategoryHome:
			board.HomeList = append(board.HomeList, t)
		}
	}
	board.MainList = s.compiler.Compile(pool, now)
	return board, nil
}

// ListTasks returns stored tasks without ordering them.
func (s *TaskService) ListTasks(ctx context.Context, includeDone bool) ([]models.Task, error) {
	return s.store.List(ctx, models.ListFilter{IncludeDone: includeDone})
}

// GetTaskByID retrieves a single task by its ID.
func (s *TaskService) GetTaskByID(ctx context.Context, taskID string) (*models.Task, error) {
	return s.store.Get(ctx, taskID)
}

// CreateTask adds a new task to its category bank, outside Main.
func (s *TaskService) CreateTask(ctx context.Context, nt models.NewTask) (*models.Task, error) {
	nt.Title = strings.TrimSpace(nt.Title)
	switch {
	case nt.Title == "":
		return nil, fmt.Errorf("%w: title is required", ErrInvalidTask)
	case nt.Category == "":
		return nil, fmt.Errorf("%w: category is required", ErrInvalidTask)
	case nt.DueDatetime.IsZero():
		return nil, fmt.Errorf("%w: due date is required", ErrInvalidTask)
	}
	if !nt.Category.Valid() {
		s.logger.Warn("creating task with unknown category", zap.String("category", string(nt.Category)))
	}

	id, err := s.store.Create(ctx, nt)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("task created", zap.String("id", id), zap.String("category", string(nt.Category)))
	return s.store.Get(ctx, id)
}

// UpdateTask applies a partial update.
func (s *TaskService) UpdateTask(ctx context.Context, taskID string, patch models.TaskPatch) error {
	return s.store.Update(ctx, taskID, patch)
}

// MarkDone completes a task, removing it from every list.
func (s *TaskService) MarkDone(ctx context.Context, taskID string) error {
	done := true
	return s.store.Update(ctx, taskID, models.TaskPatch{IsDone: &done})
}

// DeleteTask deletes a task.
func (s *TaskService) DeleteTask(ctx context.Context, taskID string) error {
	return s.store.Delete(ctx, taskID)
}

// MoveTask applies a drag between lists. Side banks may feed Main, but a
// task never leaves Main and never hops between side banks.
func (s *TaskService) MoveTask(ctx context.Context, req MoveRequest) error {
	current, err := s.store.Get(ctx, req.TaskID)
	if err != nil {
		return err
	}

	if req.NewCategory != "" && req.NewCategory != TargetMain {
		if current.InMain {
			return ErrLeaveMain
		}
		return ErrSideToSide
	}
	if req.NewCategory != TargetMain {
		return nil
	}

	if !current.InMain {
		inMain := true
		if err := s.store.Update(ctx, req.TaskID, models.TaskPatch{InMain: &inMain}); err != nil {
			return err
		}
		return s.store.SetLock(ctx, req.TaskID, false, nil)
	}
	if req.Locked {
		return s.store.SetLock(ctx, req.TaskID, true, req.NewIndex)
	}
	return s.store.SetLock(ctx, req.TaskID, false, nil)
}

// SplitTask duplicates a task as its next part. The copy keeps the category,
// due time, gym flag and Main placement of the original.
func (s *TaskService) SplitTask(ctx context.Context, taskID string) (*models.Task, error) {
	orig, err := s.store.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}

	var next string
	if orig.PartLabel == nil || *orig.PartLabel == "" {
		first := "Part 1"
		if err := s.store.Update(ctx, taskID, models.TaskPatch{PartLabel: &first}); err != nil {
			return nil, err
		}
		next = "Part 2"
	} else {
		next = nextPartLabel(*orig.PartLabel)
	}

	id, err := s.store.Create(ctx, models.NewTask{
		Title:       orig.Title,
		Category:    orig.Category,
		DueDatetime: orig.DueDatetime,
		PartLabel:   &next,
		IsGym:       orig.IsGym,
		InMain:      orig.InMain,
		SplitFrom:   &orig.ID,
	})
	if err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id)
}

// nextPartLabel turns "Part 2" into "Part 3". Labels without a trailing
// number get a " (copy)" suffix.
func nextPartLabel(label string) string {
	i := strings.LastIndex(label, " ")
	if i < 0 {
		return label + " (copy)"
	}
	n, err := strconv.Atoi(label[i+1:])
	if err != nil {
		return label + " (copy)"
	}
	return fmt.Sprintf("%s %d", label[:i], n+1)
}

// PurgeExpired removes expired tasks without building the board.
func (s *TaskService) PurgeExpired(ctx context.Context) ([]string, error) {
	removed, err := s.store.RemoveExpired(ctx, s.clock())
	if err != nil {
		return nil, fmt.Errorf("purge expired: %w", err)
	}
	s.logger.Info("purged expired tasks", zap.Int("count", len(removed)))
	return removed, nil
}
