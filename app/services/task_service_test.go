package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"taskbank/app/logic"
	"taskbank/app/models"
	"taskbank/app/store"
)

var now = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func newService(t *testing.T, opts ...Option) (*TaskService, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	opts = append([]Option{WithClock(func() time.Time { return now })}, opts...)
	return NewTaskService(st, zap.NewNop(), opts...), st
}

func create(t *testing.T, s *TaskService, title string, cat models.Category, dueIn time.Duration) string {
	t.Helper()
	task, err := s.CreateTask(context.Background(), models.NewTask{
		Title:       title,
		Category:    cat,
		DueDatetime: now.Add(dueIn),
	})
	require.NoError(t, err)
	return task.ID
}

func titles(tasks []models.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func TestBoard_Lists(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)
	create(t, s, "essay", models.CategoryCollege, 20*time.Hour)
	create(t, s, "bills", models.CategoryNecessary, 30*time.Hour)
	create(t, s, "dishes", models.CategoryHome, 5*time.Hour)
	create(t, s, "movie", models.CategoryAwaragardi, 8*time.Hour)
	expired := create(t, s, "stale", models.CategoryHome, -time.Hour)

	board, err := s.Board(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"essay", "bills"}, titles(board.MainList))
	assert.Equal(t, []string{"dishes"}, titles(board.HomeList))
	assert.Equal(t, []string{"movie"}, titles(board.AwaragardiList))
	assert.Equal(t, []string{expired}, board.RemovedExpired)

	_, err = s.GetTaskByID(ctx, expired)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestBoard_EmptyListsAreNotNil(t *testing.T) {
	s, _ := newService(t)

	board, err := s.Board(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, board.HomeList)
	assert.NotNil(t, board.AwaragardiList)
	assert.NotNil(t, board.RemovedExpired)
	assert.Empty(t, board.MainList)
}

func TestCreateTask_Validation(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	_, err := s.CreateTask(ctx, models.NewTask{Category: models.CategoryHome, DueDatetime: now})
	assert.ErrorIs(t, err, ErrInvalidTask)
	_, err = s.CreateTask(ctx, models.NewTask{Title: "x", DueDatetime: now})
	assert.ErrorIs(t, err, ErrInvalidTask)
	_, err = s.CreateTask(ctx, models.NewTask{Title: "x", Category: models.CategoryHome})
	assert.ErrorIs(t, err, ErrInvalidTask)

	task, err := s.CreateTask(ctx, models.NewTask{Title: "  x ", Category: models.CategoryHome, DueDatetime: now.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, "x", task.Title)
	assert.False(t, task.InMain)
	assert.False(t, task.Locked)
}

func TestMoveTask_SideToMain(t *testing.T) {
	ctx := context.Background()
	s, st := newService(t)
	id := create(t, s, "dishes", models.CategoryHome, 5*time.Hour)
	pos := 2
	require.NoError(t, st.SetLock(ctx, id, true, &pos))

	require.NoError(t, s.MoveTask(ctx, MoveRequest{TaskID: id, NewCategory: TargetMain}))

	got, err := s.GetTaskByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.InMain)
	assert.False(t, got.Locked)
	assert.Nil(t, got.FixedPos)

	board, err := s.Board(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"dishes"}, titles(board.MainList))
	assert.Empty(t, board.HomeList)
}

func TestMoveTask_Rejections(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)
	side := create(t, s, "dishes", models.CategoryHome, 5*time.Hour)
	inMain := create(t, s, "movie", models.CategoryAwaragardi, 5*time.Hour)
	require.NoError(t, s.MoveTask(ctx, MoveRequest{TaskID: inMain, NewCategory: TargetMain}))

	err := s.MoveTask(ctx, MoveRequest{TaskID: side, NewCategory: string(models.CategoryAwaragardi)})
	assert.ErrorIs(t, err, ErrSideToSide)

	err = s.MoveTask(ctx, MoveRequest{TaskID: inMain, NewCategory: string(models.CategoryHome)})
	assert.ErrorIs(t, err, ErrLeaveMain)

	err = s.MoveTask(ctx, MoveRequest{TaskID: "missing", NewCategory: TargetMain})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMoveTask_LockWithinMain(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)
	create(t, s, "first", models.CategoryNecessary, 1*time.Hour)
	create(t, s, "second", models.CategoryNecessary, 2*time.Hour)
	last := create(t, s, "third", models.CategoryNecessary, 3*time.Hour)

	pos := 0
	require.NoError(t, s.MoveTask(ctx, MoveRequest{TaskID: last, NewCategory: TargetMain}))
	require.NoError(t, s.MoveTask(ctx, MoveRequest{TaskID: last, NewCategory: TargetMain, NewIndex: &pos, Locked: true}))

	board, err := s.Board(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"third", "first", "second"}, titles(board.MainList))

	require.NoError(t, s.MoveTask(ctx, MoveRequest{TaskID: last, NewCategory: TargetMain}))
	board, err = s.Board(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, titles(board.MainList))
}

func TestBoard_UnpositionedLockPolicy(t *testing.T) {
	ctx := context.Background()
	s, st := newService(t, WithCompiler(logic.Compiler{Unpositioned: logic.UnpositionedDrop}))
	id := create(t, s, "bills", models.CategoryNecessary, time.Hour)
	require.NoError(t, st.SetLock(ctx, id, true, nil))

	board, err := s.Board(ctx)
	require.NoError(t, err)
	assert.Empty(t, board.MainList)
}

func TestMarkDoneAndDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)
	done := create(t, s, "bills", models.CategoryNecessary, time.Hour)
	gone := create(t, s, "dishes", models.CategoryHome, time.Hour)

	require.NoError(t, s.MarkDone(ctx, done))
	require.NoError(t, s.DeleteTask(ctx, gone))
	assert.ErrorIs(t, s.DeleteTask(ctx, gone), store.ErrNotFound)

	board, err := s.Board(ctx)
	require.NoError(t, err)
	assert.Empty(t, board.MainList)
	assert.Empty(t, board.HomeList)
}

func TestSplitTask(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)
	id := create(t, s, "thesis", models.CategoryCollege, 40*time.Hour)

	second, err := s.SplitTask(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, second.PartLabel)
	assert.Equal(t, "Part 2", *second.PartLabel)
	assert.Equal(t, "thesis", second.Title)
	assert.Equal(t, models.CategoryCollege, second.Category)
	require.NotNil(t, second.SplitFrom)
	assert.Equal(t, id, *second.SplitFrom)

	orig, err := s.GetTaskByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, orig.PartLabel)
	assert.Equal(t, "Part 1", *orig.PartLabel)

	third, err := s.SplitTask(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "Part 3", *third.PartLabel)

	_, err = s.SplitTask(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestNextPartLabel(t *testing.T) {
	assert.Equal(t, "Part 3", nextPartLabel("Part 2"))
	assert.Equal(t, "Chapter one 10", nextPartLabel("Chapter one 9"))
	assert.Equal(t, "Draft (copy)", nextPartLabel("Draft"))
	assert.Equal(t, "Part two (copy)", nextPartLabel("Part two"))
}

func TestPurgeExpired(t *testing.T) {
	s, _ := newService(t)
	stale := create(t, s, "stale", models.CategoryHome, -time.Minute)
	create(t, s, "fresh", models.CategoryHome, time.Minute)

	removed, err := s.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{stale}, removed)
}
