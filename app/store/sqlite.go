package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"taskbank/app/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	category    TEXT NOT NULL,
	due_at      INTEGER NOT NULL,
	due_nsec    INTEGER NOT NULL DEFAULT 0,
	created_at  TEXT,
	updated_at  TEXT,
	locked      INTEGER NOT NULL DEFAULT 0,
	fixed_pos   INTEGER,
	part_label  TEXT,
	is_done     INTEGER NOT NULL DEFAULT 0,
	is_gym      INTEGER NOT NULL DEFAULT 0,
	in_main     INTEGER NOT NULL DEFAULT 0,
	split_from  TEXT
);
CREATE INDEX IF NOT EXISTS idx_tasks_due ON tasks(due_at, due_nsec);
`

const sqliteColumns = `id, title, category, due_at, due_nsec, created_at, updated_at,
	locked, fixed_pos, part_label, is_done, is_gym, in_main, split_from`

// SQLiteStore persists tasks in a single SQLite file. Due times are stored as
// Unix seconds plus a nanosecond remainder so range comparisons stay numeric
// for any year; creation and update times are RFC 3339 text.
type SQLiteStore struct {
	db    *sql.DB
	clock func() time.Time
}

// NewSQLiteStore opens (creating if needed) the database at path. Use
// ":memory:" for a throwaway database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: ensure dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	for _, pragma := range []string{"PRAGMA busy_timeout = 5000", "PRAGMA journal_mode = WAL"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return &SQLiteStore{db: db, clock: time.Now}, nil
}

// Create inserts a new task and returns its id.
func (s *SQLiteStore) Create(ctx context.Context, nt models.NewTask) (string, error) {
	id := uuid.New().String()
	ts := formatTime(s.clock())
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, title, category, due_at, due_nsec, created_at, updated_at, part_label, is_gym, in_main, split_from)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, nt.Title, string(nt.Category), nt.DueDatetime.Unix(), nt.DueDatetime.Nanosecond(), ts, ts,
		nullString(nt.PartLabel), nt.IsGym, nt.InMain, nullString(nt.SplitFrom),
	)
	if err != nil {
		return "", fmt.Errorf("sqlite: create task: %w", err)
	}
	return id, nil
}

// Get retrieves a single task by its ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*models.Task, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+sqliteColumns+" FROM tasks WHERE id = ?", id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get task %s: %w", id, err)
	}
	return &task, nil
}

// List returns tasks in insertion order.
func (s *SQLiteStore) List(ctx context.Context, filter models.ListFilter) ([]models.Task, error) {
	query := "SELECT " + sqliteColumns + " FROM tasks"
	if !filter.IncludeDone {
		query += " WHERE is_done = 0"
	}
	query += " ORDER BY rowid"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list tasks: %w", err)
	}
	return tasks, nil
}

// Update applies a partial update and bumps updated_at.
func (s *SQLiteStore) Update(ctx context.Context, id string, patch models.TaskPatch) error {
	sets, args := sqliteAssignments(patch)
	sets = append(sets, "updated_at = ?")
	args = append(args, formatTime(s.clock()), id)

	res, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("sqlite: update task %s: %w", id, err)
	}
	return affected(res)
}

// SetLock pins or unpins a task.
func (s *SQLiteStore) SetLock(ctx context.Context, id string, locked bool, fixedPos *int) error {
	return s.Update(ctx, id, lockPatch(locked, fixedPos))
}

// Delete removes a task row.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("sqlite: delete task %s: %w", id, err)
	}
	return affected(res)
}

// RemoveExpired deletes unfinished tasks due at or before now in one statement.
func (s *SQLiteStore) RemoveExpired(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`DELETE FROM tasks
		 WHERE is_done = 0 AND (due_at < ? OR (due_at = ? AND due_nsec <= ?))
		 RETURNING id`,
		now.Unix(), now.Unix(), now.Nanosecond())
	if err != nil {
		return nil, fmt.Errorf("sqlite: remove expired: %w", err)
	}
	defer rows.Close()

	var removed []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: remove expired: %w", err)
		}
		removed = append(removed, id)
	}
	return removed, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close(context.Context) error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (models.Task, error) {
	var (
		task                 models.Task
		category             string
		dueAt                int64
		dueNsec              int64
		createdAt, updatedAt sql.NullString
		fixedPos             sql.NullInt64
		partLabel, splitFrom sql.NullString
	)
	err := row.Scan(&task.ID, &task.Title, &category, &dueAt, &dueNsec, &createdAt, &updatedAt,
		&task.Locked, &fixedPos, &partLabel, &task.IsDone, &task.IsGym, &task.InMain, &splitFrom)
	if err != nil {
		return models.Task{}, err
	}
	task.Category = models.Category(category)
	task.DueDatetime = time.Unix(dueAt, dueNsec).UTC()
	if task.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.Task{}, err
	}
	if task.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return models.Task{}, err
	}
	if fixedPos.Valid {
		pos := int(fixedPos.Int64)
		task.FixedPos = &pos
	}
	if partLabel.Valid {
		label := partLabel.String
		task.PartLabel = &label
	}
	if splitFrom.Valid {
		origin := splitFrom.String
		task.SplitFrom = &origin
	}
	return task, nil
}

func sqliteAssignments(p models.TaskPatch) ([]string, []any) {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if p.Title != nil {
		add("title", *p.Title)
	}
	if p.Category != nil {
		add("category", string(*p.Category))
	}
	if p.DueDatetime != nil {
		add("due_at", p.DueDatetime.Unix())
		add("due_nsec", p.DueDatetime.Nanosecond())
	}
	if p.PartLabel != nil {
		add("part_label", *p.PartLabel)
	}
	if p.IsGym != nil {
		add("is_gym", *p.IsGym)
	}
	if p.IsDone != nil {
		add("is_done", *p.IsDone)
	}
	if p.InMain != nil {
		add("in_main", *p.InMain)
	}
	if p.Locked != nil {
		add("locked", *p.Locked)
	}
	switch {
	case p.FixedPos != nil:
		add("fixed_pos", *p.FixedPos)
	case p.ClearFixedPos:
		add("fixed_pos", nil)
	}
	return sets, args
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s sql.NullString) (time.Time, error) {
	if !s.Valid || s.String == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s.String)
}
