package models

import "time"

// Category selects the bank a task belongs to and its base priority.
type Category string

const (
	CategoryNecessary  Category = "Necessary"
	CategoryCollege    Category = "College"
	CategoryHome       Category = "Home"
	CategoryAwaragardi Category = "Awaragardi"
)

// Categories lists every known category in priority order.
var Categories = []Category{CategoryNecessary, CategoryCollege, CategoryHome, CategoryAwaragardi}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// InMainByDefault reports whether tasks of this category always show in Main.
func (c Category) InMainByDefault() bool {
	return c == CategoryNecessary || c == CategoryCollege
}

// Task represents a task on the board.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Category    Category  `json:"category"`
	DueDatetime time.Time `json:"due_datetime"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	IsDone      bool      `json:"is_done"`
	Locked      bool      `json:"locked"`
	FixedPos    *int      `json:"fixed_pos"`
	InMain      bool      `json:"in_main"`
	PartLabel   *string   `json:"part_label"`
	IsGym       bool      `json:"is_gym"`
	SplitFrom   *string   `json:"split_from"`
}

// HasFixedPos reports whether the task carries a usable slot index.
func (t Task) HasFixedPos() bool {
	return t.FixedPos != nil && *t.FixedPos >= 0
}

// IsExpired reports whether the task is due at or before now.
func (t Task) IsExpired(now time.Time) bool {
	return !t.DueDatetime.After(now)
}

// NewTask holds the fields accepted when creating a task.
type NewTask struct {
	Title       string
	Category    Category
	DueDatetime time.Time
	PartLabel   *string
	IsGym       bool
	InMain      bool
	SplitFrom   *string
}

// TaskPatch is a partial update; nil fields are left untouched.
type TaskPatch struct {
	Title         *string
	Category      *Category
	DueDatetime   *time.Time
	PartLabel     *string
	IsGym         *bool
	IsDone        *bool
	InMain        *bool
	Locked        *bool
	FixedPos      *int
	ClearFixedPos bool
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Category == nil && p.DueDatetime == nil &&
		p.PartLabel == nil && p.IsGym == nil && p.IsDone == nil &&
		p.InMain == nil && p.Locked == nil && p.FixedPos == nil && !p.ClearFixedPos
}

// Apply copies the patched fields onto t.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.DueDatetime != nil {
		t.DueDatetime = *p.DueDatetime
	}
	if p.PartLabel != nil {
		label := *p.PartLabel
		t.PartLabel = &label
	}
	if p.IsGym != nil {
		t.IsGym = *p.IsGym
	}
	if p.IsDone != nil {
		t.IsDone = *p.IsDone
	}
	if p.InMain != nil {
		t.InMain = *p.InMain
	}
	if p.Locked != nil {
		t.Locked = *p.Locked
	}
	if p.ClearFixedPos {
		t.FixedPos = nil
	}
	if p.FixedPos != nil {
		pos := *p.FixedPos
		t.FixedPos = &pos
	}
}

// ListFilter narrows Store.List results.
type ListFilter struct {
	IncludeDone bool
}
