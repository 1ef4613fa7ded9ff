package logic

import (
	"fmt"
	"sort"
	"time"

	"taskbank/app/models"
)

// UnpositionedPolicy decides what happens to a locked task with no usable
// fixed position.
type UnpositionedPolicy string

const (
	// UnpositionedReorder places such tasks with the reorderable ones.
	UnpositionedReorder UnpositionedPolicy = "reorder"
	// UnpositionedDrop leaves them out of Main entirely.
	UnpositionedDrop UnpositionedPolicy = "drop"
)

// ParseUnpositionedPolicy maps a config value onto a policy. Empty means reorder.
func ParseUnpositionedPolicy(s string) (UnpositionedPolicy, error) {
	switch UnpositionedPolicy(s) {
	case "", UnpositionedReorder:
		return UnpositionedReorder, nil
	case UnpositionedDrop:
		return UnpositionedDrop, nil
	}
	return "", fmt.Errorf("unknown unpositioned lock policy %q", s)
}

// Compiler builds the Main ordering.
type Compiler struct {
	Unpositioned UnpositionedPolicy
}

// CompileMain orders tasks for Main with the default policy.
func CompileMain(tasks []models.Task, now time.Time) []models.Task {
	return Compiler{}.Compile(tasks, now)
}

// Compile merges pinned tasks with the priority-sorted free tasks. Pinned
// tasks keep their slot unless an earlier pin already took it, in which case
// they move to the next free slot to the right.
func (c Compiler) Compile(tasks []models.Task, now time.Time) []models.Task {
	now = resolveNow(now)

	var fixed []models.Task
	for _, t := range tasks {
		if t.Locked && t.HasFixedPos() && IsActive(t, now) {
			fixed = append(fixed, t)
		}
	}
	sort.SliceStable(fixed, func(i, j int) bool {
		return *fixed[i].FixedPos < *fixed[j].FixedPos
	})

	free := sortWhere(tasks, now, c.isFree)

	maxPos := -1
	fixedIDs := make(map[string]struct{}, len(fixed))
	for _, t := range fixed {
		if *t.FixedPos > maxPos {
			maxPos = *t.FixedPos
		}
		fixedIDs[t.ID] = struct{}{}
	}

	slots := make([]*models.Task, max(maxPos+1, len(fixed)+len(free)))

	for i := range fixed {
		pos := *fixed[i].FixedPos
		for pos < len(slots) && slots[pos] != nil {
			pos++
		}
		if pos >= len(slots) {
			slots = append(slots, nil)
		}
		slots[pos] = &fixed[i]
	}

	next := 0
	for i := range free {
		if _, dup := fixedIDs[free[i].ID]; dup {
			continue
		}
		for next < len(slots) && slots[next] != nil {
			next++
		}
		if next >= len(slots) {
			slots = append(slots, nil)
		}
		slots[next] = &free[i]
		next++
	}

	out := make([]models.Task, 0, len(fixed)+len(free))
	for _, t := range slots {
		if t != nil && IsActive(*t, now) {
			out = append(out, *t)
		}
	}
	return out
}

func (c Compiler) isFree(t models.Task, now time.Time) bool {
	if !IsActive(t, now) {
		return false
	}
	if !t.Locked {
		return true
	}
	return !t.HasFixedPos() && c.Unpositioned != UnpositionedDrop
}
