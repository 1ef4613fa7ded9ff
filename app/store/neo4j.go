package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"taskbank/app/models"
)

const taskReturn = "OPTIONAL MATCH (t)-[:SPLIT_FROM]->(o:Task) " +
	"RETURN t, o.id AS split_from ORDER BY t.created_at, t.id"

// Neo4jStore keeps tasks as (:Task) nodes. A task created by splitting
// another one points at it through a SPLIT_FROM relationship.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
	clock    func() time.Time
}

// NewNeo4jStore wraps an open driver. An empty database uses the server default.
func NewNeo4jStore(driver neo4j.DriverWithContext, database string) *Neo4jStore {
	return &Neo4jStore{driver: driver, database: database, clock: time.Now}
}

func (s *Neo4jStore) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: s.database})
}

// EnsureSchema creates the uniqueness constraint on task ids.
func (s *Neo4jStore) EnsureSchema(ctx context.Context) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx,
			"CREATE CONSTRAINT task_id IF NOT EXISTS FOR (t:Task) REQUIRE t.id IS UNIQUE", nil)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("neo4j: ensure schema: %w", err)
	}
	return nil
}

// Create adds a new task node, linking it to the task it was split from.
func (s *Neo4jStore) Create(ctx context.Context, nt models.NewTask) (string, error) {
	id := uuid.New().String()
	ts := s.clock()

	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx,
			"CREATE (t:Task {id: $id, title: $title, category: $category, due_datetime: $due, "+
				"created_at: $ts, updated_at: $ts, locked: false, is_done: false, "+
				"is_gym: $is_gym, in_main: $in_main, part_label: $part_label})",
			map[string]any{
				"id":         id,
				"title":      nt.Title,
				"category":   string(nt.Category),
				"due":        nt.DueDatetime,
				"ts":         ts,
				"is_gym":     nt.IsGym,
				"in_main":    nt.InMain,
				"part_label": optional(nt.PartLabel),
			},
		)
		if err != nil {
			return nil, err
		}

		if nt.SplitFrom != nil && *nt.SplitFrom != "" {
			_, err = tx.Run(ctx,
				"MATCH (child:Task {id: $childID}), (origin:Task {id: $originID}) "+
					"CREATE (child)-[:SPLIT_FROM]->(origin)",
				map[string]any{
					"childID":  id,
					"originID": *nt.SplitFrom,
				},
			)
		}
		return nil, err
	})
	if err != nil {
		return "", fmt.Errorf("neo4j: create task: %w", err)
	}
	return id, nil
}

// Get retrieves a single task by its ID.
func (s *Neo4jStore) Get(ctx context.Context, id string) (*models.Task, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, "MATCH (t:Task {id: $id}) "+taskReturn, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			return nil, res.Err()
		}
		task, err := taskFromRecord(res.Record())
		if err != nil {
			return nil, err
		}
		return &task, nil
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j: get task %s: %w", id, err)
	}
	task, _ := result.(*models.Task)
	if task == nil {
		return nil, ErrNotFound
	}
	return task, nil
}

// List retrieves tasks ordered by creation time.
func (s *Neo4jStore) List(ctx context.Context, filter models.ListFilter) ([]models.Task, error) {
	query := "MATCH (t:Task) "
	if !filter.IncludeDone {
		query += "WHERE coalesce(t.is_done, false) = false "
	}
	query += taskReturn

	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, nil)
		if err != nil {
			return nil, err
		}

		var tasks []models.Task
		for res.Next(ctx) {
			task, err := taskFromRecord(res.Record())
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, task)
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return tasks, nil
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j: list tasks: %w", err)
	}
	tasks, _ := result.([]models.Task)
	return tasks, nil
}

// Update sets the patched properties on a task node.
func (s *Neo4jStore) Update(ctx context.Context, id string, patch models.TaskPatch) error {
	props := neo4jProps(patch)
	props["updated_at"] = s.clock()

	return s.writeOne(ctx, "update task "+id,
		"MATCH (t:Task {id: $id}) SET t += $props RETURN count(t) AS n",
		map[string]any{"id": id, "props": props},
	)
}

// SetLock pins or unpins a task.
func (s *Neo4jStore) SetLock(ctx context.Context, id string, locked bool, fixedPos *int) error {
	return s.Update(ctx, id, lockPatch(locked, fixedPos))
}

// Delete deletes a task and its relationships.
func (s *Neo4jStore) Delete(ctx context.Context, id string) error {
	return s.writeOne(ctx, "delete task "+id,
		"MATCH (t:Task {id: $id}) DETACH DELETE t RETURN count(*) AS n",
		map[string]any{"id": id},
	)
}

// RemoveExpired deletes unfinished tasks due at or before now in one transaction.
func (s *Neo4jStore) RemoveExpired(ctx context.Context, now time.Time) ([]string, error) {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			"MATCH (t:Task) WHERE t.due_datetime <= $now AND coalesce(t.is_done, false) = false "+
				"WITH t, t.id AS id DETACH DELETE t RETURN id",
			map[string]any{"now": now},
		)
		if err != nil {
			return nil, err
		}

		var removed []string
		for res.Next(ctx) {
			if id, ok := res.Record().Values[0].(string); ok {
				removed = append(removed, id)
			}
		}
		return removed, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j: remove expired: %w", err)
	}
	removed, _ := result.([]string)
	return removed, nil
}

// Close closes the driver.
func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// writeOne runs a write whose single row reports how many tasks matched.
func (s *Neo4jStore) writeOne(ctx context.Context, action, query string, params map[string]any) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		n, _ := record.Values[0].(int64)
		return n, nil
	})
	if err != nil {
		return fmt.Errorf("neo4j: %s: %w", action, err)
	}
	if n, _ := result.(int64); n == 0 {
		return ErrNotFound
	}
	return nil
}

func taskFromRecord(record *neo4j.Record) (models.Task, error) {
	raw, ok := record.Get("t")
	if !ok {
		return models.Task{}, fmt.Errorf("record has no task node")
	}
	node, ok := raw.(neo4j.Node)
	if !ok {
		return models.Task{}, fmt.Errorf("unexpected task value %T", raw)
	}

	p := node.Props
	task := models.Task{
		ID:          stringProp(p, "id"),
		Title:       stringProp(p, "title"),
		Category:    models.Category(stringProp(p, "category")),
		DueDatetime: timeProp(p, "due_datetime"),
		CreatedAt:   timeProp(p, "created_at"),
		UpdatedAt:   timeProp(p, "updated_at"),
		IsDone:      boolProp(p, "is_done"),
		Locked:      boolProp(p, "locked"),
		InMain:      boolProp(p, "in_main"),
		IsGym:       boolProp(p, "is_gym"),
	}
	if pos, ok := p["fixed_pos"].(int64); ok {
		fixed := int(pos)
		task.FixedPos = &fixed
	}
	if label, ok := p["part_label"].(string); ok {
		task.PartLabel = &label
	}
	if origin, ok := record.Values[1].(string); ok {
		task.SplitFrom = &origin
	}
	return task, nil
}

func neo4jProps(p models.TaskPatch) map[string]any {
	props := make(map[string]any)
	if p.Title != nil {
		props["title"] = *p.Title
	}
	if p.Category != nil {
		props["category"] = string(*p.Category)
	}
	if p.DueDatetime != nil {
		props["due_datetime"] = *p.DueDatetime
	}
	if p.PartLabel != nil {
		props["part_label"] = *p.PartLabel
	}
	if p.IsGym != nil {
		props["is_gym"] = *p.IsGym
	}
	if p.IsDone != nil {
		props["is_done"] = *p.IsDone
	}
	if p.InMain != nil {
		props["in_main"] = *p.InMain
	}
	if p.Locked != nil {
		props["locked"] = *p.Locked
	}
	switch {
	case p.FixedPos != nil:
		props["fixed_pos"] = int64(*p.FixedPos)
	case p.ClearFixedPos:
		// A null in SET += removes the property.
		props["fixed_pos"] = nil
	}
	return props
}

func optional(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func stringProp(p map[string]any, key string) string {
	s, _ := p[key].(string)
	return s
}

func boolProp(p map[string]any, key string) bool {
	b, _ := p[key].(bool)
	return b
}

func timeProp(p map[string]any, key string) time.Time {
	switch v := p[key].(type) {
	case time.Time:
		return v
	case neo4j.LocalDateTime:
		return v.Time()
	}
	return time.Time{}
}
