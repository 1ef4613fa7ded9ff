package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"taskbank/app/models"
	"taskbank/app/services"
	"taskbank/app/store"
)

// TaskController handles HTTP requests for tasks.
type TaskController struct {
	Service *services.TaskService
	Logger  *zap.Logger
}

// NewTaskController creates a new TaskController.
func NewTaskController(service *services.TaskService, logger *zap.Logger) *TaskController {
	return &TaskController{Service: service, Logger: logger}
}

// GetBoard handles GET /api/tasks.
func (c *TaskController) GetBoard(w http.ResponseWriter, r *http.Request) {
	c.respondBoard(w, r, http.StatusOK)
}

// GetTasks handles GET /tasks.
func (c *TaskController) GetTasks(w http.ResponseWriter, r *http.Request) {
	includeDone, _ := strconv.ParseBool(r.URL.Query().Get("include_done"))
	tasks, err := c.Service.ListTasks(r.Context(), includeDone)
	if err != nil {
		c.respondErr(w, err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

type createRequest struct {
	Title       string  `json:"title"`
	Category    string  `json:"category"`
	DueDatetime string  `json:"due_datetime"`
	DueDate     string  `json:"due_date"`
	DueTime     string  `json:"due_time"`
	PartLabel   *string `json:"part_label"`
	IsGym       bool    `json:"is_gym"`
}

// CreateTask handles POST /tasks.
func (c *TaskController) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	raw := req.DueDatetime
	if raw == "" && req.DueDate != "" && req.DueTime != "" {
		raw = req.DueDate + " " + req.DueTime
	}
	var due time.Time
	if raw != "" {
		parsed, err := ParseDue(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid due_datetime")
			return
		}
		due = parsed
	}

	task, err := c.Service.CreateTask(r.Context(), models.NewTask{
		Title:       req.Title,
		Category:    models.Category(req.Category),
		DueDatetime: due,
		PartLabel:   req.PartLabel,
		IsGym:       req.IsGym,
	})
	if err != nil {
		c.respondErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// GetTaskByID handles GET /tasks/{taskID}.
func (c *TaskController) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	task, err := c.Service.GetTaskByID(r.Context(), mux.Vars(r)["taskID"])
	if err != nil {
		c.respondErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// UpdateTask handles PUT /tasks/{taskID}.
func (c *TaskController) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil || len(fields) == 0 {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	patch, err := decodePatch(fields)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := c.Service.UpdateTask(r.Context(), mux.Vars(r)["taskID"], patch); err != nil {
		c.respondErr(w, err)
		return
	}
	c.respondBoard(w, r, http.StatusOK)
}

// MarkDone handles POST /tasks/{taskID}/done.
func (c *TaskController) MarkDone(w http.ResponseWriter, r *http.Request) {
	if err := c.Service.MarkDone(r.Context(), mux.Vars(r)["taskID"]); err != nil {
		c.respondErr(w, err)
		return
	}
	c.respondBoard(w, r, http.StatusOK)
}

// SplitTask handles POST /tasks/{taskID}/split.
func (c *TaskController) SplitTask(w http.ResponseWriter, r *http.Request) {
	if _, err := c.Service.SplitTask(r.Context(), mux.Vars(r)["taskID"]); err != nil {
		c.respondErr(w, err)
		return
	}
	c.respondBoard(w, r, http.StatusOK)
}

// DeleteTask handles DELETE /tasks/{taskID}.
func (c *TaskController) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := c.Service.DeleteTask(r.Context(), mux.Vars(r)["taskID"]); err != nil {
		c.respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type moveRequest struct {
	TaskID      any    `json:"task_id"`
	NewIndex    any    `json:"new_index"`
	NewCategory string `json:"new_category"`
	Locked      any    `json:"locked"`
}

// MoveTask handles POST /move.
func (c *TaskController) MoveTask(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	taskID := idString(req.TaskID)
	if taskID == "" {
		writeError(w, http.StatusBadRequest, "invalid task_id")
		return
	}

	err := c.Service.MoveTask(r.Context(), services.MoveRequest{
		TaskID:      taskID,
		NewIndex:    CoerceIndex(truncateFraction(req.NewIndex)),
		NewCategory: req.NewCategory,
		Locked:      truthy(req.Locked),
	})
	if err != nil {
		c.respondErr(w, err)
		return
	}
	c.respondBoard(w, r, http.StatusOK)
}

func (c *TaskController) respondBoard(w http.ResponseWriter, r *http.Request, status int) {
	board, err := c.Service.Board(r.Context())
	if err != nil {
		c.respondErr(w, err)
		return
	}
	writeJSON(w, status, board)
}

func (c *TaskController) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, services.ErrInvalidTask),
		errors.Is(err, services.ErrSideToSide),
		errors.Is(err, services.ErrLeaveMain):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		c.Logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, reason string) {
	writeJSON(w, status, map[string]string{"status": "error", "reason": reason})
}

func decodePatch(fields map[string]json.RawMessage) (models.TaskPatch, error) {
	var patch models.TaskPatch
	for key, raw := range fields {
		var err error
		switch key {
		case "title":
			err = json.Unmarshal(raw, &patch.Title)
		case "category":
			err = json.Unmarshal(raw, &patch.Category)
		case "part_label":
			err = json.Unmarshal(raw, &patch.PartLabel)
		case "is_gym":
			err = json.Unmarshal(raw, &patch.IsGym)
		case "is_done":
			err = json.Unmarshal(raw, &patch.IsDone)
		case "locked":
			err = json.Unmarshal(raw, &patch.Locked)
		case "in_main":
			err = json.Unmarshal(raw, &patch.InMain)
		case "fixed_pos":
			var v any
			if err = json.Unmarshal(raw, &v); err == nil {
				patch.FixedPos = CoerceIndex(v)
				patch.ClearFixedPos = patch.FixedPos == nil
			}
		case "due_datetime":
			var s string
			if err = json.Unmarshal(raw, &s); err != nil || s == "" {
				break
			}
			var due time.Time
			if due, err = ParseDue(s); err != nil {
				return patch, fmt.Errorf("invalid due_datetime")
			}
			patch.DueDatetime = &due
		}
		if err != nil {
			return patch, fmt.Errorf("invalid %s", key)
		}
	}
	return patch, nil
}
