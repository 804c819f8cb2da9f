package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/habitxp/internal/middleware"
	"github.com/atinyakov/habitxp/internal/models"
	"github.com/atinyakov/habitxp/internal/service"
)

// OneShotService defines the goal and daily task operations used by
// OneShotHandler.
type OneShotService interface {
	CompleteGoal(ctx context.Context, id, owner string) (*models.CompletionResult, error)
	CompleteTask(ctx context.Context, id, owner string) (*models.CompletionResult, error)
	CreateGoal(ctx context.Context, owner string, in service.GoalInput) (*models.Goal, error)
	ListGoals(ctx context.Context, owner, status string) ([]models.Goal, error)
	CreateTask(ctx context.Context, owner string, in service.TaskInput) (*models.DailyTask, error)
	ListTasks(ctx context.Context, owner, date string) ([]models.DailyTask, error)
}

// OneShotHandler serves goals and daily tasks.
type OneShotHandler struct {
	OneShotService OneShotService
	Logger         *zap.Logger
}

// CompleteGoal handles POST /api/goals/{id}/complete.
func (h *OneShotHandler) CompleteGoal(w http.ResponseWriter, r *http.Request) {
	res, err := h.OneShotService.CompleteGoal(r.Context(), chi.URLParam(r, "id"), middleware.OwnerFromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeData(w, http.StatusOK, res)
}

// CompleteTask handles POST /api/tasks/{id}/complete.
func (h *OneShotHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	res, err := h.OneShotService.CompleteTask(r.Context(), chi.URLParam(r, "id"), middleware.OwnerFromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeData(w, http.StatusOK, res)
}

// CreateGoal handles POST /api/goals.
func (h *OneShotHandler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var in service.GoalInput
	if err := decodeBody(r, "CreateGoal", &in); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	g, err := h.OneShotService.CreateGoal(r.Context(), middleware.OwnerFromContext(r.Context()), in)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeData(w, http.StatusCreated, g)
}

// ListGoals handles GET /api/goals?status=active|completed.
func (h *OneShotHandler) ListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := h.OneShotService.ListGoals(r.Context(), middleware.OwnerFromContext(r.Context()), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeData(w, http.StatusOK, goals)
}

// CreateTask handles POST /api/tasks.
func (h *OneShotHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var in service.TaskInput
	if err := decodeBody(r, "CreateTask", &in); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	t, err := h.OneShotService.CreateTask(r.Context(), middleware.OwnerFromContext(r.Context()), in)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeData(w, http.StatusCreated, t)
}

// ListTasks handles GET /api/tasks?date=YYYY-MM-DD.
func (h *OneShotHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.OneShotService.ListTasks(r.Context(), middleware.OwnerFromContext(r.Context()), r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeData(w, http.StatusOK, tasks)
}
