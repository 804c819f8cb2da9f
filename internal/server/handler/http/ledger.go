package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/habitxp/internal/middleware"
	"github.com/atinyakov/habitxp/internal/models"
)

// LedgerService defines the completion operations used by LedgerHandler.
type LedgerService interface {
	AddCompletion(ctx context.Context, owner, habitID, date string) (*models.Completion, error)
	RemoveCompletion(ctx context.Context, completionID, owner string) (bool, error)
	ListCompletions(ctx context.Context, owner, startDate, endDate string) ([]models.Completion, error)
	HabitCompletions(ctx context.Context, owner, habitID string) ([]models.Completion, error)
}

// LedgerHandler serves habit completions.
type LedgerHandler struct {
	LedgerService LedgerService
	Logger        *zap.Logger
}

// AddCompletion handles POST /api/completions with {"habitId", "date"}.
func (h *LedgerHandler) AddCompletion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HabitID string `json:"habitId"`
		Date    string `json:"date"`
	}
	if err := decodeBody(r, "AddCompletion", &req); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	c, err := h.LedgerService.AddCompletion(r.Context(), middleware.OwnerFromContext(r.Context()), req.HabitID, req.Date)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeData(w, http.StatusCreated, c)
}

// RemoveCompletion handles DELETE /api/completions/{id}.
func (h *LedgerHandler) RemoveCompletion(w http.ResponseWriter, r *http.Request) {
	_, err := h.LedgerService.RemoveCompletion(r.Context(), chi.URLParam(r, "id"), middleware.OwnerFromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"message": "Completion removed and XP refunded"})
}

// ListCompletions handles GET /api/completions?startDate=&endDate=.
func (h *LedgerHandler) ListCompletions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := h.LedgerService.ListCompletions(r.Context(), middleware.OwnerFromContext(r.Context()), q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeData(w, http.StatusOK, out)
}

// HabitCompletions handles GET /api/habits/{id}/completions.
func (h *LedgerHandler) HabitCompletions(w http.ResponseWriter, r *http.Request) {
	out, err := h.LedgerService.HabitCompletions(r.Context(), middleware.OwnerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeData(w, http.StatusOK, out)
}
