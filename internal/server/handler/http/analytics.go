package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/habitxp/internal/middleware"
	"github.com/atinyakov/habitxp/internal/models"
)

// AnalyticsService defines the report operations used by AnalyticsHandler.
type AnalyticsService interface {
	MonthlyInsights(ctx context.Context, owner string, year, month int) (*models.MonthlyInsights, error)
	MonthlySummary(ctx context.Context, owner string, year, month int, excluded []string) (*models.MonthlySummary, error)
	CategoryXPReport(ctx context.Context, owner, startDate, endDate string) (*models.CategoryXPReport, error)
	Calendar(ctx context.Context, owner string, year, month int) (*models.Calendar, error)
	UserStats(ctx context.Context, owner string) (*models.UserStats, error)
	HabitStats(ctx context.Context, owner, habitID string) (*models.HabitStats, error)
}

// AnalyticsHandler serves the derived reports.
type AnalyticsHandler struct {
	AnalyticsService AnalyticsService
	Logger           *zap.Logger
}

// MonthlyInsights handles GET /api/insights/{year}/{month}.
func (h *AnalyticsHandler) MonthlyInsights(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonth(r, "MonthlyInsights")
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	out, err := h.AnalyticsService.MonthlyInsights(r.Context(), middleware.OwnerFromContext(r.Context()), year, month)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeData(w, http.StatusOK, out)
}

// MonthlySummary handles GET /api/summary/{year}/{month}?exclude=id,id.
func (h *AnalyticsHandler) MonthlySummary(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonth(r, "MonthlySummary")
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	out, err := h.AnalyticsService.MonthlySummary(r.Context(), middleware.OwnerFromContext(r.Context()), year, month, listParam(r, "exclude"))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeData(w, http.StatusOK, out)
}

// CategoryXP handles GET /api/categories/xp?startDate=&endDate=.
func (h *AnalyticsHandler) CategoryXP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := h.AnalyticsService.CategoryXPReport(r.Context(), middleware.OwnerFromContext(r.Context()), q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeData(w, http.StatusOK, out)
}

// Calendar handles GET /api/calendar/{year}/{month}.
func (h *AnalyticsHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonth(r, "Calendar")
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	out, err := h.AnalyticsService.Calendar(r.Context(), middleware.OwnerFromContext(r.Context()), year, month)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeData(w, http.StatusOK, out)
}

// UserStats handles GET /api/stats.
func (h *AnalyticsHandler) UserStats(w http.ResponseWriter, r *http.Request) {
	out, err := h.AnalyticsService.UserStats(r.Context(), middleware.OwnerFromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeData(w, http.StatusOK, out)
}

// HabitStats handles GET /api/habits/{id}/stats.
func (h *AnalyticsHandler) HabitStats(w http.ResponseWriter, r *http.Request) {
	out, err := h.AnalyticsService.HabitStats(r.Context(), middleware.OwnerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeData(w, http.StatusOK, out)
}
