package http

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/habitxp/internal/middleware"
	"github.com/atinyakov/habitxp/internal/models"
	"github.com/atinyakov/habitxp/internal/service"
)

// CatalogService defines the account, habit and category operations used
// by CatalogHandler.
type CatalogService interface {
	RegisterUser(ctx context.Context, email, name string) (*models.User, error)
	CreateCategory(ctx context.Context, name string, description *string) (*models.HabitCategory, error)
	CreateHabit(ctx context.Context, owner string, in service.HabitInput) (*models.Habit, error)
	ListHabits(ctx context.Context, owner string) ([]models.Habit, error)
}

// CatalogHandler serves users, habits and categories.
type CatalogHandler struct {
	CatalogService CatalogService
	Logger         *zap.Logger
}

// RegisterUser handles POST /api/users.
func (h *CatalogHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := decodeBody(r, "RegisterUser", &req); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	u, err := h.CatalogService.RegisterUser(r.Context(), req.Email, req.Name)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeData(w, http.StatusCreated, u)
}

// CreateCategory handles POST /api/categories.
func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
	}
	if err := decodeBody(r, "CreateCategory", &req); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	c, err := h.CatalogService.CreateCategory(r.Context(), req.Name, req.Description)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeData(w, http.StatusCreated, c)
}

// CreateHabit handles POST /api/habits.
func (h *CatalogHandler) CreateHabit(w http.ResponseWriter, r *http.Request) {
	var in service.HabitInput
	if err := decodeBody(r, "CreateHabit", &in); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	habit, err := h.CatalogService.CreateHabit(r.Context(), middleware.OwnerFromContext(r.Context()), in)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeData(w, http.StatusCreated, habit)
}

// ListHabits handles GET /api/habits.
func (h *CatalogHandler) ListHabits(w http.ResponseWriter, r *http.Request) {
	habits, err := h.CatalogService.ListHabits(r.Context(), middleware.OwnerFromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeData(w, http.StatusOK, habits)
}
