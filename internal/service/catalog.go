package service

import (
	"context"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/habitxp/internal/apperr"
	"github.com/atinyakov/habitxp/internal/models"
)

// UserRepository defines the persistence operations for accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, u *models.User) error
}

// CatalogRepository defines the persistence operations for habits and
// categories.
type CatalogRepository interface {
	CreateCategory(ctx context.Context, c *models.HabitCategory) error
	CreateHabit(ctx context.Context, h *models.Habit) error
	ListHabits(ctx context.Context, owner string) ([]models.Habit, error)
}

// HabitInput is the payload for creating a habit.
type HabitInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	XPValue     int     `json:"xpValue"`
	Color       string  `json:"color"`
	CategoryID  *string `json:"categoryId"`
}

// CatalogService registers users and manages habits and categories.
type CatalogService struct {
	users   UserRepository
	catalog CatalogRepository
	log     *zap.Logger
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(users UserRepository, catalog CatalogRepository, log *zap.Logger) *CatalogService {
	return &CatalogService{users: users, catalog: catalog, log: log}
}

// RegisterUser creates an account with zero XP.
func (s *CatalogService) RegisterUser(ctx context.Context, email, name string) (*models.User, error) {
	const op = "RegisterUser"
	if err := checkRequired(op, "name", name); err != nil {
		return nil, err
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return nil, apperr.New(apperr.InvalidInput, op, "email is not a valid address")
	}

	u := &models.User{Email: strings.ToLower(email), Name: strings.TrimSpace(name)}
	if err := s.users.CreateUser(ctx, u); err != nil {
		logFailure(s.log, op, err)
		return nil, err
	}
	s.log.Info("user registered", zap.String("owner", u.ID))
	return u, nil
}

// CreateCategory stores a new habit category.
func (s *CatalogService) CreateCategory(ctx context.Context, name string, description *string) (*models.HabitCategory, error) {
	const op = "CreateCategory"
	if err := checkRequired(op, "name", name); err != nil {
		return nil, err
	}
	c := &models.HabitCategory{Name: strings.TrimSpace(name), Description: description}
	if err := s.catalog.CreateCategory(ctx, c); err != nil {
		logFailure(s.log, op, err)
		return nil, err
	}
	return c, nil
}

// CreateHabit validates in and stores a new habit for owner. The category,
// when given, must exist.
func (s *CatalogService) CreateHabit(ctx context.Context, owner string, in HabitInput) (*models.Habit, error) {
	const op = "CreateHabit"
	if err := checkID(op, "owner", owner); err != nil {
		return nil, err
	}
	if err := checkRequired(op, "name", in.Name); err != nil {
		return nil, err
	}
	if err := checkRequired(op, "color", in.Color); err != nil {
		return nil, err
	}
	if err := checkXP(op, in.XPValue, models.MaxHabitXP); err != nil {
		return nil, err
	}
	if in.CategoryID != nil {
		if err := checkID(op, "categoryId", *in.CategoryID); err != nil {
			return nil, err
		}
	}

	h := &models.Habit{
		UserID:      owner,
		Name:        in.Name,
		Description: in.Description,
		XPValue:     in.XPValue,
		Color:       in.Color,
		CategoryID:  in.CategoryID,
	}
	if err := s.catalog.CreateHabit(ctx, h); err != nil {
		logFailure(s.log, op, err, zap.String("owner", owner))
		return nil, err
	}
	return h, nil
}

// ListHabits returns the owner's habits, newest first.
func (s *CatalogService) ListHabits(ctx context.Context, owner string) ([]models.Habit, error) {
	const op = "ListHabits"
	if err := checkID(op, "owner", owner); err != nil {
		return nil, err
	}
	out, err := s.catalog.ListHabits(ctx, owner)
	if err != nil {
		logFailure(s.log, op, err, zap.String("owner", owner))
	}
	return out, err
}
