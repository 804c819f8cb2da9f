package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/atinyakov/habitxp/internal/apperr"
	"github.com/atinyakov/habitxp/internal/models"
)

// PostgresCatalogRepository stores habit categories and habits.
type PostgresCatalogRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresCatalogRepository creates a catalog repository over db.
func NewPostgresCatalogRepository(db *sql.DB) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{DB: db}
}

// CreateCategory inserts c and fills in its ID.
func (r *PostgresCatalogRepository) CreateCategory(ctx context.Context, c *models.HabitCategory) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO habit_categories (id, name, description) VALUES ($1, $2, $3)`,
		c.ID, c.Name, c.Description,
	)
	return insertError("CreateCategory", "", err)
}

// CreateHabit inserts h for its owner and fills in ID and CreatedAt.
func (r *PostgresCatalogRepository) CreateHabit(ctx context.Context, h *models.Habit) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO habits (id, user_id, name, description, xp_value, color, category_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, h.ID, h.UserID, h.Name, h.Description, h.XPValue, h.Color, h.CategoryID).Scan(&h.CreatedAt)
	return insertError("CreateHabit", h.UserID, err)
}

// ListHabits returns the owner's habits, newest first.
func (r *PostgresCatalogRepository) ListHabits(ctx context.Context, owner string) ([]models.Habit, error) {
	const op = "ListHabits"

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, user_id, name, description, xp_value, color, category_id, created_at
		FROM habits WHERE user_id = $1
		ORDER BY created_at DESC
	`, owner)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, err)
	}
	defer rows.Close()

	habits := []models.Habit{}
	for rows.Next() {
		var h models.Habit
		if err := rows.Scan(&h.ID, &h.UserID, &h.Name, &h.Description, &h.XPValue, &h.Color, &h.CategoryID, &h.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.Internal, op, fmt.Errorf("scan: %w", err))
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, err)
	}
	return habits, nil
}
