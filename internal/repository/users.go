package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/atinyakov/habitxp/internal/apperr"
	"github.com/atinyakov/habitxp/internal/models"
)

// PostgresUserRepository stores user accounts.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresUserRepository creates a user repository over db.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// CreateUser inserts u with zero XP. An already registered email is
// reported as apperr.Duplicate.
func (r *PostgresUserRepository) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO users (id, email, name) VALUES ($1, $2, $3)
		RETURNING total_xp, created_at, updated_at
	`, u.ID, u.Email, u.Name).Scan(&u.TotalXP, &u.CreatedAt, &u.UpdatedAt)
	if isUniqueViolation(err) {
		return apperr.New(apperr.Duplicate, "CreateUser", "email already registered")
	}
	return insertError("CreateUser", u.ID, err)
}

// GetUser fetches a user by id.
func (r *PostgresUserRepository) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, email, name, total_xp, created_at, updated_at FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Email, &u.Name, &u.TotalXP, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.NotFound, "GetUser", "user not found").WithOwner(id)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "GetUser", err)
	}
	return &u, nil
}
