package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/habitxp/internal/apperr"
	"github.com/atinyakov/habitxp/internal/calendar"
	"github.com/atinyakov/habitxp/internal/db"
	"github.com/atinyakov/habitxp/internal/models"
)

// oneShotTables maps each kind to its table. Table names never come from input.
var oneShotTables = map[models.OneShotKind]string{
	models.KindGoal: "goals",
	models.KindTask: "daily_tasks",
}

// PostgresOneShotRepository stores goals and daily tasks and performs their
// irreversible completion.
type PostgresOneShotRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresOneShotRepository creates a one-shot repository over db.
func NewPostgresOneShotRepository(db *sql.DB) *PostgresOneShotRepository {
	return &PostgresOneShotRepository{DB: db}
}

// Complete marks the goal or task id as completed at now and credits its
// xp_value to owner in one transaction. The entity row is locked FOR UPDATE
// before the completed check, so two racing calls credit XP once.
func (r *PostgresOneShotRepository) Complete(ctx context.Context, kind models.OneShotKind, owner, id string, now time.Time) (*models.CompletionResult, error) {
	table, ok := oneShotTables[kind]
	if !ok {
		return nil, apperr.New(apperr.InvalidInput, "Complete", fmt.Sprintf("unknown kind %q", kind))
	}
	op := "Complete" + strings.ToUpper(string(kind[:1])) + string(kind[1:])

	res := models.CompletionResult{ID: id}
	err := db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		var done bool
		err := tx.QueryRowContext(ctx, fmt.Sprintf(`
			SELECT xp_value, is_completed FROM %s WHERE id = $1 AND user_id = $2 FOR UPDATE
		`, table), id, owner).Scan(&res.XPAwarded, &done)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.New(apperr.NotFound, op, string(kind)+" not found").WithOwner(owner).WithID(id)
		}
		if err != nil {
			return fmt.Errorf("lock %s: %w", kind, err)
		}
		if done {
			return apperr.New(apperr.AlreadyCompleted, op, string(kind)+" already completed").WithOwner(owner).WithID(id)
		}

		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`
			UPDATE %s SET is_completed = TRUE, completed_at = $2 WHERE id = $1
		`, table), id, now); err != nil {
			return fmt.Errorf("mark %s completed: %w", kind, err)
		}

		err = tx.QueryRowContext(ctx, `
			UPDATE users SET total_xp = total_xp + $1, updated_at = now() WHERE id = $2 RETURNING total_xp
		`, res.XPAwarded, owner).Scan(&res.NewTotalXP)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.New(apperr.NotFound, op, "user not found").WithOwner(owner)
		}
		if err != nil {
			return fmt.Errorf("credit xp: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, classify(op, owner, id, err)
	}
	return &res, nil
}

// CreateGoal inserts g for its owner and fills in ID and CreatedAt.
func (r *PostgresOneShotRepository) CreateGoal(ctx context.Context, g *models.Goal) error {
	const op = "CreateGoal"
	if g.ID == "" {
		g.ID = uuid.NewString()
	}

	var due any
	if g.DueDate != nil {
		due = g.DueDate.String()
	}
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO goals (id, user_id, name, description, xp_value, category_id, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, g.ID, g.UserID, g.Name, g.Description, g.XPValue, g.CategoryID, due).Scan(&g.CreatedAt)
	return insertError(op, g.UserID, err)
}

// ListGoals returns the owner's goals, newest first. status filters on
// "active" or "completed"; anything else returns all goals.
func (r *PostgresOneShotRepository) ListGoals(ctx context.Context, owner, status string) ([]models.Goal, error) {
	const op = "ListGoals"

	query := `
		SELECT id, user_id, name, description, xp_value, category_id, due_date, is_completed, completed_at, created_at
		FROM goals WHERE user_id = $1`
	switch status {
	case "active":
		query += " AND is_completed = FALSE"
	case "completed":
		query += " AND is_completed = TRUE"
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.DB.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, err)
	}
	defer rows.Close()

	goals := []models.Goal{}
	for rows.Next() {
		var (
			g   models.Goal
			due sql.Null[models.Date]
		)
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.Description, &g.XPValue, &g.CategoryID,
			&due, &g.IsCompleted, &g.CompletedAt, &g.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.Internal, op, fmt.Errorf("scan: %w", err))
		}
		if due.Valid {
			g.DueDate = &due.V
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, err)
	}
	return goals, nil
}

// CreateTask inserts t for its owner and fills in ID and CreatedAt. A task
// with the same name on the same day is reported as apperr.Duplicate.
func (r *PostgresOneShotRepository) CreateTask(ctx context.Context, t *models.DailyTask) error {
	const op = "CreateTask"
	if t.ID == "" {
		t.ID = uuid.NewString()
	}

	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO daily_tasks (id, user_id, name, description, xp_value, task_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, t.ID, t.UserID, t.Name, t.Description, t.XPValue, t.TaskDate.String()).Scan(&t.CreatedAt)
	if isUniqueViolation(err) {
		return apperr.New(apperr.Duplicate, op, "task with this name already exists for this date").WithOwner(t.UserID)
	}
	return insertError(op, t.UserID, err)
}

// ListTasks returns the owner's tasks, optionally for a single day.
func (r *PostgresOneShotRepository) ListTasks(ctx context.Context, owner string, day *time.Time) ([]models.DailyTask, error) {
	const op = "ListTasks"

	query := `
		SELECT id, user_id, name, description, xp_value, task_date, is_completed, completed_at, created_at
		FROM daily_tasks WHERE user_id = $1`
	args := []any{owner}
	if day != nil {
		query += " AND task_date = $2"
		args = append(args, calendar.Format(*day))
	}
	query += " ORDER BY task_date DESC, created_at DESC"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, err)
	}
	defer rows.Close()

	tasks := []models.DailyTask{}
	for rows.Next() {
		var t models.DailyTask
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Description, &t.XPValue, &t.TaskDate,
			&t.IsCompleted, &t.CompletedAt, &t.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.Internal, op, fmt.Errorf("scan: %w", err))
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, err)
	}
	return tasks, nil
}

// insertError classifies the error of a single-row insert.
func insertError(op, owner string, err error) error {
	switch {
	case err == nil:
		return nil
	case isForeignKeyViolation(err):
		return apperr.New(apperr.NotFound, op, "referenced owner or category not found").WithOwner(owner)
	case isCheckViolation(err):
		return apperr.New(apperr.InvalidInput, op, "xp value out of range").WithOwner(owner)
	case isUniqueViolation(err):
		return apperr.New(apperr.Duplicate, op, "already exists").WithOwner(owner)
	default:
		return &apperr.Error{Kind: apperr.Internal, Op: op, Owner: owner, Err: err}
	}
}
