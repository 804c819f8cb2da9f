// Package repository provides the Postgres-backed record store: the
// completion ledger, one-shot completions, the habit catalog, users and the
// read-only analytics queries.
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

// PostgresLedgerRepository keeps completions and the owner's total_xp in
// lockstep. Every XP change happens in the same transaction as the ledger
// row it accounts for.
type PostgresLedgerRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresLedgerRepository creates a ledger repository over db.
func NewPostgresLedgerRepository(db *sql.DB) *PostgresLedgerRepository {
	return &PostgresLedgerRepository{DB: db}
}

// AddCompletion records habitID as done by owner on date and credits the
// habit's current xp_value to the owner, atomically.
//
// A second completion for the same (owner, habit, date) is rejected by the
// unique constraint and reported as apperr.Duplicate; no XP is credited.
// Returns the stored completion and the XP credited.
func (r *PostgresLedgerRepository) AddCompletion(ctx context.Context, owner, habitID string, date time.Time) (*models.Completion, int, error) {
	const op = "AddCompletion"

	var (
		c  models.Completion
		xp int
	)
	err := db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			SELECT xp_value FROM habits WHERE id = $1 AND user_id = $2 FOR SHARE
		`, habitID, owner).Scan(&xp)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.New(apperr.NotFound, op, "habit not found").WithOwner(owner).WithID(habitID)
		}
		if err != nil {
			return fmt.Errorf("read habit xp: %w", err)
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO completions (id, user_id, habit_id, date)
			VALUES ($1, $2, $3, $4)
			RETURNING id, user_id, habit_id, date, created_at
		`, uuid.NewString(), owner, habitID, calendar.Format(date)).
			Scan(&c.ID, &c.UserID, &c.HabitID, &c.Date, &c.CreatedAt)
		switch {
		case isUniqueViolation(err):
			return apperr.New(apperr.Duplicate, op, "habit already completed on this date").WithOwner(owner).WithID(habitID)
		case isForeignKeyViolation(err):
			return apperr.New(apperr.NotFound, op, "user not found").WithOwner(owner)
		case err != nil:
			return fmt.Errorf("insert completion: %w", err)
		}

		return creditXP(ctx, tx, op, owner, xp)
	})
	if err != nil {
		return nil, 0, classify(op, owner, habitID, err)
	}
	return &c, xp, nil
}

// RemoveCompletion deletes the completion and debits the current xp_value of
// its habit from the owner, atomically. Returns the XP debited.
func (r *PostgresLedgerRepository) RemoveCompletion(ctx context.Context, owner, completionID string) (int, error) {
	const op = "RemoveCompletion"

	var xp int
	err := db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		var habitID string
		err := tx.QueryRowContext(ctx, `
			DELETE FROM completions WHERE id = $1 AND user_id = $2 RETURNING habit_id
		`, completionID, owner).Scan(&habitID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.New(apperr.NotFound, op, "completion not found").WithOwner(owner).WithID(completionID)
		}
		if err != nil {
			return fmt.Errorf("delete completion: %w", err)
		}

		err = tx.QueryRowContext(ctx, `
			SELECT xp_value FROM habits WHERE id = $1 AND user_id = $2 FOR SHARE
		`, habitID, owner).Scan(&xp)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.New(apperr.NotFound, op, "habit not found").WithOwner(owner).WithID(habitID)
		}
		if err != nil {
			return fmt.Errorf("read habit xp: %w", err)
		}

		return debitXP(ctx, tx, op, owner, xp)
	})
	if err != nil {
		return 0, classify(op, owner, completionID, err)
	}
	return xp, nil
}

// ListCompletions returns the owner's completions, newest first, optionally
// bounded by an inclusive date range.
func (r *PostgresLedgerRepository) ListCompletions(ctx context.Context, owner string, from, to *time.Time) ([]models.Completion, error) {
	var (
		b    strings.Builder
		args = []any{owner}
	)
	b.WriteString(`SELECT id, user_id, habit_id, date, created_at FROM completions WHERE user_id = $1`)
	if from != nil {
		args = append(args, calendar.Format(*from))
		fmt.Fprintf(&b, " AND date >= $%d", len(args))
	}
	if to != nil {
		args = append(args, calendar.Format(*to))
		fmt.Fprintf(&b, " AND date <= $%d", len(args))
	}
	b.WriteString(" ORDER BY date DESC, created_at DESC")

	rows, err := r.DB.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "ListCompletions", err)
	}
	defer rows.Close()
	return scanCompletions("ListCompletions", rows)
}

// HabitCompletions returns the completions of one owned habit, newest first.
func (r *PostgresLedgerRepository) HabitCompletions(ctx context.Context, owner, habitID string) ([]models.Completion, error) {
	const op = "HabitCompletions"

	var exists bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM habits WHERE id = $1 AND user_id = $2)`,
		habitID, owner,
	).Scan(&exists)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, err)
	}
	if !exists {
		return nil, apperr.New(apperr.NotFound, op, "habit not found").WithOwner(owner).WithID(habitID)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, user_id, habit_id, date, created_at FROM completions
		WHERE user_id = $1 AND habit_id = $2
		ORDER BY date DESC
	`, owner, habitID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, err)
	}
	defer rows.Close()
	return scanCompletions(op, rows)
}

func scanCompletions(op string, rows *sql.Rows) ([]models.Completion, error) {
	out := []models.Completion{}
	for rows.Next() {
		var c models.Completion
		if err := rows.Scan(&c.ID, &c.UserID, &c.HabitID, &c.Date, &c.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.Internal, op, fmt.Errorf("scan: %w", err))
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, err)
	}
	return out, nil
}

// creditXP adds xp to the owner's counter. The UPDATE takes the row lock, so
// concurrent credits and debits serialize instead of losing updates.
func creditXP(ctx context.Context, tx *sql.Tx, op, owner string, xp int) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE users SET total_xp = total_xp + $1, updated_at = now() WHERE id = $2
	`, xp, owner)
	return checkUserUpdate(op, owner, res, err)
}

// debitXP subtracts xp from the owner's counter, never going below zero.
func debitXP(ctx context.Context, tx *sql.Tx, op, owner string, xp int) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE users SET total_xp = GREATEST(total_xp - $1, 0), updated_at = now() WHERE id = $2
	`, xp, owner)
	return checkUserUpdate(op, owner, res, err)
}

func checkUserUpdate(op, owner string, res sql.Result, err error) error {
	if err != nil {
		return fmt.Errorf("update user xp: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user xp: %w", err)
	}
	if n == 0 {
		return apperr.New(apperr.NotFound, op, "user not found").WithOwner(owner)
	}
	return nil
}

// classify keeps already classified errors and turns anything else into an
// Internal error carrying the operation context.
func classify(op, owner, id string, err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	return &apperr.Error{Kind: apperr.Internal, Op: op, Owner: owner, ID: id, Err: err}
}
