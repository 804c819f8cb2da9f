package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/atinyakov/habitxp/internal/apperr"
	"github.com/atinyakov/habitxp/internal/calendar"
	"github.com/atinyakov/habitxp/internal/models"
)

// PostgresAnalyticsRepository runs the read-only queries behind reports.
// It takes no locks; a slightly stale snapshot is acceptable.
type PostgresAnalyticsRepository struct {
	DB *sqlx.DB
}

// NewPostgresAnalyticsRepository wraps db for struct scanning.
func NewPostgresAnalyticsRepository(db *sql.DB) *PostgresAnalyticsRepository {
	return &PostgresAnalyticsRepository{DB: sqlx.NewDb(db, "postgres")}
}

// CountHabits returns how many habits the owner has.
func (r *PostgresAnalyticsRepository) CountHabits(ctx context.Context, owner string) (int, error) {
	var n int
	if err := r.DB.GetContext(ctx, &n, `SELECT COUNT(*) FROM habits WHERE user_id = $1`, owner); err != nil {
		return 0, apperr.Wrap(apperr.Internal, "CountHabits", err)
	}
	return n, nil
}

// GridHabits lists the owner's habits except the excluded ids, ordered by
// name then id.
func (r *PostgresAnalyticsRepository) GridHabits(ctx context.Context, owner string, excluded []string) ([]models.CalendarHabit, error) {
	habits := []models.CalendarHabit{}
	err := r.DB.SelectContext(ctx, &habits, `
		SELECT id, name, color FROM habits
		WHERE user_id = $1 AND NOT (id = ANY($2::uuid[]))
		ORDER BY name, id
	`, owner, idArray(excluded))
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "GridHabits", err)
	}
	return habits, nil
}

// CompletionFacts returns every completion of owner in [from, to] joined with
// its habit XP and category name, skipping excluded habits. Ordered by date.
func (r *PostgresAnalyticsRepository) CompletionFacts(ctx context.Context, owner string, from, to time.Time, excluded []string) ([]models.CompletionFact, error) {
	facts := []models.CompletionFact{}
	err := r.DB.SelectContext(ctx, &facts, `
		SELECT c.habit_id, c.date, h.xp_value, hc.name AS category_name
		FROM completions c
		JOIN habits h ON h.id = c.habit_id
		LEFT JOIN habit_categories hc ON hc.id = h.category_id
		WHERE c.user_id = $1
		  AND c.date BETWEEN $2 AND $3
		  AND NOT (c.habit_id = ANY($4::uuid[]))
		ORDER BY c.date ASC
	`, owner, calendar.Format(from), calendar.Format(to), idArray(excluded))
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "CompletionFacts", err)
	}
	return facts, nil
}

// CategoryTotals aggregates owner XP and completion counts per category,
// optionally within [from, to]. Every category is listed, including those
// without completions. Ordered by XP descending, then name.
func (r *PostgresAnalyticsRepository) CategoryTotals(ctx context.Context, owner string, from, to *time.Time) ([]models.CategoryTotal, error) {
	args := []any{owner}
	dateFilter := ""
	if from != nil && to != nil {
		dateFilter = "AND c.date BETWEEN $2 AND $3"
		args = append(args, calendar.Format(*from), calendar.Format(*to))
	}

	query := fmt.Sprintf(`
		SELECT
			hc.id AS category_id,
			hc.name,
			COALESCE(SUM(h.xp_value) FILTER (WHERE c.id IS NOT NULL), 0) AS total_xp,
			COUNT(c.id) AS completion_count
		FROM habit_categories hc
		LEFT JOIN habits h
			ON h.category_id = hc.id
			AND h.user_id = $1
		LEFT JOIN completions c
			ON c.habit_id = h.id
			AND c.user_id = $1
			%s
		GROUP BY hc.id, hc.name
		ORDER BY total_xp DESC, hc.name ASC
	`, dateFilter)

	totals := []models.CategoryTotal{}
	if err := r.DB.SelectContext(ctx, &totals, query, args...); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "CategoryTotals", err)
	}
	return totals, nil
}

// UserTotals returns the owner's XP counter and activity counts.
func (r *PostgresAnalyticsRepository) UserTotals(ctx context.Context, owner string) (*models.UserTotals, error) {
	var t models.UserTotals
	err := r.DB.GetContext(ctx, &t, `
		SELECT
			u.total_xp,
			(SELECT COUNT(*) FROM habits WHERE user_id = u.id) AS habits_count,
			(SELECT COUNT(*) FROM completions WHERE user_id = u.id) AS total_completions
		FROM users u
		WHERE u.id = $1
	`, owner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.NotFound, "UserTotals", "user not found").WithOwner(owner)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "UserTotals", err)
	}
	return &t, nil
}

// GetHabit fetches one owned habit.
func (r *PostgresAnalyticsRepository) GetHabit(ctx context.Context, owner, habitID string) (*models.Habit, error) {
	var h models.Habit
	err := r.DB.GetContext(ctx, &h, `
		SELECT id, user_id, name, description, xp_value, color, category_id, created_at
		FROM habits WHERE id = $1 AND user_id = $2
	`, habitID, owner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.NotFound, "GetHabit", "habit not found").WithOwner(owner).WithID(habitID)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "GetHabit", err)
	}
	return &h, nil
}

// HabitHistory returns the completion count, the latest date and the dates on
// or after since for one habit of owner.
func (r *PostgresAnalyticsRepository) HabitHistory(ctx context.Context, owner, habitID string, since time.Time) (*models.HabitHistory, error) {
	const op = "HabitHistory"

	var h models.HabitHistory
	err := r.DB.GetContext(ctx, &h, `
		SELECT COUNT(*) AS completion_count, MAX(date) AS last_date
		FROM completions WHERE user_id = $1 AND habit_id = $2
	`, owner, habitID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, err)
	}

	h.RecentDates = []time.Time{}
	err = r.DB.SelectContext(ctx, &h.RecentDates, `
		SELECT date FROM completions
		WHERE user_id = $1 AND habit_id = $2 AND date >= $3
		ORDER BY date DESC
	`, owner, habitID, calendar.Format(since))
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, err)
	}
	return &h, nil
}

// idArray never returns a NULL array, so NOT (x = ANY(...)) keeps every row
// when nothing is excluded.
func idArray(ids []string) any {
	if ids == nil {
		ids = []string{}
	}
	return pq.Array(ids)
}
