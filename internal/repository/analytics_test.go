package repository

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/habitxp/internal/apperr"
)

func setupAnalytics(t *testing.T) (*PostgresAnalyticsRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresAnalyticsRepository(db), mock
}

func TestCompletionFacts_ExcludesHabits(t *testing.T) {
	repo, mock := setupAnalytics(t)

	cat := "Health"
	mock.ExpectQuery(regexp.QuoteMeta(`AND NOT (c.habit_id = ANY($4::uuid[])) ORDER BY c.date ASC`)).
		WithArgs(testOwner, "2024-01-01", "2024-01-31", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"habit_id", "date", "xp_value", "category_name"}).
			AddRow(testHabit, day("2024-01-02"), 10, cat).
			AddRow(testHabit, day("2024-01-03"), 10, nil))

	facts, err := repo.CompletionFacts(context.Background(), testOwner, day("2024-01-01"), day("2024-01-31"), nil)
	require.NoError(t, err)
	require.Len(t, facts, 2)
	require.NotNil(t, facts[0].CategoryName)
	assert.Equal(t, "Health", *facts[0].CategoryName)
	assert.Nil(t, facts[1].CategoryName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIDArray_NeverNull(t *testing.T) {
	v, err := idArray(nil).(driver.Valuer).Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", v)
}

func TestCategoryTotals_WithRange(t *testing.T) {
	repo, mock := setupAnalytics(t)

	from, to := day("2024-01-01"), day("2024-01-31")
	mock.ExpectQuery(regexp.QuoteMeta(`AND c.date BETWEEN $2 AND $3 GROUP BY hc.id, hc.name ORDER BY total_xp DESC, hc.name ASC`)).
		WithArgs(testOwner, "2024-01-01", "2024-01-31").
		WillReturnRows(sqlmock.NewRows([]string{"category_id", "name", "total_xp", "completion_count"}).
			AddRow("c1", "Health", 150, 6).
			AddRow("c2", "Work", 0, 0))

	totals, err := repo.CategoryTotals(context.Background(), testOwner, &from, &to)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, 150, totals[0].TotalXP)
	assert.Equal(t, 6, totals[0].CompletionCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryTotals_AllTime(t *testing.T) {
	repo, mock := setupAnalytics(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM habit_categories hc`)).
		WithArgs(testOwner).
		WillReturnRows(sqlmock.NewRows([]string{"category_id", "name", "total_xp", "completion_count"}))

	totals, err := repo.CategoryTotals(context.Background(), testOwner, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, totals)
	assert.NotNil(t, totals)
}

func TestUserTotals_NotFound(t *testing.T) {
	repo, mock := setupAnalytics(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users u WHERE u.id = $1`)).
		WithArgs(testOwner).
		WillReturnRows(sqlmock.NewRows([]string{"total_xp", "habits_count", "total_completions"}))

	_, err := repo.UserTotals(context.Background(), testOwner)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGridHabits_Ordered(t *testing.T) {
	repo, mock := setupAnalytics(t)

	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY name, id`)).
		WithArgs(testOwner, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "color"}).
			AddRow("h1", "Read", "#111111").
			AddRow("h2", "Run", "#222222"))

	habits, err := repo.GridHabits(context.Background(), testOwner, []string{"h3"})
	require.NoError(t, err)
	require.Len(t, habits, 2)
	assert.Equal(t, "Read", habits[0].Name)
}

func TestHabitHistory(t *testing.T) {
	repo, mock := setupAnalytics(t)

	last := day("2024-01-15")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) AS completion_count, MAX(date) AS last_date`)).
		WithArgs(testOwner, testHabit).
		WillReturnRows(sqlmock.NewRows([]string{"completion_count", "last_date"}).AddRow(3, last))
	mock.ExpectQuery(regexp.QuoteMeta(`AND date >= $3 ORDER BY date DESC`)).
		WithArgs(testOwner, testHabit, "2023-12-16").
		WillReturnRows(sqlmock.NewRows([]string{"date"}).
			AddRow(day("2024-01-15")).
			AddRow(day("2024-01-14")))

	h, err := repo.HabitHistory(context.Background(), testOwner, testHabit, day("2023-12-16"))
	require.NoError(t, err)
	assert.Equal(t, 3, h.Count)
	require.NotNil(t, h.LastDate)
	assert.True(t, h.LastDate.Equal(last))
	assert.Len(t, h.RecentDates, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetHabit_NotFound(t *testing.T) {
	repo, mock := setupAnalytics(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM habits WHERE id = $1 AND user_id = $2`)).
		WithArgs(testHabit, testOwner).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetHabit(context.Background(), testOwner, testHabit)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCountHabits(t *testing.T) {
	repo, mock := setupAnalytics(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM habits WHERE user_id = $1`)).
		WithArgs(testOwner).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	n, err := repo.CountHabits(context.Background(), testOwner)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}
