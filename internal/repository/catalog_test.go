package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/atinyakov/habitxp/internal/apperr"
	"github.com/atinyakov/habitxp/internal/models"
)

func TestCreateHabit_UnknownCategory(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	defer db.Close()
	repo := NewPostgresCatalogRepository(db)

	cat := "7a1d3c3e-0000-4000-8000-000000000001"
	h := &models.Habit{UserID: testOwner, Name: "Meditate", XPValue: 10, Color: "#00ff00", CategoryID: &cat}
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO habits (id, user_id, name, description, xp_value, color, category_id)`)).
		WithArgs(sqlmock.AnyArg(), testOwner, "Meditate", nil, 10, "#00ff00", cat).
		WillReturnError(&pq.Error{Code: "23503"})

	err = repo.CreateHabit(context.Background(), h)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateCategory_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	defer db.Close()
	repo := NewPostgresCatalogRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO habit_categories (id, name, description) VALUES ($1, $2, $3)`)).
		WithArgs(sqlmock.AnyArg(), "Health", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c := &models.HabitCategory{Name: "Health"}
	if err := repo.CreateCategory(context.Background(), c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ID == "" {
		t.Error("expected category id to be generated")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestListHabits(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	defer db.Close()
	repo := NewPostgresCatalogRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM habits WHERE user_id = $1 ORDER BY created_at DESC`)).
		WithArgs(testOwner).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "description", "xp_value", "color", "category_id", "created_at"}).
			AddRow(testHabit, testOwner, "Read", "20 pages", 15, "#123456", nil, time.Now()))

	habits, err := repo.ListHabits(context.Background(), testOwner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(habits) != 1 || habits[0].Description == nil || *habits[0].Description != "20 pages" {
		t.Errorf("unexpected habits: %+v", habits)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	defer db.Close()
	repo := NewPostgresUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (id, email, name) VALUES ($1, $2, $3)`)).
		WithArgs(sqlmock.AnyArg(), "a@example.com", "Ann").
		WillReturnError(&pq.Error{Code: "23505"})

	err = repo.CreateUser(context.Background(), &models.User{Email: "a@example.com", Name: "Ann"})
	if !errors.Is(err, apperr.ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	defer db.Close()
	repo := NewPostgresUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = $1`)).
		WithArgs(testOwner).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "total_xp", "created_at", "updated_at"}))

	_, err = repo.GetUser(context.Background(), testOwner)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
