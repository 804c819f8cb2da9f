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

func setupOneShot(t *testing.T) (*PostgresOneShotRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	return NewPostgresOneShotRepository(db), mock, func() { db.Close() }
}

func TestCompleteGoal_Success(t *testing.T) {
	repo, mock, cleanup := setupOneShot(t)
	defer cleanup()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT xp_value, is_completed FROM goals WHERE id = $1 AND user_id = $2 FOR UPDATE`)).
		WithArgs("g1", testOwner).
		WillReturnRows(sqlmock.NewRows([]string{"xp_value", "is_completed"}).AddRow(300, false))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE goals SET is_completed = TRUE, completed_at = $2 WHERE id = $1`)).
		WithArgs("g1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE users SET total_xp = total_xp + $1, updated_at = now() WHERE id = $2 RETURNING total_xp`)).
		WithArgs(300, testOwner).
		WillReturnRows(sqlmock.NewRows([]string{"total_xp"}).AddRow(1300))
	mock.ExpectCommit()

	res, err := repo.Complete(context.Background(), models.KindGoal, testOwner, "g1", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *res != (models.CompletionResult{ID: "g1", XPAwarded: 300, NewTotalXP: 1300}) {
		t.Errorf("unexpected result: %+v", res)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCompleteTask_AlreadyCompleted(t *testing.T) {
	repo, mock, cleanup := setupOneShot(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT xp_value, is_completed FROM daily_tasks WHERE id = $1 AND user_id = $2 FOR UPDATE`)).
		WithArgs("t1", testOwner).
		WillReturnRows(sqlmock.NewRows([]string{"xp_value", "is_completed"}).AddRow(50, true))
	mock.ExpectRollback()

	_, err := repo.Complete(context.Background(), models.KindTask, testOwner, "t1", time.Now())
	if !errors.Is(err, apperr.ErrAlreadyCompleted) {
		t.Fatalf("expected already completed, got %v", err)
	}
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Op != "CompleteTask" {
		t.Errorf("expected CompleteTask op, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCompleteGoal_NotFound(t *testing.T) {
	repo, mock, cleanup := setupOneShot(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM goals WHERE id = $1 AND user_id = $2 FOR UPDATE`)).
		WithArgs("g1", testOwner).
		WillReturnRows(sqlmock.NewRows([]string{"xp_value", "is_completed"}))
	mock.ExpectRollback()

	_, err := repo.Complete(context.Background(), models.KindGoal, testOwner, "g1", time.Now())
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestComplete_UnknownKind(t *testing.T) {
	repo, mock, cleanup := setupOneShot(t)
	defer cleanup()

	_, err := repo.Complete(context.Background(), models.OneShotKind("quest"), testOwner, "q1", time.Now())
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected queries: %v", err)
	}
}

func TestCreateTask_Duplicate(t *testing.T) {
	repo, mock, cleanup := setupOneShot(t)
	defer cleanup()

	task := &models.DailyTask{UserID: testOwner, Name: "Inbox zero", XPValue: 20, TaskDate: models.NewDate(day("2024-03-01"))}
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO daily_tasks (id, user_id, name, description, xp_value, task_date)`)).
		WithArgs(sqlmock.AnyArg(), testOwner, "Inbox zero", nil, 20, "2024-03-01").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.CreateTask(context.Background(), task)
	if !errors.Is(err, apperr.ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
}

func TestCreateGoal_Success(t *testing.T) {
	repo, mock, cleanup := setupOneShot(t)
	defer cleanup()

	due := models.NewDate(day("2024-12-31"))
	goal := &models.Goal{UserID: testOwner, Name: "Run a marathon", XPValue: 1000, DueDate: &due}
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO goals (id, user_id, name, description, xp_value, category_id, due_date)`)).
		WithArgs(sqlmock.AnyArg(), testOwner, "Run a marathon", nil, 1000, nil, "2024-12-31").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	if err := repo.CreateGoal(context.Background(), goal); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if goal.ID == "" || !goal.CreatedAt.Equal(created) {
		t.Errorf("expected id and created_at to be filled, got %+v", goal)
	}
}

func TestListGoals_ActiveFilter(t *testing.T) {
	repo, mock, cleanup := setupOneShot(t)
	defer cleanup()

	cols := []string{"id", "user_id", "name", "description", "xp_value", "category_id", "due_date", "is_completed", "completed_at", "created_at"}
	mock.ExpectQuery(regexp.QuoteMeta(`FROM goals WHERE user_id = $1 AND is_completed = FALSE ORDER BY created_at DESC`)).
		WithArgs(testOwner).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("g1", testOwner, "Read 12 books", nil, 500, nil, day("2024-12-31"), false, nil, time.Now()).
			AddRow("g2", testOwner, "Learn Go", nil, 200, nil, nil, false, nil, time.Now()))

	goals, err := repo.ListGoals(context.Background(), testOwner, "active")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(goals) != 2 {
		t.Fatalf("expected 2 goals, got %d", len(goals))
	}
	if goals[0].DueDate == nil || goals[0].DueDate.String() != "2024-12-31" {
		t.Errorf("expected due date on first goal, got %+v", goals[0].DueDate)
	}
	if goals[1].DueDate != nil {
		t.Errorf("expected no due date on second goal, got %v", goals[1].DueDate)
	}
}

func TestListTasks_ForDay(t *testing.T) {
	repo, mock, cleanup := setupOneShot(t)
	defer cleanup()

	d := day("2024-03-01")
	cols := []string{"id", "user_id", "name", "description", "xp_value", "task_date", "is_completed", "completed_at", "created_at"}
	mock.ExpectQuery(regexp.QuoteMeta(`FROM daily_tasks WHERE user_id = $1 AND task_date = $2`)).
		WithArgs(testOwner, "2024-03-01").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("t1", testOwner, "Stretch", nil, 15, d, true, time.Now(), time.Now()))

	tasks, err := repo.ListTasks(context.Background(), testOwner, &d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 1 || !tasks[0].IsCompleted || tasks[0].CompletedAt == nil {
		t.Errorf("unexpected tasks: %+v", tasks)
	}
}
