package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atinyakov/habitxp/internal/apperr"
	"github.com/atinyakov/habitxp/internal/models"
)

const testOwner = "0b8f2a64-7c1e-4a4e-9d55-3f3c2b7f1a01"

// memOneShot completes goals under one lock, like the row lock the store
// takes before checking is_completed.
type memOneShot struct {
	mu      sync.Mutex
	goals   map[string]*models.Goal
	tasks   []*models.DailyTask
	totalXP int
}

func (m *memOneShot) Complete(_ context.Context, kind models.OneShotKind, owner, id string, now time.Time) (*models.CompletionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.goals[id]
	if kind != models.KindGoal || !ok || g.UserID != owner {
		return nil, apperr.New(apperr.NotFound, "CompleteGoal", "goal not found")
	}
	if g.IsCompleted {
		return nil, apperr.New(apperr.AlreadyCompleted, "CompleteGoal", "goal already completed")
	}
	g.IsCompleted = true
	g.CompletedAt = &now
	m.totalXP += g.XPValue
	return &models.CompletionResult{ID: id, XPAwarded: g.XPValue, NewTotalXP: m.totalXP}, nil
}

func (m *memOneShot) CreateGoal(_ context.Context, g *models.Goal) error {
	g.ID = uuid.NewString()
	m.goals[g.ID] = g
	return nil
}

func (m *memOneShot) ListGoals(context.Context, string, string) ([]models.Goal, error) {
	return nil, nil
}

func (m *memOneShot) CreateTask(_ context.Context, t *models.DailyTask) error {
	for _, existing := range m.tasks {
		if existing.UserID == t.UserID && existing.Name == t.Name && existing.TaskDate.Equal(t.TaskDate.Time) {
			return apperr.New(apperr.Duplicate, "CreateTask", "task with this name already exists for this date")
		}
	}
	t.ID = uuid.NewString()
	m.tasks = append(m.tasks, t)
	return nil
}

func (m *memOneShot) ListTasks(context.Context, string, *time.Time) ([]models.DailyTask, error) {
	return nil, nil
}

func newTestOneShot() (*OneShotService, *memOneShot) {
	store := &memOneShot{goals: map[string]*models.Goal{}, totalXP: 100}
	svc := NewOneShotService(store, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC) }
	return svc, store
}

func TestCompleteGoal_Twice(t *testing.T) {
	svc, _ := newTestOneShot()
	ctx := context.Background()

	g, err := svc.CreateGoal(ctx, testOwner, GoalInput{Name: "Ship it", XPValue: 500})
	require.NoError(t, err)

	res, err := svc.CompleteGoal(ctx, g.ID, testOwner)
	require.NoError(t, err)
	assert.Equal(t, models.CompletionResult{ID: g.ID, XPAwarded: 500, NewTotalXP: 600}, *res)

	_, err = svc.CompleteGoal(ctx, g.ID, testOwner)
	assert.ErrorIs(t, err, apperr.ErrAlreadyCompleted)

	_, err = svc.CompleteGoal(ctx, g.ID, testOwner)
	assert.ErrorIs(t, err, apperr.ErrAlreadyCompleted)
}

func TestCompleteGoal_ConcurrentCreditsOnce(t *testing.T) {
	svc, store := newTestOneShot()
	ctx := context.Background()
	g, err := svc.CreateGoal(ctx, testOwner, GoalInput{Name: "Ship it", XPValue: 250})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.CompleteGoal(ctx, g.ID, testOwner)
		}()
	}
	wg.Wait()

	assert.Equal(t, 350, store.totalXP)
}

func TestCompleteGoal_OtherOwner(t *testing.T) {
	svc, _ := newTestOneShot()
	ctx := context.Background()
	g, err := svc.CreateGoal(ctx, testOwner, GoalInput{Name: "Ship it", XPValue: 10})
	require.NoError(t, err)

	_, err = svc.CompleteGoal(ctx, g.ID, uuid.NewString())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateGoal_Validation(t *testing.T) {
	svc, _ := newTestOneShot()
	ctx := context.Background()
	bad := "31-12-2024"

	cases := []GoalInput{
		{Name: "", XPValue: 10},
		{Name: "x", XPValue: 0},
		{Name: "x", XPValue: 1001},
		{Name: "x", XPValue: 10, DueDate: &bad},
	}
	for _, in := range cases {
		_, err := svc.CreateGoal(ctx, testOwner, in)
		assert.ErrorIs(t, err, apperr.ErrInvalidInput, "%+v", in)
	}

	g, err := svc.CreateGoal(ctx, testOwner, GoalInput{Name: "x", XPValue: 1000})
	require.NoError(t, err)
	assert.Nil(t, g.DueDate)
}

func TestCreateTask_DefaultsToTodayUTC(t *testing.T) {
	svc, _ := newTestOneShot()

	task, err := svc.CreateTask(context.Background(), testOwner, TaskInput{Name: "Stretch", XPValue: 20})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-09", task.TaskDate.String())
}

func TestCreateTask_DuplicateSameDay(t *testing.T) {
	svc, _ := newTestOneShot()
	ctx := context.Background()
	in := TaskInput{Name: "Stretch", XPValue: 20, TaskDate: "2024-03-10"}

	_, err := svc.CreateTask(ctx, testOwner, in)
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, testOwner, in)
	assert.ErrorIs(t, err, apperr.ErrDuplicate)

	in.TaskDate = "2024-03-11"
	_, err = svc.CreateTask(ctx, testOwner, in)
	assert.NoError(t, err)
}

func TestCreateTask_XPBounds(t *testing.T) {
	svc, _ := newTestOneShot()

	_, err := svc.CreateTask(context.Background(), testOwner, TaskInput{Name: "Big", XPValue: 201})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestListGoals_BadStatus(t *testing.T) {
	svc, _ := newTestOneShot()

	_, err := svc.ListGoals(context.Background(), testOwner, "archived")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}
