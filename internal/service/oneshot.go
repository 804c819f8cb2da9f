package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/habitxp/internal/apperr"
	"github.com/atinyakov/habitxp/internal/calendar"
	"github.com/atinyakov/habitxp/internal/metrics"
	"github.com/atinyakov/habitxp/internal/models"
)

// OneShotRepository defines the persistence operations for goals and daily
// tasks. Complete must lock the entity row before checking is_completed and
// credit XP in the same transaction.
type OneShotRepository interface {
	Complete(ctx context.Context, kind models.OneShotKind, owner, id string, now time.Time) (*models.CompletionResult, error)
	CreateGoal(ctx context.Context, g *models.Goal) error
	ListGoals(ctx context.Context, owner, status string) ([]models.Goal, error)
	CreateTask(ctx context.Context, t *models.DailyTask) error
	ListTasks(ctx context.Context, owner string, day *time.Time) ([]models.DailyTask, error)
}

// GoalInput is the payload for creating a goal.
type GoalInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	XPValue     int     `json:"xpValue"`
	CategoryID  *string `json:"categoryId"`
	DueDate     *string `json:"dueDate"`
}

// TaskInput is the payload for creating a daily task. An empty TaskDate
// means today (UTC).
type TaskInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	XPValue     int     `json:"xpValue"`
	TaskDate    string  `json:"taskDate"`
}

// OneShotService manages goals and daily tasks. Completion is irreversible.
type OneShotService struct {
	repo OneShotRepository
	log  *zap.Logger
	now  func() time.Time
}

// NewOneShotService constructs a OneShotService over repo.
func NewOneShotService(repo OneShotRepository, log *zap.Logger) *OneShotService {
	return &OneShotService{repo: repo, log: log, now: time.Now}
}

// CompleteGoal completes the goal and credits its XP once.
func (s *OneShotService) CompleteGoal(ctx context.Context, id, owner string) (*models.CompletionResult, error) {
	return s.complete(ctx, models.KindGoal, "CompleteGoal", id, owner)
}

// CompleteTask completes the daily task and credits its XP once.
func (s *OneShotService) CompleteTask(ctx context.Context, id, owner string) (*models.CompletionResult, error) {
	return s.complete(ctx, models.KindTask, "CompleteTask", id, owner)
}

func (s *OneShotService) complete(ctx context.Context, kind models.OneShotKind, op, id, owner string) (*models.CompletionResult, error) {
	if err := checkID(op, "owner", owner); err != nil {
		return nil, err
	}
	if err := checkID(op, "id", id); err != nil {
		return nil, err
	}

	res, err := s.repo.Complete(ctx, kind, owner, id, s.now().UTC())
	if err != nil {
		logFailure(s.log, op, err, zap.String("owner", owner), zap.String("id", id))
		return nil, err
	}

	metrics.RecordXPAwarded(string(kind), res.XPAwarded)
	s.log.Info(string(kind)+" completed",
		zap.String("owner", owner),
		zap.String("id", id),
		zap.Int("xp", res.XPAwarded),
		zap.Int("total_xp", res.NewTotalXP),
	)
	return res, nil
}

// CreateGoal validates in and stores a new goal for owner.
func (s *OneShotService) CreateGoal(ctx context.Context, owner string, in GoalInput) (*models.Goal, error) {
	const op = "CreateGoal"
	if err := checkID(op, "owner", owner); err != nil {
		return nil, err
	}
	if err := checkRequired(op, "name", in.Name); err != nil {
		return nil, err
	}
	if err := checkXP(op, in.XPValue, models.MaxGoalXP); err != nil {
		return nil, err
	}
	if in.CategoryID != nil {
		if err := checkID(op, "categoryId", *in.CategoryID); err != nil {
			return nil, err
		}
	}

	g := &models.Goal{
		UserID:      owner,
		Name:        in.Name,
		Description: in.Description,
		XPValue:     in.XPValue,
		CategoryID:  in.CategoryID,
	}
	if in.DueDate != nil && *in.DueDate != "" {
		d, err := parseDate(op, "dueDate", *in.DueDate)
		if err != nil {
			return nil, err
		}
		due := models.NewDate(d)
		g.DueDate = &due
	}

	if err := s.repo.CreateGoal(ctx, g); err != nil {
		logFailure(s.log, op, err, zap.String("owner", owner))
		return nil, err
	}
	return g, nil
}

// ListGoals returns the owner's goals filtered by status: "active",
// "completed" or "" for all.
func (s *OneShotService) ListGoals(ctx context.Context, owner, status string) ([]models.Goal, error) {
	const op = "ListGoals"
	if err := checkID(op, "owner", owner); err != nil {
		return nil, err
	}
	switch status {
	case "", "active", "completed":
	default:
		return nil, apperr.New(apperr.InvalidInput, op, "status must be active or completed")
	}
	out, err := s.repo.ListGoals(ctx, owner, status)
	if err != nil {
		logFailure(s.log, op, err, zap.String("owner", owner))
	}
	return out, err
}

// CreateTask validates in and stores a new daily task for owner. A second
// task with the same name on the same day fails with apperr.Duplicate.
func (s *OneShotService) CreateTask(ctx context.Context, owner string, in TaskInput) (*models.DailyTask, error) {
	const op = "CreateTask"
	if err := checkID(op, "owner", owner); err != nil {
		return nil, err
	}
	if err := checkRequired(op, "name", in.Name); err != nil {
		return nil, err
	}
	if err := checkXP(op, in.XPValue, models.MaxTaskXP); err != nil {
		return nil, err
	}

	day := calendar.Day(s.now().UTC())
	if in.TaskDate != "" {
		d, err := parseDate(op, "taskDate", in.TaskDate)
		if err != nil {
			return nil, err
		}
		day = d
	}

	t := &models.DailyTask{
		UserID:      owner,
		Name:        in.Name,
		Description: in.Description,
		XPValue:     in.XPValue,
		TaskDate:    models.NewDate(day),
	}
	if err := s.repo.CreateTask(ctx, t); err != nil {
		logFailure(s.log, op, err, zap.String("owner", owner), zap.String("date", t.TaskDate.String()))
		return nil, err
	}
	return t, nil
}

// ListTasks returns the owner's tasks, for one day when date is set.
func (s *OneShotService) ListTasks(ctx context.Context, owner, date string) ([]models.DailyTask, error) {
	const op = "ListTasks"
	if err := checkID(op, "owner", owner); err != nil {
		return nil, err
	}
	var day *time.Time
	if date != "" {
		d, err := parseDate(op, "date", date)
		if err != nil {
			return nil, err
		}
		day = &d
	}
	out, err := s.repo.ListTasks(ctx, owner, day)
	if err != nil {
		logFailure(s.log, op, err, zap.String("owner", owner))
	}
	return out, err
}
