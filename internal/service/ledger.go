// Package service holds the business rules of habitxp: input validation,
// XP bookkeeping and analytics, delegating persistence to repository
// interfaces.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/habitxp/internal/apperr"
	"github.com/atinyakov/habitxp/internal/metrics"
	"github.com/atinyakov/habitxp/internal/models"
)

// LedgerRepository defines the persistence operations of the completion
// ledger. AddCompletion and RemoveCompletion must change the completion row
// and the owner's total_xp in a single transaction.
type LedgerRepository interface {
	// AddCompletion stores the completion and returns it with the XP credited.
	AddCompletion(ctx context.Context, owner, habitID string, date time.Time) (*models.Completion, int, error)
	// RemoveCompletion deletes the completion and returns the XP debited.
	RemoveCompletion(ctx context.Context, owner, completionID string) (int, error)
	ListCompletions(ctx context.Context, owner string, from, to *time.Time) ([]models.Completion, error)
	HabitCompletions(ctx context.Context, owner, habitID string) ([]models.Completion, error)
}

// LedgerService records and revokes habit completions.
type LedgerService struct {
	repo LedgerRepository
	log  *zap.Logger
}

// NewLedgerService constructs a LedgerService over repo.
func NewLedgerService(repo LedgerRepository, log *zap.Logger) *LedgerService {
	return &LedgerService{repo: repo, log: log}
}

// AddCompletion marks habitID done by owner on date (YYYY-MM-DD) and credits
// the habit's XP. A repeated (owner, habit, date) fails with apperr.Duplicate.
func (s *LedgerService) AddCompletion(ctx context.Context, owner, habitID, date string) (*models.Completion, error) {
	const op = "AddCompletion"
	if err := checkID(op, "owner", owner); err != nil {
		return nil, err
	}
	if err := checkID(op, "habitId", habitID); err != nil {
		return nil, err
	}
	day, err := parseDate(op, "date", date)
	if err != nil {
		return nil, err
	}

	c, xp, err := s.repo.AddCompletion(ctx, owner, habitID, day)
	if err != nil {
		logFailure(s.log, op, err, zap.String("owner", owner), zap.String("habit_id", habitID), zap.String("date", date))
		return nil, err
	}

	metrics.RecordXPAwarded("habit", xp)
	s.log.Info("habit completed",
		zap.String("owner", owner),
		zap.String("habit_id", habitID),
		zap.String("date", date),
		zap.Int("xp", xp),
	)
	return c, nil
}

// RemoveCompletion deletes the completion and debits the XP of its habit.
func (s *LedgerService) RemoveCompletion(ctx context.Context, completionID, owner string) (bool, error) {
	const op = "RemoveCompletion"
	if err := checkID(op, "owner", owner); err != nil {
		return false, err
	}
	if err := checkID(op, "completionId", completionID); err != nil {
		return false, err
	}

	xp, err := s.repo.RemoveCompletion(ctx, owner, completionID)
	if err != nil {
		logFailure(s.log, op, err, zap.String("owner", owner), zap.String("completion_id", completionID))
		return false, err
	}

	metrics.RecordXPRevoked("habit", xp)
	s.log.Info("habit completion removed",
		zap.String("owner", owner),
		zap.String("completion_id", completionID),
		zap.Int("xp", xp),
	)
	return true, nil
}

// ListCompletions returns the owner's completions, newest first. Either end
// of the range may be empty.
func (s *LedgerService) ListCompletions(ctx context.Context, owner, startDate, endDate string) ([]models.Completion, error) {
	const op = "ListCompletions"
	if err := checkID(op, "owner", owner); err != nil {
		return nil, err
	}
	from, to, err := parseRange(op, startDate, endDate, false)
	if err != nil {
		return nil, err
	}
	out, err := s.repo.ListCompletions(ctx, owner, from, to)
	if err != nil {
		logFailure(s.log, op, err, zap.String("owner", owner))
	}
	return out, err
}

// HabitCompletions returns the completions of one owned habit.
func (s *LedgerService) HabitCompletions(ctx context.Context, owner, habitID string) ([]models.Completion, error) {
	const op = "HabitCompletions"
	if err := checkID(op, "owner", owner); err != nil {
		return nil, err
	}
	if err := checkID(op, "habitId", habitID); err != nil {
		return nil, err
	}
	out, err := s.repo.HabitCompletions(ctx, owner, habitID)
	if err != nil {
		logFailure(s.log, op, err, zap.String("owner", owner), zap.String("habit_id", habitID))
	}
	return out, err
}

// logFailure records err at debug level and counts it by kind. Internal
// errors are logged at error level once, by the HTTP layer that reports them.
func logFailure(log *zap.Logger, op string, err error, fields ...zap.Field) {
	kind := apperr.KindOf(err)
	fields = append(fields, zap.String("op", op), zap.String("kind", string(kind)), zap.Error(err))
	log.Debug("operation failed", fields...)
	metrics.RecordFailure(op, string(kind))
}
