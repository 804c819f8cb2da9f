package service

import (
	"context"
	"math"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/habitxp/internal/calendar"
	"github.com/atinyakov/habitxp/internal/models"
	"github.com/atinyakov/habitxp/internal/progression"
	"github.com/atinyakov/habitxp/internal/streak"
)

// AnalyticsRepository defines the read-only queries the reports are built
// from. None of them lock.
type AnalyticsRepository interface {
	CountHabits(ctx context.Context, owner string) (int, error)
	GridHabits(ctx context.Context, owner string, excluded []string) ([]models.CalendarHabit, error)
	CompletionFacts(ctx context.Context, owner string, from, to time.Time, excluded []string) ([]models.CompletionFact, error)
	CategoryTotals(ctx context.Context, owner string, from, to *time.Time) ([]models.CategoryTotal, error)
	UserTotals(ctx context.Context, owner string) (*models.UserTotals, error)
	GetHabit(ctx context.Context, owner, habitID string) (*models.Habit, error)
	HabitHistory(ctx context.Context, owner, habitID string, since time.Time) (*models.HabitHistory, error)
}

// AnalyticsService derives reports from the completion ledger on demand.
type AnalyticsService struct {
	repo     AnalyticsRepository
	log      *zap.Logger
	now      func() time.Time
	user     progression.LinearCurve
	category progression.PowerCurve
}

// NewAnalyticsService constructs an AnalyticsService over repo.
func NewAnalyticsService(repo AnalyticsRepository, log *zap.Logger) *AnalyticsService {
	return &AnalyticsService{repo: repo, log: log, now: time.Now}
}

// monthStats is the per-month aggregate behind insights and comparisons.
type monthStats struct {
	completions int
	activeDays  int
	consistency int
	xp          int
	perDay      map[time.Time]int
	weeks       [6]int
	weekdays    [7]int
}

func aggregate(facts []models.CompletionFact, daysInMonth int) monthStats {
	st := monthStats{perDay: make(map[time.Time]int)}
	for _, f := range facts {
		d := calendar.Day(f.Date)
		st.completions++
		st.xp += f.XPValue
		st.perDay[d]++
		st.weeks[(d.Day()+6)/7]++
		st.weekdays[d.Weekday()]++
	}
	st.activeDays = len(st.perDay)
	st.consistency = roundHalfUp(float64(st.activeDays) / float64(daysInMonth) * 100)
	return st
}

// roundHalfUp rounds to the nearest integer, halves toward +Inf.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// MonthlyInsights summarizes the owner's activity in year/month and compares
// it with the month before.
//
// A perfect day is a day on which every habit of the owner was completed.
// An owner without habits has no perfect days.
func (s *AnalyticsService) MonthlyInsights(ctx context.Context, owner string, year, month int) (*models.MonthlyInsights, error) {
	const op = "MonthlyInsights"
	if err := checkID(op, "owner", owner); err != nil {
		return nil, err
	}
	m, err := parseMonth(op, year, month)
	if err != nil {
		return nil, err
	}

	habits, err := s.repo.CountHabits(ctx, owner)
	if err != nil {
		logFailure(s.log, op, err, zap.String("owner", owner))
		return nil, err
	}
	cur, err := s.repo.CompletionFacts(ctx, owner, m.Start(), m.End(), nil)
	if err != nil {
		logFailure(s.log, op, err, zap.String("owner", owner))
		return nil, err
	}
	cs := aggregate(cur, m.Days())

	// January of year 1 is compared against an empty month.
	ps := aggregate(nil, m.Days())
	if m.HasPrevious() {
		pm := m.Previous()
		prev, err := s.repo.CompletionFacts(ctx, owner, pm.Start(), pm.End(), nil)
		if err != nil {
			logFailure(s.log, op, err, zap.String("owner", owner))
			return nil, err
		}
		ps = aggregate(prev, pm.Days())
	}

	out := &models.MonthlyInsights{
		Month:            m.Label(),
		TotalDays:        m.Days(),
		ActiveDays:       cs.activeDays,
		TotalCompletions: cs.completions,
		ConsistencyRate:  cs.consistency,
		MonthComparison: models.MonthComparison{
			XPChangePercent:   percentChange(ps.xp, cs.xp),
			CompletionChange:  cs.completions - ps.completions,
			ConsistencyChange: cs.consistency - ps.consistency,
		},
	}

	if habits > 0 {
		for _, n := range cs.perDay {
			if n == habits {
				out.PerfectDays++
			}
		}
	}

	if cs.completions > 0 {
		week := 1
		for w := 2; w < len(cs.weeks); w++ {
			if cs.weeks[w] > cs.weeks[week] {
				week = w
			}
		}
		label := "Week " + strconv.Itoa(week)
		out.WeeklyPeak = &label

		wd := 0
		for d := 1; d < len(cs.weekdays); d++ {
			if cs.weekdays[d] > cs.weekdays[wd] {
				wd = d
			}
		}
		name := time.Weekday(wd).String()
		out.MostActiveWeekday = &name
		out.MostActiveWeekdayNumber = &wd
	}

	return out, nil
}

// percentChange is the rounded change from prev to cur in percent. Growth
// from nothing counts as 100 percent.
func percentChange(prev, cur int) int {
	if prev == 0 {
		if cur > 0 {
			return 100
		}
		return 0
	}
	return roundHalfUp(float64(cur-prev) / float64(prev) * 100)
}

// MonthlySummary recaps year/month for the owner, leaving out the excluded
// habits everywhere.
func (s *AnalyticsService) MonthlySummary(ctx context.Context, owner string, year, month int, excluded []string) (*models.MonthlySummary, error) {
	const op = "MonthlySummary"
	if err := checkID(op, "owner", owner); err != nil {
		return nil, err
	}
	m, err := parseMonth(op, year, month)
	if err != nil {
		return nil, err
	}
	if err := checkIDs(op, "exclude", excluded); err != nil {
		return nil, err
	}

	facts, err := s.repo.CompletionFacts(ctx, owner, m.Start(), m.End(), excluded)
	if err != nil {
		logFailure(s.log, op, err, zap.String("owner", owner))
		return nil, err
	}
	habits, err := s.repo.GridHabits(ctx, owner, excluded)
	if err != nil {
		logFailure(s.log, op, err, zap.String("owner", owner))
		return nil, err
	}

	out := &models.MonthlySummary{Month: m.Label(), HabitGrid: make([]models.HabitGridRow, 0, len(habits))}

	byCategory := make(map[string]int)
	done := make(map[string]map[string]bool)
	dates := make([]time.Time, 0, len(facts))
	for _, f := range facts {
		out.TotalXP += f.XPValue
		if f.CategoryName != nil {
			byCategory[*f.CategoryName] += f.XPValue
		}
		if done[f.HabitID] == nil {
			done[f.HabitID] = make(map[string]bool)
		}
		done[f.HabitID][calendar.Format(f.Date)] = true
		dates = append(dates, f.Date)
	}
	out.StrongestCategory = strongest(byCategory)
	out.LongestStreak = streak.Longest(streak.Normalize(dates))

	monthDates := m.Dates()
	for _, h := range habits {
		row := models.HabitGridRow{HabitID: h.ID, HabitName: h.Name, Days: make(map[string]bool, len(monthDates))}
		for _, d := range monthDates {
			key := calendar.Format(d)
			row.Days[key] = done[h.ID][key]
		}
		out.HabitGrid = append(out.HabitGrid, row)
	}

	return out, nil
}

// strongest returns the category with the most XP, ties going to the
// alphabetically first name, or nil when there is none.
func strongest(xpByName map[string]int) *string {
	var (
		best   string
		bestXP int
		found  bool
	)
	for name, xp := range xpByName {
		if !found || xp > bestXP || (xp == bestXP && name < best) {
			best, bestXP, found = name, xp, true
		}
	}
	if !found {
		return nil
	}
	return &best
}

// CategoryXPReport ranks categories by the XP of the owner's completions,
// all-time or within [startDate, endDate]. Levels use the power curve.
func (s *AnalyticsService) CategoryXPReport(ctx context.Context, owner, startDate, endDate string) (*models.CategoryXPReport, error) {
	const op = "CategoryXPReport"
	if err := checkID(op, "owner", owner); err != nil {
		return nil, err
	}
	from, to, err := parseRange(op, startDate, endDate, true)
	if err != nil {
		return nil, err
	}

	totals, err := s.repo.CategoryTotals(ctx, owner, from, to)
	if err != nil {
		logFailure(s.log, op, err, zap.String("owner", owner))
		return nil, err
	}

	out := &models.CategoryXPReport{Categories: make([]models.CategoryXP, 0, len(totals))}
	for _, t := range totals {
		p := s.category.Progress(t.TotalXP)
		out.Categories = append(out.Categories, models.CategoryXP{
			CategoryID:         t.CategoryID,
			Name:               t.Name,
			TotalXP:            t.TotalXP,
			CompletionCount:    t.CompletionCount,
			Level:              p.Level,
			Rank:               string(progression.RankFor(p.Level)),
			XPIntoLevel:        p.XPIntoLevel,
			XPForNextLevel:     p.XPForNextLevel,
			ProgressPercentage: p.ProgressPercentage,
		})
		if out.StrongestCategory == nil && t.TotalXP > 0 {
			name := t.Name
			out.StrongestCategory = &name
		}
	}
	return out, nil
}

// Calendar lays out the owner's completions in year/month day by day.
func (s *AnalyticsService) Calendar(ctx context.Context, owner string, year, month int) (*models.Calendar, error) {
	const op = "Calendar"
	if err := checkID(op, "owner", owner); err != nil {
		return nil, err
	}
	m, err := parseMonth(op, year, month)
	if err != nil {
		return nil, err
	}

	habits, err := s.repo.GridHabits(ctx, owner, nil)
	if err != nil {
		logFailure(s.log, op, err, zap.String("owner", owner))
		return nil, err
	}
	facts, err := s.repo.CompletionFacts(ctx, owner, m.Start(), m.End(), nil)
	if err != nil {
		logFailure(s.log, op, err, zap.String("owner", owner))
		return nil, err
	}

	byDay := make(map[string][]string)
	for _, f := range facts {
		key := calendar.Format(f.Date)
		byDay[key] = append(byDay[key], f.HabitID)
	}

	out := &models.Calendar{Year: year, Month: month, Habits: habits}
	for _, d := range m.Dates() {
		key := calendar.Format(d)
		ids := byDay[key]
		if ids == nil {
			ids = []string{}
		}
		out.Calendar = append(out.Calendar, models.CalendarDay{Date: key, CompletedHabits: ids, CompletionCount: len(ids)})
	}
	return out, nil
}

// UserStats reports the owner's profile progression on the linear curve.
func (s *AnalyticsService) UserStats(ctx context.Context, owner string) (*models.UserStats, error) {
	const op = "UserStats"
	if err := checkID(op, "owner", owner); err != nil {
		return nil, err
	}

	t, err := s.repo.UserTotals(ctx, owner)
	if err != nil {
		logFailure(s.log, op, err, zap.String("owner", owner))
		return nil, err
	}

	level := s.user.Level(t.TotalXP)
	return &models.UserStats{
		TotalXP:          t.TotalXP,
		Level:            level,
		XPToNextLevel:    s.user.XPToNextLevel(t.TotalXP),
		Rank:             string(progression.RankFor(level)),
		HabitsCount:      t.HabitsCount,
		TotalCompletions: t.TotalCompletions,
	}, nil
}

// HabitStats reports the track record of one habit. The streak is the one
// still alive today, looking back DefaultLookbackDays.
func (s *AnalyticsService) HabitStats(ctx context.Context, owner, habitID string) (*models.HabitStats, error) {
	const op = "HabitStats"
	if err := checkID(op, "owner", owner); err != nil {
		return nil, err
	}
	if err := checkID(op, "habitId", habitID); err != nil {
		return nil, err
	}

	h, err := s.repo.GetHabit(ctx, owner, habitID)
	if err != nil {
		logFailure(s.log, op, err, zap.String("owner", owner), zap.String("habit_id", habitID))
		return nil, err
	}

	today := calendar.Day(s.now().UTC())
	hist, err := s.repo.HabitHistory(ctx, owner, habitID, calendar.AddDays(today, -streak.DefaultLookbackDays))
	if err != nil {
		logFailure(s.log, op, err, zap.String("owner", owner), zap.String("habit_id", habitID))
		return nil, err
	}

	out := &models.HabitStats{
		HabitID:         h.ID,
		HabitName:       h.Name,
		XPValue:         h.XPValue,
		CompletionCount: hist.Count,
		TotalXPEarned:   hist.Count * h.XPValue,
		Streak:          streak.Current(hist.RecentDates, today, streak.DefaultLookbackDays),
	}
	if hist.LastDate != nil {
		last := calendar.Format(*hist.LastDate)
		out.LastCompletionDate = &last
	}
	return out, nil
}
