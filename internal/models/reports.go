package models

import "time"

// CompletionFact is one completion joined with its habit and category,
// the raw input of monthly analytics.
type CompletionFact struct {
	HabitID      string    `db:"habit_id"`
	Date         time.Time `db:"date"`
	XPValue      int       `db:"xp_value"`
	CategoryName *string   `db:"category_name"`
}

// CategoryTotal is the XP aggregated for one category over a range.
type CategoryTotal struct {
	CategoryID      string `db:"category_id"`
	Name            string `db:"name"`
	TotalXP         int    `db:"total_xp"`
	CompletionCount int    `db:"completion_count"`
}

// UserTotals is the raw input of the profile stats.
type UserTotals struct {
	TotalXP          int `db:"total_xp"`
	HabitsCount      int `db:"habits_count"`
	TotalCompletions int `db:"total_completions"`
}

// HabitHistory summarizes the completions of one habit. RecentDates holds
// the dates inside the streak window, newest first.
type HabitHistory struct {
	Count       int        `db:"completion_count"`
	LastDate    *time.Time `db:"last_date"`
	RecentDates []time.Time
}

// MonthComparison holds deltas against the previous calendar month.
type MonthComparison struct {
	XPChangePercent   int `json:"xpChangePercent"`
	CompletionChange  int `json:"completionChange"`
	ConsistencyChange int `json:"consistencyChange"`
}

// MonthlyInsights summarizes activity across a calendar month.
type MonthlyInsights struct {
	Month                   string          `json:"month"`
	TotalDays               int             `json:"totalDays"`
	ActiveDays              int             `json:"activeDays"`
	TotalCompletions        int             `json:"totalCompletions"`
	ConsistencyRate         int             `json:"consistencyRate"`
	PerfectDays             int             `json:"perfectDays"`
	WeeklyPeak              *string         `json:"weeklyPeak"`
	MostActiveWeekday       *string         `json:"mostActiveWeekday"`
	MostActiveWeekdayNumber *int            `json:"mostActiveWeekdayNumber"`
	MonthComparison         MonthComparison `json:"monthComparison"`
}

// HabitGridRow marks, for one habit, every day of a month as done or not.
type HabitGridRow struct {
	HabitID   string          `json:"habitId"`
	HabitName string          `json:"habitName"`
	Days      map[string]bool `json:"days"`
}

// MonthlySummary is the month recap with optional hidden habits.
type MonthlySummary struct {
	Month             string         `json:"month"`
	TotalXP           int            `json:"totalXp"`
	StrongestCategory *string        `json:"strongestCategory"`
	LongestStreak     int            `json:"longestStreak"`
	HabitGrid         []HabitGridRow `json:"habitGrid"`
}

// CategoryXP is one row of the category leaderboard.
type CategoryXP struct {
	CategoryID         string `json:"categoryId"`
	Name               string `json:"name"`
	TotalXP            int    `json:"totalXp"`
	CompletionCount    int    `json:"completionCount"`
	Level              int    `json:"level"`
	Rank               string `json:"rank"`
	XPIntoLevel        int    `json:"xpIntoLevel"`
	XPForNextLevel     int    `json:"xpForNextLevel"`
	ProgressPercentage int    `json:"progressPercentage"`
}

// CategoryXPReport is the category leaderboard over a date range.
type CategoryXPReport struct {
	StrongestCategory *string      `json:"strongestCategory"`
	Categories        []CategoryXP `json:"categories"`
}

// CalendarHabit is the habit header of a calendar view.
type CalendarHabit struct {
	ID    string `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Color string `json:"color" db:"color"`
}

// CalendarDay lists the habits completed on one day.
type CalendarDay struct {
	Date            string   `json:"date"`
	CompletedHabits []string `json:"completedHabits"`
	CompletionCount int      `json:"completionCount"`
}

// Calendar is a month of completions laid out day by day.
type Calendar struct {
	Year     int             `json:"year"`
	Month    int             `json:"month"`
	Habits   []CalendarHabit `json:"habits"`
	Calendar []CalendarDay   `json:"calendar"`
}

// UserStats is the profile progression on the linear curve.
type UserStats struct {
	TotalXP          int    `json:"totalXp"`
	Level            int    `json:"level"`
	XPToNextLevel    int    `json:"xpToNextLevel"`
	Rank             string `json:"rank"`
	HabitsCount      int    `json:"habitsCount"`
	TotalCompletions int    `json:"totalCompletions"`
}

// HabitStats describes the track record of one habit.
type HabitStats struct {
	HabitID            string  `json:"habitId"`
	HabitName          string  `json:"habitName"`
	XPValue            int     `json:"xpValue"`
	CompletionCount    int     `json:"completionCount"`
	TotalXPEarned      int     `json:"totalXpEarned"`
	Streak             int     `json:"streak"`
	LastCompletionDate *string `json:"lastCompletionDate"`
}
