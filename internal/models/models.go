// Package models defines the entities tracked by habitxp and the reports
// derived from them.
package models

import "time"

// User is an account owning habits, goals and tasks.
type User struct {
	// ID is the owner identity used by every scoped query.
	ID string `json:"id"`
	// Email is unique per user.
	Email string `json:"email"`
	// Name is the display name.
	Name string `json:"name"`
	// TotalXP equals the XP of all completions plus completed goals and tasks.
	TotalXP   int       `json:"totalXp"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Habit is a recurring activity worth XPValue per completed day.
type Habit struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"userId" db:"user_id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	XPValue     int       `json:"xpValue" db:"xp_value"`
	Color       string    `json:"color" db:"color"`
	CategoryID  *string   `json:"categoryId,omitempty" db:"category_id"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// HabitCategory groups habits for reporting. It has no XP of its own.
type HabitCategory struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// Completion records that a habit was done on a calendar day.
// Unique per (user, habit, date).
type Completion struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	HabitID   string    `json:"habitId"`
	Date      Date      `json:"date"`
	CreatedAt time.Time `json:"createdAt"`
}

// Goal is a one-shot objective.
type Goal struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	XPValue     int        `json:"xpValue"`
	CategoryID  *string    `json:"categoryId,omitempty"`
	DueDate     *Date      `json:"dueDate,omitempty"`
	IsCompleted bool       `json:"isCompleted"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// DailyTask is a one-shot item scheduled for a single day.
type DailyTask struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	XPValue     int        `json:"xpValue"`
	TaskDate    Date       `json:"taskDate"`
	IsCompleted bool       `json:"isCompleted"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// OneShotKind selects goals or daily tasks.
type OneShotKind string

const (
	KindGoal OneShotKind = "goal"
	KindTask OneShotKind = "task"
)

// XP bounds per entity kind.
const (
	MinXP      = 1
	MaxHabitXP = 100
	MaxGoalXP  = 1000
	MaxTaskXP  = 200
)

// CompletionResult is returned by a one-shot completion.
type CompletionResult struct {
	ID         string `json:"id"`
	XPAwarded  int    `json:"xpAwarded"`
	NewTotalXP int    `json:"newTotalXp"`
}
