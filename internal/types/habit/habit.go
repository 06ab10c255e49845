package habit

import (
	"time"

	"github.com/google/uuid"
)

type Habit struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	UserID          uuid.UUID  `json:"user_id" db:"user_id"`
	Name            string     `json:"name" db:"name"`
	Description     string     `json:"description" db:"description"`
	Category        string     `json:"category" db:"category"`
	ReminderTime    *string    `json:"reminder_time,omitempty" db:"reminder_time"`
	StreakCount     int        `json:"streak_count" db:"streak_count"`
	LongestStreak   int        `json:"longest_streak" db:"longest_streak"`
	LastCompletedAt *time.Time `json:"last_completed_at" db:"last_completed_at"`
	Archived        bool       `json:"archived" db:"archived"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

type CreateHabitRequest struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Category     string  `json:"category"`
	ReminderTime *string `json:"reminderTime"`
}

type UpdateHabitRequest struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Category     string  `json:"category"`
	ReminderTime *string `json:"reminderTime"`
	Archived     *bool   `json:"archived"`
}

// HabitWithProgress is the list/detail shape the clients render: the stored
// row plus everything the progress engine derives from it.
type HabitWithProgress struct {
	Habit
	TodayStatus   string `json:"today_status"`
	Streak        int    `json:"streak"`
	Progress      int    `json:"progress"`
	Phase         string `json:"phase"`
	PhaseLabel    string `json:"phase_label"`
	PhaseGuidance string `json:"phase_guidance"`
	RemainingDays int    `json:"remaining_days"`
	TotalDone     int    `json:"total_done"`
}
