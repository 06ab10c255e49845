package calendar

import (
	"time"

	"github.com/google/uuid"
)

// Block is a scheduled slot in the weekly planner grid. Day is 0-6
// (Monday-first), Slot is the row index within the day column.
type Block struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	UserID       uuid.UUID  `json:"user_id" db:"user_id"`
	HabitID      *uuid.UUID `json:"habit_id,omitempty" db:"habit_id"`
	TodoID       *uuid.UUID `json:"todo_id,omitempty" db:"todo_id"`
	Title        string     `json:"title" db:"title"`
	Day          int        `json:"day" db:"day"`
	Slot         int        `json:"slot" db:"slot"`
	DurationMins int        `json:"duration_mins" db:"duration_mins"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

type CreateBlockRequest struct {
	HabitID      *uuid.UUID `json:"habitId"`
	TodoID       *uuid.UUID `json:"todoId"`
	Title        string     `json:"title"`
	Day          int        `json:"day"`
	Slot         int        `json:"slot"`
	DurationMins int        `json:"durationMins"`
}

type MoveBlockRequest struct {
	Day  int `json:"day"`
	Slot int `json:"slot"`
}

type CalendarDay struct {
	Date          time.Time `json:"date" db:"date"`
	CompletedAny  bool      `json:"completed_any"`
	CompletedAll  bool      `json:"completed_all"`
	CompletionCnt int       `json:"completion_count"`
	IsToday       bool      `json:"is_today"`
}

type CalendarResponse struct {
	Year  int            `json:"year"`
	Month int            `json:"month"`
	Days  []*CalendarDay `json:"days"`
}
