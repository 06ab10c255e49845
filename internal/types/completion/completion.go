package completion

import (
	"time"

	"github.com/google/uuid"
)

// Status is the tri-state that drives streaks and progress. An absent row is
// the third state; it never appears as a stored value.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusPartial   Status = "partial"
)

// Kind is the looser tagging scheme used by the activity views. It is
// independent of Status and the two are deliberately not reconciled.
type Kind string

const (
	KindCheck Kind = "check"
	KindStar  Kind = "star"
	KindSkip  Kind = "skip"
)

type Completion struct {
	ID        uuid.UUID `json:"id" db:"id"`
	HabitID   uuid.UUID `json:"habit_id" db:"habit_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Date      time.Time `json:"date" db:"date"`
	Status    Status    `json:"status" db:"status"`
	Kind      *Kind     `json:"completion_type,omitempty" db:"completion_type"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type ToggleRequest struct {
	Date string `json:"date"` // YYYY-MM-DD, defaults to today
}

type ToggleResponse struct {
	Date        string `json:"date"`
	Status      string `json:"status"` // "" when the day was cleared
	StreakCount int    `json:"streak_count"`
}

type SetKindRequest struct {
	Date string `json:"date"`
	Kind Kind   `json:"completionType"`
}
