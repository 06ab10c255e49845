package todo

import (
	"time"

	"github.com/google/uuid"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type Todo struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	Title       string     `json:"title" db:"title"`
	Notes       string     `json:"notes" db:"notes"`
	Priority    Priority   `json:"priority" db:"priority"`
	DueDate     *time.Time `json:"due_date" db:"due_date"`
	Position    int        `json:"position" db:"position"`
	Completed   bool       `json:"completed" db:"completed"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

type CreateTodoRequest struct {
	Title    string     `json:"title"`
	Notes    string     `json:"notes"`
	Priority Priority   `json:"priority"`
	DueDate  *time.Time `json:"dueDate"`
}

type UpdateTodoRequest struct {
	Title    string     `json:"title"`
	Notes    string     `json:"notes"`
	Priority Priority   `json:"priority"`
	DueDate  *time.Time `json:"dueDate"`
}

type ReorderRequest struct {
	TodoIDs []uuid.UUID `json:"todoIds"`
}
