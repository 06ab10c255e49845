package reflection

import (
	"time"

	"github.com/google/uuid"
)

type Reflection struct {
	ID             uuid.UUID   `json:"id" db:"id"`
	HabitID        uuid.UUID   `json:"habit_id" db:"habit_id"`
	UserID         uuid.UUID   `json:"user_id" db:"user_id"`
	ReflectionText string      `json:"reflection_text" db:"reflection_text"`
	Obstacles      *string     `json:"obstacles,omitempty" db:"obstacles"`
	SRHIResponses  map[int]int `json:"srhi_responses,omitempty" db:"srhi_responses"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
}

type CreateReflectionRequest struct {
	ReflectionText string      `json:"reflectionText"`
	Obstacles      *string     `json:"obstacles"`
	SRHIResponses  map[int]int `json:"srhiResponses"`
}

type NeedsReflectionResponse struct {
	NeedsReflection bool       `json:"needs_reflection"`
	LastReflection  *time.Time `json:"last_reflection,omitempty"`
}

// SRHIQuestion items are static content; responses are a 1-3 Likert value
// keyed by question index.
type SRHIQuestion struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}
