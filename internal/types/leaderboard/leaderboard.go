package leaderboard

import "github.com/google/uuid"

type Entry struct {
	Rank             int       `json:"rank"`
	UserID           uuid.UUID `json:"user_id" db:"user_id"`
	Username         string    `json:"username" db:"username"`
	ImageURL         string    `json:"image_url" db:"image_url"`
	CurrentStreak    int       `json:"current_streak" db:"current_streak"`
	TotalCompletions int       `json:"total_completions" db:"total_completions"`
}

type Leaderboard struct {
	Entries  []*Entry `json:"entries"`
	YourRank int      `json:"your_rank"`
}
