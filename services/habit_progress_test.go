package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	habittype "habitflowAPI/internal/types/habit"
)

func deriveAt(createdDaysAgo, totalDone int, now time.Time) *habittype.HabitWithProgress {
	hp := &habittype.HabitWithProgress{
		Habit:     habittype.Habit{CreatedAt: now.AddDate(0, 0, -createdDaysAgo)},
		TotalDone: totalDone,
	}
	(&HabitService{}).deriveProgress(hp, now)
	return hp
}

func TestDeriveProgress_FreshHabit(t *testing.T) {
	now := time.Date(2026, 3, 15, 18, 30, 0, 0, time.UTC)

	hp := deriveAt(0, 0, now)

	assert.Equal(t, "motivational", hp.Phase)
	assert.Equal(t, 0, hp.Progress)
	assert.Equal(t, 66, hp.RemainingDays, "nothing elapsed on creation day")
}

func TestDeriveProgress_PhaseFollowsCalendarAge(t *testing.T) {
	now := time.Date(2026, 3, 15, 18, 30, 0, 0, time.UTC)

	tests := []struct {
		name          string
		createdAgo    int
		totalDone     int
		wantPhase     string
		wantRemaining int
	}{
		{"day 30 still motivational", 29, 20, "motivational", 37},
		{"day 31 volitional", 30, 20, "volitional", 36},
		{"day 40 with gaps stays volitional", 39, 25, "volitional", 27},
		{"day 66 still volitional", 65, 60, "volitional", 1},
		{"day 67 habitual", 66, 60, "habitual", 0},
		{"well past threshold", 120, 100, "habitual", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hp := deriveAt(tt.createdAgo, tt.totalDone, now)
			assert.Equal(t, tt.wantPhase, hp.Phase)
			assert.Equal(t, tt.wantRemaining, hp.RemainingDays)
		})
	}
}

func TestDeriveProgress_FutureCreatedAtClamps(t *testing.T) {
	now := time.Date(2026, 3, 15, 18, 30, 0, 0, time.UTC)

	hp := deriveAt(-3, 0, now)

	assert.Equal(t, "motivational", hp.Phase)
	assert.Equal(t, 66, hp.RemainingDays)
}
