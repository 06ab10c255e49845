package habit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPercent(t *testing.T) {
	assert.Equal(t, 0, Percent(0))
	assert.Equal(t, 2, Percent(1))   // round(1/66*100) = 2
	assert.Equal(t, 50, Percent(33))
	assert.Equal(t, 100, Percent(66))
	assert.Equal(t, 100, Percent(67), "clamped above the target")
	assert.Equal(t, 100, Percent(400))
	assert.Equal(t, 0, Percent(-3), "clamped below zero")
}

func TestOverallPercent(t *testing.T) {
	assert.Equal(t, 0, OverallPercent(10, 0), "zero habits never divides")
	assert.Equal(t, 0, OverallPercent(0, 4))
	assert.Equal(t, 50, OverallPercent(66, 2))
	assert.Equal(t, 100, OverallPercent(200, 3))
}

func TestRemainingDays(t *testing.T) {
	assert.Equal(t, 66, RemainingDays(0))
	assert.Equal(t, 36, RemainingDays(30))
	assert.Equal(t, 0, RemainingDays(66))
	assert.Equal(t, 0, RemainingDays(120))
	assert.Equal(t, 66, RemainingDays(-1))
}

func TestClassifyPhase_Boundaries(t *testing.T) {
	assert.Equal(t, PhaseMotivational, ClassifyPhase(1))
	assert.Equal(t, PhaseMotivational, ClassifyPhase(30))
	assert.Equal(t, PhaseVolitional, ClassifyPhase(31))
	assert.Equal(t, PhaseVolitional, ClassifyPhase(66))
	assert.Equal(t, PhaseHabitual, ClassifyPhase(67))
	assert.Equal(t, PhaseHabitual, ClassifyPhase(400))
}

func TestDescribe(t *testing.T) {
	for _, p := range []Phase{PhaseMotivational, PhaseVolitional, PhaseHabitual} {
		info := Describe(p)
		assert.Equal(t, p, info.Phase)
		assert.NotEmpty(t, info.Label)
		assert.NotEmpty(t, info.Guidance)
	}
	// Unknown phases fall back to the first phase copy rather than panicking.
	assert.Equal(t, PhaseMotivational, Describe(Phase("bogus")).Phase)
}

func TestScenario_FreshHabit(t *testing.T) {
	// Habit created today, zero completions.
	assert.Equal(t, 0, Percent(0))
	assert.Equal(t, PhaseMotivational, ClassifyPhase(1))
	assert.Equal(t, 66, RemainingDays(0))
	assert.Equal(t, 0, Streak(nil, testNow))
}

func TestScenario_SixtySixPerfectDays(t *testing.T) {
	// 66 completions on 66 consecutive days ending today.
	var dates []time.Time
	for i := 0; i < 66; i++ {
		dates = append(dates, day(-i))
	}
	assert.Equal(t, 66, Streak(dates, testNow))
	assert.Equal(t, 100, Percent(66))
	assert.Equal(t, PhaseVolitional, ClassifyPhase(66), "day 66 is still volitional")
}
