package habit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"habitflowAPI/internal/types/completion"
)

var testNow = time.Date(2026, 3, 15, 18, 30, 0, 0, time.UTC)

func day(offset int) time.Time {
	return time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func TestStreak_Empty(t *testing.T) {
	assert.Equal(t, 0, Streak(nil, testNow))
	assert.Equal(t, 0, Streak([]time.Time{}, testNow))
}

func TestStreak_SingleEntry(t *testing.T) {
	assert.Equal(t, 1, Streak([]time.Time{day(0)}, testNow))
	assert.Equal(t, 1, Streak([]time.Time{day(-40)}, testNow))
}

func TestStreak_ConsecutiveRun(t *testing.T) {
	// N consecutive days with no gaps count as N, whatever the input order.
	for _, n := range []int{2, 5, 30, 66} {
		var dates []time.Time
		for i := 0; i < n; i++ {
			dates = append(dates, day(-i))
		}
		// shuffle-ish: reverse to prove sorting is internal
		for i, j := 0, len(dates)-1; i < j; i, j = i+1, j-1 {
			dates[i], dates[j] = dates[j], dates[i]
		}
		assert.Equal(t, n, Streak(dates, testNow), "run of %d days", n)
	}
}

func TestStreak_GapResets(t *testing.T) {
	// Only the most recent run counts.
	assert.Equal(t, 1, Streak([]time.Time{day(0), day(-2)}, testNow))
	assert.Equal(t, 3, Streak([]time.Time{day(0), day(-1), day(-2), day(-4), day(-5)}, testNow))
}

func TestStreak_DayOneAndDayThreeOnly(t *testing.T) {
	// Completions on day 1 and day 3 with a hole between them.
	dates := []time.Time{day(-2), day(0)}
	assert.Equal(t, 1, Streak(dates, testNow))
}

func TestStreak_SameDayDuplicatesCountOnce(t *testing.T) {
	// A check and a star on the same day must not double-count.
	dates := []time.Time{
		day(0).Add(8 * time.Hour),
		day(0).Add(20 * time.Hour),
		day(-1),
	}
	assert.Equal(t, 2, Streak(dates, testNow))
}

func TestStreak_IgnoresZeroAndFutureDates(t *testing.T) {
	dates := []time.Time{{}, day(3), day(0), day(-1)}
	assert.Equal(t, 2, Streak(dates, testNow))
}

func TestAdvanceStreak(t *testing.T) {
	yesterday := day(-1)
	today := day(0).Add(9 * time.Hour)
	lastWeek := day(-7)

	assert.Equal(t, 1, AdvanceStreak(0, nil, testNow))
	assert.Equal(t, 6, AdvanceStreak(5, &yesterday, testNow), "yesterday extends the run")
	assert.Equal(t, 5, AdvanceStreak(5, &today, testNow), "today is already counted")
	assert.Equal(t, 1, AdvanceStreak(5, &lastWeek, testNow), "older gap restarts")
	assert.Equal(t, 1, AdvanceStreak(0, &today, testNow), "cache never reports less than 1 for a completed day")
}

func TestNextStatus_CycleClosure(t *testing.T) {
	// cleared -> completed -> partial -> cleared in exactly three steps.
	s := completion.Status("")
	s = NextStatus(s)
	assert.Equal(t, completion.StatusCompleted, s)
	s = NextStatus(s)
	assert.Equal(t, completion.StatusPartial, s)
	s = NextStatus(s)
	assert.Equal(t, completion.Status(""), s)
}
