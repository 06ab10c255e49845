package habit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitflowAPI/internal/types/completion"
	habittype "habitflowAPI/internal/types/habit"
)

func kind(k completion.Kind) *completion.Kind { return &k }

func entry(d time.Time, k *completion.Kind) completion.Completion {
	return completion.Completion{Date: d, Status: completion.StatusCompleted, Kind: k}
}

func TestYearlyActivity_CoversFullYear(t *testing.T) {
	buckets := YearlyActivity(nil, testNow)
	require.NotEmpty(t, buckets)

	assert.Equal(t, day(0), buckets[len(buckets)-1].Date)
	assert.Equal(t, day(0).AddDate(-1, 0, 0), buckets[0].Date)
	for _, b := range buckets {
		assert.Equal(t, 0, b.Count)
		assert.Equal(t, 0, b.Intensity)
	}
}

func TestYearlyActivity_IntensityBuckets(t *testing.T) {
	cases := []struct {
		count     int
		intensity int
	}{
		{0, 0}, {1, 1}, {2, 1}, {3, 2}, {4, 2}, {7, 4}, {8, 4}, {20, 4},
	}
	for _, tc := range cases {
		var completions []completion.Completion
		for i := 0; i < tc.count; i++ {
			completions = append(completions, entry(day(0), kind(completion.KindCheck)))
		}
		buckets := YearlyActivity(completions, testNow)
		last := buckets[len(buckets)-1]
		assert.Equal(t, tc.count, last.Count)
		assert.Equal(t, tc.intensity, last.Intensity, "count %d", tc.count)
	}
}

func TestYearlyActivity_CheckBeatsStar(t *testing.T) {
	completions := []completion.Completion{
		entry(day(0), kind(completion.KindStar)),
		entry(day(0), kind(completion.KindCheck)),
		entry(day(-1), kind(completion.KindStar)),
		entry(day(-2), kind(completion.KindSkip)),
	}
	buckets := YearlyActivity(completions, testNow)
	n := len(buckets)
	assert.Equal(t, completion.KindCheck, buckets[n-1].Kind)
	assert.Equal(t, completion.KindStar, buckets[n-2].Kind)
	assert.Equal(t, completion.KindSkip, buckets[n-3].Kind)
}

func TestYearlyActivity_SkipsMalformedDates(t *testing.T) {
	completions := []completion.Completion{
		entry(time.Time{}, kind(completion.KindCheck)),
		entry(day(0), nil),
	}
	buckets := YearlyActivity(completions, testNow)
	last := buckets[len(buckets)-1]
	assert.Equal(t, 1, last.Count, "zero-date record is skipped, not fatal")
	assert.Equal(t, completion.Kind(""), last.Kind, "untagged day has no color")
}

func TestYearlyActivity_Idempotent(t *testing.T) {
	completions := []completion.Completion{
		entry(day(0), kind(completion.KindCheck)),
		entry(day(-3), kind(completion.KindStar)),
		entry(day(-3), kind(completion.KindStar)),
	}
	first := YearlyActivity(completions, testNow)
	second := YearlyActivity(completions, testNow)
	assert.Equal(t, first, second, "no hidden state between runs")
}

func TestWeekdayTotals_MondayFirst(t *testing.T) {
	// 2026-03-15 is a Sunday, so day(-6) is the Monday of that week.
	completions := []completion.Completion{
		entry(day(-6), nil), // Monday
		entry(day(-6).AddDate(0, 0, -7), nil), // Monday, previous week
		entry(day(-5), nil), // Tuesday
		entry(day(0), nil),  // Sunday
	}
	totals := WeekdayTotals(completions, testNow, 12*7*24*time.Hour)
	assert.Equal(t, [7]int{2, 1, 0, 0, 0, 0, 1}, totals)
}

func TestWeekdayTotals_RespectsLookback(t *testing.T) {
	completions := []completion.Completion{
		entry(day(-1), nil),
		entry(day(-100), nil),
		entry(time.Time{}, nil),
	}
	totals := WeekdayTotals(completions, testNow, 14*24*time.Hour)
	sum := 0
	for _, c := range totals {
		sum += c
	}
	assert.Equal(t, 1, sum)
}

func TestCategoryCounts(t *testing.T) {
	habits := []habittype.Habit{
		{Category: "health"},
		{Category: "health"},
		{Category: "learning"},
		{Category: ""},
	}
	counts := CategoryCounts(habits)
	assert.Equal(t, 2, counts["health"])
	assert.Equal(t, 1, counts["learning"])
	assert.Equal(t, 1, counts[""])
}
