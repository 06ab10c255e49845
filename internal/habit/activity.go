package habit

import (
	"time"

	"habitflowAPI/internal/types/completion"
	habittype "habitflowAPI/internal/types/habit"
)

// DayBucket is one cell of the yearly activity heatmap.
type DayBucket struct {
	Date      time.Time       `json:"date"`
	Count     int             `json:"count"`
	Intensity int             `json:"intensity"` // 0-4
	Kind      completion.Kind `json:"kind,omitempty"`
}

// YearlyActivity buckets completions per calendar day over the year ending at
// "now". Records with a zero date are skipped rather than failing the whole
// view. Intensity grows with the day's count and caps at 4; when both check
// and star records exist on a day, check wins the color tag.
func YearlyActivity(completions []completion.Completion, now time.Time) []DayBucket {
	type dayCounts struct {
		total int
		kinds map[completion.Kind]int
	}

	byDay := make(map[time.Time]*dayCounts)
	for _, c := range completions {
		if c.Date.IsZero() {
			continue
		}
		day := calendarDay(c.Date)
		dc := byDay[day]
		if dc == nil {
			dc = &dayCounts{kinds: make(map[completion.Kind]int)}
			byDay[day] = dc
		}
		dc.total++
		if c.Kind != nil {
			dc.kinds[*c.Kind]++
		}
	}

	end := calendarDay(now)
	start := end.AddDate(-1, 0, 0)

	buckets := make([]DayBucket, 0, 366)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		b := DayBucket{Date: d}
		if dc, ok := byDay[d]; ok {
			b.Count = dc.total
			b.Intensity = intensity(dc.total)
			b.Kind = dominantKind(dc.kinds)
		}
		buckets = append(buckets, b)
	}
	return buckets
}

// WeekdayTotals folds completions inside the lookback window into seven
// Monday-first weekday buckets, regardless of which week they fell in.
func WeekdayTotals(completions []completion.Completion, now time.Time, lookback time.Duration) [7]int {
	var totals [7]int
	end := calendarDay(now)
	start := end.Add(-lookback)

	for _, c := range completions {
		if c.Date.IsZero() {
			continue
		}
		day := calendarDay(c.Date)
		if day.Before(start) || day.After(end) {
			continue
		}
		totals[mondayIndex(day.Weekday())]++
	}
	return totals
}

// CategoryCounts counts habits per category (not completions).
func CategoryCounts(habits []habittype.Habit) map[string]int {
	counts := make(map[string]int, len(habits))
	for _, h := range habits {
		counts[h.Category]++
	}
	return counts
}

func intensity(count int) int {
	if count <= 0 {
		return 0
	}
	v := (count + 1) / 2 // ceil(count/2)
	if v > 4 {
		return 4
	}
	return v
}

func dominantKind(kinds map[completion.Kind]int) completion.Kind {
	if kinds[completion.KindCheck] > 0 {
		return completion.KindCheck
	}
	if kinds[completion.KindStar] > 0 {
		return completion.KindStar
	}
	if kinds[completion.KindSkip] > 0 {
		return completion.KindSkip
	}
	return ""
}

func mondayIndex(w time.Weekday) int {
	// time.Weekday is Sunday-first.
	return (int(w) + 6) % 7
}
