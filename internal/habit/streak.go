package habit

import (
	"sort"
	"time"

	"habitflowAPI/internal/types/completion"
)

// Streak derives the current consecutive-day count from raw completion dates.
// Input need not be sorted and may hold several records for the same calendar
// day (one per completion type); days are deduped before counting. Only the
// most recent unbroken run counts, and dates after "now" or zero-value dates
// are ignored.
func Streak(dates []time.Time, now time.Time) int {
	today := calendarDay(now)

	seen := make(map[time.Time]struct{}, len(dates))
	days := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		if d.IsZero() {
			continue
		}
		day := calendarDay(d)
		if day.After(today) {
			continue
		}
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}

	if len(days) == 0 {
		return 0
	}

	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	streak := 1
	for i := 1; i < len(days); i++ {
		if days[i-1].Sub(days[i]) > 24*time.Hour {
			break
		}
		streak++
	}
	return streak
}

// AdvanceStreak is the cheap cache-path update used when a day is marked
// complete: extend the run when the last completion was exactly yesterday,
// keep it when today is already counted, otherwise restart at 1.
func AdvanceStreak(cached int, lastCompletedAt *time.Time, now time.Time) int {
	if lastCompletedAt == nil || lastCompletedAt.IsZero() {
		return 1
	}
	last := calendarDay(*lastCompletedAt)
	today := calendarDay(now)

	switch today.Sub(last) {
	case 0:
		if cached < 1 {
			return 1
		}
		return cached
	case 24 * time.Hour:
		return cached + 1
	default:
		return 1
	}
}

// NextStatus advances the three-state toggle cycle: cleared -> completed ->
// partial -> cleared. The zero value stands for "no record".
func NextStatus(s completion.Status) completion.Status {
	switch s {
	case completion.StatusCompleted:
		return completion.StatusPartial
	case completion.StatusPartial:
		return ""
	default:
		return completion.StatusCompleted
	}
}

func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
