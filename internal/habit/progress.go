// Package habit holds the pure progress engine behind the habit views: streak
// counting, the 66-day formation model, the completion toggle cycle and the
// activity aggregators. Nothing in here touches the database or the wall
// clock; "now" is always passed in by the caller.
package habit

import "math"

// FormationDays is the automation threshold of the 66-day formation model.
const FormationDays = 66

type Phase string

const (
	PhaseMotivational Phase = "motivational"
	PhaseVolitional   Phase = "volitional"
	PhaseHabitual     Phase = "habitual"
)

// PhaseInfo carries the static display copy for a phase.
type PhaseInfo struct {
	Phase    Phase  `json:"phase"`
	Label    string `json:"label"`
	Guidance string `json:"guidance"`
}

var phaseInfos = map[Phase]PhaseInfo{
	PhaseMotivational: {
		Phase:    PhaseMotivational,
		Label:    "Motivational phase (days 1-30)",
		Guidance: "Motivation carries you now. Keep the habit small and tied to a fixed cue so it survives the days motivation dips.",
	},
	PhaseVolitional: {
		Phase:    PhaseVolitional,
		Label:    "Volitional phase (days 31-66)",
		Guidance: "Willpower does the work in this stretch. Plan around obstacles in advance and protect the time you do the habit.",
	},
	PhaseHabitual: {
		Phase:    PhaseHabitual,
		Label:    "Habitual phase (day 67+)",
		Guidance: "The habit is close to automatic. Focus on consistency, not intensity, and let the routine run itself.",
	},
}

// ClassifyPhase maps an elapsed day count onto the formation phase.
// Boundaries are inclusive on the lower phase: day 30 is still motivational,
// day 66 still volitional.
func ClassifyPhase(day int) Phase {
	switch {
	case day <= 30:
		return PhaseMotivational
	case day <= FormationDays:
		return PhaseVolitional
	default:
		return PhaseHabitual
	}
}

// Describe returns the static label/guidance for a phase.
func Describe(p Phase) PhaseInfo {
	info, ok := phaseInfos[p]
	if !ok {
		return phaseInfos[PhaseMotivational]
	}
	return info
}

// Percent maps a completion count to the 0-100 progress toward automation.
func Percent(completions int) int {
	return clampPercent(float64(completions) / FormationDays * 100)
}

// OverallPercent is the dashboard aggregate across all habits. It is an
// average-style figure, distinct from per-habit progress; a zero habit count
// yields 0, never a division error.
func OverallPercent(completions, habitCount int) int {
	if habitCount <= 0 {
		return 0
	}
	return clampPercent(float64(completions) / float64(habitCount*FormationDays) * 100)
}

// RemainingDays reports how many days are left before the automation
// threshold, never negative.
func RemainingDays(currentDay int) int {
	if currentDay >= FormationDays {
		return 0
	}
	if currentDay < 0 {
		return FormationDays
	}
	return FormationDays - currentDay
}

func clampPercent(v float64) int {
	p := int(math.Round(v))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
