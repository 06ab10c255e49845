package stats

type DaysStat struct {
	Period        string `json:"period"` // "week", "month", "year", "all_time"
	DaysCompleted int    `json:"days_completed" db:"days_completed"`
	TotalDays     int    `json:"total_days"`
}

type UserStats struct {
	TodayStatus       bool `json:"today_status"`
	DaysThisWeek      int  `json:"days_this_week"`
	DaysThisMonth     int  `json:"days_this_month"`
	DaysThisYear      int  `json:"days_this_year"`
	TotalCompletions  int  `json:"total_completions"`
	ActiveHabits      int  `json:"active_habits"`
	CurrentStreak     int  `json:"current_streak"`
	LongestStreak     int  `json:"longest_streak"`
	OverallProgress   int  `json:"overall_progress"`
	AchievementsCount int  `json:"achievements_count"`
	ChallengesJoined  int  `json:"challenges_joined"`
}

type WeekdayStat struct {
	Weekday string `json:"weekday"`
	Count   int    `json:"count"`
}

type CategoryStat struct {
	Category string `json:"category"`
	Habits   int    `json:"habits"`
}
