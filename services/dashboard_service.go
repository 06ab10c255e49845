package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"habitflowAPI/internal/habit"
	completiontype "habitflowAPI/internal/types/completion"
	habittype "habitflowAPI/internal/types/habit"
	"habitflowAPI/internal/types/stats"
)

type DashboardService struct {
	db *pgxpool.Pool
}

func NewDashboardService(db *pgxpool.Pool) *DashboardService {
	return &DashboardService{db: db}
}

// GetUserStats assembles the dashboard header numbers in one round of
// queries. Overall progress is the cross-habit aggregate, not a per-habit
// figure.
func (s *DashboardService) GetUserStats(ctx context.Context, clerkID string, now time.Time) (*stats.UserStats, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT
		EXISTS(
			SELECT 1 FROM habit_completions
			WHERE user_id = $1 AND date = $2::date
		) AS today_status,
		(SELECT COUNT(DISTINCT date) FROM habit_completions
			WHERE user_id = $1
			AND date >= DATE_TRUNC('week', $2::date)
			AND date <= $2::date) AS days_this_week,
		(SELECT COUNT(DISTINCT date) FROM habit_completions
			WHERE user_id = $1
			AND date >= DATE_TRUNC('month', $2::date)
			AND date <= $2::date) AS days_this_month,
		(SELECT COUNT(DISTINCT date) FROM habit_completions
			WHERE user_id = $1
			AND date >= DATE_TRUNC('year', $2::date)
			AND date <= $2::date) AS days_this_year,
		(SELECT COUNT(*) FROM habit_completions WHERE user_id = $1) AS total_completions,
		(SELECT COUNT(*) FROM habits WHERE user_id = $1 AND archived = false) AS active_habits,
		(SELECT COALESCE(MAX(streak_count), 0) FROM habits WHERE user_id = $1 AND archived = false) AS current_streak,
		(SELECT COALESCE(MAX(longest_streak), 0) FROM habits WHERE user_id = $1) AS longest_streak,
		(SELECT COUNT(*) FROM user_achievements WHERE user_id = $1) AS achievements_count,
		(SELECT COUNT(*) FROM user_challenges WHERE user_id = $1) AS challenges_joined
	`

	st := &stats.UserStats{}
	err = s.db.QueryRow(ctx, query, userID, now.Format("2006-01-02")).Scan(
		&st.TodayStatus,
		&st.DaysThisWeek,
		&st.DaysThisMonth,
		&st.DaysThisYear,
		&st.TotalCompletions,
		&st.ActiveHabits,
		&st.CurrentStreak,
		&st.LongestStreak,
		&st.AchievementsCount,
		&st.ChallengesJoined,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}

	st.OverallProgress = habit.OverallPercent(st.TotalCompletions, st.ActiveHabits)
	return st, nil
}

func (s *DashboardService) GetWeeklyStat(ctx context.Context, clerkID string, now time.Time) (*stats.DaysStat, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT COUNT(DISTINCT date)
	FROM habit_completions
	WHERE user_id = $1
		AND date >= DATE_TRUNC('week', $2::date)
		AND date <= $2::date
	`

	stat := &stats.DaysStat{Period: "week", TotalDays: 7}
	err = s.db.QueryRow(ctx, query, userID, now.Format("2006-01-02")).Scan(&stat.DaysCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to get weekly stats: %w", err)
	}

	return stat, nil
}

// GetYearlyActivity is the all-habits heatmap feed.
func (s *DashboardService) GetYearlyActivity(ctx context.Context, clerkID string, now time.Time) ([]habit.DayBucket, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, habit_id, user_id, date, status, completion_type, created_at
		FROM habit_completions
		WHERE user_id = $1 AND date >= $2::date AND date <= $3::date
		ORDER BY date`,
		userID, now.AddDate(-1, 0, 0).Format("2006-01-02"), now.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch completions: %w", err)
	}
	defer rows.Close()

	var completions []completiontype.Completion
	for rows.Next() {
		var c completiontype.Completion
		if err := rows.Scan(&c.ID, &c.HabitID, &c.UserID, &c.Date, &c.Status, &c.Kind, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan completion: %w", err)
		}
		completions = append(completions, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating completions: %w", err)
	}

	return habit.YearlyActivity(completions, now), nil
}

// GetCategoryStats counts habits per category (habits, not completions).
func (s *DashboardService) GetCategoryStats(ctx context.Context, clerkID string) ([]stats.CategoryStat, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, name, description, category, reminder_time, streak_count, longest_streak, last_completed_at, archived, created_at, updated_at
		FROM habits
		WHERE user_id = $1 AND archived = false`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch habits: %w", err)
	}
	defer rows.Close()

	var habits []habittype.Habit
	for rows.Next() {
		var h habittype.Habit
		err := rows.Scan(
			&h.ID, &h.UserID, &h.Name, &h.Description, &h.Category, &h.ReminderTime,
			&h.StreakCount, &h.LongestStreak, &h.LastCompletedAt, &h.Archived, &h.CreatedAt, &h.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}
		habits = append(habits, h)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating habits: %w", err)
	}

	counts := habit.CategoryCounts(habits)
	result := make([]stats.CategoryStat, 0, len(counts))
	for category, n := range counts {
		result = append(result, stats.CategoryStat{Category: category, Habits: n})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Category < result[j].Category })
	return result, nil
}
