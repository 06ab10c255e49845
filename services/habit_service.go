package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"habitflowAPI/internal/habit"
	completiontype "habitflowAPI/internal/types/completion"
	habittype "habitflowAPI/internal/types/habit"
	"habitflowAPI/internal/types/stats"
)

type HabitService struct {
	db *pgxpool.Pool
}

func NewHabitService(db *pgxpool.Pool) *HabitService {
	return &HabitService{db: db}
}

func (s *HabitService) CreateHabit(ctx context.Context, clerkID string, req *habittype.CreateHabitRequest) (*habittype.Habit, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	h := &habittype.Habit{}
	query := `
	INSERT INTO habits (id, user_id, name, description, category, reminder_time, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	RETURNING id, user_id, name, description, category, reminder_time, streak_count, longest_streak, last_completed_at, archived, created_at, updated_at
	`
	err = s.db.QueryRow(ctx, query, uuid.New(), userID, req.Name, req.Description, req.Category, req.ReminderTime).Scan(
		&h.ID, &h.UserID, &h.Name, &h.Description, &h.Category, &h.ReminderTime,
		&h.StreakCount, &h.LongestStreak, &h.LastCompletedAt, &h.Archived, &h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create habit: %w", err)
	}

	return h, nil
}

// GetHabits returns the user's active habits with everything the list view
// derives: today's toggle state, streak, 66-day progress, phase and copy.
func (s *HabitService) GetHabits(ctx context.Context, clerkID string, now time.Time) ([]*habittype.HabitWithProgress, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT
		h.id, h.user_id, h.name, h.description, h.category, h.reminder_time,
		h.streak_count, h.longest_streak, h.last_completed_at, h.archived, h.created_at, h.updated_at,
		COALESCE(t.status, '') AS today_status,
		COALESCE(c.total, 0) AS total_done
	FROM habits h
	LEFT JOIN habit_completions t
		ON t.habit_id = h.id AND t.user_id = h.user_id AND t.date = $2::date
	LEFT JOIN (
		SELECT habit_id, COUNT(*) AS total
		FROM habit_completions
		WHERE user_id = $1
		GROUP BY habit_id
	) c ON c.habit_id = h.id
	WHERE h.user_id = $1 AND h.archived = false
	ORDER BY h.created_at
	`

	rows, err := s.db.Query(ctx, query, userID, now.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch habits: %w", err)
	}
	defer rows.Close()

	var habits []*habittype.HabitWithProgress
	for rows.Next() {
		hp := &habittype.HabitWithProgress{}
		err := rows.Scan(
			&hp.ID, &hp.UserID, &hp.Name, &hp.Description, &hp.Category, &hp.ReminderTime,
			&hp.StreakCount, &hp.LongestStreak, &hp.LastCompletedAt, &hp.Archived, &hp.CreatedAt, &hp.UpdatedAt,
			&hp.TodayStatus, &hp.TotalDone,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}
		s.deriveProgress(hp, now)
		habits = append(habits, hp)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating habits: %w", err)
	}

	return habits, nil
}

func (s *HabitService) GetHabit(ctx context.Context, clerkID string, habitID uuid.UUID, now time.Time) (*habittype.HabitWithProgress, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT
		h.id, h.user_id, h.name, h.description, h.category, h.reminder_time,
		h.streak_count, h.longest_streak, h.last_completed_at, h.archived, h.created_at, h.updated_at,
		COALESCE(t.status, '') AS today_status,
		(SELECT COUNT(*) FROM habit_completions WHERE habit_id = h.id) AS total_done
	FROM habits h
	LEFT JOIN habit_completions t
		ON t.habit_id = h.id AND t.user_id = h.user_id AND t.date = $3::date
	WHERE h.id = $1 AND h.user_id = $2
	`

	hp := &habittype.HabitWithProgress{}
	err = s.db.QueryRow(ctx, query, habitID, userID, now.Format("2006-01-02")).Scan(
		&hp.ID, &hp.UserID, &hp.Name, &hp.Description, &hp.Category, &hp.ReminderTime,
		&hp.StreakCount, &hp.LongestStreak, &hp.LastCompletedAt, &hp.Archived, &hp.CreatedAt, &hp.UpdatedAt,
		&hp.TodayStatus, &hp.TotalDone,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("habit not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get habit: %w", err)
	}

	s.deriveProgress(hp, now)
	return hp, nil
}

func (s *HabitService) UpdateHabit(ctx context.Context, clerkID string, habitID uuid.UUID, req *habittype.UpdateHabitRequest) (*habittype.Habit, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	UPDATE habits
	SET
		name = COALESCE(NULLIF($3, ''), name),
		description = COALESCE(NULLIF($4, ''), description),
		category = COALESCE(NULLIF($5, ''), category),
		reminder_time = COALESCE($6, reminder_time),
		archived = COALESCE($7, archived),
		updated_at = NOW()
	WHERE id = $1 AND user_id = $2
	RETURNING id, user_id, name, description, category, reminder_time, streak_count, longest_streak, last_completed_at, archived, created_at, updated_at
	`

	h := &habittype.Habit{}
	err = s.db.QueryRow(ctx, query, habitID, userID, req.Name, req.Description, req.Category, req.ReminderTime, req.Archived).Scan(
		&h.ID, &h.UserID, &h.Name, &h.Description, &h.Category, &h.ReminderTime,
		&h.StreakCount, &h.LongestStreak, &h.LastCompletedAt, &h.Archived, &h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("habit not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update habit: %w", err)
	}

	return h, nil
}

func (s *HabitService) DeleteHabit(ctx context.Context, clerkID string, habitID uuid.UUID) error {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(ctx, `DELETE FROM habits WHERE id = $1 AND user_id = $2`, habitID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("habit not found: %w", ErrNotFound)
	}

	return nil
}

// ToggleCompletion advances the day's three-state cycle and keeps the cached
// streak on the habit row in step. The completion write and the streak update
// land in one transaction so a double-tap cannot double-increment the cache.
func (s *HabitService) ToggleCompletion(ctx context.Context, clerkID string, habitID uuid.UUID, date time.Time, now time.Time) (*completiontype.ToggleResponse, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var streakCount, longestStreak int
	var lastCompletedAt *time.Time
	err = tx.QueryRow(ctx, `
		SELECT streak_count, longest_streak, last_completed_at
		FROM habits WHERE id = $1 AND user_id = $2
		FOR UPDATE`, habitID, userID).Scan(&streakCount, &longestStreak, &lastCompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("habit not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock habit: %w", err)
	}

	var current completiontype.Status
	err = tx.QueryRow(ctx, `
		SELECT status FROM habit_completions
		WHERE habit_id = $1 AND user_id = $2 AND date = $3::date`,
		habitID, userID, date.Format("2006-01-02")).Scan(&current)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to read completion: %w", err)
	}

	next := habit.NextStatus(current)
	isToday := date.Format("2006-01-02") == now.Format("2006-01-02")

	if next == "" {
		_, err = tx.Exec(ctx, `
			DELETE FROM habit_completions
			WHERE habit_id = $1 AND user_id = $2 AND date = $3::date`,
			habitID, userID, date.Format("2006-01-02"))
		if err != nil {
			return nil, fmt.Errorf("failed to clear completion: %w", err)
		}
		if isToday {
			// Today dropped out of the run; recompute the cache from history.
			streakCount, lastCompletedAt, err = recomputeStreakTx(ctx, tx, habitID, userID, now)
			if err != nil {
				return nil, err
			}
			_, err = tx.Exec(ctx, `
				UPDATE habits SET streak_count = $3, last_completed_at = $4, updated_at = NOW()
				WHERE id = $1 AND user_id = $2`,
				habitID, userID, streakCount, lastCompletedAt)
			if err != nil {
				return nil, fmt.Errorf("failed to update streak: %w", err)
			}
		}
	} else {
		_, err = tx.Exec(ctx, `
			INSERT INTO habit_completions (id, habit_id, user_id, date, status, created_at)
			VALUES ($1, $2, $3, $4::date, $5, NOW())
			ON CONFLICT (habit_id, user_id, date)
			DO UPDATE SET status = $5`,
			uuid.New(), habitID, userID, date.Format("2006-01-02"), next)
		if err != nil {
			return nil, fmt.Errorf("failed to upsert completion: %w", err)
		}
		// Only the first mark of today extends the run; flipping
		// completed -> partial leaves the cache alone.
		if isToday && current == "" {
			streakCount = habit.AdvanceStreak(streakCount, lastCompletedAt, now)
			if streakCount > longestStreak {
				longestStreak = streakCount
			}
			_, err = tx.Exec(ctx, `
				UPDATE habits SET streak_count = $3, longest_streak = $4, last_completed_at = $5, updated_at = NOW()
				WHERE id = $1 AND user_id = $2`,
				habitID, userID, streakCount, longestStreak, now)
			if err != nil {
				return nil, fmt.Errorf("failed to update streak: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit toggle: %w", err)
	}

	return &completiontype.ToggleResponse{
		Date:        date.Format("2006-01-02"),
		Status:      string(next),
		StreakCount: streakCount,
	}, nil
}

// SetCompletionType tags an existing completion with the check/star/skip
// scheme. The tag is independent of the status cycle and never creates a day.
func (s *HabitService) SetCompletionType(ctx context.Context, clerkID string, habitID uuid.UUID, date time.Time, kind completiontype.Kind) error {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(ctx, `
		UPDATE habit_completions SET completion_type = $4
		WHERE habit_id = $1 AND user_id = $2 AND date = $3::date`,
		habitID, userID, date.Format("2006-01-02"), kind)
	if err != nil {
		return fmt.Errorf("failed to set completion type: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("no completion recorded for that date: %w", ErrNotFound)
	}

	return nil
}

// ReconcileStreak recomputes the cached streak from the full completion
// history. The cache is a hint that can drift when past days are edited; this
// is the repair path, also run nightly by the background worker.
func (s *HabitService) ReconcileStreak(ctx context.Context, clerkID string, habitID uuid.UUID, now time.Time) (int, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return 0, err
	}
	return s.reconcileStreakByIDs(ctx, habitID, userID, now)
}

func (s *HabitService) reconcileStreakByIDs(ctx context.Context, habitID, userID uuid.UUID, now time.Time) (int, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	streak, lastCompletedAt, err := recomputeStreakTx(ctx, tx, habitID, userID, now)
	if err != nil {
		return 0, err
	}

	result, err := tx.Exec(ctx, `
		UPDATE habits
		SET streak_count = $3,
			longest_streak = GREATEST(longest_streak, $3),
			last_completed_at = $4,
			updated_at = NOW()
		WHERE id = $1 AND user_id = $2`,
		habitID, userID, streak, lastCompletedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to store reconciled streak: %w", err)
	}
	if result.RowsAffected() == 0 {
		return 0, fmt.Errorf("habit not found: %w", ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit reconcile: %w", err)
	}

	return streak, nil
}

// ReconcileAllStreaks walks every non-archived habit and repairs its cache.
// Used by the nightly worker.
func (s *HabitService) ReconcileAllStreaks(ctx context.Context, now time.Time) (int, error) {
	rows, err := s.db.Query(ctx, `SELECT id, user_id FROM habits WHERE archived = false`)
	if err != nil {
		return 0, fmt.Errorf("failed to list habits: %w", err)
	}
	defer rows.Close()

	type pair struct{ habitID, userID uuid.UUID }
	var pairs []pair
	for rows.Next() {
		var p pair
		if err := rows.Scan(&p.habitID, &p.userID); err != nil {
			return 0, fmt.Errorf("failed to scan habit: %w", err)
		}
		pairs = append(pairs, p)
	}
	if err = rows.Err(); err != nil {
		return 0, fmt.Errorf("error iterating habits: %w", err)
	}

	reconciled := 0
	for _, p := range pairs {
		if _, err := s.reconcileStreakByIDs(ctx, p.habitID, p.userID, now); err != nil {
			return reconciled, err
		}
		reconciled++
	}
	return reconciled, nil
}

// GetYearlyActivity feeds the heatmap: one bucket per day over the past year.
func (s *HabitService) GetYearlyActivity(ctx context.Context, clerkID string, habitID uuid.UUID, now time.Time) ([]habit.DayBucket, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	completions, err := s.fetchCompletions(ctx, habitID, userID, now.AddDate(-1, 0, 0), now)
	if err != nil {
		return nil, err
	}

	return habit.YearlyActivity(completions, now), nil
}

// GetWeekdayTotals buckets the recent completions per weekday, Monday first.
func (s *HabitService) GetWeekdayTotals(ctx context.Context, clerkID string, habitID uuid.UUID, now time.Time) ([]stats.WeekdayStat, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	const lookback = 12 * 7 * 24 * time.Hour
	completions, err := s.fetchCompletions(ctx, habitID, userID, now.Add(-lookback), now)
	if err != nil {
		return nil, err
	}

	totals := habit.WeekdayTotals(completions, now, lookback)
	weekdays := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

	result := make([]stats.WeekdayStat, 7)
	for i, name := range weekdays {
		result[i] = stats.WeekdayStat{Weekday: name, Count: totals[i]}
	}
	return result, nil
}

func (s *HabitService) fetchCompletions(ctx context.Context, habitID, userID uuid.UUID, from, to time.Time) ([]completiontype.Completion, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, habit_id, user_id, date, status, completion_type, created_at
		FROM habit_completions
		WHERE habit_id = $1 AND user_id = $2 AND date >= $3::date AND date <= $4::date
		ORDER BY date`,
		habitID, userID, from.Format("2006-01-02"), to.Format("2006-01-02"))
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

	return completions, nil
}

func (s *HabitService) deriveProgress(hp *habittype.HabitWithProgress, now time.Time) {
	// Phase classification is 1-based (creation day is day 1); remaining
	// days counts elapsed full days, so a habit created today has all 66
	// ahead of it.
	elapsed := int(now.Sub(hp.CreatedAt).Hours() / 24)
	if elapsed < 0 {
		elapsed = 0
	}

	phase := habit.ClassifyPhase(elapsed + 1)
	info := habit.Describe(phase)

	hp.Streak = hp.StreakCount
	hp.Progress = habit.Percent(hp.TotalDone)
	hp.Phase = string(phase)
	hp.PhaseLabel = info.Label
	hp.PhaseGuidance = info.Guidance
	hp.RemainingDays = habit.RemainingDays(elapsed)
}

func recomputeStreakTx(ctx context.Context, tx pgx.Tx, habitID, userID uuid.UUID, now time.Time) (int, *time.Time, error) {
	rows, err := tx.Query(ctx, `
		SELECT date FROM habit_completions
		WHERE habit_id = $1 AND user_id = $2`, habitID, userID)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to fetch completion dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return 0, nil, fmt.Errorf("failed to scan completion date: %w", err)
		}
		dates = append(dates, d)
	}
	if err = rows.Err(); err != nil {
		return 0, nil, fmt.Errorf("error iterating completion dates: %w", err)
	}

	var last *time.Time
	for i := range dates {
		if last == nil || dates[i].After(*last) {
			last = &dates[i]
		}
	}

	return habit.Streak(dates, now), last, nil
}
