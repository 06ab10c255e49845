package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"habitflowAPI/internal/types/challenge"
	"habitflowAPI/internal/types/leaderboard"
)

type ChallengeService struct {
	db *pgxpool.Pool
}

func NewChallengeService(db *pgxpool.Pool) *ChallengeService {
	return &ChallengeService{db: db}
}

// GetChallenges lists active community challenges with the caller's join
// state and current progress.
func (s *ChallengeService) GetChallenges(ctx context.Context, clerkID string, now time.Time) ([]*challenge.ChallengeWithStatus, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT
		c.id, c.name, c.description, c.start_date, c.end_date, c.goal_type, c.goal_value, c.is_active, c.created_at,
		uc.id IS NOT NULL AS joined,
		COALESCE(uc.progress, 0) AS progress,
		COALESCE(uc.completed, false) AS completed,
		(SELECT COUNT(*) FROM user_challenges WHERE challenge_id = c.id) AS participants
	FROM community_challenges c
	LEFT JOIN user_challenges uc ON uc.challenge_id = c.id AND uc.user_id = $1
	WHERE c.is_active = true AND c.end_date >= $2::date
	ORDER BY c.start_date
	`

	rows, err := s.db.Query(ctx, query, userID, now.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch challenges: %w", err)
	}
	defer rows.Close()

	var challenges []*challenge.ChallengeWithStatus
	for rows.Next() {
		c := &challenge.ChallengeWithStatus{}
		err := rows.Scan(
			&c.ID, &c.Name, &c.Description, &c.StartDate, &c.EndDate, &c.GoalType, &c.GoalValue, &c.IsActive, &c.CreatedAt,
			&c.Joined, &c.Progress, &c.Completed, &c.Participants,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, c)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating challenges: %w", err)
	}

	return challenges, nil
}

func (s *ChallengeService) JoinChallenge(ctx context.Context, clerkID string, challengeID uuid.UUID) error {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	var isActive bool
	err = s.db.QueryRow(ctx, `SELECT is_active FROM community_challenges WHERE id = $1`, challengeID).Scan(&isActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("challenge not found: %w", ErrNotFound)
		}
		return fmt.Errorf("failed to check challenge: %w", err)
	}
	if !isActive {
		return fmt.Errorf("challenge is no longer active")
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO user_challenges (id, user_id, challenge_id, progress, joined_at)
		VALUES ($1, $2, $3, 0, NOW())
		ON CONFLICT (user_id, challenge_id) DO NOTHING`,
		uuid.New(), userID, challengeID)
	if err != nil {
		return fmt.Errorf("failed to join challenge: %w", err)
	}

	return nil
}

func (s *ChallengeService) LeaveChallenge(ctx context.Context, clerkID string, challengeID uuid.UUID) error {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(ctx, `
		DELETE FROM user_challenges WHERE user_id = $1 AND challenge_id = $2`,
		userID, challengeID)
	if err != nil {
		return fmt.Errorf("failed to leave challenge: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("not participating in challenge: %w", ErrNotFound)
	}

	return nil
}

// UpdateProgress recomputes a participant's progress from their completions
// inside the challenge window and marks the challenge done when the goal is
// reached. Called after each completion toggle.
func (s *ChallengeService) UpdateProgress(ctx context.Context, userID uuid.UUID, now time.Time) error {
	query := `
	UPDATE user_challenges uc
	SET progress = sub.progress,
		completed = sub.progress >= c.goal_value,
		completed_at = CASE
			WHEN sub.progress >= c.goal_value AND uc.completed_at IS NULL THEN NOW()
			WHEN sub.progress < c.goal_value THEN NULL
			ELSE uc.completed_at
		END
	FROM community_challenges c,
		LATERAL (
			SELECT COUNT(DISTINCT hc.date) AS progress
			FROM habit_completions hc
			WHERE hc.user_id = uc.user_id
				AND hc.date >= c.start_date
				AND hc.date <= c.end_date
		) sub
	WHERE uc.challenge_id = c.id
		AND uc.user_id = $1
		AND c.is_active = true
		AND c.start_date <= $2::date
		AND c.end_date >= $2::date
	`

	_, err := s.db.Exec(ctx, query, userID, now.Format("2006-01-02"))
	if err != nil {
		return fmt.Errorf("failed to update challenge progress: %w", err)
	}

	return nil
}

// UpdateProgressByClerkID is the handler-facing variant of UpdateProgress.
func (s *ChallengeService) UpdateProgressByClerkID(ctx context.Context, clerkID string, now time.Time) error {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}
	return s.UpdateProgress(ctx, userID, now)
}

// GetChallengeLeaderboard ranks participants by progress.
func (s *ChallengeService) GetChallengeLeaderboard(ctx context.Context, clerkID string, challengeID uuid.UUID) (*leaderboard.Leaderboard, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT
		u.id, u.username, COALESCE(u.image_url, ''),
		uc.progress,
		RANK() OVER (ORDER BY uc.progress DESC, uc.joined_at) AS rank
	FROM user_challenges uc
	INNER JOIN users u ON u.id = uc.user_id
	WHERE uc.challenge_id = $1
	ORDER BY rank
	LIMIT 50
	`

	rows, err := s.db.Query(ctx, query, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch challenge leaderboard: %w", err)
	}
	defer rows.Close()

	board := &leaderboard.Leaderboard{}
	for rows.Next() {
		entry := &leaderboard.Entry{}
		err := rows.Scan(&entry.UserID, &entry.Username, &entry.ImageURL, &entry.TotalCompletions, &entry.Rank)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		if entry.UserID == userID {
			board.YourRank = entry.Rank
		}
		board.Entries = append(board.Entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaderboard: %w", err)
	}

	return board, nil
}
