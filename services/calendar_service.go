package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"habitflowAPI/internal/types/calendar"
)

type CalendarService struct {
	db *pgxpool.Pool
}

func NewCalendarService(db *pgxpool.Pool) *CalendarService {
	return &CalendarService{db: db}
}

// GetMonth assembles the month view: every calendar day with that day's
// completion rollup, missing days filled in as empty.
func (s *CalendarService) GetMonth(ctx context.Context, clerkID string, year int, month int, now time.Time) (*calendar.CalendarResponse, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	startDate := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	endDate := startDate.AddDate(0, 1, -1)

	query := `
	SELECT hc.date, COUNT(*) AS completions,
		COUNT(*) = (SELECT COUNT(*) FROM habits WHERE user_id = $1 AND archived = false) AS completed_all
	FROM habit_completions hc
	WHERE hc.user_id = $1
		AND hc.date >= $2
		AND hc.date <= $3
	GROUP BY hc.date
	ORDER BY hc.date
	`

	rows, err := s.db.Query(ctx, query, userID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar: %w", err)
	}
	defer rows.Close()

	type rollup struct {
		count int
		all   bool
	}
	dayMap := make(map[string]rollup)
	for rows.Next() {
		var date time.Time
		var r rollup
		if err := rows.Scan(&date, &r.count, &r.all); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		dayMap[date.Format("2006-01-02")] = r
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating calendar rows: %w", err)
	}

	var days []*calendar.CalendarDay
	today := now.Format("2006-01-02")

	for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
		dateStr := d.Format("2006-01-02")
		r := dayMap[dateStr]
		day := &calendar.CalendarDay{
			Date:          d,
			CompletedAny:  r.count > 0,
			CompletedAll:  r.count > 0 && r.all,
			CompletionCnt: r.count,
			IsToday:       dateStr == today,
		}
		days = append(days, day)
	}

	return &calendar.CalendarResponse{
		Year:  year,
		Month: month,
		Days:  days,
	}, nil
}

func (s *CalendarService) CreateBlock(ctx context.Context, clerkID string, req *calendar.CreateBlockRequest) (*calendar.Block, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	if req.Day < 0 || req.Day > 6 {
		return nil, fmt.Errorf("day must be 0-6")
	}

	query := `
	INSERT INTO calendar_blocks (id, user_id, habit_id, todo_id, title, day, slot, duration_mins, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	RETURNING id, user_id, habit_id, todo_id, title, day, slot, duration_mins, created_at, updated_at
	`

	b := &calendar.Block{}
	err = s.db.QueryRow(ctx, query, uuid.New(), userID, req.HabitID, req.TodoID, req.Title, req.Day, req.Slot, req.DurationMins).Scan(
		&b.ID, &b.UserID, &b.HabitID, &b.TodoID, &b.Title, &b.Day, &b.Slot, &b.DurationMins, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar block: %w", err)
	}

	return b, nil
}

func (s *CalendarService) GetBlocks(ctx context.Context, clerkID string) ([]*calendar.Block, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT id, user_id, habit_id, todo_id, title, day, slot, duration_mins, created_at, updated_at
	FROM calendar_blocks
	WHERE user_id = $1
	ORDER BY day, slot
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar blocks: %w", err)
	}
	defer rows.Close()

	var blocks []*calendar.Block
	for rows.Next() {
		b := &calendar.Block{}
		err := rows.Scan(&b.ID, &b.UserID, &b.HabitID, &b.TodoID, &b.Title, &b.Day, &b.Slot, &b.DurationMins, &b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan calendar block: %w", err)
		}
		blocks = append(blocks, b)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating calendar blocks: %w", err)
	}

	return blocks, nil
}

// MoveBlock is the drag-and-drop path: reassign day and slot in one update.
func (s *CalendarService) MoveBlock(ctx context.Context, clerkID string, blockID uuid.UUID, req *calendar.MoveBlockRequest) (*calendar.Block, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	if req.Day < 0 || req.Day > 6 {
		return nil, fmt.Errorf("day must be 0-6")
	}

	query := `
	UPDATE calendar_blocks
	SET day = $3, slot = $4, updated_at = NOW()
	WHERE id = $1 AND user_id = $2
	RETURNING id, user_id, habit_id, todo_id, title, day, slot, duration_mins, created_at, updated_at
	`

	b := &calendar.Block{}
	err = s.db.QueryRow(ctx, query, blockID, userID, req.Day, req.Slot).Scan(
		&b.ID, &b.UserID, &b.HabitID, &b.TodoID, &b.Title, &b.Day, &b.Slot, &b.DurationMins, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("calendar block not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to move calendar block: %w", err)
	}

	return b, nil
}

func (s *CalendarService) DeleteBlock(ctx context.Context, clerkID string, blockID uuid.UUID) error {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(ctx, `DELETE FROM calendar_blocks WHERE id = $1 AND user_id = $2`, blockID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete calendar block: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("calendar block not found: %w", ErrNotFound)
	}

	return nil
}
