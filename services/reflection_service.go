package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"habitflowAPI/internal/types/reflection"
)

// ReflectionInterval is how stale the latest reflection may get before the
// habit asks for a new one.
const ReflectionInterval = 7 * 24 * time.Hour

// SRHIQuestions is the Self-Report Habit Index questionnaire, served as
// static content. Responses are 1-3 Likert values keyed by index.
var SRHIQuestions = []reflection.SRHIQuestion{
	{Index: 0, Text: "I do this behaviour automatically."},
	{Index: 1, Text: "I do this behaviour without having to consciously remember."},
	{Index: 2, Text: "I would find it hard not to do this behaviour."},
	{Index: 3, Text: "I do this behaviour without thinking."},
	{Index: 4, Text: "Doing this behaviour would require effort not to do it."},
	{Index: 5, Text: "This behaviour is part of my daily routine."},
	{Index: 6, Text: "I start doing this behaviour before I realise I am doing it."},
	{Index: 7, Text: "I would find it hard not to do this behaviour every day."},
	{Index: 8, Text: "I have no need to think about doing this behaviour."},
	{Index: 9, Text: "This behaviour is typically 'me'."},
	{Index: 10, Text: "I have been doing this behaviour for a long time."},
	{Index: 11, Text: "Doing this behaviour feels sort of natural to me."},
}

type ReflectionService struct {
	db *pgxpool.Pool
}

func NewReflectionService(db *pgxpool.Pool) *ReflectionService {
	return &ReflectionService{db: db}
}

func (s *ReflectionService) CreateReflection(ctx context.Context, clerkID string, habitID uuid.UUID, req *reflection.CreateReflectionRequest) (*reflection.Reflection, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	var srhiJSON []byte
	if req.SRHIResponses != nil {
		srhiJSON, err = json.Marshal(req.SRHIResponses)
		if err != nil {
			return nil, fmt.Errorf("failed to encode SRHI responses: %w", err)
		}
	}

	query := `
	INSERT INTO reflections (id, habit_id, user_id, reflection_text, obstacles, srhi_responses, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, NOW())
	RETURNING id, habit_id, user_id, reflection_text, obstacles, srhi_responses, created_at
	`

	r := &reflection.Reflection{}
	var srhiRaw []byte
	err = s.db.QueryRow(ctx, query, uuid.New(), habitID, userID, req.ReflectionText, req.Obstacles, srhiJSON).Scan(
		&r.ID, &r.HabitID, &r.UserID, &r.ReflectionText, &r.Obstacles, &srhiRaw, &r.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create reflection: %w", err)
	}

	if len(srhiRaw) > 0 {
		if err := json.Unmarshal(srhiRaw, &r.SRHIResponses); err != nil {
			return nil, fmt.Errorf("failed to decode SRHI responses: %w", err)
		}
	}

	return r, nil
}

func (s *ReflectionService) GetReflections(ctx context.Context, clerkID string, habitID uuid.UUID) ([]*reflection.Reflection, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT id, habit_id, user_id, reflection_text, obstacles, srhi_responses, created_at
	FROM reflections
	WHERE habit_id = $1 AND user_id = $2
	ORDER BY created_at DESC
	`

	rows, err := s.db.Query(ctx, query, habitID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reflections: %w", err)
	}
	defer rows.Close()

	var reflections []*reflection.Reflection
	for rows.Next() {
		r := &reflection.Reflection{}
		var srhiRaw []byte
		err := rows.Scan(&r.ID, &r.HabitID, &r.UserID, &r.ReflectionText, &r.Obstacles, &srhiRaw, &r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reflection: %w", err)
		}
		if len(srhiRaw) > 0 {
			if err := json.Unmarshal(srhiRaw, &r.SRHIResponses); err != nil {
				return nil, fmt.Errorf("failed to decode SRHI responses: %w", err)
			}
		}
		reflections = append(reflections, r)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reflections: %w", err)
	}

	return reflections, nil
}

// NeedsReflection reports whether the habit has no reflection yet or the
// latest one is at least a week old.
func (s *ReflectionService) NeedsReflection(ctx context.Context, clerkID string, habitID uuid.UUID, now time.Time) (*reflection.NeedsReflectionResponse, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	var latest time.Time
	err = s.db.QueryRow(ctx, `
		SELECT created_at FROM reflections
		WHERE habit_id = $1 AND user_id = $2
		ORDER BY created_at DESC
		LIMIT 1`, habitID, userID).Scan(&latest)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &reflection.NeedsReflectionResponse{NeedsReflection: true}, nil
		}
		return nil, fmt.Errorf("failed to get latest reflection: %w", err)
	}

	return &reflection.NeedsReflectionResponse{
		NeedsReflection: now.Sub(latest) >= ReflectionInterval,
		LastReflection:  &latest,
	}, nil
}
