package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"habitflowAPI/internal/types/todo"
)

type TodoService struct {
	db *pgxpool.Pool
}

func NewTodoService(db *pgxpool.Pool) *TodoService {
	return &TodoService{db: db}
}

func (s *TodoService) CreateTodo(ctx context.Context, clerkID string, req *todo.CreateTodoRequest) (*todo.Todo, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	priority := req.Priority
	if priority == "" {
		priority = todo.PriorityMedium
	}

	query := `
	INSERT INTO todos (id, user_id, title, notes, priority, due_date, position, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6,
		COALESCE((SELECT MAX(position) + 1 FROM todos WHERE user_id = $2), 0),
		NOW(), NOW())
	RETURNING id, user_id, title, notes, priority, due_date, position, completed, completed_at, created_at, updated_at
	`

	t := &todo.Todo{}
	err = s.db.QueryRow(ctx, query, uuid.New(), userID, req.Title, req.Notes, priority, req.DueDate).Scan(
		&t.ID, &t.UserID, &t.Title, &t.Notes, &t.Priority, &t.DueDate,
		&t.Position, &t.Completed, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}

	return t, nil
}

func (s *TodoService) GetTodos(ctx context.Context, clerkID string, includeCompleted bool) ([]*todo.Todo, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT id, user_id, title, notes, priority, due_date, position, completed, completed_at, created_at, updated_at
	FROM todos
	WHERE user_id = $1 AND (completed = false OR $2)
	ORDER BY completed, position
	`

	rows, err := s.db.Query(ctx, query, userID, includeCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch todos: %w", err)
	}
	defer rows.Close()

	var todos []*todo.Todo
	for rows.Next() {
		t := &todo.Todo{}
		err := rows.Scan(
			&t.ID, &t.UserID, &t.Title, &t.Notes, &t.Priority, &t.DueDate,
			&t.Position, &t.Completed, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating todos: %w", err)
	}

	return todos, nil
}

func (s *TodoService) UpdateTodo(ctx context.Context, clerkID string, todoID uuid.UUID, req *todo.UpdateTodoRequest) (*todo.Todo, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	UPDATE todos
	SET
		title = COALESCE(NULLIF($3, ''), title),
		notes = $4,
		priority = COALESCE(NULLIF($5, ''), priority),
		due_date = $6,
		updated_at = NOW()
	WHERE id = $1 AND user_id = $2
	RETURNING id, user_id, title, notes, priority, due_date, position, completed, completed_at, created_at, updated_at
	`

	t := &todo.Todo{}
	err = s.db.QueryRow(ctx, query, todoID, userID, req.Title, req.Notes, string(req.Priority), req.DueDate).Scan(
		&t.ID, &t.UserID, &t.Title, &t.Notes, &t.Priority, &t.DueDate,
		&t.Position, &t.Completed, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("todo not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}

	return t, nil
}

// ToggleTodo flips the done flag; completed_at follows it.
func (s *TodoService) ToggleTodo(ctx context.Context, clerkID string, todoID uuid.UUID) (*todo.Todo, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	UPDATE todos
	SET
		completed = NOT completed,
		completed_at = CASE WHEN completed THEN NULL ELSE NOW() END,
		updated_at = NOW()
	WHERE id = $1 AND user_id = $2
	RETURNING id, user_id, title, notes, priority, due_date, position, completed, completed_at, created_at, updated_at
	`

	t := &todo.Todo{}
	err = s.db.QueryRow(ctx, query, todoID, userID).Scan(
		&t.ID, &t.UserID, &t.Title, &t.Notes, &t.Priority, &t.DueDate,
		&t.Position, &t.Completed, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("todo not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to toggle todo: %w", err)
	}

	return t, nil
}

func (s *TodoService) DeleteTodo(ctx context.Context, clerkID string, todoID uuid.UUID) error {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(ctx, `DELETE FROM todos WHERE id = $1 AND user_id = $2`, todoID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("todo not found: %w", ErrNotFound)
	}

	return nil
}

// ReorderTodos assigns positions from the given order in one transaction.
func (s *TodoService) ReorderTodos(ctx context.Context, clerkID string, todoIDs []uuid.UUID) error {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for position, todoID := range todoIDs {
		_, err := tx.Exec(ctx, `
			UPDATE todos SET position = $3, updated_at = NOW()
			WHERE id = $1 AND user_id = $2`,
			todoID, userID, position)
		if err != nil {
			return fmt.Errorf("failed to reorder todo %s: %w", todoID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit reorder: %w", err)
	}

	return nil
}
