package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"habitflowAPI/internal/types/notification"
)

// PushProvider is what the FCM client implements; injected so the service
// works without push configured.
type PushProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error
}

type NotificationService struct {
	db   *pgxpool.Pool
	push PushProvider
}

func NewNotificationService(db *pgxpool.Pool) *NotificationService {
	return &NotificationService{db: db}
}

func (s *NotificationService) SetPushProvider(p PushProvider) {
	s.push = p
}

// Notify persists a notification and, when a push provider is configured,
// fans it out to the user's devices. Push failures are logged, not returned;
// the stored notification is the source of truth.
func (s *NotificationService) Notify(ctx context.Context, userID uuid.UUID, nType notification.NotificationType, title, message string, data map[string]any) (*notification.Notification, error) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode notification data: %w", err)
	}

	query := `
	INSERT INTO notifications (id, user_id, type, title, message, data, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, NOW())
	RETURNING id, user_id, type, title, message, is_read, created_at
	`

	n := &notification.Notification{Data: data}
	err = s.db.QueryRow(ctx, query, uuid.New(), userID, nType, title, message, dataJSON).Scan(
		&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	if s.push != nil {
		tokens, err := s.getDeviceTokens(ctx, userID)
		if err != nil {
			log.Printf("NotificationService: failed to load device tokens for %s: %v", userID, err)
			return n, nil
		}
		if err := s.push.SendPush(ctx, tokens, title, message, data); err != nil {
			log.Printf("NotificationService: push delivery failed for %s: %v", userID, err)
		}
	}

	return n, nil
}

func (s *NotificationService) GetNotifications(ctx context.Context, clerkID string, limit int) ([]*notification.Notification, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `
	SELECT id, user_id, type, title, message, is_read, data, created_at
	FROM notifications
	WHERE user_id = $1
	ORDER BY created_at DESC
	LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*notification.Notification
	for rows.Next() {
		n := &notification.Notification{}
		var dataRaw []byte
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.IsRead, &dataRaw, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if len(dataRaw) > 0 {
			if err := json.Unmarshal(dataRaw, &n.Data); err != nil {
				log.Printf("NotificationService: bad data payload on %s: %v", n.ID, err)
			}
		}
		notifications = append(notifications, n)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	return notifications, nil
}

func (s *NotificationService) GetUnreadCount(ctx context.Context, clerkID string) (int, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return 0, err
	}

	var count int
	err = s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = false`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return count, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, clerkID string, notificationID uuid.UUID) error {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(ctx, `
		UPDATE notifications SET is_read = true
		WHERE id = $1 AND user_id = $2`, notificationID, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("notification not found: %w", ErrNotFound)
	}

	return nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, clerkID string) error {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, `
		UPDATE notifications SET is_read = true
		WHERE user_id = $1 AND is_read = false`, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}

	return nil
}

func (s *NotificationService) DeleteNotification(ctx context.Context, clerkID string, notificationID uuid.UUID) error {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(ctx, `
		DELETE FROM notifications WHERE id = $1 AND user_id = $2`, notificationID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("notification not found: %w", ErrNotFound)
	}

	return nil
}

func (s *NotificationService) RegisterDevice(ctx context.Context, clerkID string, req *notification.RegisterDeviceRequest) error {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO device_tokens (id, user_id, token, platform, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id, token) DO UPDATE SET platform = $4`,
		uuid.New(), userID, req.Token, req.Platform)
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}

	return nil
}

func (s *NotificationService) getDeviceTokens(ctx context.Context, userID uuid.UUID) ([]notification.DeviceToken, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, token, platform, created_at
		FROM device_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch device tokens: %w", err)
	}
	defer rows.Close()

	var tokens []notification.DeviceToken
	for rows.Next() {
		var t notification.DeviceToken
		if err := rows.Scan(&t.ID, &t.UserID, &t.Token, &t.Platform, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan device token: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating device tokens: %w", err)
	}

	return tokens, nil
}

// StreakAtRisk is one habit whose run ends tonight unless the user acts.
type StreakAtRisk struct {
	UserID      uuid.UUID
	HabitID     uuid.UUID
	HabitName   string
	StreakCount int
}

// FindStreaksAtRisk lists habits completed yesterday but not yet today.
// The evening worker turns these into streak_risk pushes.
func (s *NotificationService) FindStreaksAtRisk(ctx context.Context, now time.Time) ([]StreakAtRisk, error) {
	query := `
	SELECT h.user_id, h.id, h.name, h.streak_count
	FROM habits h
	WHERE h.archived = false
		AND h.streak_count > 0
		AND EXISTS (
			SELECT 1 FROM habit_completions
			WHERE habit_id = h.id AND date = ($1::date - INTERVAL '1 day')
		)
		AND NOT EXISTS (
			SELECT 1 FROM habit_completions
			WHERE habit_id = h.id AND date = $1::date
		)
	`

	rows, err := s.db.Query(ctx, query, now.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to find streaks at risk: %w", err)
	}
	defer rows.Close()

	var risks []StreakAtRisk
	for rows.Next() {
		var r StreakAtRisk
		if err := rows.Scan(&r.UserID, &r.HabitID, &r.HabitName, &r.StreakCount); err != nil {
			return nil, fmt.Errorf("failed to scan streak risk: %w", err)
		}
		risks = append(risks, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating streak risks: %w", err)
	}

	return risks, nil
}
