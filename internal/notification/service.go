package notification

import (
	"context"
	"errors"

	"github.com/devasol/PinQuest-sub002/internal/db"
	"github.com/devasol/PinQuest-sub002/internal/stream"

	"github.com/google/uuid"
)

// DefaultRecentLimit bounds the recent-notifications window the web
// client keeps in memory. The table holds the full history.
const DefaultRecentLimit = 5

type Service struct {
	db  db.Querier
	hub *stream.Hub
}

func NewService(db db.Querier, hub *stream.Hub) *Service {
	return &Service{db: db, hub: hub}
}

// Notify stores a notification and pushes it to the recipient's open
// connections. Satisfies post.Notifier.
func (s *Service) Notify(ctx context.Context, userID, message, relatedPostID string) error {
	n := Notification{
		ID:            uuid.NewString(),
		UserID:        userID,
		Message:       message,
		RelatedPostID: relatedPostID,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO notifications (id, user_id, message, related_post_id)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at
	`, n.ID, n.UserID, n.Message, nullable(n.RelatedPostID))
	if err := row.Scan(&n.CreatedAt); err != nil {
		return err
	}

	if s.hub != nil {
		s.hub.Push(userID, stream.EventNewNotification, n)
	}
	return nil
}

func (s *Service) Recent(ctx context.Context, userID string, limit int) ([]Notification, error) {
	if limit <= 0 || limit > 50 {
		limit = DefaultRecentLimit
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, message, COALESCE(related_post_id, ''), read, created_at
		FROM notifications WHERE user_id=$1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.RelatedPostID, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id=$1 AND read=false
	`, userID).Scan(&count)
	return count, err
}

// MarkRead flips one notification to read. The read state is one-way:
// there is no operation back to unread.
func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE notifications SET read=true WHERE id=$1 AND user_id=$2
	`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.New("notification not found")
	}

	if s.hub != nil {
		s.hub.Push(userID, stream.EventNotificationRead, map[string]string{"id": id})
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE notifications SET read=true WHERE user_id=$1 AND read=false
	`, userID)
	if err != nil {
		return 0, err
	}

	if s.hub != nil {
		s.hub.Push(userID, stream.EventNotificationRead, map[string]string{"id": "*"})
	}
	return int(tag.RowsAffected()), nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
