package favorite

import (
	"context"
	"time"

	"github.com/devasol/PinQuest-sub002/internal/db"
)

// Favorite is a (user, post) bookmark relation. Its existence is the
// whole state; there is nothing else to store.
type Favorite struct {
	UserID    string    `json:"user_id"`
	PostID    string    `json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// Add bookmarks a post. Re-adding an existing bookmark is a no-op, so
// a retried request cannot double-insert.
func (s *Service) Add(ctx context.Context, userID, postID string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO favorites (user_id, post_id)
		VALUES ($1,$2)
		ON CONFLICT DO NOTHING
	`, userID, postID)
	return err
}

func (s *Service) Remove(ctx context.Context, userID, postID string) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM favorites WHERE user_id=$1 AND post_id=$2
	`, userID, postID)
	return err
}

// List returns the ids of every post userID has bookmarked, newest
// bookmark first.
func (s *Service) List(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT post_id FROM favorites WHERE user_id=$1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Service) IsFavorite(ctx context.Context, userID, postID string) (bool, error) {
	var ok bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM favorites WHERE user_id=$1 AND post_id=$2)
	`, userID, postID).Scan(&ok)
	return ok, err
}
