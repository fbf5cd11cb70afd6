package notification

import "time"

type Notification struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Message       string    `json:"message"`
	RelatedPostID string    `json:"related_post_id,omitempty"`
	Read          bool      `json:"read"`
	CreatedAt     time.Time `json:"created_at"`
}
