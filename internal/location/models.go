package location

import "time"

// SavedLocation is a private map pin a user keeps for themselves,
// separate from public posts and from bookmarks of other people's
// posts.
type SavedLocation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Note      string    `json:"note"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	CreatedAt time.Time `json:"created_at"`
}
