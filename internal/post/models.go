package post

import "time"

// Categories a post can be filed under. "general" is the fallback the
// web client preselects.
var Categories = []string{"general", "nature", "culture", "shopping", "food", "event", "travel"}

// Price buckets. "free" means no entry cost at the location.
var PriceRanges = []string{"free", "low", "medium", "high"}

type Post struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	PriceRange  string    `json:"price_range"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	Tags        []string  `json:"tags,omitempty"`
	Images      []Image   `json:"images,omitempty"`
	RatingAvg   float64   `json:"rating_avg"`
	RatingCount int       `json:"rating_count"`
	LikesCount  int       `json:"likes_count"`
	PostedBy    string    `json:"posted_by"`
	PosterName  string    `json:"poster_name"`
	CreatedAt   time.Time `json:"created_at"`
}

type Image struct {
	ID     string `json:"id"`
	PostID string `json:"post_id"`
	URL    string `json:"url"`
}

type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type Rating struct {
	PostID      string  `json:"post_id"`
	RatingAvg   float64 `json:"rating_avg"`
	RatingCount int     `json:"rating_count"`
}

func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

func ValidPriceRange(p string) bool {
	for _, v := range PriceRanges {
		if v == p {
			return true
		}
	}
	return false
}
