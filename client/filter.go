package client

import (
	"sort"
	"strings"
)

// Sort keys understood by the pipeline. Anything else leaves the input
// order alone.
const (
	SortNewest  = "newest"
	SortOldest  = "oldest"
	SortRating  = "rating"
	SortPopular = "popular"
)

// Filter is the user's current browse state. The zero value passes
// everything through untouched.
type Filter struct {
	Query     string
	Category  string // "" or "all" matches every category
	MinRating float64
	Price     string // "" or "all" matches every price bucket
	Sort      string
}

// Apply runs the pipeline in its fixed order: text match, category,
// rating floor, price bucket, then a stable sort. It never mutates the
// input and ties keep their input order, so applying the same filter
// twice yields the same result.
func (f Filter) Apply(posts []Post) []Post {
	out := make([]Post, 0, len(posts))
	for _, p := range posts {
		if f.Match(p) {
			out = append(out, p)
		}
	}

	switch f.Sort {
	case SortNewest:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	case SortOldest:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	case SortRating:
		sort.SliceStable(out, func(i, j int) bool { return out[i].RatingAvg > out[j].RatingAvg })
	case SortPopular:
		sort.SliceStable(out, func(i, j int) bool { return out[i].LikesCount > out[j].LikesCount })
	}
	return out
}

// Match reports whether a single post passes the non-sort stages.
func (f Filter) Match(p Post) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" && !matchesQuery(p, q) {
		return false
	}
	if f.Category != "" && f.Category != "all" && p.Category != f.Category {
		return false
	}
	if p.RatingAvg < f.MinRating {
		return false
	}
	if f.Price != "" && f.Price != "all" && p.PriceRange != f.Price {
		return false
	}
	return true
}

func matchesQuery(p Post, q string) bool {
	for _, field := range []string{p.Title, p.Description, p.PostedBy.Name, p.Category} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}
