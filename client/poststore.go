package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	fetchTimeout    = 10 * time.Second
	refreshInterval = 120 * time.Second

	maxTitleLen       = 100
	maxDescriptionLen = 2000
	maxImages         = 5
)

// Store caches the full post list and the filtered view derived from
// it. All methods are safe for concurrent use.
type Store struct {
	api  *Client
	favs *Favorites

	mu         sync.Mutex
	fetching   bool
	posts      []Post
	filtered   []Post
	filter     Filter
	lastErr    error
	selectedID string

	timeout time.Duration
}

func NewStore(api *Client) *Store {
	return &Store{api: api, timeout: fetchTimeout}
}

// UseFavorites wires a favorite tracker in: posts get their Bookmarked
// flag stamped at ingestion and re-stamped whenever the set changes.
func (s *Store) UseFavorites(f *Favorites) {
	s.mu.Lock()
	s.favs = f
	s.mu.Unlock()
	f.onChange = s.restamp
}

// Fetch replaces the cached list with the server's. A fetch already in
// flight makes the call a no-op; the abort timer bounds how long a
// stalled request can hold that flag. Rate limiting is swallowed
// whole: the list and the error state stay exactly as they were.
func (s *Store) Fetch(ctx context.Context) error {
	return s.FetchLimit(ctx, 0)
}

// FetchLimit is Fetch with an explicit page size; zero means the
// server default.
func (s *Store) FetchLimit(ctx context.Context, limit int) error {
	s.mu.Lock()
	if s.fetching {
		s.mu.Unlock()
		return nil
	}
	s.fetching = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.fetching = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	path := "/api/v1/posts/"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var fetched []Post
	err := s.api.do(ctx, http.MethodGet, path, nil, &fetched)
	if errors.Is(err, ErrRateLimited) {
		return nil
	}
	if err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		return err
	}

	s.ingest(fetched)
	return nil
}

func (s *Store) ingest(fetched []Post) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clean := make([]Post, 0, len(fetched))
	for _, p := range fetched {
		if !p.Valid() {
			continue
		}
		if s.favs != nil {
			p.Bookmarked = s.favs.Has(p.ID)
		}
		clean = append(clean, p)
	}

	// The selected post survives a refresh as the same object; only
	// its volatile counters take the fresh values.
	if s.selectedID != "" {
		if old, ok := findPost(s.posts, s.selectedID); ok {
			for i := range clean {
				if clean[i].ID != s.selectedID {
					continue
				}
				merged := old
				merged.RatingAvg = clean[i].RatingAvg
				merged.RatingCount = clean[i].RatingCount
				merged.LikesCount = clean[i].LikesCount
				merged.Bookmarked = clean[i].Bookmarked
				clean[i] = merged
			}
		}
	}

	s.posts = clean
	s.filtered = s.filter.Apply(clean)
	s.lastErr = nil
}

// Search runs the server-side text search. Results go straight to the
// caller; the cached list stays untouched. Debouncing, when wanted,
// belongs to the caller.
func (s *Store) Search(ctx context.Context, query string) ([]Post, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	var results []Post
	if err := s.api.do(ctx, http.MethodGet, "/api/v1/posts/search?q="+url.QueryEscape(query), nil, &results); err != nil {
		return nil, err
	}

	clean := make([]Post, 0, len(results))
	for _, p := range results {
		if p.Valid() {
			clean = append(clean, p)
		}
	}
	return clean, nil
}

// NewPost is the payload for creating a post. Images are plain URLs
// here; the wire format carries them as {url} objects.
type NewPost struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category,omitempty"`
	PriceRange  string   `json:"price_range,omitempty"`
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	Tags        []string `json:"tags,omitempty"`
	Images      []string `json:"-"`
}

func (p NewPost) MarshalJSON() ([]byte, error) {
	type alias NewPost
	type imageRef struct {
		URL string `json:"url"`
	}
	payload := struct {
		alias
		Images []imageRef `json:"images,omitempty"`
	}{alias: alias(p)}
	for _, u := range p.Images {
		payload.Images = append(payload.Images, imageRef{URL: u})
	}
	return json.Marshal(payload)
}

// CreatePost validates locally, posts, and appends the server's
// normalized representation to the cached list. The filtered view only
// picks it up if it passes the current filter.
func (s *Store) CreatePost(ctx context.Context, payload NewPost) (Post, error) {
	if err := validateNewPost(payload); err != nil {
		return Post{}, err
	}

	var created Post
	if err := s.api.do(ctx, http.MethodPost, "/api/v1/posts/", payload, &created); err != nil {
		return Post{}, err
	}
	if !created.Valid() {
		return Post{}, rejected(ErrRejected, "server returned an unusable post")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.favs != nil {
		created.Bookmarked = s.favs.Has(created.ID)
	}
	s.posts = append(s.posts, created)
	if s.filter.Match(created) {
		s.filtered = append(s.filtered, created)
	}
	return created, nil
}

func validateNewPost(p NewPost) error {
	switch {
	case p.Title == "":
		return rejected(ErrValidation, "title is required")
	case len(p.Title) > maxTitleLen:
		return rejected(ErrValidation, "title too long")
	case len(p.Description) > maxDescriptionLen:
		return rejected(ErrValidation, "description too long")
	case len(p.Images) > maxImages:
		return rejected(ErrValidation, "too many images")
	}
	return nil
}

// Select marks a post as the detail view's subject. An unknown id
// clears the slot.
func (s *Store) Select(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := findPost(s.posts, id); ok {
		s.selectedID = id
	} else {
		s.selectedID = ""
	}
}

func (s *Store) Selected() (Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selectedID == "" {
		return Post{}, false
	}
	return findPost(s.posts, s.selectedID)
}

// SetFilter swaps the browse state and recomputes the filtered view.
func (s *Store) SetFilter(f Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
	s.filtered = f.Apply(s.posts)
}

func (s *Store) Posts() []Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Post(nil), s.posts...)
}

func (s *Store) Filtered() []Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Post(nil), s.filtered...)
}

// Err returns the retryable error state from the last failed fetch,
// or nil after a successful one.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// StartRefresh re-fetches on an interval until the context ends.
func (s *Store) StartRefresh(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(refreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = s.Fetch(ctx)
			}
		}
	}()
}

func (s *Store) restamp() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.favs == nil {
		return
	}
	for i := range s.posts {
		s.posts[i].Bookmarked = s.favs.Has(s.posts[i].ID)
	}
	for i := range s.filtered {
		s.filtered[i].Bookmarked = s.favs.Has(s.filtered[i].ID)
	}
}

func findPost(posts []Post, id string) (Post, bool) {
	for _, p := range posts {
		if p.ID == id {
			return p, true
		}
	}
	return Post{}, false
}
