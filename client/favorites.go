package client

import (
	"context"
	"net/http"
	"sync"
)

// Favorites tracks which posts the signed-in user has bookmarked,
// mirrored against the server's favorites resource.
type Favorites struct {
	api *Client

	mu  sync.Mutex
	ids map[string]struct{}

	onChange func()
}

func NewFavorites(api *Client) *Favorites {
	return &Favorites{api: api, ids: make(map[string]struct{})}
}

// Sync replaces the local set with the server's.
func (f *Favorites) Sync(ctx context.Context) error {
	var payload struct {
		PostIDs []string `json:"post_ids"`
	}
	if err := f.api.do(ctx, http.MethodGet, "/api/v1/favorites/", nil, &payload); err != nil {
		return err
	}

	f.mu.Lock()
	f.ids = make(map[string]struct{}, len(payload.PostIDs))
	for _, id := range payload.PostIDs {
		f.ids[id] = struct{}{}
	}
	f.mu.Unlock()

	f.notify()
	return nil
}

func (f *Favorites) Has(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.ids[id]
	return ok
}

// Toggle flips a post's bookmark. Without a session it reports
// ErrAuthRequired so the UI can prompt a login. The local set only
// changes once the server confirmed; a failed request leaves it alone.
func (f *Favorites) Toggle(ctx context.Context, postID string) error {
	if f.api.Token() == "" {
		return ErrAuthRequired
	}

	had := f.Has(postID)
	method := http.MethodPost
	if had {
		method = http.MethodDelete
	}
	if err := f.api.do(ctx, method, "/api/v1/favorites/"+postID, nil, nil); err != nil {
		return err
	}

	f.mu.Lock()
	if had {
		delete(f.ids, postID)
	} else {
		f.ids[postID] = struct{}{}
	}
	f.mu.Unlock()

	f.notify()
	return nil
}

func (f *Favorites) notify() {
	if f.onChange != nil {
		f.onChange()
	}
}
