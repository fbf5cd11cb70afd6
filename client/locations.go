package client

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// SavedLocation is a private map pin, separate from posts and from
// bookmarks of other users' posts.
type SavedLocation struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Note      string    `json:"note,omitempty"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	CreatedAt time.Time `json:"created_at"`
}

// Locations caches the signed-in user's saved pins. Like the post
// store it carries its own re-entrancy flag, so overlapping fetches
// collapse into one.
type Locations struct {
	api *Client

	mu       sync.Mutex
	fetching bool
	pins     []SavedLocation
}

func NewLocations(api *Client) *Locations {
	return &Locations{api: api}
}

// Fetch replaces the cached pins. A fetch already in flight makes the
// duplicate a no-op.
func (l *Locations) Fetch(ctx context.Context) error {
	l.mu.Lock()
	if l.fetching {
		l.mu.Unlock()
		return nil
	}
	l.fetching = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.fetching = false
		l.mu.Unlock()
	}()

	var pins []SavedLocation
	if err := l.api.do(ctx, http.MethodGet, "/api/v1/locations/", nil, &pins); err != nil {
		return err
	}

	l.mu.Lock()
	l.pins = pins
	l.mu.Unlock()
	return nil
}

// Save creates a pin and appends it to the cache on success.
func (l *Locations) Save(ctx context.Context, pin SavedLocation) (SavedLocation, error) {
	if pin.Name == "" {
		return SavedLocation{}, rejected(ErrValidation, "name is required")
	}

	var created SavedLocation
	if err := l.api.do(ctx, http.MethodPost, "/api/v1/locations/", pin, &created); err != nil {
		return SavedLocation{}, err
	}

	l.mu.Lock()
	l.pins = append(l.pins, created)
	l.mu.Unlock()
	return created, nil
}

// Delete removes a pin; the cache drops it only once the server did.
func (l *Locations) Delete(ctx context.Context, id string) error {
	if err := l.api.do(ctx, http.MethodDelete, "/api/v1/locations/"+id, nil, nil); err != nil {
		return err
	}

	l.mu.Lock()
	kept := l.pins[:0]
	for _, p := range l.pins {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	l.pins = kept
	l.mu.Unlock()
	return nil
}

func (l *Locations) Pins() []SavedLocation {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]SavedLocation(nil), l.pins...)
}
