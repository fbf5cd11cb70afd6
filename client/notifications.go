package client

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	recentLimit  = 5
	pollInterval = 30 * time.Second
	redialDelay  = 5 * time.Second
)

// Notification is one feed entry as the API serves it.
type Notification struct {
	ID            string    `json:"id"`
	Message       string    `json:"message"`
	RelatedPostID string    `json:"related_post_id,omitempty"`
	Read          bool      `json:"read"`
	CreatedAt     time.Time `json:"created_at"`
}

// Feed keeps the five most recent notifications and the unread
// counter. Live pushes come in over a websocket; a slow poll backs the
// socket up when it degrades.
type Feed struct {
	api *Client

	mu     sync.Mutex
	recent []Notification
	unread int

	logf func(format string, v ...any)
}

func NewFeed(api *Client) *Feed {
	return &Feed{api: api, logf: log.Printf}
}

func (f *Feed) Recent() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Notification(nil), f.recent...)
}

func (f *Feed) Unread() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unread
}

// Refresh pulls the recent window and the unread counter from the
// server, replacing the local view.
func (f *Feed) Refresh(ctx context.Context) error {
	var recent []Notification
	if err := f.api.do(ctx, http.MethodGet, "/api/v1/notifications/", nil, &recent); err != nil {
		return err
	}
	var counter struct {
		Unread int `json:"unread_count"`
	}
	if err := f.api.do(ctx, http.MethodGet, "/api/v1/notifications/unread-count", nil, &counter); err != nil {
		return err
	}

	f.mu.Lock()
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	f.recent = recent
	f.unread = counter.Unread
	f.mu.Unlock()
	return nil
}

// MarkRead flips one notification optimistically, then confirms with
// the server. A failed confirm is logged and the optimistic state
// stands; the next refresh reconciles.
func (f *Feed) MarkRead(ctx context.Context, id string) {
	f.mu.Lock()
	for i := range f.recent {
		if f.recent[i].ID == id && !f.recent[i].Read {
			f.recent[i].Read = true
			f.unread--
		}
	}
	if f.unread < 0 {
		f.unread = 0
	}
	f.mu.Unlock()

	if err := f.api.do(ctx, http.MethodPatch, "/api/v1/notifications/"+id+"/read", nil, nil); err != nil {
		f.logf("mark read %s failed: %v", id, err)
	}
}

// MarkAllRead clears the counter and flips every cached entry, then
// confirms with the server.
func (f *Feed) MarkAllRead(ctx context.Context) {
	f.mu.Lock()
	for i := range f.recent {
		f.recent[i].Read = true
	}
	f.unread = 0
	f.mu.Unlock()

	if err := f.api.do(ctx, http.MethodPatch, "/api/v1/notifications/read-all", nil, nil); err != nil {
		f.logf("mark all read failed: %v", err)
	}
}

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// apply folds one pushed envelope into the feed.
func (f *Feed) apply(env envelope) {
	switch env.Event {
	case "newNotification":
		var n Notification
		if err := json.Unmarshal(env.Data, &n); err != nil {
			f.logf("bad notification payload: %v", err)
			return
		}
		f.mu.Lock()
		f.recent = append([]Notification{n}, f.recent...)
		if len(f.recent) > recentLimit {
			f.recent = f.recent[:recentLimit]
		}
		f.unread++
		f.mu.Unlock()

	case "notificationRead":
		var payload struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return
		}
		f.mu.Lock()
		if payload.ID == "*" {
			for i := range f.recent {
				f.recent[i].Read = true
			}
			f.unread = 0
		} else {
			for i := range f.recent {
				if f.recent[i].ID == payload.ID && !f.recent[i].Read {
					f.recent[i].Read = true
					f.unread--
				}
			}
			if f.unread < 0 {
				f.unread = 0
			}
		}
		f.mu.Unlock()
	}
}

// Listen consumes pushed envelopes over one websocket connection until
// the context ends or the connection drops.
func (f *Feed) Listen(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.socketURL(), nil)
	if err != nil {
		return rejected(ErrUnreachable, err.Error())
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		var env envelope
		if err := conn.ReadJSON(&env); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return rejected(ErrUnreachable, err.Error())
		}
		f.apply(env)
	}
}

// Run keeps the feed live: a websocket loop that redials on failure,
// and the slow poll that reconciles whatever push misses. It returns
// when the context ends.
func (f *Feed) Run(ctx context.Context) {
	go func() {
		for {
			if err := f.Listen(ctx); err != nil && ctx.Err() == nil {
				f.logf("notification socket dropped: %v", err)
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(redialDelay):
			}
		}
	}()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := f.Refresh(ctx); err != nil {
				f.logf("notification poll failed: %v", err)
			}
		}
	}
}

// socketURL derives the ws endpoint from the API base URL, carrying
// the token as a query parameter since browsers set no headers on
// websocket upgrades and the server mirrors that contract.
func (f *Feed) socketURL() string {
	base := f.api.baseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/api/v1/stream/ws?token=" + url.QueryEscape(f.api.Token())
}
