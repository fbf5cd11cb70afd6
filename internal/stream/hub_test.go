package stream

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestHubPushLocal(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("user-1")
	defer hub.Unregister(client)

	hub.Push("user-1", EventNewNotification, map[string]string{"id": "n-1"})

	select {
	case msg := <-client.Send:
		var env Envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			t.Fatalf("unmarshal envelope: %v", err)
		}
		if env.Event != EventNewNotification {
			t.Fatalf("unexpected event: %s", env.Event)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for message")
	}
}

func TestHubPushOtherUserNotDelivered(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("user-1")
	defer hub.Unregister(client)

	hub.Push("user-2", EventNewNotification, map[string]string{"id": "n-1"})

	select {
	case <-client.Send:
		t.Fatalf("message delivered to wrong user")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubHelpers(t *testing.T) {
	ch := redisChannel("abc")
	if ch != "notify:abc:events" {
		t.Fatalf("unexpected channel: %s", ch)
	}
	if userIDFromChannel(ch) != "abc" {
		t.Fatalf("unexpected user id")
	}
	if userIDFromChannel("bad") != "" {
		t.Fatalf("expected empty user id")
	}
}

func TestUnregisterCloses(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("user-2")
	hub.Unregister(client)
	_, ok := <-client.Send
	if ok {
		t.Fatalf("expected channel closed")
	}
}

func TestHubRedisRoundTrip(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	hub := NewHub(client)
	ws := hub.Register("user-redis")
	defer hub.Unregister(ws)

	// give the psubscribe goroutine time to attach
	time.Sleep(20 * time.Millisecond)

	hub.Push("user-redis", EventNotificationRead, map[string]string{"id": "n-9"})

	select {
	case msg := <-ws.Send:
		var env Envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			t.Fatalf("unmarshal envelope: %v", err)
		}
		if env.Event != EventNotificationRead {
			t.Fatalf("unexpected event: %s", env.Event)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timeout waiting for redis round trip")
	}
}

func TestHubRedisPublishErrorFallsBackLocal(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	server.Close()
	defer client.Close()

	hub := NewHub(client)
	ws := hub.Register("user-bad")
	defer hub.Unregister(ws)

	hub.Push("user-bad", EventNewNotification, map[string]string{"id": "n-1"})

	select {
	case <-ws.Send:
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("expected local fallback delivery")
	}
}
