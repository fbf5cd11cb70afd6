package stream

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

type stubValidator struct {
	userID string
	err    error
}

func (s stubValidator) ValidateAccessToken(string) (string, error) {
	return s.userID, s.err
}

func TestStreamRouteRejectsBadToken(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/stream"), NewHub(nil), stubValidator{err: errors.New("bad token")})

	req := httptest.NewRequest(http.MethodGet, "/stream/ws?token=bad", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized, got %v", resp.StatusCode)
	}
}

func TestStreamRouteRequiresUpgrade(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/stream"), NewHub(nil), stubValidator{userID: "user-1"})

	// plain GET without the websocket upgrade headers
	req := httptest.NewRequest(http.MethodGet, "/stream/ws?token=ok", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusUpgradeRequired {
		t.Fatalf("expected upgrade required, got %v", resp.StatusCode)
	}
}
