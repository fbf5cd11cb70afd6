package location

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
)

func authStub(c *fiber.Ctx) error {
	c.Locals("user_id", "user-1")
	return c.Next()
}

func TestLocationHandlers(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO saved_locations`).
		WithArgs(pgxmock.AnyArg(), "user-1", "Secret beach", "", 12.3, 55.1).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	mock.ExpectQuery(`SELECT id, user_id, name, note`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "name", "note", "lat", "lng", "created_at"}).
			AddRow("loc-1", "user-1", "Secret beach", "", 55.1, 12.3, time.Now()))

	app := fiber.New()
	RegisterRoutes(app.Group("/locations"), NewService(mock), authStub)

	body, _ := json.Marshal(SavedLocation{Name: "Secret beach", Lat: 55.1, Lng: 12.3})
	req := httptest.NewRequest(http.MethodPost, "/locations/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("save status: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/locations/", nil)
	resp, err = app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("list status: %v", err)
	}
}

func TestLocationHandlersBadPayload(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/locations"), NewService(nil), authStub)

	req := httptest.NewRequest(http.MethodPost, "/locations/", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request")
	}
}
