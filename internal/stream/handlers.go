package stream

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// TokenValidator resolves a bearer token to a user id. The auth
// service satisfies it.
type TokenValidator interface {
	ValidateAccessToken(token string) (string, error)
}

// RegisterRoutes mounts the notification websocket. Browsers cannot
// set headers on websocket dials, so the access token rides in the
// query string.
func RegisterRoutes(r fiber.Router, hub *Hub, tokens TokenValidator) {
	r.Get("/ws", func(c *fiber.Ctx) error {
		userID, err := tokens.ValidateAccessToken(c.Query("token"))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}
		c.Locals("user_id", userID)
		if websocket.IsWebSocketUpgrade(c) {
			return websocket.New(serveClient(hub))(c)
		}
		return fiber.ErrUpgradeRequired
	})
}

func serveClient(hub *Hub) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		userID, _ := c.Locals("user_id").(string)
		client := hub.Register(userID)
		defer hub.Unregister(client)

		done := make(chan struct{})
		go func() {
			for msg := range client.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					break
				}
			}
			close(done)
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		<-done
	}
}
