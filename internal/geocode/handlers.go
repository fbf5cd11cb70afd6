package geocode

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, client *Client) {
	r.Get("/search", func(c *fiber.Ctx) error {
		q := c.Query("q")
		if q == "" {
			return fiber.NewError(fiber.StatusBadRequest, "q required")
		}
		results := client.Forward(c.Context(), q)
		if results == nil {
			results = []Result{}
		}
		return c.JSON(results)
	})

	r.Get("/reverse", func(c *fiber.Ctx) error {
		lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
		lng, err2 := strconv.ParseFloat(c.Query("lng"), 64)
		if err1 != nil || err2 != nil {
			return fiber.NewError(fiber.StatusBadRequest, "lat and lng required")
		}
		return c.JSON(fiber.Map{"display_name": client.Reverse(c.Context(), lat, lng)})
	})
}
