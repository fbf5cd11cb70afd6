package post

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const (
	maxTitleLen       = 100
	maxDescriptionLen = 2000
	maxImages         = 5
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit"))
		posts, err := svc.ListPosts(c.Context(), limit)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(posts)
	})

	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req Post
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		req.PostedBy, _ = c.Locals("user_id").(string)
		if msg := validateNewPost(req); msg != "" {
			return fiber.NewError(fiber.StatusBadRequest, msg)
		}
		created, err := svc.CreatePost(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	})

	r.Get("/search", func(c *fiber.Ctx) error {
		q := c.Query("q")
		if q == "" {
			return fiber.NewError(fiber.StatusBadRequest, "q required")
		}
		limit, _ := strconv.Atoi(c.Query("limit"))
		posts, err := svc.SearchPosts(c.Context(), q, limit)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(posts)
	})

	r.Get("/nearby", func(c *fiber.Ctx) error {
		lat, _ := strconv.ParseFloat(c.Query("lat"), 64)
		lng, _ := strconv.ParseFloat(c.Query("lng"), 64)
		radius, _ := strconv.ParseFloat(c.Query("radius_km"), 64)
		if radius == 0 {
			radius = 5
		}
		posts, err := svc.Nearby(c.Context(), lat, lng, radius)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(posts)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		p, err := svc.GetPost(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "post not found")
		}
		return c.JSON(p)
	})

	r.Put("/:id", authMiddleware, func(c *fiber.Ctx) error {
		var req Post
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		userID, _ := c.Locals("user_id").(string)
		updated, err := svc.UpdatePost(c.Context(), c.Params("id"), userID, req)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(updated)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		if err := svc.DeletePost(c.Context(), c.Params("id"), userID); err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/:id/like", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		count, err := svc.Like(c.Context(), c.Params("id"), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"likes_count": count})
	})

	r.Delete("/:id/like", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		count, err := svc.Unlike(c.Context(), c.Params("id"), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"likes_count": count})
	})

	r.Post("/:id/ratings", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Rating int `json:"rating"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if body.Rating < 1 || body.Rating > 5 {
			return fiber.NewError(fiber.StatusBadRequest, "rating must be between 1 and 5")
		}
		userID, _ := c.Locals("user_id").(string)
		agg, err := svc.Rate(c.Context(), c.Params("id"), userID, body.Rating)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(agg)
	})

	r.Post("/:id/comments", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Author  string `json:"author"`
			Content string `json:"content"`
		}
		if err := c.BodyParser(&body); err != nil || body.Content == "" {
			return fiber.NewError(fiber.StatusBadRequest, "content required")
		}
		userID, _ := c.Locals("user_id").(string)
		comment, err := svc.AddComment(c.Context(), c.Params("id"), userID, body.Author, body.Content)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(comment)
	})

	r.Get("/:id/comments", func(c *fiber.Ctx) error {
		comments, err := svc.Comments(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(comments)
	})
}

func validateNewPost(p Post) string {
	switch {
	case p.Title == "":
		return "title required"
	case len(p.Title) > maxTitleLen:
		return "title too long"
	case len(p.Description) > maxDescriptionLen:
		return "description too long"
	case len(p.Images) > maxImages:
		return "too many images"
	case p.PostedBy == "":
		return "missing authenticated user"
	}
	return ""
}
