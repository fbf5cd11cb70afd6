package server

import (
	"time"

	"github.com/devasol/PinQuest-sub002/internal/auth"
	"github.com/devasol/PinQuest-sub002/internal/config"
	"github.com/devasol/PinQuest-sub002/internal/favorite"
	"github.com/devasol/PinQuest-sub002/internal/geocode"
	"github.com/devasol/PinQuest-sub002/internal/location"
	"github.com/devasol/PinQuest-sub002/internal/notification"
	"github.com/devasol/PinQuest-sub002/internal/post"
	"github.com/devasol/PinQuest-sub002/internal/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	max := s.Cfg.RateLimitMax
	if max <= 0 {
		max = 120
	}
	api := s.App.Group("/api/v1", limiter.New(limiter.Config{
		Max:        max,
		Expiration: time.Minute,
	}))

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)
	authSvc := auth.NewService(s.Cfg.JWTSecret, s.DB)
	notifySvc := notification.NewService(s.DB, s.Stream)

	auth.RegisterRoutes(api.Group("/auth"), authSvc, jwtMiddleware)
	post.RegisterRoutes(api.Group("/posts"), post.NewService(s.DB, notifySvc), jwtMiddleware)
	favorite.RegisterRoutes(api.Group("/favorites"), favorite.NewService(s.DB), jwtMiddleware)
	location.RegisterRoutes(api.Group("/locations"), location.NewService(s.DB), jwtMiddleware)
	notification.RegisterRoutes(api.Group("/notifications"), notifySvc, jwtMiddleware)
	geocode.RegisterRoutes(api.Group("/geocode"), geocode.NewClient(s.Cfg.GeocodeURL))

	// websocket stays off the limiter: one long-lived connection, not
	// request traffic
	stream.RegisterRoutes(s.App.Group("/api/v1/stream"), s.Stream, authSvc)
}
