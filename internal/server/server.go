package server

import (
	"errors"
	"strings"
	"time"

	"backend-mapty/internal/auth"
	"backend-mapty/internal/config"
	"backend-mapty/internal/session"
	"backend-mapty/internal/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App      *fiber.App
	Cfg      config.Config
	Redis    *redis.Client
	Stream   *stream.Hub
	Sessions *session.Manager
	Auth     *auth.Service
}

func NewServer(cfg config.Config, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.CORSAllowOrigins}))
	if cfg.SessionCreateMax > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.SessionCreateMax,
			Expiration: time.Minute,
			Next:       func(c *fiber.Ctx) bool { return !isSessionCreate(c) },
		}))
	}

	hub := stream.NewHub(redisClient)
	s := &Server{
		App:    app,
		Cfg:    cfg,
		Redis:  redisClient,
		Stream: hub,
		Auth:   auth.NewService(cfg.SessionSecret),
	}
	s.Sessions = session.NewManager(func(sessionID string, position *session.PositionReport) session.Collaborators {
		return stream.NewSurface(sessionID, hub, position).Collaborators()
	}, session.ManagerConfig{
		Zoom:        cfg.MapZoom,
		IdleTTL:     cfg.SessionIdleTTL,
		MaxSessions: cfg.MaxSessions,
	})

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "sessions": s.Sessions.Len()})
	})

	session.RegisterRoutes(s.App.Group("/sessions"), s.Sessions, s.Auth, auth.SessionMiddleware(s.Auth, "id"))
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream, s.Sessions.Deliver,
		auth.SessionMiddleware(s.Auth, "sessionID"), liveSession(s.Sessions))
}

// liveSession refuses sockets for sessions that are closed or unknown, so a
// late client is not left attached to a session that will never speak again.
func liveSession(m *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, err := m.Get(c.Params("sessionID"))
		switch {
		case errors.Is(err, session.ErrNotFound):
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		case err != nil:
			return fiber.NewError(fiber.StatusGone, err.Error())
		}
		return c.Next()
	}
}

func isSessionCreate(c *fiber.Ctx) bool {
	return c.Method() == fiber.MethodPost && strings.Trim(c.Path(), "/") == "sessions"
}

// Close ends every live session and stops the Redis subscription.
func (s *Server) Close() {
	s.Sessions.Shutdown()
	s.Stream.Close()
}
