// Package web serves the framelens analysis API over HTTP and WebSocket.
package web

import (
	"context"
	"log/slog"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teslashibe/framelens/pkg/analysis"
	"github.com/teslashibe/framelens/pkg/metrics"
)

// Analyzer runs one analysis. *analysis.Analyzer implements it.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (analysis.Result, error)
	Provider() string
	Health(ctx context.Context) error
}

// Config configures the HTTP surface.
type Config struct {
	// AllowedOrigin is the single browser origin permitted by CORS.
	AllowedOrigin string

	// BodyLimit is the maximum request body size in bytes.
	BodyLimit int

	// Debug enables per-request access logging.
	Debug bool

	// Version is reported by /health.
	Version string

	Logger *slog.Logger
}

// Server is the analysis API server.
type Server struct {
	app      *fiber.App
	analyzer Analyzer
	cfg      Config
	logger   *slog.Logger
}

// NewServer creates the server and registers all routes.
func NewServer(analyzer Analyzer, cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		analyzer: analyzer,
		cfg:      cfg,
		logger:   cfg.Logger.With("component", "web"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "framelens-proxy",
		DisableStartupMessage: true,
		BodyLimit:             cfg.BodyLimit,
		ErrorHandler:          s.handleError,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestID())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigin,
		AllowMethods:     "GET,POST,PUT,DELETE",
		AllowHeaders:     "Content-Type,Authorization,X-Request-ID",
		ExposeHeaders:    fiber.HeaderXRequestID,
		AllowCredentials: true,
	}))
	if cfg.Debug {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
		}))
	}

	metrics.Register()

	app.Post("/analyze-image", s.handleAnalyze)
	app.Get("/health", s.handleHealth)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/analyze", websocket.New(s.handleAnalyzeWS))

	s.app = app
	return s
}

// App returns the underlying Fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("listening", "addr", addr, "provider", s.analyzer.Provider())
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server, waiting for in-flight requests
// until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
