package transport

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/p-blackswan/telegram-mcp/internal/health"
	"github.com/p-blackswan/telegram-mcp/internal/metrics"
	"github.com/p-blackswan/telegram-mcp/internal/requestid"
)

// HTTPConfig holds configuration for the HTTP server.
type HTTPConfig struct {
	ListenAddr  string
	Auth        AuthConfig
	CORSOrigins string
}

// HTTPServer serves MCP over POST /mcp alongside the probe and metrics
// endpoints. Built without a Handler it serves the probes only, which is
// how stdio mode exposes them.
type HTTPServer struct {
	app     *fiber.App
	handler Handler
	metrics *metrics.Metrics
	logger  zerolog.Logger
	config  HTTPConfig
	baseCtx context.Context
}

// NewHTTPServer creates and configures the Fiber application. h, checker and
// m may each be nil.
func NewHTTPServer(
	cfg HTTPConfig,
	h Handler,
	checker *health.Checker,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *HTTPServer {
	logger = logger.With().Str("component", "http_server").Logger()

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler(logger),
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
	})

	s := &HTTPServer{
		app:     app,
		handler: h,
		metrics: m,
		logger:  logger,
		config:  cfg,
		baseCtx: context.Background(),
	}

	s.setupMiddleware(cfg)
	s.setupRoutes(checker)

	return s
}

func (s *HTTPServer) setupMiddleware(cfg HTTPConfig) {
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	// Request ID middleware; a caller-supplied X-Request-ID is kept.
	s.app.Use(func(c *fiber.Ctx) error {
		reqID := c.Get("X-Request-ID")
		if reqID == "" {
			_, reqID = requestid.New(c.Context())
		}
		c.Set("X-Request-ID", reqID)
		c.Locals("request_id", reqID)
		return c.Next()
	})

	if cfg.CORSOrigins != "" {
		s.app.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CORSOrigins,
			AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
			AllowMethods: "GET, POST, OPTIONS",
		}))
	}

	s.app.Use(NewAuthMiddleware(cfg.Auth, s.logger))

	s.app.Use(func(c *fiber.Ctx) error {
		path := c.Path()
		if isProbe(path) {
			return c.Next()
		}

		s.logger.Debug().
			Str("method", c.Method()).
			Str("path", path).
			Str("ip", c.IP()).
			Str("request_id", fmt.Sprintf("%v", c.Locals("request_id"))).
			Msg("http request")

		return c.Next()
	})
}

func (s *HTTPServer) setupRoutes(checker *health.Checker) {
	s.app.Get("/healthz", health.Liveness)
	if checker != nil {
		s.app.Get("/readyz", checker.Readiness())
	} else {
		s.app.Get("/readyz", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"status": "ready"})
		})
	}

	if s.metrics != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))
	} else {
		s.app.Get("/metrics", func(c *fiber.Ctx) error {
			return c.SendString("# No metrics collector configured\n")
		})
	}

	if s.handler != nil {
		s.app.Post("/mcp", s.handleMCP)
	}
}

// handleMCP answers one JSON-RPC message per request. Notifications get
// 202 with no body; every other outcome, JSON-RPC errors included, is 200.
func (s *HTTPServer) handleMCP(c *fiber.Ctx) error {
	reqID, _ := c.Locals("request_id").(string)
	ctx := requestid.WithRequestID(s.baseCtx, reqID)

	resp, method := s.handler.HandleMessage(ctx, c.Body())
	recordRPC(s.metrics, method, "http")

	if resp == nil {
		return c.SendStatus(fiber.StatusAccepted)
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

// Serve listens on the configured address until ctx is done, then shuts
// the server down gracefully.
func (s *HTTPServer) Serve(ctx context.Context) error {
	addr := s.config.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	s.baseCtx = ctx

	s.logger.Info().Str("addr", addr).Bool("mcp", s.handler != nil).Msg("http server starting")

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown gracefully shuts down the server.
func (s *HTTPServer) Shutdown() error {
	s.logger.Info().Msg("http server shutting down")
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *HTTPServer) App() *fiber.App {
	return s.app
}

func customErrorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}

		logger.Error().
			Err(err).
			Int("status", code).
			Str("path", c.Path()).
			Str("method", c.Method()).
			Msg("unhandled error")

		title := "Request Error"
		detail := err.Error()
		if code == fiber.StatusInternalServerError {
			title = "Internal Server Error"
			detail = "An internal error occurred"
		}

		return c.Status(code).JSON(ProblemDetail{
			Type:     "request_error",
			Title:    title,
			Status:   code,
			Detail:   detail,
			Instance: c.Path(),
		})
	}
}
