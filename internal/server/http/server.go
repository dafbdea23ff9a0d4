// Package http exposes the credential lifecycle as a JSON API on fiber.
package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

// CredentialAPI is the part of services.CredentialService the handlers use.
type CredentialAPI interface {
	Register(ctx context.Context, in services.SignupInput) (*services.PendingTwoFactor, error)
	Login(ctx context.Context, email, password string) (*services.PendingTwoFactor, error)
	VerifyTwoFactor(ctx context.Context, email, code string) (*services.Session, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, in services.ResetInput) error
	Profile(ctx context.Context, accountID string) (*models.Account, error)
}

// TokenVerifier checks bearer tokens for protected routes.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Options configures Server. Gatherer may be nil, which disables /metrics.
type Options struct {
	Address     string
	CORSOrigins string
	Gatherer    prometheus.Gatherer
}

type Server struct {
	address     string
	app         *fiber.App
	credentials CredentialAPI
	tokens      TokenVerifier
	logger      logging.Logger
}

func NewServer(opts Options, l logging.Logger, creds CredentialAPI, tokens TokenVerifier) *Server {
	s := &Server{
		address:     opts.Address,
		credentials: creds,
		tokens:      tokens,
		logger:      l.With("module", "http_server"),
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
	})

	origins := opts.CORSOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{AllowOrigins: origins}))
	app.Use(s.requestLogger)

	api := app.Group("/api")
	api.Get("/health", s.health)

	authGroup := api.Group("/auth")
	authGroup.Post("/signup", s.signup)
	authGroup.Post("/login", s.login)
	authGroup.Post("/2fa/verify", s.verifyTwoFactor)
	authGroup.Post("/forgot-password", s.forgotPassword)
	authGroup.Post("/reset-password", s.resetPassword)
	authGroup.Get("/me", s.bearerAuth, s.me)

	if opts.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	s.app = app
	return s
}

// App returns the underlying fiber app; tests drive it with app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run listens until ctx ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.app.ShutdownWithContext(sctx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := s.app.Listen(s.address); err != nil {
		return err
	}
	return nil
}

func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	status := c.Response().StatusCode()
	if err != nil {
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
	}
	s.logger.Debug(c.UserContext(), "request",
		"method", c.Method(), "path", c.Path(), "status", status, "duration", time.Since(start).String())
	return err
}
