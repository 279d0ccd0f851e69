package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	handlers "github.com/wekeepgrowing/payment-reconciler/internal/adapter/handler/http"
	"github.com/wekeepgrowing/payment-reconciler/internal/config"
	"github.com/wekeepgrowing/payment-reconciler/internal/infrastructure/bootstrap"
	"github.com/wekeepgrowing/payment-reconciler/pkg/logger"
	"go.uber.org/zap"
)

type Server struct {
	config *config.Config
	logger *zap.Logger
	echo   *echo.Echo
}

func NewServer(cfg *config.Config, log *zap.Logger, services *bootstrap.Services) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewRequestValidator()

	// Middleware
	logger.WithEchoLogger(e, log)
	e.Use(middleware.RequestID())
	e.Use(logger.NewEchoRequestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{cfg.Service.ClientURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost},
		AllowCredentials: true,
	}))

	h := &handlers.Handlers{
		Return:      handlers.NewReturnHandler(services.Reconciler, newSessionStore(&cfg.Session, log), cfg.Session.CookieName, log),
		Plan:        handlers.NewPlanHandler(services.Resolver, services.Repair, log),
		Transaction: handlers.NewTransactionHandler(services.Transactions, services.Renewals, services.Resolver, log),
		Webhook:     handlers.NewWebhookHandler(services.Notifications, log),
		Internal:    handlers.NewInternalHandler(services.Stats, log),
	}
	handlers.RegisterRoutes(e, h, handlers.RouteConfig{
		JWTSecret:     cfg.JWT.Secret,
		InternalToken: cfg.Service.InternalToken,
		ServiceName:   cfg.Service.Name,
	}, log)

	return &Server{
		config: cfg,
		logger: log,
		echo:   e,
	}
}

// newSessionStore returns nil without a session secret, which disables the
// per-session replay guard.
func newSessionStore(cfg *config.SessionConfig, log *zap.Logger) sessions.Store {
	if cfg.Secret == "" {
		log.Warn("Session secret not configured, return replay guard disabled")
		return nil
	}

	store := sessions.NewCookieStore([]byte(cfg.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cfg.MaxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.HTTP.Host, s.config.Server.HTTP.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
