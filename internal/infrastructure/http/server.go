package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	handlers "github.com/wekeepgrowing/mailshield/internal/adapter/handler/http"
	"github.com/wekeepgrowing/mailshield/internal/config"
	"github.com/wekeepgrowing/mailshield/internal/domain/entity"
	"github.com/wekeepgrowing/mailshield/internal/domain/repository"
	"github.com/wekeepgrowing/mailshield/internal/middleware/apikey"
	"github.com/wekeepgrowing/mailshield/internal/middleware/auth"
	"github.com/wekeepgrowing/mailshield/internal/middleware/cors"
	apperrors "github.com/wekeepgrowing/mailshield/pkg/errors"
	pkglogger "github.com/wekeepgrowing/mailshield/pkg/logger"
	"go.uber.org/zap"
)

// Handlers are the HTTP endpoints served by Server
type Handlers struct {
	Billing      *handlers.BillingHandler
	Entitlements *handlers.EntitlementsHandler
	Dashboard    *handlers.DashboardHandler
	PublicAPI    *handlers.PublicAPIHandler
	Webhook      *handlers.WebhookHandler
}

// Gateway holds the public API key stack. Limiter may be nil.
type Gateway struct {
	Validator repository.APIKeyValidator
	Usage     apikey.UsageRecorder
	Plans     apikey.PlanResolver
	Limiter   repository.RateLimiter
}

type Server struct {
	config   *config.Config
	logger   *zap.Logger
	echo     *echo.Echo
	handlers Handlers
	gateway  Gateway
}

func NewServer(cfg *config.Config, logger *zap.Logger, h Handlers, gateway Gateway) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewRequestValidator()
	e.HTTPErrorHandler = errorHandler(logger)
	e.Server.ReadTimeout = cfg.Server.HTTP.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.HTTP.WriteTimeout

	pkglogger.WithEchoLogger(e, logger)

	// Middleware
	e.Use(middleware.RequestID())
	e.Use(pkglogger.NewEchoRequestLogger(logger))
	e.Use(middleware.Recover())

	s := &Server{
		config:   cfg,
		logger:   logger,
		echo:     e,
		handlers: h,
		gateway:  gateway,
	}
	s.setupRoutes()
	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	addr := s.config.Server.HTTP.Addr()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": s.config.Service.Name,
			"version": s.config.Service.Version,
		})
	})

	// Webhook route (signature verified, no session)
	s.echo.POST("/webhook", s.handlers.Webhook.HandleWebhook)

	s.setupDashboardRoutes()
	s.setupPublicAPIRoutes()
}

// setupDashboardRoutes registers the session-authenticated routes used by
// the web dashboard
func (s *Server) setupDashboardRoutes() {
	jwtConfig := auth.JWTConfig{
		Secret: s.config.Supabase.JWTSecret,
		Logger: s.logger,
		SkipPaths: []string{
			"/health",
			"/webhook",
			"/api/v1",
		},
	}

	api := s.echo.Group("/api",
		middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: s.config.Server.HTTP.AllowOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
		}),
		auth.JWTMiddleware(jwtConfig),
	)

	api.GET("/entitlements", s.handlers.Entitlements.GetEntitlements)

	billing := api.Group("/billing")
	billing.POST("/reactivate", s.handlers.Billing.Reactivate)
	billing.POST("/cancel-scheduled-change", s.handlers.Billing.CancelScheduledChange)
	billing.POST("/sync-profile", s.handlers.Billing.SyncProfile)
	billing.POST("/resync", s.handlers.Billing.Resync)
	billing.GET("/debug/subscription", s.handlers.Billing.DebugSubscription)
	billing.GET("/debug/customer", s.handlers.Billing.DebugCustomer)

	dashboard := api.Group("/dashboard")
	dashboard.GET("/stats", s.handlers.Dashboard.Stats)
	dashboard.GET("/threats/history", s.handlers.Dashboard.ThreatHistory)
	dashboard.GET("/threats/categories", s.handlers.Dashboard.ThreatCategories)
}

// setupPublicAPIRoutes registers the API key authenticated /api/v1 routes.
// OPTIONS is registered per path so the CORS middleware answers preflights.
func (s *Server) setupPublicAPIRoutes() {
	v1 := s.echo.Group("/api/v1", cors.Middleware())

	v1.GET("/account", s.handlers.PublicAPI.AccountDocs)
	v1.GET("/analyze", s.handlers.PublicAPI.AnalyzeDocs)
	preflight := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	v1.OPTIONS("/account", preflight)
	v1.OPTIONS("/analyze", preflight)

	v1.POST("/account", s.handlers.PublicAPI.Account, s.keyed(
		apikey.RequirePermission(entity.PermissionRead),
		apikey.RequirePlan(s.gateway.Plans, s.logger, entity.PlanTeam))...)
	v1.POST("/analyze", s.handlers.PublicAPI.Analyze, s.keyed(
		apikey.RequirePermission(entity.PermissionRead))...)
}

// keyed prepends API key validation and rate limiting to route middleware.
// These run per route so unknown /api/v1 paths stay 404 without a key.
func (s *Server) keyed(route ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	middlewares := []echo.MiddlewareFunc{
		apikey.Middleware(apikey.Config{
			Validator: s.gateway.Validator,
			Usage:     s.gateway.Usage,
			Logger:    s.logger,
		}),
	}
	if s.config.RateLimit.Enabled && s.gateway.Limiter != nil {
		middlewares = append(middlewares, apikey.RateLimit(apikey.RateLimitConfig{
			Limiter:      s.gateway.Limiter,
			Window:       s.config.RateLimit.Window,
			DefaultLimit: s.config.RateLimit.DefaultPerWindow,
			Logger:       s.logger,
		}))
	}
	return append(middlewares, route...)
}

// errorHandler renders errors that escaped a handler in the shared envelope
func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, env := apperrors.ToEnvelope(err)
		if status >= http.StatusInternalServerError {
			apperrors.LogError(logger, err, "Unhandled request error",
				zap.String("path", c.Request().URL.Path))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, env)
		}
		if err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
	}
}
