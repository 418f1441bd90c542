package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/loanportal/portal-client/docs"
	"github.com/loanportal/portal-client/internal/api/handler"
	"github.com/loanportal/portal-client/internal/api/middleware"
	"github.com/loanportal/portal-client/internal/core/domain"
	"github.com/loanportal/portal-client/internal/core/ports"
)

// Deps groups everything the router wires into handlers.
type Deps struct {
	Session        ports.SessionService
	Loans          ports.LoanService
	Tracker        handler.SnapshotSource
	Storage        ports.KeyValueStore
	StorageBackend string
	PhoneRegion    string
	Log            zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator(d.PhoneRegion)
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))

	// Request metrics live in a per-router registry so several routers can
	// coexist (tests); /metrics serves it together with the default one.
	reg := prometheus.NewRegistry()
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "portal_gateway",
		Registerer: reg,
	}))

	// --- Handlers ---
	sessionHandler := handler.NewSessionHandler(d.Session)
	loanHandler := handler.NewLoanHandler(d.Loans, d.Tracker)
	requireSession := middleware.RequireSession(d.Session)

	// --- Session routes ---
	e.GET("/session", sessionHandler.State)
	e.DELETE("/session", sessionHandler.Logout)
	e.POST("/session/login", sessionHandler.Login)
	e.POST("/session/register", sessionHandler.Register)
	e.DELETE("/session/error", sessionHandler.ClearError)
	e.POST("/session/password/forgot", sessionHandler.ForgotPassword)
	e.POST("/session/password/reset", sessionHandler.ResetPassword)
	// Profile and password changes check the stored credentials themselves.
	e.PUT("/session/profile", sessionHandler.UpdateProfile)
	e.POST("/session/password", sessionHandler.ChangePassword)

	// --- Loan routes ---
	e.POST("/loans", loanHandler.Submit, requireSession, middleware.RBAC(domain.RoleCustomer))
	e.GET("/loans", loanHandler.List, requireSession)
	e.GET("/notifications", loanHandler.Notifications, requireSession)
	e.PUT("/notifications/:id/read", loanHandler.MarkRead, requireSession)
	e.GET("/sync", loanHandler.Sync, requireSession)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(d.StorageBackend, d.Storage)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)

	// --- Operations ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: prometheus.Gatherers{prometheus.DefaultGatherer, reg},
	}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
