package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"go-session-auth-service/internal/http/handler"
	"go-session-auth-service/internal/http/middleware"
	"go-session-auth-service/internal/http/response"
)

type Dependencies struct {
	AuthHandler      *handler.AuthHandler
	UserHandler      *handler.UserHandler
	Authorizer       middleware.Authorizer
	Logger           *slog.Logger
	APIRateLimitRPM  int
	AuthRateLimitRPM int

	// Optional overrides; nil means an in-process fixed window limiter.
	GlobalRateLimiter func(http.Handler) http.Handler
	AuthRateLimiter   func(http.Handler) http.Handler

	// Readiness pings the hard dependencies; nil reports ready.
	Readiness func(ctx context.Context) error

	EnableOTelHTTP bool
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	if dep.Logger != nil {
		r.Use(middleware.StructuredRequestLogger(dep.Logger))
	}
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.BodyLimit(1 << 20))
	if dep.GlobalRateLimiter != nil {
		r.Use(dep.GlobalRateLimiter)
	} else {
		r.Use(middleware.NewRateLimiter(dep.APIRateLimitRPM, time.Minute).Middleware())
	}

	authLimiter := dep.AuthRateLimiter
	if authLimiter == nil {
		authLimiter = middleware.NewRateLimiter(dep.AuthRateLimitRPM, time.Minute).Middleware()
	}
	authorized := middleware.Authorize(dep.Authorizer)

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness != nil {
			if err := dep.Readiness(r.Context()); err != nil {
				response.Error(w, r, http.StatusServiceUnavailable, "Dependencies are not ready")
				return
			}
		}
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
	})

	r.With(authLimiter).Post("/login", dep.AuthHandler.Login)
	r.With(authLimiter).Get("/oauth/{provider}", dep.AuthHandler.OAuthCallback)
	r.With(authLimiter).Post("/users", dep.UserHandler.Register)
	r.With(authLimiter, authorized).Post("/refresh", dep.AuthHandler.Refresh)
	r.With(authorized).Post("/logout", dep.AuthHandler.Logout)
	r.With(authorized).Get("/account", dep.UserHandler.Account)
	r.With(authorized).Put("/account/username", dep.UserHandler.UpdateUsername)

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
