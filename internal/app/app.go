package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"go-session-auth-service/internal/config"
	"go-session-auth-service/internal/database"
	"go-session-auth-service/internal/http/handler"
	"go-session-auth-service/internal/http/middleware"
	"go-session-auth-service/internal/http/router"
	"go-session-auth-service/internal/oauth"
	"go-session-auth-service/internal/observability"
	"go-session-auth-service/internal/repository"
	"go-session-auth-service/internal/service"

	"gorm.io/gorm"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	DB            *gorm.DB
	Server        *http.Server
	Observability *observability.Runtime

	redis *redis.Client
}

// New wires the whole service from configuration: database, repositories,
// OAuth providers, services, handlers and the HTTP server.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, runtime *observability.Runtime) (*App, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	users := repository.NewUserRepository(db)
	sessions := repository.NewSessionRepository(db)

	var google, github oauth.Provider
	if cfg.GoogleEnabled() {
		google = oauth.NewGoogle(oauth.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleCallbackURL,
			HTTPClient:   &http.Client{Timeout: cfg.ProviderTimeout},
		})
	}
	if cfg.GitHubEnabled() {
		github = oauth.NewGitHub(oauth.GitHubConfig{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			HTTPClient:   &http.Client{Timeout: cfg.ProviderTimeout},
		})
	}
	logger.InfoContext(ctx, "oauth providers configured",
		"google", google != nil, "github", github != nil)

	auth := service.NewAuthService(users, sessions, google, github, cfg.SessionTTLDays, logger)
	userSvc := service.NewUserService(users)

	deps := router.Dependencies{
		AuthHandler:      handler.NewAuthHandler(auth, cfg.OAuthRedirectURL, logger),
		UserHandler:      handler.NewUserHandler(userSvc, logger),
		Authorizer:       auth,
		Logger:           logger,
		APIRateLimitRPM:  cfg.APIRateLimitRPM,
		AuthRateLimitRPM: cfg.AuthRateLimitRPM,
		Readiness: func(ctx context.Context) error {
			return database.Ping(ctx, db)
		},
		EnableOTelHTTP: cfg.OTELTracesEnabled,
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		shared := middleware.NewRedisFixedWindowLimiter(redisClient, "ratelimit")
		deps.GlobalRateLimiter = middleware.NewDistributedRateLimiter(
			shared, cfg.APIRateLimitRPM, time.Minute, middleware.FailOpen, "api").Middleware()
		deps.AuthRateLimiter = middleware.NewDistributedRateLimiter(
			shared, cfg.AuthRateLimitRPM, time.Minute, middleware.FailClosed, "auth").Middleware()
	}

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		Config:        cfg,
		Logger:        logger,
		DB:            db,
		Server:        server,
		Observability: runtime,
		redis:         redisClient,
	}, nil
}

// Run serves HTTP until the context is cancelled, then drains within the
// configured shutdown timeout.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(ctx, "http server listening", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
		defer cancel()
		a.Logger.Info("shutting down http server")
		return a.Server.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if a.redis != nil {
		_ = a.redis.Close()
	}
	return err
}
