package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/page-manager/internal/apisession"
	"github.com/prperemyshlev/page-manager/internal/config"
	"github.com/prperemyshlev/page-manager/internal/graph"
	"github.com/prperemyshlev/page-manager/internal/handler"
	"github.com/prperemyshlev/page-manager/internal/repository"
	"github.com/prperemyshlev/page-manager/internal/service"
	"github.com/prperemyshlev/page-manager/internal/utils"
	"github.com/prperemyshlev/page-manager/pkg/observability"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	infra  Infrastructure
	config *config.Config
	router *gin.Engine
	server *http.Server
}

func NewApp(infra Infrastructure, cfg *config.Config) (*App, error) {
	logger := infra.Logger()
	repos := repository.NewRepositories(infra.Postgres())

	jwtManager := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.SessionExpiry.Duration)

	blacklistService := service.NewTokenBlacklistService(infra.Redis())
	sessionStore := service.NewSessionStore(infra.Redis())
	preferences := service.NewPreferencesStore(infra.Redis())
	rateLimiter := service.NewRateLimiter(infra.Redis())
	healthChecker := NewHealthChecker(infra)

	manager := apisession.NewManager(
		repos.Account,
		apisession.NewGraphClientFactory(cfg.Graph.VersionedURL(), graph.NewHTTPClient(cfg.Graph.Timeout.Duration)),
		cfg.Graph.ClientTTL.Duration,
		logger,
		apisession.WithMeter(infra.MeterProvider().Meter(serviceName)),
	)

	authService := service.NewAuthService(
		repos.User,
		jwtManager,
		blacklistService,
		sessionStore,
		cfg.Security.BCryptCost,
		logger,
	)
	accountService := service.NewAccountService(repos.Account, manager, logger)

	renderer, err := handler.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	cookie := handler.Cookie{Name: cfg.Session.CookieName, Secure: cfg.Session.CookieSecure}
	pages := handler.NewPages(accountService, preferences, logger)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HTMLRender = renderer
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(handler.LoggerMiddleware(logger))

	router.GET("/metrics", observability.PrometheusHandler(infra.MetricsHandler()))
	router.GET("/health", healthChecker.Handler)

	handler.Routes{
		Auth:     handler.NewAuthHandler(authService, cookie, logger),
		Accounts: handler.NewAccountHandler(pages),
		Content:  handler.NewContentHandler(pages, manager),
		Settings: handler.NewSettingsHandler(pages, authService, cookie),
		API:      handler.NewAPIHandler(accountService, manager, logger),
		Session:  handler.NewSessionAuth(authService, sessionStore, cookie, logger),
		AuthRateLimit: handler.RateLimitMiddleware(
			rateLimiter,
			cfg.Security.RateLimitRequests,
			cfg.Security.RateLimitWindow.Duration,
			handler.IPBasedKey,
			logger,
		),
		CORS: handler.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders),
	}.Register(router)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:  infra,
		config: cfg,
		router: router,
		server: srv,
	}, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

// Run serves HTTP until ctx is cancelled or the listener fails, then shuts
// everything down.
func (a *App) Run(ctx context.Context) error {
	logger := a.infra.Logger()
	errChan := make(chan error, 1)

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", a.server.Addr))

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case serverErr = <-errChan:
		logger.Error("HTTP server failed", zap.Error(serverErr))
	case <-ctx.Done():
		logger.Info("Shutdown requested")
	}

	return errors.Join(serverErr, a.Shutdown())
}

// Shutdown drains in-flight requests before closing the connections they use.
func (a *App) Shutdown() error {
	logger := a.infra.Logger()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
		return errors.Join(err, a.infra.Shutdown(ctx))
	}

	logger.Info("HTTP server stopped")
	if err := a.infra.Shutdown(ctx); err != nil {
		logger.Error("Infrastructure shutdown failed", zap.Error(err))
		return err
	}
	return nil
}
