package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/infra/config"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/transport/http/handlers"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/transport/http/middleware"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Registration *usecase.RegistrationService
	Sessions     *usecase.SessionManager
	Meters       *usecase.MeterService
	Audit        *usecase.AuditService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Services    ServiceSet
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))

	if len(deps.Config.App.CORSAllowedOrigins) > 0 {
		r.Use(middleware.CORS(deps.Config.App.CORSAllowedOrigins))
	}

	if httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{}); err != nil {
		deps.Logger.Warn("failed to register http metrics", zap.Error(err))
	} else {
		r.Use(httpMetrics.Handler())
	}

	sessionMiddleware := middleware.RequireSession(deps.Services.Sessions)

	healthOptions := make([]handlers.HealthOption, 0, 2)

	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}

	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}

	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		authHandler := handlers.NewAuthHandler(deps.Services.Registration, deps.Services.Sessions)

		authGroup := api.Group("/auth")
		registerHandlers := append(buildRateLimitMiddlewares(deps, "auth_register_ip", deps.Config.RateLimit.RegisterMaxAttempts), authHandler.Register)
		authGroup.POST("/register", registerHandlers...)

		loginHandlers := append(buildRateLimitMiddlewares(deps, "auth_login_ip", deps.Config.RateLimit.LoginMaxAttempts), authHandler.Login)
		authGroup.POST("/login", loginHandlers...)

		authGroup.POST("/logout", authHandler.Logout)

		readingsHandler := handlers.NewReadingsHandler(deps.Services.Meters)

		readingsGroup := api.Group("/readings")
		readingsGroup.Use(sessionMiddleware)
		readingsGroup.POST("", readingsHandler.Submit)
		readingsGroup.GET("/current", readingsHandler.Current)
		readingsGroup.GET("/month", readingsHandler.ForMonth)
		readingsGroup.GET("/history", readingsHandler.History)
		readingsGroup.GET("/all", middleware.RequireAdmin(), readingsHandler.AllCurrent)

		auditHandler := handlers.NewAuditHandler(deps.Services.Audit)
		api.GET("/audit", sessionMiddleware, auditHandler.List)
	}

	return r
}

func buildRateLimitMiddlewares(deps Dependencies, name string, limit int) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil || limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:       name,
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}
