package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/core/port"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/infra/config"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/infra/database"
	kafkainfra "github.com/DmitriyKrasnikov/Monitoring-Service/internal/infra/kafka"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/infra/logger"
	redisinfra "github.com/DmitriyKrasnikov/Monitoring-Service/internal/infra/redis"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/infra/security"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/infra/telemetry"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/repository/memory"
	postgresrepo "github.com/DmitriyKrasnikov/Monitoring-Service/internal/repository/postgres"
	redisrepo "github.com/DmitriyKrasnikov/Monitoring-Service/internal/repository/redis"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/transport/http/middleware"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/transport/http/routes"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/usecase"
)

// Application owns the wired service graph and its long-lived resources.
type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	producer *kafkainfra.Producer
}

// New wires configuration, infrastructure, repositories, and services into a
// runnable application. Redis and Kafka are optional: with no Redis host the
// rate limiter is disabled, and with no Kafka brokers events are logged
// locally instead of published.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	metrics, err := telemetry.Attach(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	if err := database.Migrate(ctx, cfg.Postgres, log); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	codec, err := security.NewTokenCodec(cfg.Token.Mode, cfg.Token.Secret, cfg.Token.TTL)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init token codec: %w", err)
	}

	var redisClient *redisinfra.Client
	var rateLimiter *middleware.RateLimiter
	if cfg.Redis.Host != "" {
		redisClient, err = redisinfra.NewClient(cfg.Redis, log)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("init redis: %w", err)
		}

		window := cfg.RateLimit.WindowDuration
		if window <= 0 {
			window = time.Minute
		}
		store := redisrepo.NewRateLimitRepository(redisClient.Client(), redisrepo.SlidingWindowConfig{
			KeyPrefix: "monitoring:rate-limit",
			TTL:       window * 2,
		})
		rateLimiter = middleware.NewRateLimiter(store, log)
	} else {
		log.Info("redis host not configured, rate limiting disabled")
	}

	var producer *kafkainfra.Producer
	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	repos := postgresrepo.NewRepositories(pool)
	registry := memory.NewSessionRegistry()

	audit := usecase.NewAuditService(repos.Audit, log)
	registration := usecase.NewRegistrationService(repos.Users, audit, eventPublisher, log)
	sessions := usecase.NewSessionManager(repos.Users, registry, codec, audit, eventPublisher, metrics, log)
	meters := usecase.NewMeterService(repos.Readings, audit, eventPublisher, metrics, log)

	deps := routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		Database:    pool,
		Services: routes.ServiceSet{
			Registration: registration,
			Sessions:     sessions,
			Meters:       meters,
			Audit:        audit,
		},
	}
	if redisClient != nil {
		deps.Cache = redisClient
	}

	engine := routes.Register(deps)

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		producer: producer,
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.producer != nil {
			_ = a.producer.Close()
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting monitoring API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
