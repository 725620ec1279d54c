package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/beetl-xyz/beetl-api/config"
	appmodel "github.com/beetl-xyz/beetl-api/internal/app/model"
	apprepository "github.com/beetl-xyz/beetl-api/internal/app/repository"
	appserver "github.com/beetl-xyz/beetl-api/internal/app/server"
	appservice "github.com/beetl-xyz/beetl-api/internal/app/service"
	"github.com/beetl-xyz/beetl-api/internal/infra/logger"
	infraNATS "github.com/beetl-xyz/beetl-api/internal/infra/nats"
	infraPostgres "github.com/beetl-xyz/beetl-api/internal/infra/postgres"
	infraPrometheus "github.com/beetl-xyz/beetl-api/internal/infra/prometheus"
	infraRedis "github.com/beetl-xyz/beetl-api/internal/infra/redis"
	"go.uber.org/zap"
)

const defaultRetentionMaxAge = 90 * 24 * time.Hour

func main() {
	ctx := context.Background()

	isDev := os.Getenv("APP_ENV") != "production"
	log := logger.MustInit(logger.Config{
		Development: isDev,
		Level:       os.Getenv("LOG_LEVEL"),
	})
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	log.Info("Configuration loaded successfully",
		zap.String("postgres_user", cfg.Postgres.User),
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.Int("postgres_port", cfg.Postgres.Port),
		zap.String("postgres_db", cfg.Postgres.Database),
		zap.String("redis_host", cfg.Redis.Host),
		zap.Int("redis_port", cfg.Redis.Port),
		zap.String("nats_host", cfg.NATS.Host),
		zap.Int("nats_port", cfg.NATS.Port),
		zap.Bool("retention_enabled", cfg.Retention.Enabled),
	)

	gormDB, err := infraPostgres.NewGorm(cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to open GORM connection", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatal("Failed to access underlying SQL DB", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := infraPostgres.AutoMigrate(ctx, gormDB,
		&appmodel.Beetl{}, &appmodel.Bid{}, &appmodel.BidEvent{}); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer pool.Close()

	log.Info("Connected to Postgres successfully")

	redisClient, err := infraRedis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("Connected to Redis successfully")

	natsConn, js, err := infraNATS.Connect(cfg.NATS)
	if err != nil {
		log.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer natsConn.Drain()
	log.Info("Connected to NATS successfully", zap.Bool("jetstream_ready", js != nil))

	if !isDev {
		promServer := infraPrometheus.NewServer(cfg.Prometheus)
		go func() {
			log.Info("Starting Prometheus metrics server",
				zap.Int("port", cfg.Prometheus.Port))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	} else {
		log.Info("Skipping Prometheus metrics server in development mode")
	}

	beetlRepo := apprepository.NewBeetlRepository(gormDB)
	bidRepo := apprepository.NewBidRepository(gormDB)
	bidEventRepo := apprepository.NewBidEventRepository(gormDB)

	presence := appservice.NewPresenceFilter(0, 0)
	keys, err := beetlRepo.Keys(ctx)
	if err != nil {
		log.Fatal("Failed to load beetl keys for presence filter", zap.Error(err))
	}
	presence.Seed(keys)
	log.Info("Presence filter seeded", zap.Int("keys", len(keys)))

	beetlService := appservice.NewBeetlService(beetlRepo, bidRepo, presence)
	bidService := appservice.NewBidService(bidRepo, beetlRepo, presence)
	publisher := appservice.NewBidEventPublisher(js)

	consumer := appservice.NewBidEventConsumer(js, log, bidEventRepo)
	if err := consumer.Start(); err != nil {
		log.Fatal("Failed to start bid event consumer", zap.Error(err))
	}

	if cfg.Retention.Enabled {
		maxAge := parseDurationOr(cfg.Retention.MaxAge, defaultRetentionMaxAge)
		interval := parseDurationOr(cfg.Retention.Interval, time.Hour)
		sweeper := appservice.NewRetentionSweeper(log, beetlRepo, bidRepo, bidEventRepo, maxAge, interval)
		sweeper.Start()
		defer sweeper.Stop()
		log.Info("Retention sweeper started",
			zap.Duration("max_age", maxAge),
			zap.Duration("interval", interval))
	}

	server := appserver.New(appserver.Dependencies{
		Logger:    log,
		Postgres:  pool,
		Redis:     redisClient,
		NATS:      natsConn,
		JetStream: js,
		Beetls:    beetlService,
		Bids:      bidService,
		Publisher: publisher,
	})

	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	if err := server.Listen(fmt.Sprintf(":%d", port)); err != nil {
		log.Fatal("Fiber server exited", zap.Error(err))
	}
}

func parseDurationOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		logger.L().Warn("Invalid duration in config, using fallback",
			zap.String("value", raw),
			zap.Duration("fallback", fallback))
		return fallback
	}
	return d
}
