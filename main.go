package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-eventus/internal/config"
	"ms-eventus/internal/database/migrations"
	"ms-eventus/internal/events/cache"
	event_db "ms-eventus/internal/events/db"
	"ms-eventus/internal/events/event_api"
	"ms-eventus/internal/events/generator"
	"ms-eventus/internal/events/service"
	"ms-eventus/internal/kafka"
	"ms-eventus/internal/logger"
	"ms-eventus/internal/qr"
	"ms-eventus/internal/scheduler"
	"ms-eventus/internal/uploads"
)

func verifyConnections(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*bun.DB, *redis.Client) {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		logger.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			logger.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		logger.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	logger.Info("DATABASE", "✅ PostgreSQL connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	if !cfg.Redis.Enabled {
		logger.Info("REDIS", "Redis disabled, listing cache is off")
		return bunDB, nil
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("REDIS", fmt.Sprintf("Redis connection error, continuing without cache: %v", err))
		return bunDB, nil
	}

	logger.Info("REDIS", fmt.Sprintf("✅ Redis connection successful to %s", cfg.Redis.Addr))
	return bunDB, redisClient
}

func main() {
	logger := logger.NewLogger()
	defer logger.Close()

	logger.Info("APP", "Starting Eventus service initialization")

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		logger.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	logger.Info("APP", "Verifying database connections")
	bunDB, redisClient := verifyConnections(ctx, cfg, logger)
	defer bunDB.Close()
	if redisClient != nil {
		defer redisClient.Close()
	}

	if cfg.Database.AutoMigrate {
		runner := migrations.NewRunner(bunDB, migrations.DefaultOptions())
		if err := runner.RunMigrations(); err != nil {
			logger.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
		}
		logger.Info("DATABASE", "Migrations applied")
	}

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		logger.Info("KAFKA", fmt.Sprintf("Using Kafka brokers: %v", cfg.Kafka.Brokers))
		requiredTopics := []string{
			cfg.Kafka.Topics.EventsRefreshed,
			cfg.Kafka.Topics.EventsExpired,
			cfg.Kafka.Topics.EventsCreated,
		}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, requiredTopics); err != nil {
			logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			logger.Info("KAFKA", "Required topics ensured successfully")
		}
		producer = kafka.NewProducer(cfg.Kafka.Brokers, kafka.Topics{
			EventsRefreshed: cfg.Kafka.Topics.EventsRefreshed,
			EventsExpired:   cfg.Kafka.Topics.EventsExpired,
			EventsCreated:   cfg.Kafka.Topics.EventsCreated,
		})
		defer producer.Close()
	} else {
		logger.Info("KAFKA", "Kafka disabled, lifecycle notifications are off")
	}

	var listingCache service.ListingCache
	if redisClient != nil {
		listingCache = cache.NewCache(redisClient, logger, cfg.Redis.CacheTTL)
	}

	var kafkaPublisher service.KafkaPublisher
	if producer != nil {
		kafkaPublisher = producer
	}

	eventService := service.NewEventService(
		&event_db.DB{Bun: bunDB},
		generator.New(nil),
		kafkaPublisher,
		listingCache,
		logger,
		cfg.Scheduler.BatchSize,
	)

	uploadStore, err := uploads.NewStore(cfg.Uploads.Dir)
	if err != nil {
		logger.Fatal("UPLOADS", fmt.Sprintf("Failed to prepare upload directory: %v", err))
	}

	handler := &event_api.Handler{
		EventService:  eventService,
		Uploads:       uploadStore,
		QR:            qr.NewGenerator(),
		Logger:        logger,
		UploadBaseURL: cfg.Uploads.BaseURL,
	}

	logger.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
	}))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"✅ Eventus API is running"}`))
	})

	handler.RegisterRoutes(r)
	logger.Info("ROUTER", "Event routes registered under /api/events")

	fileServer := http.StripPrefix("/static/uploads/", http.FileServer(http.Dir(cfg.Uploads.Dir)))
	r.Get("/static/uploads/*", fileServer.ServeHTTP)
	logger.Info("ROUTER", fmt.Sprintf("Serving uploaded images from %s", cfg.Uploads.Dir))

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	if cfg.Scheduler.RefreshOnStart {
		if _, err := eventService.RefreshSystemEvents(); err != nil {
			logger.Error("LIFECYCLE", fmt.Sprintf("Initial refresh failed: %v", err))
		}
	}

	sched := scheduler.New(eventService, logger, cfg.Scheduler.RefreshInterval, cfg.Scheduler.SweepInterval)
	sched.Start()

	go func() {
		logger.Info("HTTP", fmt.Sprintf("🚀 Eventus service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "✅ HTTP server shutdown complete")
	}

	sched.Stop()
	logger.Info("APP", "✅ Eventus service shutdown complete")
}
