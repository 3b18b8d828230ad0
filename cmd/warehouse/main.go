package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/azadjordan/megadie-warehouse/internal/warehouse"
	httpDelivery "github.com/azadjordan/megadie-warehouse/internal/warehouse/delivery/http"
	"github.com/azadjordan/megadie-warehouse/internal/warehouse/repository"
	"github.com/azadjordan/megadie-warehouse/internal/warehouse/usecase/command"
	"github.com/azadjordan/megadie-warehouse/kafka"
	"github.com/azadjordan/megadie-warehouse/pkg/database"
	"github.com/azadjordan/megadie-warehouse/pkg/logger"
	"github.com/azadjordan/megadie-warehouse/pkg/tracing"
)

func main() {
	// Initialize logger
	serviceName := getEnv("OTEL_SERVICE_NAME", "warehouse-service")
	isDevelopment := getEnv("ENVIRONMENT", "development") == "development"
	logger.Init(serviceName, isDevelopment)

	logLevel := getEnv("LOG_LEVEL", "info")
	logger.SetLevel(logLevel)

	logger.Logger.Info().
		Str("service", serviceName).
		Str("environment", getEnv("ENVIRONMENT", "development")).
		Str("log_level", logLevel).
		Msg("Starting warehouse service")

	// Initialize tracing
	tp, err := tracing.InitTracer(serviceName)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize tracer")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(ctx, tp); err != nil {
			logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
		}
	}()

	// Load database configuration
	dbConfig := database.Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "warehousedb"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Connect to database
	db, err := database.NewGormConnection(dbConfig)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to get database instance")
	}
	defer sqlDB.Close()

	// Run migrations
	if err := repository.Migrate(db); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	logger.Logger.Info().Msg("Database initialized successfully")

	// Connect to Redis for occupancy snapshot caching
	redisClient := redis.NewClient(&redis.Options{
		Addr: getEnv("REDIS_ADDR", "localhost:6379"),
	})
	defer redisClient.Close()

	// Initialize Kafka publisher. Publishing is best-effort: the service
	// runs without it when the brokers are unreachable.
	brokers := strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")
	var events command.EventPublisher
	publisher, err := kafka.NewPublisher(brokers)
	if err != nil {
		logger.Logger.Warn().Err(err).Msg("Kafka publisher unavailable, events disabled")
	} else {
		events = publisher
		defer publisher.Close()
	}

	// Initialize handler with Wire DI
	handler, err := warehouse.InitializeHTTPHandler(db, redisClient, events)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize handler")
	}

	logger.Logger.Info().Msg("Warehouse handler initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Consume order.delivered so stock can be finalized as soon as an
	// order becomes eligible.
	startOrderDeliveredConsumer(ctx, db, events, brokers)

	// Expired reservation janitor
	startAllocationJanitor(ctx, db)

	// Start HTTP server
	httpPort := getEnv("HTTP_PORT", "8084")
	go startHTTPServer(handler, sqlDB, httpPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down server...")
	cancel()
}

// startOrderDeliveredConsumer subscribes to order delivery events and
// attempts finalization. Orders that are not yet eligible (no invoice,
// incomplete allocations) are left for the manual finalize endpoint.
func startOrderDeliveredConsumer(ctx context.Context, db *gorm.DB, events command.EventPublisher, brokers []string) {
	consumer, err := kafka.NewConsumer(brokers, "warehouse-service", []string{kafka.TopicOrderDelivered})
	if err != nil {
		logger.Logger.Warn().Err(err).Msg("Kafka consumer unavailable, order.delivered handling disabled")
		return
	}

	finalize := command.NewFinalizeAllocationsHandler(warehouse.ProvideTxManager(db), events)

	consumer.RegisterHandler(kafka.EventTypeOrderDelivered, func(ctx context.Context, event kafka.OrderDeliveredEvent) error {
		result, err := finalize.Handle(ctx, command.FinalizeAllocationsCommand{
			OrderID: event.OrderID,
			Actor:   event.DeliveredBy,
		})
		if err != nil {
			logger.Warn(ctx).
				Err(err).
				Uint("order_id", event.OrderID).
				Msg("Order delivered but stock not finalized")
			return nil
		}

		logger.Info(ctx).
			Uint("order_id", event.OrderID).
			Bool("already_finalized", result.AlreadyFinalized).
			Int("deductions", result.Deductions).
			Msg("Stock finalized from order delivery event")
		return nil
	})

	if err := consumer.Start(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to start Kafka consumer")
		return
	}

	go func() {
		<-ctx.Done()
		consumer.Close()
	}()
}

// startAllocationJanitor periodically purges expired reservations of
// finalized orders.
func startAllocationJanitor(ctx context.Context, db *gorm.DB) {
	purge := command.NewPurgeExpiredAllocationsHandler(repository.NewRepositories(db))
	interval := time.Hour

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := purge.Handle(ctx); err != nil {
					logger.Logger.Error().Err(err).Msg("Failed to purge expired allocations")
				}
			}
		}
	}()

	logger.Logger.Info().
		Dur("interval", interval).
		Msg("Allocation janitor started")
}

func startHTTPServer(handler *httpDelivery.WarehouseHandler, db *sql.DB, port string) {
	// Setup router
	router := mux.NewRouter()

	// Register middlewares
	mwConfig := httpDelivery.DefaultMiddlewareConfig()
	httpDelivery.RegisterMiddlewares(router, mwConfig)

	// Register routes
	handler.RegisterRoutes(router)

	// Health check endpoint
	handler.RegisterHealthCheck(router, db)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// CORS middleware
	corsHandler := httpDelivery.SetupCORS(mwConfig)

	logger.Logger.Info().
		Str("port", port).
		Str("metrics_endpoint", "/metrics").
		Msg("HTTP server started")

	if err := http.ListenAndServe(":"+port, corsHandler(router)); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to start HTTP server")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
