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
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	app_orders "github.com/hovgevorgyan1994/food-ordering-system/internal/app/orders"
	"github.com/hovgevorgyan1994/food-ordering-system/internal/app/saga"
	"github.com/hovgevorgyan1994/food-ordering-system/internal/config"
	"github.com/hovgevorgyan1994/food-ordering-system/internal/domain"
	http_orders "github.com/hovgevorgyan1994/food-ordering-system/internal/handler/http/orders"
	kafka_handler "github.com/hovgevorgyan1994/food-ordering-system/internal/handler/kafka"
	"github.com/hovgevorgyan1994/food-ordering-system/internal/infrastructure/database"
	"github.com/hovgevorgyan1994/food-ordering-system/internal/infrastructure/kafka"
	"github.com/hovgevorgyan1994/food-ordering-system/internal/outbox"
	order_repo_pg "github.com/hovgevorgyan1994/food-ordering-system/internal/repository/order_repo/postgres"
	outbox_repo_pg "github.com/hovgevorgyan1994/food-ordering-system/internal/repository/outbox_repo/postgres"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.EncoderConfig.TimeKey = "timestamp"

	appLogger, err := zapConfig.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create zap logger: %v\n", err)
		os.Exit(1)
	}
	appLogger.Info("Order Service starting...")

	cleanupSchedule, err := outbox.ParseSchedule(cfg.OutboxCleanupSchedule)
	if err != nil {
		appLogger.Fatal("Invalid OUTBOX_CLEANUP_SCHEDULE", zap.Error(err))
	}

	appLogger.Info("Waiting for database to be available...")
	dbConfig := database.DBConfig{
		Host:     cfg.DBConfig.DBHost,
		Port:     cfg.DBConfig.DBPort,
		User:     cfg.DBConfig.DBUser,
		Password: cfg.DBConfig.DBPassword,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.DBSSLMode,
	}

	var db *sql.DB
	maxRetries := 10
	retryDelay := 5 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = database.NewPostgresDB(dbConfig)
		if err == nil {
			appLogger.Info("Successfully connected to PostgreSQL database!")
			break
		}
		appLogger.Warn(fmt.Sprintf("Failed to connect to database (attempt %d/%d): %v. Retrying in %s...", i+1, maxRetries, err, retryDelay))
		time.Sleep(retryDelay)
	}
	if db == nil {
		appLogger.Fatal("Could not connect to database after multiple retries. Exiting.", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			appLogger.Error("Error closing database connection", zap.Error(err))
		}
	}()

	appLogger.Info("Running database migrations...")
	migrateDSN := "postgres://" + cfg.GetDBMigrationConnectionString()
	m, err := migrate.New("file://migrations", migrateDSN)
	if err != nil {
		appLogger.Fatal("Failed to create migrate instance", zap.Error(err))
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		appLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}
	appLogger.Info("Database migrations completed successfully (or no new migrations).")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	paymentPublisher := kafka.NewMessagePublisher(cfg.GetKafkaBrokers(), cfg.PaymentRequestTopic,
		appLogger.With(zap.String("component", "PaymentRequestPublisher")))
	defer paymentPublisher.Close()
	approvalPublisher := kafka.NewMessagePublisher(cfg.GetKafkaBrokers(), cfg.ApprovalRequestTopic,
		appLogger.With(zap.String("component", "ApprovalRequestPublisher")))
	defer approvalPublisher.Close()

	orderRepository := order_repo_pg.NewOrderRepository(appLogger)
	paymentOutboxRepository := outbox_repo_pg.NewOutboxRepository(outbox_repo_pg.PaymentOutboxTable, appLogger)
	approvalOutboxRepository := outbox_repo_pg.NewOutboxRepository(outbox_repo_pg.ApprovalOutboxTable, appLogger)

	domainService := domain.NewOrderDomainService(appLogger.With(zap.String("component", "OrderDomainService")))

	orderService := app_orders.NewOrderService(db, domainService, orderRepository, paymentOutboxRepository, appLogger)
	paymentSaga := saga.NewPaymentSaga(db, domainService, orderRepository, paymentOutboxRepository, approvalOutboxRepository,
		appLogger.With(zap.String("component", "PaymentSaga")))
	approvalSaga := saga.NewApprovalSaga(db, domainService, orderRepository, paymentOutboxRepository, approvalOutboxRepository,
		appLogger.With(zap.String("component", "ApprovalSaga")))

	// Payment requests await publication in STARTED (new order) or
	// COMPENSATING (refund request); approval requests only ever in
	// PROCESSING (order just paid).
	outbox.NewScheduler("payment-outbox", db, paymentOutboxRepository, paymentPublisher,
		[]domain.SagaStatus{domain.SagaStatusStarted, domain.SagaStatusCompensating},
		cfg.OutboxSchedulerInterval, cfg.OutboxSchedulerDelay, appLogger).Start(ctx)
	outbox.NewScheduler("approval-outbox", db, approvalOutboxRepository, approvalPublisher,
		[]domain.SagaStatus{domain.SagaStatusProcessing},
		cfg.OutboxSchedulerInterval, cfg.OutboxSchedulerDelay, appLogger).Start(ctx)
	outbox.NewCleaner("payment-outbox", db, paymentOutboxRepository, cleanupSchedule, appLogger).Start(ctx)
	outbox.NewCleaner("approval-outbox", db, approvalOutboxRepository, cleanupSchedule, appLogger).Start(ctx)
	appLogger.Info("Outbox schedulers started.")

	paymentResponseConsumer := kafka_handler.NewPaymentResponseConsumer(paymentSaga,
		appLogger.With(zap.String("component", "PaymentResponseConsumer")))
	go func() {
		if err := kafka.StartConsumer(ctx, cfg.GetKafkaBrokers(), cfg.PaymentResponseTopic, cfg.KafkaConsumerGroup,
			paymentResponseConsumer.HandleMessage, appLogger); err != nil {
			appLogger.Fatal("Kafka payment response consumer failed", zap.Error(err))
		}
	}()
	approvalResponseConsumer := kafka_handler.NewApprovalResponseConsumer(approvalSaga,
		appLogger.With(zap.String("component", "ApprovalResponseConsumer")))
	go func() {
		if err := kafka.StartConsumer(ctx, cfg.GetKafkaBrokers(), cfg.ApprovalResponseTopic, cfg.KafkaConsumerGroup,
			approvalResponseConsumer.HandleMessage, appLogger); err != nil {
			appLogger.Fatal("Kafka approval response consumer failed", zap.Error(err))
		}
	}()
	appLogger.Info("Kafka response consumers started!")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	http_orders.RegisterRoutes(r, orderService, appLogger)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()
	appLogger.Info("Order Service started", zap.String("address", server.Addr))

	<-sigChan

	appLogger.Info("Shutting down Order Service...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal("Order Service graceful shutdown failed", zap.Error(err))
	}
	appLogger.Info("Order Service stopped.")
}
