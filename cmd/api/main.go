package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rafflehub/raffle-backend/api/routes"
	"github.com/rafflehub/raffle-backend/internal/config"
	"github.com/rafflehub/raffle-backend/internal/handlers"
	"github.com/rafflehub/raffle-backend/internal/repositories"
	mongorepo "github.com/rafflehub/raffle-backend/internal/repositories/mongodb"
	"github.com/rafflehub/raffle-backend/internal/services"
	mongodb "github.com/rafflehub/raffle-backend/pkg/mongodb"
	"github.com/rafflehub/raffle-backend/pkg/paystack"
	"golang.org/x/exp/slog"
)

func main() {
	// A .env file is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("refusing to start", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	// Connect to MongoDB; NewClient retries a bounded number of times and
	// then fails startup.
	mongoClient, err := mongodb.NewClient(context.Background(), cfg.MongoDB.URI)
	if err != nil {
		slog.Error("failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			slog.Error("error disconnecting from MongoDB", "error", err)
		}
	}()

	db := mongoClient.Database(cfg.MongoDB.Database)

	// Repositories
	var raffleRepo repositories.RaffleRepository = mongorepo.NewRaffleRepository(db)
	var adminRepo repositories.AdminUserRepository = mongorepo.NewAdminUserRepository(db)
	var receiptRepo repositories.PaymentReceiptRepository = mongorepo.NewPaymentReceiptRepository(db)

	if err := receiptRepo.EnsureIndexes(context.Background()); err != nil {
		slog.Error("failed to create payment receipt indexes", "error", err)
		os.Exit(1)
	}

	// External gateway
	paystackClient := paystack.NewClient(cfg.Paystack.BaseURL, cfg.Paystack.Secret, cfg.Paystack.MockAPI)

	// Services
	authService := services.NewAuthService(adminRepo, cfg)
	raffleService := services.NewRaffleService(raffleRepo, receiptRepo, paystackClient, cfg.Frontend.BaseURL)

	// Handlers
	handlerDeps := routes.HandlerDependencies{
		AuthHandler:   handlers.NewAuthHandler(authService),
		RaffleHandler: handlers.NewRaffleHandler(raffleService, cfg.Paystack.Secret),
	}

	router := routes.SetupRouter(cfg, handlerDeps)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("listen failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exiting")
}

func setupLogger(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
}
