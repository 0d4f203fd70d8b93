package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prudhvinik1/displayhub/internal/cache"
	"github.com/prudhvinik1/displayhub/internal/config"
	"github.com/prudhvinik1/displayhub/internal/database"
	"github.com/prudhvinik1/displayhub/internal/feeds"
	"github.com/prudhvinik1/displayhub/internal/handlers"
	"github.com/prudhvinik1/displayhub/internal/repositories"
	"github.com/prudhvinik1/displayhub/internal/services"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database connections
	postgresPool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to create postgres pool", zap.Error(err))
	}
	defer postgresPool.Close()

	if err := database.InitSchema(ctx, postgresPool); err != nil {
		logger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	// The render cache is in-process unless Redis is configured.
	var cacheStore cache.Store = cache.NewMemory(cache.SystemClock)
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal("Failed to create redis client", zap.Error(err))
		}
		defer redisClient.Close()
		cacheStore = cache.NewRedis(redisClient, cache.SystemClock)
		logger.Info("Using redis render cache")
	}

	store := repositories.NewPostgresStore(postgresPool)
	clock := cache.SystemClock

	pairingService := services.NewPairingService(store, clock, logger, cfg.PairTTL, cfg.SessionTTL, cfg.DeviceTokenTTL)
	authService := services.NewAuthService(store, clock)
	renderService := services.NewRenderService(
		store, cacheStore, clock,
		feeds.NewCoinGecko(), feeds.NewOpenMeteo(),
		logger,
	)

	handler := handlers.NewHandler(pairingService, authService, renderService, store, logger, cfg.SessionTTL)
	router := handlers.NewRouter(handler, cfg.AllowedOrigins)

	// Start Server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	// graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.Info("Starting server", zap.String("port", cfg.ServerPort), zap.String("environment", cfg.Environment))
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		logger.Fatal("Server error", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

func newLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
