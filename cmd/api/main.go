package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/simonkvalheim/pix-ledger/internal/bootstrap"
	"github.com/simonkvalheim/pix-ledger/internal/config"
	"github.com/simonkvalheim/pix-ledger/internal/handler"
	"github.com/simonkvalheim/pix-ledger/internal/logger"
	appMiddleware "github.com/simonkvalheim/pix-ledger/internal/middleware"
	"github.com/simonkvalheim/pix-ledger/internal/processor"
	"github.com/simonkvalheim/pix-ledger/internal/queue"
)

func main() {
	// Load configuration from .env and environment
	cfg, loadedEnv, err := config.Load()
	log := logger.New(os.Stdout, cfg.Log)
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if loadedEnv {
		log.Info("environment variables loaded from .env file")
	}

	ledger, err := bootstrap.Initialize(cfg.SeedFile, log)
	if err != nil {
		log.Error("failed to initialize ledger", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize queue publisher and worker if async mode is enabled
	var (
		publisher *queue.Publisher
		worker    *queue.Worker
	)
	if cfg.AsyncMode {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisURL,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()

		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			log.Error("failed to connect to Redis", "addr", cfg.RedisURL, "error", err)
			os.Exit(1)
		}
		log.Info("connected to Redis (async mode enabled)", "addr", cfg.RedisURL)

		publisher = queue.NewPublisher(redisClient)
		worker = queue.NewWorker(redisClient, processor.NewTransferProcessor(ledger), log)
		go worker.Start(ctx)
	} else {
		log.Info("running in sync mode (set ASYNC_MODE=true for async PIX)")
	}

	healthHandler := handler.NewHealthHandler(ledger, publisher)
	accountHandler := handler.NewAccountHandler(ledger, log)
	transferHandler := handler.NewTransferHandler(ledger, publisher, log)

	r := chi.NewRouter()
	r.Use(appMiddleware.CORS(appMiddleware.CORSConfig{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
	}))
	r.Use(middleware.RequestID)
	r.Use(appMiddleware.RequestLogger(log))
	r.Use(middleware.Recoverer)

	healthHandler.RegisterRoutes(r)
	accountHandler.RegisterRoutes(r)
	transferHandler.RegisterRoutes(r)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	if worker != nil {
		worker.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		return
	}

	log.Info("server stopped")
}
