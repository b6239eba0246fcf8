package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/KOFI-GYIMAH/github-wrapped/docs"
	"github.com/KOFI-GYIMAH/github-wrapped/internal/config"
	"github.com/KOFI-GYIMAH/github-wrapped/internal/db"
	"github.com/KOFI-GYIMAH/github-wrapped/internal/github"
	"github.com/KOFI-GYIMAH/github-wrapped/internal/handler"
	md "github.com/KOFI-GYIMAH/github-wrapped/internal/middleware"
	"github.com/KOFI-GYIMAH/github-wrapped/internal/queue"
	"github.com/KOFI-GYIMAH/github-wrapped/internal/service"
	"github.com/KOFI-GYIMAH/github-wrapped/internal/web"
	"github.com/KOFI-GYIMAH/github-wrapped/internal/worker"
	"github.com/KOFI-GYIMAH/github-wrapped/pkg/logger"
	"github.com/gorilla/mux"
	"github.com/hashicorp/go-multierror"
	httpSwagger "github.com/swaggo/http-swagger"
)

const shutdownTimeout = 15 * time.Second

// @title GitHub Wrapped Service
// @version 1.0.0
// @description Year-in-review retrospectives of GitHub activity.
// @host localhost:8081
// @BasePath /v1
func main() {
	if os.Getenv("DEBUG") == "true" {
		logger.SetLevel(logger.LevelDebug)
	}

	// * Load configuration
	cfg, err := config.LoadConfiguration()
	if err != nil {
		logger.Error("‼️ Failed to load config: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// * Initialize the user store
	store, err := db.Open(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize %s store: %v", cfg.StoreDriver, err)
		os.Exit(1)
	}

	// * Initialize GitHub client
	githubClient := github.NewClient(cfg.GitHubToken, github.WithTimeout(cfg.GitHubTimeout))

	// * RabbitMQ is optional; without it events are dropped and warm-ups run in-process
	var (
		rabbitMQ *queue.RabbitMQ
		opts     = []service.Option{service.WithCacheTTL(cfg.CacheTTL), service.WithYear(cfg.Year)}
		warmup   handler.WarmupPublisher
	)
	if cfg.RabbitMQURL != "" {
		rabbitMQ, err = queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			logger.Warn("RabbitMQ unavailable, continuing without events: %v", err)
			rabbitMQ = nil
		} else {
			opts = append(opts, service.WithPublisher(rabbitMQ))
			warmup = rabbitMQ
		}
	}

	// * Create services
	wrappedService := service.NewWrappedService(githubClient, store, opts...)

	if rabbitMQ != nil {
		err := rabbitMQ.ConsumeWarmupRequests(ctx, func(ctx context.Context, username string) error {
			_, err := wrappedService.ResolveUser(ctx, username)
			return err
		})
		if err != nil {
			logger.Warn("Failed to start warm-up consumer: %v", err)
		}
	}

	// * Create and start worker
	statsWorker := worker.NewStatsWorker(wrappedService, cfg.StatsInterval)
	workerDone := make(chan struct{})
	go func() {
		statsWorker.Run(ctx)
		close(workerDone)
	}()

	// * Create API server
	webHandler, err := web.NewHandler(wrappedService, cfg.Year, cfg.NavCacheSize, web.DefaultNavCacheTTL)
	if err != nil {
		logger.Error("Failed to load page templates: %v", err)
		os.Exit(1)
	}

	apiHandler := handler.NewWrappedHandler(ctx, wrappedService, warmup)
	router := mux.NewRouter()
	md.Use(router)

	router.HandleFunc("/healthz", handler.Healthz).Methods("GET")
	router.PathPrefix("/v1/swagger/").Handler(httpSwagger.WrapHandler)
	apiHandler.RegisterRoutes(router.PathPrefix("/v1").Subrouter())
	webHandler.RegisterRoutes(router)

	server := &http.Server{
		Addr:              cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting API server on %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("API server error: %v", err)
			os.Exit(1)
		}
	}()

	// * Wait for termination signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	var result *multierror.Error
	if err := server.Shutdown(shutdownCtx); err != nil {
		result = multierror.Append(result, err)
	}

	cancel()
	<-workerDone

	if rabbitMQ != nil {
		if err := rabbitMQ.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := store.Close(); err != nil {
		result = multierror.Append(result, err)
	}

	if err := result.ErrorOrNil(); err != nil {
		logger.Error("Shutdown finished with errors: %v", err)
		os.Exit(1)
	}
	logger.Info("Shutdown complete")
}
