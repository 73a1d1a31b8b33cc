package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/postgen/internal/config"
	"github.com/kailas-cloud/postgen/internal/db"
	dbRedis "github.com/kailas-cloud/postgen/internal/db/redis"
	logpkg "github.com/kailas-cloud/postgen/internal/logger"
	"github.com/kailas-cloud/postgen/internal/metrics"
	usagerepo "github.com/kailas-cloud/postgen/internal/repository/usage"
	chiTransport "github.com/kailas-cloud/postgen/internal/transport/chi"
	openaiGen "github.com/kailas-cloud/postgen/internal/transport/openai"
	generationuc "github.com/kailas-cloud/postgen/internal/usecase/generation"
	healthuc "github.com/kailas-cloud/postgen/internal/usecase/health"
	"github.com/kailas-cloud/postgen/internal/usecase/quota"
	usageuc "github.com/kailas-cloud/postgen/internal/usecase/usage"
	"github.com/kailas-cloud/postgen/internal/version"
)

func runServe(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(envFiles...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}

	env := config.GetEnv()
	cfg, err := loadConfig(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if portFlag > 0 {
		cfg.HTTP.Port = portFlag
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting postgen server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("model", cfg.Generation.Model),
		zap.Bool("quota_enabled", cfg.Quota.IsEnabled()),
		zap.Int("free_limit", cfg.Quota.FreeLimit),
		zap.String("db_driver", cfg.Database.Driver),
	)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Usage counters survive restarts only when a database is configured.
	var store db.Store
	switch cfg.Database.Driver {
	case "":
		logger.Info("No database configured, usage stats stay in memory")
	case "redis", "valkey":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Username: cfg.Database.Username,
			Password: cfg.Database.Password,
		})
		if err != nil {
			return fmt.Errorf("create database store: %w", err)
		}
		defer s.Close()

		readiness := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
		if err := s.WaitForReady(ctx, readiness); err != nil {
			return fmt.Errorf("database not ready: %w", err)
		}
		logger.Info("Connected to database", zap.Strings("addrs", cfg.Database.Addrs))
		store = s
	default:
		return fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	// Register generation metrics explicitly (no init())
	metrics.RegisterGenerationMetrics()

	// Quota
	ledger := quota.NewLedger(cfg.Quota.Window)
	gate := quota.NewGate(ledger, quota.GateConfig{
		FreeLimit:      cfg.Quota.FreeLimit,
		BypassPassword: cfg.Quota.BypassPassword,
		Disabled:       !cfg.Quota.IsEnabled(),
	}, logger)
	if cfg.Quota.BypassPassword == "" {
		logger.Warn("No bypass password configured, exhausted clients cannot continue")
	}
	if cfg.Quota.SweepInterval > 0 {
		sweeper := quota.NewSweeper(ledger, cfg.Quota.SweepInterval, cfg.Quota.SweepRetention, logger)
		go sweeper.Run(ctx)
	}

	// Generation provider
	generator := openaiGen.NewGenerator(&openaiGen.Config{
		APIKey:      cfg.Generation.APIKey,
		BaseURL:     cfg.Generation.BaseURL,
		Model:       cfg.Generation.Model,
		MaxTokens:   cfg.Generation.MaxTokens,
		Temperature: cfg.Generation.Temperature,
		Provider:    cfg.Generation.Provider,
		Logger:      logger,
	})

	// Usage stats
	tracker := usageuc.NewTracker(cfg.Storage.KeyPrefix, logger)
	if store != nil {
		tracker.WithStore(ctx, usagerepo.New(store, 0, 0))
	}

	// Use case services
	genSvc := generationuc.New(gate, generator, tracker, logger).
		WithTimeout(time.Duration(cfg.Generation.TimeoutSec) * time.Second).
		WithUpgradeURL(cfg.Quota.UpgradeURL)
	usageSvc := usageuc.New(tracker, genSvc, ledger)

	// Pass nil interface (not typed nil pointer!) when no database is configured.
	var pinger healthuc.DBPinger
	if store != nil {
		pinger = store
	}
	healthSvc := healthuc.New(pinger, generator)

	server := chiTransport.NewServer(genSvc, usageSvc, healthSvc)

	r := chi.NewRouter()
	r.Use(chiTransport.Recoverer(logger))
	r.Use(chiMiddleware.RequestID)
	if cfg.HTTP.TrustProxyHeaders {
		r.Use(chiMiddleware.RealIP)
	}
	r.Use(chiTransport.WideEvent(logger))
	r.Use(metrics.Middleware())
	server.Register(r, cfg.Auth.APIKeys)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-quit:
		logger.Info("Received shutdown signal")
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

func loadConfig(env string) (config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load(env)
}
