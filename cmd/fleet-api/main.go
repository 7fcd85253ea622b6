package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edvin/vmfleet/internal/api"
	"github.com/edvin/vmfleet/internal/config"
	"github.com/edvin/vmfleet/internal/core"
	"github.com/edvin/vmfleet/internal/db"
	"github.com/edvin/vmfleet/internal/llm"
	"github.com/edvin/vmfleet/internal/logging"
	"github.com/edvin/vmfleet/internal/ops"
	"github.com/edvin/vmfleet/internal/pve"
	"github.com/edvin/vmfleet/internal/scheduler"
	"github.com/edvin/vmfleet/internal/sshexec"
	"github.com/edvin/vmfleet/internal/tasks"
)

func main() {
	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	migrateDirFlag := flag.String("migrate-dir", "migrations/core", "Migration files directory")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate("fleet-api"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	if *migrateFlag {
		logger.Info().Str("dir", *migrateDirFlag).Msg("running database migrations")
		if err := db.RunMigrations(cfg.CoreDatabaseURL, *migrateDirFlag); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	corePool, err := db.NewCorePool(ctx, cfg.CoreDatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to core database")
	}
	defer corePool.Close()

	services := core.NewServices(corePool)

	remote := sshexec.NewClient(cfg.SSHUser, cfg.SSHKeyPath, time.Duration(cfg.SSHTimeoutSeconds)*time.Second)
	controlPlane := pve.NewClient(cfg.PVEVerifyTLS)
	aiClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)

	scanner := ops.NewScanner(logger, services.Server, controlPlane, remote, services.BackgroundTask)
	migrator := ops.NewMigrator(logger, services.Server, controlPlane)
	handlers := scheduler.Handlers{
		Backup:  ops.NewBackupper(logger, remote),
		Scan:    scanner,
		Migrate: migrator,
		Analyze: ops.NewAnalyzer(logger, services.Server, remote, aiClient),
		AI:      aiClient,
	}

	executor := scheduler.NewExecutor(logger, services.History, services.Server, handlers)
	tickers := scheduler.NewTickers(logger, services.Server, services.NodeStats, remote, scanner)
	sched := scheduler.New(logger, services.Job, services.Server, executor, tickers)

	if err := sched.Initialize(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize scheduler")
	}
	defer sched.Stop()

	registry := tasks.NewRegistry(logger,
		tasks.NewJobHistorySource(services.History),
		tasks.NewMigrationSource(services.MigrationTask),
		tasks.NewBackgroundSource(services.BackgroundTask),
	)

	srv := api.NewServer(logger, corePool, services, sched, registry, migrator, cfg)

	httpServer := &http.Server{
		Addr:         cfg.HTTPListenAddr,
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPListenAddr).Msg("starting fleet API server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
}
