package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	appsync "github.com/storefront/catalogsync/internal/application/sync"
	"github.com/storefront/catalogsync/internal/infrastructure/catalogfile"
	"github.com/storefront/catalogsync/internal/infrastructure/config"
	"github.com/storefront/catalogsync/internal/infrastructure/logger"
	"github.com/storefront/catalogsync/internal/infrastructure/persistence"
	"github.com/storefront/catalogsync/internal/infrastructure/ratelimit"
	"github.com/storefront/catalogsync/internal/infrastructure/woocommerce"
)

func main() {
	var (
		catalogPath string
		logLevel    string
	)
	flag.StringVar(&catalogPath, "catalog", "", "Path to the catalog CSV (overrides configuration)")
	flag.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error; overrides configuration)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if catalogPath != "" {
		cfg.Catalog.File = catalogPath
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	if err := run(cfg, log); err != nil {
		log.Error("Sync failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clientCfg := woocommerce.NewConfig(cfg.API.BaseURL, cfg.API.ConsumerKey, cfg.API.ConsumerSecret)
	clientCfg.TimeoutSeconds = int(cfg.API.Timeout.Seconds())
	clientCfg.PerPage = cfg.API.PerPage
	client, err := woocommerce.NewClient(clientCfg)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	limiter := ratelimit.New(
		ratelimit.Algorithm(cfg.RateLimit.Algorithm),
		cfg.RateLimit.MaxCalls,
		cfg.RateLimit.Window,
	)

	var history appsync.RunRecorder
	if cfg.History.Enabled {
		db, err := persistence.Open(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("failed to open run history store: %w", err)
		}
		history = persistence.NewGormSyncRunRepository(db)
	}

	orchestrator := appsync.NewOrchestrator(
		catalogfile.NewSource(cfg.Catalog.File),
		catalogfile.NewSink(cfg.Catalog.File, cfg.Catalog.ReportFile),
		client,
		appsync.NewCategoryResolver(client, limiter, log),
		appsync.NewMediaResolver(client, limiter, cfg.Catalog.ImagesDir, log),
		appsync.NewProductReconciler(client, limiter, log),
		history,
		log,
	)

	report, err := orchestrator.Run(ctx)
	if err != nil {
		return err
	}

	// Isolated per-record failures do not fail the process; the summary
	// and the report file carry the details.
	log.Info("Catalog sync finished",
		zap.String("run_id", report.Summary.RunID.String()),
		zap.Int("total", report.Summary.Total),
		zap.Int("created", report.Summary.Created),
		zap.Int("updated", report.Summary.Updated),
		zap.Int("conflicts", report.Summary.Conflicts),
		zap.Int("failed", report.Summary.Failed),
		zap.Int("skipped", report.Summary.Skipped))
	return nil
}
