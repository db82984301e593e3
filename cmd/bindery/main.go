// Package main wires together the bindery service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gpubsub "cloud.google.com/go/pubsub"
	gstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/printforge/bindery/internal/api"
	"github.com/printforge/bindery/internal/archive"
	"github.com/printforge/bindery/internal/assets"
	"github.com/printforge/bindery/internal/clock/system"
	"github.com/printforge/bindery/internal/config"
	deliverymemory "github.com/printforge/bindery/internal/delivery/memory"
	deliverypubsub "github.com/printforge/bindery/internal/delivery/pubsub"
	"github.com/printforge/bindery/internal/fetch/httpfetch"
	ledgermemory "github.com/printforge/bindery/internal/ledger/memory"
	ledgerpostgres "github.com/printforge/bindery/internal/ledger/postgres"
	"github.com/printforge/bindery/internal/logging"
	"github.com/printforge/bindery/internal/order"
	"github.com/printforge/bindery/internal/pdf"
	persistgcs "github.com/printforge/bindery/internal/persist/gcs"
	persistlocal "github.com/printforge/bindery/internal/persist/local"
	"github.com/printforge/bindery/internal/pipeline"
	"github.com/printforge/bindery/internal/qrcode"
	"github.com/printforge/bindery/internal/telemetry"
	"github.com/printforge/bindery/internal/workspace"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)
	telemetry.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	persister, err := buildPersister(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("persister init failed", zap.Error(err))
	}
	workspaces, err := workspace.NewManager(cfg.Workspace.Root, logger.Named("workspace"))
	if err != nil {
		logger.Fatal("workspace init failed", zap.Error(err))
	}

	project := pipeline.NewProject(
		httpfetch.New(httpfetch.Config{Timeout: cfg.FetchTimeout()}),
		archive.New(),
		assets.New(),
		pdf.New(),
		persister,
		workspaces,
		logger.Named("project"),
	)

	deliverer, err := buildDeliverer(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("deliverer init failed", zap.Error(err))
	}
	ledger, err := buildLedger(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("ledger init failed", zap.Error(err))
	}

	var qr order.QRGenerator
	if cfg.QR.BaseURL != "" {
		gen, err := qrcode.New(cfg.QR.BaseURL)
		if err != nil {
			logger.Fatal("qr generator init failed", zap.Error(err))
		}
		qr = gen
	}

	batch := pipeline.NewBatch(project, deliverer, ledger, qr, cfg.Pricing.PerPage, logger.Named("batch"))

	sweeper := workspace.NewSweeper(
		workspaces.Root(),
		cfg.WorkspaceRetention(),
		system.New(),
		logger.Named("sweeper"),
	)
	go sweeper.Run(ctx, cfg.SweepInterval())

	apiServer := api.NewServer(batch, cfg, logger.Named("api"))
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
}

// buildPersister returns the local persister, wrapped with a GCS archival
// copy when a bucket is configured.
func buildPersister(ctx context.Context, cfg config.Config, logger *zap.Logger) (order.DocumentPersister, error) {
	local, err := persistlocal.New(persistlocal.Config{BaseDir: cfg.Output.Dir})
	if err != nil {
		return nil, fmt.Errorf("local persister: %w", err)
	}
	if cfg.Storage.GCSBucket == "" {
		return local, nil
	}
	client, err := gstorage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	archiver, err := persistgcs.New(client, persistgcs.Config{
		Bucket: cfg.Storage.GCSBucket,
		Prefix: cfg.Storage.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("gcs archiver: %w", err)
	}
	logger.Info("archiving deliverables to GCS", zap.String("bucket", cfg.Storage.GCSBucket))
	return &archivingPersister{local: local, archiver: archiver, logger: logger.Named("gcs")}, nil
}

// archivingPersister persists locally, then uploads a best-effort copy.
type archivingPersister struct {
	local    *persistlocal.Persister
	archiver *persistgcs.Archiver
	logger   *zap.Logger
}

func (p *archivingPersister) Persist(ctx context.Context, data []byte, orderID string, index int) (string, error) {
	path, err := p.local.Persist(ctx, data, orderID, index)
	if err != nil {
		return "", err
	}
	if uri, err := p.archiver.Archive(ctx, persistlocal.Filename(orderID, index), data); err != nil {
		p.logger.Warn("gcs archival failed", zap.String("path", path), zap.Error(err))
	} else {
		p.logger.Debug("deliverable archived", zap.String("uri", uri))
	}
	return path, nil
}

func buildDeliverer(ctx context.Context, cfg config.Config, logger *zap.Logger) (order.Deliverer, error) {
	if cfg.Delivery.TopicName == "" {
		logger.Warn("delivery topic not configured, notices stay in memory")
		return deliverymemory.New(), nil
	}
	client, err := gpubsub.NewClient(ctx, cfg.Delivery.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("pubsub client: %w", err)
	}
	return deliverypubsub.New(client.Topic(cfg.Delivery.TopicName)), nil
}

func buildLedger(ctx context.Context, cfg config.Config, logger *zap.Logger) (order.Ledger, error) {
	if cfg.Ledger.DSN == "" {
		logger.Warn("ledger dsn not configured, entries stay in memory")
		return ledgermemory.New(), nil
	}
	ledger, err := ledgerpostgres.New(ctx, ledgerpostgres.Config{
		DSN:   cfg.Ledger.DSN,
		Table: cfg.Ledger.Table,
	})
	if err != nil {
		return nil, fmt.Errorf("postgres ledger: %w", err)
	}
	return ledger, nil
}
