package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/fuelops/fuelcenter/internal/config"
	"github.com/fuelops/fuelcenter/internal/registry"
	"github.com/fuelops/fuelcenter/internal/repository/mongodb"
	"github.com/fuelops/fuelcenter/internal/repository/sheets"
	"github.com/fuelops/fuelcenter/internal/scheduler"
	"github.com/fuelops/fuelcenter/internal/server/handlers"
	"github.com/fuelops/fuelcenter/internal/server/router"
	analyticssvc "github.com/fuelops/fuelcenter/internal/service/analytics"
	ledgersvc "github.com/fuelops/fuelcenter/internal/service/ledger"
	"github.com/fuelops/fuelcenter/pkg/clients/alerts"
	"github.com/fuelops/fuelcenter/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
	if err != nil {
		baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
	}

	mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	assetRegistry, err := registry.LoadFromSheet(context.Background(), sheetsRepo, baseLogger.Named("registry"))
	if err != nil {
		baseLogger.Fatal("failed to load asset registry", zap.Error(err))
	}

	analyticsSvc := analyticssvc.NewService(sheetsRepo, assetRegistry, cfg.Fuel, baseLogger.Named("svc.analytics"))
	ledgerSvc := ledgersvc.NewService(sheetsRepo, assetRegistry, analyticsSvc, baseLogger.Named("svc.ledger"))

	// Alerts are optional; without a webhook URL the snapshot job still runs.
	var notifier alerts.Client
	if cfg.Alerts.WebhookURL != "" {
		notifier = alerts.NewClient(cfg.Alerts.WebhookURL)
		baseLogger.Info("anomaly alert webhook enabled")
	} else {
		baseLogger.Warn("alert webhook url missing, anomaly notifications disabled")
	}

	fuelHandler := handlers.NewFuelHandler(ledgerSvc, analyticsSvc, assetRegistry, baseLogger.Named("handlers.fuel"))
	engine := router.New(fuelHandler, baseLogger.Named("router"))

	sched, err := scheduler.NewScheduler(cfg.Snapshot, analyticsSvc, mongoRepo, notifier, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
