package main

import (
	"context"
	"flag"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/fuelops/fuelcenter/internal/config"
	"github.com/fuelops/fuelcenter/internal/registry"
	"github.com/fuelops/fuelcenter/internal/repository/sheets"
	"github.com/fuelops/fuelcenter/pkg/logger"
)

const assetsWriteRange = "Assets!A:F"

// Seeds the Assets tab from a CSV file. Existing rows are left alone; this is
// an append, so run it against an empty tab.
func main() {
	csvPath := flag.String("csv", "seed/assets.csv", "path to the assets seed CSV")
	envFile := flag.String("env", "", "optional .env file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	sheetsRepo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
	if err != nil {
		baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
	}

	file, err := os.Open(*csvPath)
	if err != nil {
		baseLogger.Fatal("failed to open seed csv", zap.String("path", *csvPath), zap.Error(err))
	}
	defer func() { _ = file.Close() }()

	// Parsing through the registry validates uniqueness and vehicle
	// benchmarks before anything touches the sheet.
	assetRegistry, err := registry.LoadFromCSV(file, baseLogger.Named("registry"))
	if err != nil {
		baseLogger.Fatal("seed csv rejected", zap.Error(err))
	}

	if err := sheetsRepo.EnsureHeader(ctx, "Assets", registry.AssetsHeader); err != nil {
		baseLogger.Fatal("failed to write assets header", zap.Error(err))
	}

	for _, asset := range assetRegistry.All() {
		values := []interface{}{
			asset.FleetNo,
			asset.AssetID,
			string(asset.Category),
			asset.Description,
			asset.PlateNumber,
		}
		if asset.BenchmarkKmL != nil {
			values = append(values, *asset.BenchmarkKmL)
		} else {
			values = append(values, "")
		}

		if err := sheetsRepo.WriteRow(ctx, assetsWriteRange, values); err != nil {
			baseLogger.Fatal("failed to append asset row", zap.String("fleet_no", asset.FleetNo), zap.Error(err))
		}
	}

	baseLogger.Info("assets seeded", zap.Int("count", len(assetRegistry.All())))
}
