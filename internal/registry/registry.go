package registry

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/fuelops/fuelcenter/internal/domain/models"
	"github.com/fuelops/fuelcenter/internal/repository/sheets"
)

// assetsReadRange covers the data rows of the Assets tab (row 1 is the header).
const assetsReadRange = "Assets!A2:F"

// AssetsHeader is the expected column layout of the Assets tab and the seed CSV.
var AssetsHeader = []string{"Fleet No", "Asset ID", "Category", "Description", "Plate Number", "Benchmark_KmL"}

// defaultTankers are the four mobile tankers assumed when the registry has no
// tanker rows, matching the original deployment.
var defaultTankers = []string{"BPS-95", "HSC-116", "BPS-13", "HSC-101"}

// Registry is a read-only view of the fleet assets, loaded once per session.
type Registry struct {
	assets []models.Asset
	index  map[string]int
	logger *zap.Logger
}

// New builds a registry from the given assets, enforcing fleet number
// uniqueness and the vehicle benchmark requirement.
func New(assets []models.Asset, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Registry{
		assets: make([]models.Asset, 0, len(assets)),
		index:  make(map[string]int, len(assets)),
		logger: logger,
	}

	for _, asset := range assets {
		fleetNo := strings.TrimSpace(asset.FleetNo)
		if fleetNo == "" {
			return nil, models.NewValidationError("fleet_no", "must not be empty")
		}
		asset.FleetNo = fleetNo

		key := lookupKey(fleetNo)
		if _, exists := r.index[key]; exists {
			return nil, fmt.Errorf("duplicate fleet number %s", fleetNo)
		}

		if !asset.Category.Valid() {
			return nil, models.NewValidationError("category", fmt.Sprintf("unknown category for %s", fleetNo))
		}

		if asset.Category == models.CategoryVehicle {
			if asset.BenchmarkKmL == nil || *asset.BenchmarkKmL <= 0 {
				return nil, models.NewValidationError("benchmark_km_per_l", fmt.Sprintf("vehicle %s requires a positive benchmark", fleetNo))
			}
		} else {
			// Only vehicles carry a benchmark.
			asset.BenchmarkKmL = nil
		}

		r.index[key] = len(r.assets)
		r.assets = append(r.assets, asset)
	}

	tankers := 0
	for _, asset := range r.assets {
		if asset.IsTanker() {
			tankers++
		}
	}

	logger.Info("asset registry loaded", zap.Int("assets", len(r.assets)), zap.Int("tankers", tankers))
	return r, nil
}

// LoadFromSheet reads the Assets tab and builds the registry.
func LoadFromSheet(ctx context.Context, repo sheets.Repository, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	rows, err := repo.ReadRange(ctx, assetsReadRange)
	if err != nil {
		return nil, fmt.Errorf("load assets range: %w", err)
	}

	assets := make([]models.Asset, 0, len(rows))
	for _, row := range rows {
		asset, ok := parseAssetRow(row, logger)
		if !ok {
			continue
		}
		assets = append(assets, asset)
	}

	return New(assets, logger)
}

// LoadFromCSV builds the registry from a seed file with the standard header.
func LoadFromCSV(r io.Reader, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	// Spreadsheet exports often carry ragged blank rows; tolerate them and
	// let parseAssetRow decide what to keep.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if err := checkCSVHeader(header); err != nil {
		return nil, err
	}

	var assets []models.Asset
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv record: %w", err)
		}

		cells := make([]interface{}, len(record))
		for i, cell := range record {
			cells[i] = cell
		}

		asset, ok := parseAssetRow(cells, logger)
		if !ok {
			continue
		}
		assets = append(assets, asset)
	}

	return New(assets, logger)
}

// Lookup resolves a fleet number to its asset. Matching ignores case and
// surrounding whitespace. Returns models.ErrAssetNotFound when unknown.
func (r *Registry) Lookup(fleetNo string) (models.Asset, error) {
	idx, ok := r.index[lookupKey(fleetNo)]
	if !ok {
		return models.Asset{}, fmt.Errorf("fleet number %s: %w", strings.TrimSpace(fleetNo), models.ErrAssetNotFound)
	}
	return r.assets[idx], nil
}

// All returns every asset in load order.
func (r *Registry) All() []models.Asset {
	out := make([]models.Asset, len(r.assets))
	copy(out, r.assets)
	return out
}

// IsTanker reports whether the fleet number resolves to a tanker asset.
func (r *Registry) IsTanker(fleetNo string) bool {
	asset, err := r.Lookup(fleetNo)
	if err != nil {
		return false
	}
	return asset.IsTanker()
}

// TankerIDs lists the fleet numbers of all tankers in load order, falling
// back to the default four when the registry contains none.
func (r *Registry) TankerIDs() []string {
	var ids []string
	for _, asset := range r.assets {
		if asset.IsTanker() {
			ids = append(ids, asset.FleetNo)
		}
	}

	if len(ids) == 0 {
		return append([]string(nil), defaultTankers...)
	}
	return ids
}

func lookupKey(fleetNo string) string {
	return strings.ToUpper(strings.TrimSpace(fleetNo))
}

func checkCSVHeader(header []string) error {
	if len(header) != len(AssetsHeader) {
		return fmt.Errorf("unexpected csv header: got %d columns, want %d", len(header), len(AssetsHeader))
	}
	for i, column := range header {
		if strings.TrimSpace(column) != AssetsHeader[i] {
			return fmt.Errorf("unexpected csv column %d: got %q, want %q", i+1, column, AssetsHeader[i])
		}
	}
	return nil
}

// parseAssetRow converts a raw sheet or CSV row into an Asset. Rows without a
// fleet number or with an unresolvable category are skipped with a log entry
// rather than failing the whole load.
func parseAssetRow(row []interface{}, logger *zap.Logger) (models.Asset, bool) {
	fleetNo := strings.TrimSpace(cellString(row, 0))
	if fleetNo == "" {
		return models.Asset{}, false
	}

	category, ok := models.NormalizeCategory(cellString(row, 2))
	if !ok {
		logger.Debug("skip asset row with unknown category", zap.String("fleet_no", fleetNo), zap.String("category", cellString(row, 2)))
		return models.Asset{}, false
	}

	asset := models.Asset{
		FleetNo:     fleetNo,
		AssetID:     strings.TrimSpace(cellString(row, 1)),
		Category:    category,
		Description: strings.TrimSpace(cellString(row, 3)),
		PlateNumber: strings.TrimSpace(cellString(row, 4)),
	}

	if raw := strings.TrimSpace(cellString(row, 5)); raw != "" {
		benchmark, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			logger.Debug("skip unparsable benchmark", zap.String("fleet_no", fleetNo), zap.String("value", raw))
		} else {
			asset.BenchmarkKmL = &benchmark
		}
	}

	return asset, true
}

func cellString(row []interface{}, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return fmt.Sprint(row[idx])
}
