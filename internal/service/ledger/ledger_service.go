package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fuelops/fuelcenter/internal/domain/models"
	repo "github.com/fuelops/fuelcenter/internal/repository/sheets"
)

const (
	receiptsSheet      = "Tanker Receipts"
	dispenseSheet      = "Tanker Dispensing"
	receiptsWriteRange = "'Tanker Receipts'!A:F"
	dispenseWriteRange = "'Tanker Dispensing'!A:J"
	dateLayout         = "2006-01-02"
)

// ReceiptsHeader is the column layout of the Tanker Receipts tab.
var ReceiptsHeader = []string{"Timestamp", "Date", "Tanker No", "Source Station", "Fuel In (L)", "Receipt/Reference"}

// DispenseHeader is the column layout of the Tanker Dispensing tab.
var DispenseHeader = []string{"Timestamp", "Date", "Fleet No", "Category", "Source Tanker", "Fuel Out (L)", "Current Meter", "Meter Unit", "Operator", "Remarks"}

// AssetDirectory is the registry view the ledger needs to resolve references.
type AssetDirectory interface {
	Lookup(fleetNo string) (models.Asset, error)
}

// AnomalyChecker evaluates a dispense event against the existing log before
// it is appended. Its warnings are advisory and never block the append.
type AnomalyChecker interface {
	CheckDispense(ctx context.Context, event models.DispenseEvent) ([]models.Warning, error)
}

// AppendResult reports the outcome of a successful append. Warnings are
// attached for display only; the event has already been written.
type AppendResult struct {
	Reference string           `json:"reference,omitempty"`
	Warnings  []models.Warning `json:"warnings,omitempty"`
}

// Service is the append-only transaction log. Append is the only mutation;
// rows are never updated or deleted, and sheet row order is the
// authoritative event order (timestamps are display-only).
type Service struct {
	repo    repo.Repository
	assets  AssetDirectory
	checker AnomalyChecker
	logger  *zap.Logger
	now     func() time.Time
}

// NewService constructs a transaction log service.
func NewService(repository repo.Repository, assets AssetDirectory, checker AnomalyChecker, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:    repository,
		assets:  assets,
		checker: checker,
		logger:  logger,
		now:     time.Now,
	}
}

// AppendReceipt validates and appends a fuel-in event. The tanker must
// resolve to a Tanker asset and the volume must be positive; otherwise the
// append is rejected and nothing is written. A reference is generated when
// the caller does not supply one.
func (s *Service) AppendReceipt(ctx context.Context, event models.ReceiptEvent) (AppendResult, error) {
	if strings.TrimSpace(event.TankerID) == "" {
		return AppendResult{}, models.NewValidationError("tanker_no", "must not be empty")
	}
	if strings.TrimSpace(event.SourceStation) == "" {
		return AppendResult{}, models.NewValidationError("source_station", "must not be empty")
	}
	if event.FuelInLiters <= 0 {
		return AppendResult{}, models.NewValidationError("fuel_in_liters", "must be positive")
	}

	tanker, err := s.assets.Lookup(event.TankerID)
	if err != nil {
		return AppendResult{}, err
	}
	if !tanker.IsTanker() {
		return AppendResult{}, fmt.Errorf("fleet number %s: %w", tanker.FleetNo, models.ErrNotATanker)
	}

	now := s.now().UTC()
	event.Timestamp = now
	event.TankerID = tanker.FleetNo
	if event.Date.IsZero() {
		event.Date = now
	}
	if strings.TrimSpace(event.Reference) == "" {
		event.Reference = uuid.NewString()
	}

	if err := s.repo.EnsureHeader(ctx, receiptsSheet, ReceiptsHeader); err != nil {
		return AppendResult{}, err
	}

	values := []interface{}{
		event.Timestamp.Format(time.RFC3339),
		event.Date.Format(dateLayout),
		event.TankerID,
		event.SourceStation,
		event.FuelInLiters,
		event.Reference,
	}
	if err := s.repo.WriteRow(ctx, receiptsWriteRange, values); err != nil {
		return AppendResult{}, err
	}

	s.logger.Info("receipt appended",
		zap.String("tanker", event.TankerID),
		zap.Float64("fuel_in_liters", event.FuelInLiters),
		zap.String("reference", event.Reference))

	return AppendResult{Reference: event.Reference}, nil
}

// AppendDispense validates and appends a fuel-out event. The fleet number
// and source tanker must resolve in the registry; category and meter unit
// are denormalized from the registry at write time. Anomaly warnings from
// the checker are returned with the result but never block the append.
func (s *Service) AppendDispense(ctx context.Context, event models.DispenseEvent) (AppendResult, error) {
	if strings.TrimSpace(event.FleetNo) == "" {
		return AppendResult{}, models.NewValidationError("fleet_no", "must not be empty")
	}
	if strings.TrimSpace(event.SourceTanker) == "" {
		return AppendResult{}, models.NewValidationError("source_tanker", "must not be empty")
	}
	if event.FuelOutLiters <= 0 {
		return AppendResult{}, models.NewValidationError("fuel_out_liters", "must be positive")
	}
	if event.CurrentMeter < 0 {
		return AppendResult{}, models.NewValidationError("current_meter", "must not be negative")
	}

	asset, err := s.assets.Lookup(event.FleetNo)
	if err != nil {
		return AppendResult{}, err
	}

	tanker, err := s.assets.Lookup(event.SourceTanker)
	if err != nil {
		return AppendResult{}, err
	}
	if !tanker.IsTanker() {
		return AppendResult{}, fmt.Errorf("fleet number %s: %w", tanker.FleetNo, models.ErrNotATanker)
	}

	now := s.now().UTC()
	event.Timestamp = now
	event.FleetNo = asset.FleetNo
	event.Category = asset.Category
	event.SourceTanker = tanker.FleetNo
	event.MeterUnit = asset.Category.MeterUnit()
	if event.Date.IsZero() {
		event.Date = now
	}

	warnings := s.safeCheck(ctx, event)

	if err := s.repo.EnsureHeader(ctx, dispenseSheet, DispenseHeader); err != nil {
		return AppendResult{}, err
	}

	values := []interface{}{
		event.Timestamp.Format(time.RFC3339),
		event.Date.Format(dateLayout),
		event.FleetNo,
		string(event.Category),
		event.SourceTanker,
		event.FuelOutLiters,
		event.CurrentMeter,
		string(event.MeterUnit),
		event.Operator,
		event.Remarks,
	}
	if err := s.repo.WriteRow(ctx, dispenseWriteRange, values); err != nil {
		return AppendResult{}, err
	}

	s.logger.Info("dispense appended",
		zap.String("fleet_no", event.FleetNo),
		zap.String("tanker", event.SourceTanker),
		zap.Float64("fuel_out_liters", event.FuelOutLiters),
		zap.Int("warnings", len(warnings)))

	return AppendResult{Warnings: warnings}, nil
}

// safeCheck runs the anomaly checker without letting its failure block the
// append; warnings are best-effort annotations.
func (s *Service) safeCheck(ctx context.Context, event models.DispenseEvent) []models.Warning {
	if s.checker == nil {
		return nil
	}

	warnings, err := s.checker.CheckDispense(ctx, event)
	if err != nil {
		s.logger.Warn("anomaly check failed, appending without annotations", zap.Error(err))
		return nil
	}
	return warnings
}
