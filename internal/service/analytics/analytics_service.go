package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fuelops/fuelcenter/internal/config"
	"github.com/fuelops/fuelcenter/internal/domain/models"
	repo "github.com/fuelops/fuelcenter/internal/repository/sheets"
)

const (
	dateLayout        = "2006-01-02"
	receiptsDataRange = "'Tanker Receipts'!A2:F"
	dispenseDataRange = "'Tanker Dispensing'!A2:J"

	topConsumerLimit = 5
	recentEventLimit = 10
)

// AssetDirectory is the registry view the analytics service needs.
type AssetDirectory interface {
	Lookup(fleetNo string) (models.Asset, error)
	TankerIDs() []string
}

// Service derives tanker balances, benchmark variance flags and fleet KPIs
// from the transaction log. Every read recomputes from the full log; nothing
// is cached, so results are identical regardless of call order.
type Service struct {
	repo   repo.Repository
	assets AssetDirectory
	fuel   config.FuelConfig
	logger *zap.Logger
}

// NewService wires a new analytics service instance.
func NewService(repository repo.Repository, assets AssetDirectory, fuel config.FuelConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repository, assets: assets, fuel: fuel, logger: logger}
}

// TankerBalances computes the derived balance of every tanker: total fuel in
// minus total fuel out. A negative balance is not an error; it carries a
// warning so the caller can highlight it.
func (s *Service) TankerBalances(ctx context.Context) ([]models.TankerBalance, error) {
	receipts, err := s.loadReceipts(ctx)
	if err != nil {
		return nil, err
	}

	dispenses, err := s.loadDispenses(ctx)
	if err != nil {
		return nil, err
	}

	balances := make([]models.TankerBalance, 0, len(s.assets.TankerIDs()))
	for _, tankerID := range s.assets.TankerIDs() {
		var totalIn, totalOut float64

		for _, receipt := range receipts {
			if strings.EqualFold(receipt.TankerID, tankerID) {
				totalIn += receipt.FuelInLiters
			}
		}

		for _, dispense := range dispenses {
			if strings.EqualFold(dispense.SourceTanker, tankerID) {
				totalOut += dispense.FuelOutLiters
			}
		}

		balance := models.TankerBalance{
			TankerID:    tankerID,
			TotalIn:     totalIn,
			TotalOut:    totalOut,
			Balance:     totalIn - totalOut,
			Capacity:    s.fuel.TankerCapacityLiters,
			PercentFull: (totalIn - totalOut) / s.fuel.TankerCapacityLiters,
		}

		if balance.Balance < 0 {
			balance.Warnings = append(balance.Warnings, models.NewNegativeBalanceWarning(tankerID, balance.Balance))
		}

		balances = append(balances, balance)
	}

	return balances, nil
}

// FleetSummary aggregates the analytics dashboard KPIs from the dispensing log.
func (s *Service) FleetSummary(ctx context.Context) (models.FleetSummary, error) {
	dispenses, err := s.loadDispenses(ctx)
	if err != nil {
		return models.FleetSummary{}, err
	}

	summary := models.FleetSummary{Transactions: len(dispenses)}

	byCategory := make(map[models.Category]float64)
	byFleetNo := make(map[string]float64)

	for _, dispense := range dispenses {
		summary.TotalFuelOut += dispense.FuelOutLiters
		byCategory[dispense.Category] += dispense.FuelOutLiters
		byFleetNo[dispense.FleetNo] += dispense.FuelOutLiters
	}

	summary.ActiveAssets = len(byFleetNo)

	for category, liters := range byCategory {
		summary.ByCategory = append(summary.ByCategory, models.CategoryConsumption{Category: category, Liters: liters})
	}
	sort.Slice(summary.ByCategory, func(i, j int) bool {
		if summary.ByCategory[i].Liters != summary.ByCategory[j].Liters {
			return summary.ByCategory[i].Liters > summary.ByCategory[j].Liters
		}
		return summary.ByCategory[i].Category < summary.ByCategory[j].Category
	})

	for fleetNo, liters := range byFleetNo {
		summary.TopConsumers = append(summary.TopConsumers, models.ConsumerTotal{FleetNo: fleetNo, Liters: liters})
	}
	sort.Slice(summary.TopConsumers, func(i, j int) bool {
		if summary.TopConsumers[i].Liters != summary.TopConsumers[j].Liters {
			return summary.TopConsumers[i].Liters > summary.TopConsumers[j].Liters
		}
		return summary.TopConsumers[i].FleetNo < summary.TopConsumers[j].FleetNo
	})
	if len(summary.TopConsumers) > topConsumerLimit {
		summary.TopConsumers = summary.TopConsumers[:topConsumerLimit]
	}

	// Most recent first. Append order is the authoritative order, so recency
	// means the tail of the log.
	for i := len(dispenses) - 1; i >= 0 && len(summary.Recent) < recentEventLimit; i-- {
		summary.Recent = append(summary.Recent, dispenses[i])
	}

	return summary, nil
}

// CheckDispense evaluates a dispense event that has not yet been appended
// against the existing log and returns advisory warnings.
//
// Meter monotonicity is checked for every category. Benchmark variance only
// applies to vehicles; other categories have no benchmark to compare against.
func (s *Service) CheckDispense(ctx context.Context, event models.DispenseEvent) ([]models.Warning, error) {
	dispenses, err := s.loadDispenses(ctx)
	if err != nil {
		return nil, err
	}

	lastMeter, found := lastMeterFor(dispenses, event.FleetNo)
	if !found {
		// First event for this asset; variance is not yet computable.
		return nil, nil
	}

	distance := event.CurrentMeter - lastMeter
	if distance < 0 {
		return []models.Warning{models.NewNonMonotonicMeterWarning(event.FleetNo, lastMeter, event.CurrentMeter)}, nil
	}

	if event.Category != models.CategoryVehicle {
		return nil, nil
	}

	asset, err := s.assets.Lookup(event.FleetNo)
	if err != nil {
		return nil, err
	}
	if asset.BenchmarkKmL == nil || *asset.BenchmarkKmL <= 0 {
		return nil, nil
	}

	expected := distance / *asset.BenchmarkKmL
	if expected == 0 {
		return nil, nil
	}

	variance := event.FuelOutLiters - expected
	variancePct := variance / expected * 100

	if math.Abs(variancePct) > s.fuel.VarianceThresholdPct {
		return []models.Warning{models.NewBenchmarkVarianceWarning(event.FleetNo, event.FuelOutLiters, expected, variancePct)}, nil
	}

	return nil, nil
}

// lastMeterFor finds the meter reading of the most recent logged dispense for
// the given fleet number, in append order.
func lastMeterFor(dispenses []models.DispenseEvent, fleetNo string) (float64, bool) {
	for i := len(dispenses) - 1; i >= 0; i-- {
		if strings.EqualFold(dispenses[i].FleetNo, fleetNo) {
			return dispenses[i].CurrentMeter, true
		}
	}
	return 0, false
}

func (s *Service) loadReceipts(ctx context.Context) ([]models.ReceiptEvent, error) {
	rows, err := s.repo.ReadRange(ctx, receiptsDataRange)
	if err != nil {
		return nil, fmt.Errorf("load receipts range: %w", err)
	}

	receipts := make([]models.ReceiptEvent, 0, len(rows))
	for _, row := range rows {
		tankerID := strings.TrimSpace(cellString(row, 2))
		if tankerID == "" {
			continue
		}

		fuelIn, err := parseFloat(cellString(row, 4))
		if err != nil {
			s.logger.Debug("skip receipt row with invalid fuel in", zap.Any("value", cellString(row, 4)), zap.Error(err))
			continue
		}

		receipts = append(receipts, models.ReceiptEvent{
			Timestamp:     parseTimestamp(cellString(row, 0)),
			Date:          parseDate(cellString(row, 1)),
			TankerID:      tankerID,
			SourceStation: strings.TrimSpace(cellString(row, 3)),
			FuelInLiters:  fuelIn,
			Reference:     strings.TrimSpace(cellString(row, 5)),
		})
	}

	return receipts, nil
}

func (s *Service) loadDispenses(ctx context.Context) ([]models.DispenseEvent, error) {
	rows, err := s.repo.ReadRange(ctx, dispenseDataRange)
	if err != nil {
		return nil, fmt.Errorf("load dispensing range: %w", err)
	}

	dispenses := make([]models.DispenseEvent, 0, len(rows))
	for _, row := range rows {
		fleetNo := strings.TrimSpace(cellString(row, 2))
		if fleetNo == "" {
			continue
		}

		fuelOut, err := parseFloat(cellString(row, 5))
		if err != nil {
			s.logger.Debug("skip dispense row with invalid fuel out", zap.Any("value", cellString(row, 5)), zap.Error(err))
			continue
		}

		meter, err := parseFloat(cellString(row, 6))
		if err != nil {
			s.logger.Debug("skip dispense row with invalid meter", zap.Any("value", cellString(row, 6)), zap.Error(err))
			continue
		}

		category, _ := models.NormalizeCategory(cellString(row, 3))

		dispenses = append(dispenses, models.DispenseEvent{
			Timestamp:     parseTimestamp(cellString(row, 0)),
			Date:          parseDate(cellString(row, 1)),
			FleetNo:       fleetNo,
			Category:      category,
			SourceTanker:  strings.TrimSpace(cellString(row, 4)),
			FuelOutLiters: fuelOut,
			CurrentMeter:  meter,
			MeterUnit:     models.MeterUnit(strings.TrimSpace(cellString(row, 7))),
			Operator:      strings.TrimSpace(cellString(row, 8)),
			Remarks:       strings.TrimSpace(cellString(row, 9)),
		})
	}

	return dispenses, nil
}

func parseTimestamp(value string) time.Time {
	ts, err := time.Parse(time.RFC3339, strings.TrimSpace(value))
	if err != nil {
		// Timestamps are display-only; an unparsable one does not invalidate the row.
		return time.Time{}
	}
	return ts
}

func parseDate(value string) time.Time {
	str := strings.TrimSpace(value)
	if len(str) > len(dateLayout) {
		str = str[:len(dateLayout)]
	}
	date, err := time.Parse(dateLayout, str)
	if err != nil {
		return time.Time{}
	}
	return date
}

func parseFloat(value string) (float64, error) {
	str := strings.TrimSpace(value)
	if str == "" {
		return 0, fmt.Errorf("empty numeric value")
	}
	return strconv.ParseFloat(strings.ReplaceAll(str, ",", ""), 64)
}

func cellString(row []interface{}, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return fmt.Sprint(row[idx])
}
