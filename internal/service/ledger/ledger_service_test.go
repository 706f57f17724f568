package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelops/fuelcenter/internal/domain/models"
)

// fakeSheetRepo records appended rows per range.
type fakeSheetRepo struct {
	writes   map[string][][]interface{}
	headers  map[string][]string
	writeErr error
}

func newFakeSheetRepo() *fakeSheetRepo {
	return &fakeSheetRepo{
		writes:  make(map[string][][]interface{}),
		headers: make(map[string][]string),
	}
}

func (f *fakeSheetRepo) WriteRow(_ context.Context, sheetRange string, values []interface{}) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes[sheetRange] = append(f.writes[sheetRange], values)
	return nil
}

func (f *fakeSheetRepo) ReadRange(context.Context, string) ([][]interface{}, error) {
	return nil, nil
}

func (f *fakeSheetRepo) EnsureHeader(_ context.Context, sheetName string, header []string) error {
	f.headers[sheetName] = header
	return nil
}

type fakeDirectory struct {
	assets map[string]models.Asset
}

func (f *fakeDirectory) Lookup(fleetNo string) (models.Asset, error) {
	asset, ok := f.assets[strings.ToUpper(strings.TrimSpace(fleetNo))]
	if !ok {
		return models.Asset{}, fmt.Errorf("fleet number %s: %w", fleetNo, models.ErrAssetNotFound)
	}
	return asset, nil
}

type fakeChecker struct {
	warnings []models.Warning
	err      error
	seen     []models.DispenseEvent
}

func (f *fakeChecker) CheckDispense(_ context.Context, event models.DispenseEvent) ([]models.Warning, error) {
	f.seen = append(f.seen, event)
	return f.warnings, f.err
}

func testDirectory() *fakeDirectory {
	benchmark := 9.5
	return &fakeDirectory{assets: map[string]models.Asset{
		"HSC-101": {FleetNo: "HSC-101", Category: models.CategoryTanker, Description: "Mobile Fuel Tanker 24000L"},
		"HSC-201": {FleetNo: "HSC-201", Category: models.CategoryVehicle, BenchmarkKmL: &benchmark},
		"HSC-401": {FleetNo: "HSC-401", Category: models.CategoryMachine},
	}}
}

func newTestService(repo *fakeSheetRepo, checker AnomalyChecker) *Service {
	svc := NewService(repo, testDirectory(), checker, nil)
	svc.now = func() time.Time {
		return time.Date(2025, 3, 2, 9, 30, 0, 0, time.UTC)
	}
	return svc
}

func TestAppendReceipt(t *testing.T) {
	repo := newFakeSheetRepo()
	svc := newTestService(repo, nil)

	result, err := svc.AppendReceipt(context.Background(), models.ReceiptEvent{
		TankerID:      "hsc-101",
		SourceStation: "Shell Haima",
		FuelInLiters:  2500,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Reference)

	assert.Equal(t, ReceiptsHeader, repo.headers[receiptsSheet])

	rows := repo.writes[receiptsWriteRange]
	require.Len(t, rows, 1)
	assert.Equal(t, "2025-03-02T09:30:00Z", rows[0][0])
	assert.Equal(t, "2025-03-02", rows[0][1])
	// Fleet number is written in its canonical registry form.
	assert.Equal(t, "HSC-101", rows[0][2])
	assert.Equal(t, "Shell Haima", rows[0][3])
	assert.Equal(t, 2500.0, rows[0][4])
	assert.Equal(t, result.Reference, rows[0][5])
}

func TestAppendReceiptKeepsCallerReference(t *testing.T) {
	repo := newFakeSheetRepo()
	svc := newTestService(repo, nil)

	result, err := svc.AppendReceipt(context.Background(), models.ReceiptEvent{
		TankerID:      "HSC-101",
		SourceStation: "Shell Haima",
		FuelInLiters:  1000,
		Reference:     "INV-2231",
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-2231", result.Reference)
}

func TestAppendReceiptValidation(t *testing.T) {
	repo := newFakeSheetRepo()
	svc := newTestService(repo, nil)

	cases := []struct {
		name  string
		event models.ReceiptEvent
		field string
	}{
		{"missing tanker", models.ReceiptEvent{SourceStation: "Shell", FuelInLiters: 10}, "tanker_no"},
		{"missing station", models.ReceiptEvent{TankerID: "HSC-101", FuelInLiters: 10}, "source_station"},
		{"zero volume", models.ReceiptEvent{TankerID: "HSC-101", SourceStation: "Shell"}, "fuel_in_liters"},
		{"negative volume", models.ReceiptEvent{TankerID: "HSC-101", SourceStation: "Shell", FuelInLiters: -5}, "fuel_in_liters"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AppendReceipt(context.Background(), tc.event)

			var validation *models.ValidationError
			require.ErrorAs(t, err, &validation)
			assert.Equal(t, tc.field, validation.Field)
		})
	}

	// Rejected events are never written.
	assert.Empty(t, repo.writes)
}

func TestAppendReceiptUnknownTanker(t *testing.T) {
	repo := newFakeSheetRepo()
	svc := newTestService(repo, nil)

	_, err := svc.AppendReceipt(context.Background(), models.ReceiptEvent{
		TankerID:      "HSC-999",
		SourceStation: "Shell Haima",
		FuelInLiters:  100,
	})
	assert.ErrorIs(t, err, models.ErrAssetNotFound)
	assert.Empty(t, repo.writes)
}

func TestAppendReceiptRejectsNonTankerTarget(t *testing.T) {
	repo := newFakeSheetRepo()
	svc := newTestService(repo, nil)

	_, err := svc.AppendReceipt(context.Background(), models.ReceiptEvent{
		TankerID:      "HSC-201",
		SourceStation: "Shell Haima",
		FuelInLiters:  100,
	})
	assert.ErrorIs(t, err, models.ErrNotATanker)
	assert.Empty(t, repo.writes)
}

func TestAppendDispense(t *testing.T) {
	repo := newFakeSheetRepo()
	checker := &fakeChecker{warnings: []models.Warning{{Code: models.WarningBenchmarkVariance, Message: "over"}}}
	svc := newTestService(repo, checker)

	result, err := svc.AppendDispense(context.Background(), models.DispenseEvent{
		FleetNo:       "hsc-201",
		SourceTanker:  "HSC-101",
		FuelOutLiters: 20,
		CurrentMeter:  1150,
		Operator:      "S. Al Busaidi",
	})
	require.NoError(t, err)

	// Advisory warnings ride along with a successful append.
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, models.WarningBenchmarkVariance, result.Warnings[0].Code)

	assert.Equal(t, DispenseHeader, repo.headers[dispenseSheet])

	rows := repo.writes[dispenseWriteRange]
	require.Len(t, rows, 1)
	require.Len(t, rows[0], 10)
	assert.Equal(t, "HSC-201", rows[0][2])
	assert.Equal(t, "Vehicle", rows[0][3])
	assert.Equal(t, "HSC-101", rows[0][4])
	assert.Equal(t, 20.0, rows[0][5])
	assert.Equal(t, 1150.0, rows[0][6])
	assert.Equal(t, "Km", rows[0][7])
	assert.Equal(t, "S. Al Busaidi", rows[0][8])
}

func TestAppendDispenseDerivesMeterUnit(t *testing.T) {
	repo := newFakeSheetRepo()
	svc := newTestService(repo, nil)

	_, err := svc.AppendDispense(context.Background(), models.DispenseEvent{
		FleetNo:       "HSC-401",
		SourceTanker:  "HSC-101",
		FuelOutLiters: 60,
		CurrentMeter:  420,
	})
	require.NoError(t, err)

	rows := repo.writes[dispenseWriteRange]
	require.Len(t, rows, 1)
	assert.Equal(t, "Machine", rows[0][3])
	assert.Equal(t, "Hours", rows[0][7])
}

func TestAppendDispenseChecksBeforeAppend(t *testing.T) {
	repo := newFakeSheetRepo()
	checker := &fakeChecker{}
	svc := newTestService(repo, checker)

	_, err := svc.AppendDispense(context.Background(), models.DispenseEvent{
		FleetNo:       "HSC-201",
		SourceTanker:  "HSC-101",
		FuelOutLiters: 20,
		CurrentMeter:  1150,
	})
	require.NoError(t, err)

	// The checker sees the event with its denormalized fields filled in.
	require.Len(t, checker.seen, 1)
	assert.Equal(t, models.CategoryVehicle, checker.seen[0].Category)
	assert.Equal(t, models.MeterUnitKm, checker.seen[0].MeterUnit)
}

func TestAppendDispenseCheckerFailureDoesNotBlock(t *testing.T) {
	repo := newFakeSheetRepo()
	checker := &fakeChecker{err: errors.New("read failed")}
	svc := newTestService(repo, checker)

	result, err := svc.AppendDispense(context.Background(), models.DispenseEvent{
		FleetNo:       "HSC-201",
		SourceTanker:  "HSC-101",
		FuelOutLiters: 20,
		CurrentMeter:  1150,
	})
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)
	assert.Len(t, repo.writes[dispenseWriteRange], 1)
}

func TestAppendDispenseValidation(t *testing.T) {
	repo := newFakeSheetRepo()
	svc := newTestService(repo, nil)

	cases := []struct {
		name  string
		event models.DispenseEvent
		field string
	}{
		{"missing fleet no", models.DispenseEvent{SourceTanker: "HSC-101", FuelOutLiters: 10}, "fleet_no"},
		{"missing tanker", models.DispenseEvent{FleetNo: "HSC-201", FuelOutLiters: 10}, "source_tanker"},
		{"zero volume", models.DispenseEvent{FleetNo: "HSC-201", SourceTanker: "HSC-101"}, "fuel_out_liters"},
		{"negative meter", models.DispenseEvent{FleetNo: "HSC-201", SourceTanker: "HSC-101", FuelOutLiters: 10, CurrentMeter: -1}, "current_meter"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AppendDispense(context.Background(), tc.event)

			var validation *models.ValidationError
			require.ErrorAs(t, err, &validation)
			assert.Equal(t, tc.field, validation.Field)
		})
	}

	assert.Empty(t, repo.writes)
}

func TestAppendDispenseUnknownReferences(t *testing.T) {
	repo := newFakeSheetRepo()
	svc := newTestService(repo, nil)

	_, err := svc.AppendDispense(context.Background(), models.DispenseEvent{
		FleetNo:       "HSC-999",
		SourceTanker:  "HSC-101",
		FuelOutLiters: 10,
	})
	assert.ErrorIs(t, err, models.ErrAssetNotFound)

	_, err = svc.AppendDispense(context.Background(), models.DispenseEvent{
		FleetNo:       "HSC-201",
		SourceTanker:  "HSC-401",
		FuelOutLiters: 10,
	})
	assert.ErrorIs(t, err, models.ErrNotATanker)

	assert.Empty(t, repo.writes)
}

func TestAppendDispenseWriteFailure(t *testing.T) {
	repo := newFakeSheetRepo()
	repo.writeErr = errors.New("network down")
	svc := newTestService(repo, nil)

	_, err := svc.AppendDispense(context.Background(), models.DispenseEvent{
		FleetNo:       "HSC-201",
		SourceTanker:  "HSC-101",
		FuelOutLiters: 10,
		CurrentMeter:  100,
	})
	assert.Error(t, err)
}
