package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fuelops/fuelcenter/internal/domain/models"
	"github.com/fuelops/fuelcenter/internal/service/ledger"
)

const dateLayout = "2006-01-02"

// LedgerService is the transaction log surface used by the entry endpoints.
type LedgerService interface {
	AppendReceipt(ctx context.Context, event models.ReceiptEvent) (ledger.AppendResult, error)
	AppendDispense(ctx context.Context, event models.DispenseEvent) (ledger.AppendResult, error)
}

// AnalyticsService serves the dashboard read endpoints.
type AnalyticsService interface {
	TankerBalances(ctx context.Context) ([]models.TankerBalance, error)
	FleetSummary(ctx context.Context) (models.FleetSummary, error)
}

// AssetDirectory serves the registry read endpoints.
type AssetDirectory interface {
	All() []models.Asset
	Lookup(fleetNo string) (models.Asset, error)
}

// FuelHandler exposes the dashboard's three views over HTTP: log entry,
// analytics and tanker balances.
type FuelHandler struct {
	ledger    LedgerService
	analytics AnalyticsService
	assets    AssetDirectory
	logger    *zap.Logger
}

// NewFuelHandler constructs the HTTP handler adapter.
func NewFuelHandler(ledgerSvc LedgerService, analyticsSvc AnalyticsService, assets AssetDirectory, logger *zap.Logger) *FuelHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FuelHandler{ledger: ledgerSvc, analytics: analyticsSvc, assets: assets, logger: logger}
}

type receiptRequest struct {
	Date          string  `json:"date"`
	TankerNo      string  `json:"tanker_no"`
	SourceStation string  `json:"source_station"`
	FuelInLiters  float64 `json:"fuel_in_liters"`
	Reference     string  `json:"reference"`
}

type dispenseRequest struct {
	Date          string  `json:"date"`
	FleetNo       string  `json:"fleet_no"`
	SourceTanker  string  `json:"source_tanker"`
	FuelOutLiters float64 `json:"fuel_out_liters"`
	CurrentMeter  float64 `json:"current_meter"`
	Operator      string  `json:"operator"`
	Remarks       string  `json:"remarks"`
}

// AppendReceipt logs a tanker refill (fuel IN).
func (h *FuelHandler) AppendReceipt(c *gin.Context) {
	var req receiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid receipt payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	date, ok := h.parseDate(c, req.Date)
	if !ok {
		return
	}

	event := models.ReceiptEvent{
		Date:          date,
		TankerID:      req.TankerNo,
		SourceStation: req.SourceStation,
		FuelInLiters:  req.FuelInLiters,
		Reference:     req.Reference,
	}

	result, err := h.ledger.AppendReceipt(c.Request.Context(), event)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// AppendDispense logs fuel dispensed from a tanker to a fleet asset (fuel OUT).
func (h *FuelHandler) AppendDispense(c *gin.Context) {
	var req dispenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid dispense payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	date, ok := h.parseDate(c, req.Date)
	if !ok {
		return
	}

	event := models.DispenseEvent{
		Date:          date,
		FleetNo:       req.FleetNo,
		SourceTanker:  req.SourceTanker,
		FuelOutLiters: req.FuelOutLiters,
		CurrentMeter:  req.CurrentMeter,
		Operator:      req.Operator,
		Remarks:       req.Remarks,
	}

	result, err := h.ledger.AppendDispense(c.Request.Context(), event)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

type assetView struct {
	models.Asset
	SearchLabel string `json:"search_label"`
}

// ListAssets returns the registry with search labels for the entry form.
func (h *FuelHandler) ListAssets(c *gin.Context) {
	assets := h.assets.All()

	views := make([]assetView, 0, len(assets))
	for _, asset := range assets {
		views = append(views, assetView{Asset: asset, SearchLabel: asset.SearchLabel()})
	}

	c.JSON(http.StatusOK, gin.H{"assets": views})
}

// GetAsset returns a single asset by fleet number.
func (h *FuelHandler) GetAsset(c *gin.Context) {
	asset, err := h.assets.Lookup(c.Param("fleetNo"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, assetView{Asset: asset, SearchLabel: asset.SearchLabel()})
}

type balanceView struct {
	models.TankerBalance
	Gauge float64 `json:"gauge"`
}

// TankerBalances returns the live tanker inventory view.
func (h *FuelHandler) TankerBalances(c *gin.Context) {
	balances, err := h.analytics.TankerBalances(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	views := make([]balanceView, 0, len(balances))
	for _, balance := range balances {
		views = append(views, balanceView{TankerBalance: balance, Gauge: balance.Gauge()})
	}

	c.JSON(http.StatusOK, gin.H{"balances": views})
}

// FleetSummary returns the analytics dashboard KPIs.
func (h *FuelHandler) FleetSummary(c *gin.Context) {
	summary, err := h.analytics.FleetSummary(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *FuelHandler) parseDate(c *gin.Context, raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, true
	}

	date, err := time.Parse(dateLayout, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must use YYYY-MM-DD", "field": "date"})
		return time.Time{}, false
	}
	return date, true
}

// writeServiceError maps domain errors onto HTTP statuses. Anything that is
// neither a validation failure nor a missing reference is treated as a
// backing-store failure; there is no local fallback.
func (h *FuelHandler) writeServiceError(c *gin.Context, err error) {
	var validation *models.ValidationError
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Reason, "field": validation.Field})
	case errors.Is(err, models.ErrAssetNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrNotATanker):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("backing store request failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "backing store unavailable"})
	}
}
