package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fuelops/fuelcenter/internal/config"
	"github.com/fuelops/fuelcenter/internal/domain/models"
	"github.com/fuelops/fuelcenter/pkg/clients/alerts"
)

// BalanceSource recomputes tanker balances from the transaction log.
type BalanceSource interface {
	TankerBalances(ctx context.Context) ([]models.TankerBalance, error)
}

// SnapshotStore persists daily balance snapshots.
type SnapshotStore interface {
	SaveBalanceSnapshot(ctx context.Context, snapshot models.BalanceSnapshot) error
}

// Scheduler runs the daily balance snapshot job.
type Scheduler struct {
	cron     *cron.Cron
	balances BalanceSource
	store    SnapshotStore
	notifier alerts.Client
	cfg      config.SnapshotConfig
	logger   *zap.Logger
}

// NewScheduler creates a new scheduler instance. The notifier may be nil,
// in which case anomaly alerts are skipped.
func NewScheduler(cfg config.SnapshotConfig, balances BalanceSource, store SnapshotStore, notifier alerts.Client, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", cfg.Timezone, err)
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(location)),
		balances: balances,
		store:    store,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// Start registers the snapshot job and starts the cron loop.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.CronSchedule))

	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.snapshotBalances); err != nil {
		return fmt.Errorf("schedule balance snapshot: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) snapshotBalances() {
	s.logger.Info("taking balance snapshot")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	balances, err := s.balances.TankerBalances(ctx)
	if err != nil {
		s.logger.Error("failed to compute tanker balances", zap.Error(err))
		return
	}

	now := time.Now().UTC()
	snapshot := models.BalanceSnapshot{
		Date:      time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		Balances:  balances,
		CreatedAt: now,
	}

	if err := s.store.SaveBalanceSnapshot(ctx, snapshot); err != nil {
		s.logger.Error("failed to store balance snapshot", zap.Error(err))
		return
	}

	s.logger.Info("balance snapshot stored", zap.Int("tankers", len(balances)))
	s.alertAnomalies(ctx, balances)
}

func (s *Scheduler) alertAnomalies(ctx context.Context, balances []models.TankerBalance) {
	if s.notifier == nil {
		return
	}

	var warnings []models.Warning
	for _, balance := range balances {
		warnings = append(warnings, balance.Warnings...)
	}
	if len(warnings) == 0 {
		return
	}

	alert := alerts.Alert{
		Source:   "balance-snapshot",
		Message:  fmt.Sprintf("%d tanker balance anomalies detected", len(warnings)),
		Warnings: warnings,
	}

	if err := s.notifier.Notify(ctx, alert); err != nil {
		s.logger.Error("failed to send anomaly alert", zap.Error(err))
	} else {
		s.logger.Info("anomaly alert sent", zap.Int("warnings", len(warnings)))
	}
}
