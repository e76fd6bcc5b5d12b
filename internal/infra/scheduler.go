package infra

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"coinpilot/internal/domain"
	"coinpilot/internal/service"
	"coinpilot/internal/usecase"
)

// Default job schedules
const (
	DefaultScanSchedule     = "@every 5m"
	DefaultPositionSchedule = "@every 1m"
	DefaultSnapshotSchedule = "@hourly"
)

// jobTimeout bounds a single job run
const jobTimeout = 2 * time.Minute

// Schedules holds the cron specs for each job. Empty fields use the defaults.
type Schedules struct {
	Scan     string
	Position string
	Snapshot string
}

// Scheduler manages scheduled tasks
type Scheduler struct {
	cron           *cron.Cron
	tradingService *usecase.TradingService
	simulation     *service.SimulationService
	snapshots      *service.RiskSnapshotService
	tradeRepo      domain.SimulatedTradeRepository
	schedules      Schedules
	logger         zerolog.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(
	tradingService *usecase.TradingService,
	simulation *service.SimulationService,
	snapshots *service.RiskSnapshotService,
	tradeRepo domain.SimulatedTradeRepository,
	schedules Schedules,
) *Scheduler {
	if schedules.Scan == "" {
		schedules.Scan = DefaultScanSchedule
	}
	if schedules.Position == "" {
		schedules.Position = DefaultPositionSchedule
	}
	if schedules.Snapshot == "" {
		schedules.Snapshot = DefaultSnapshotSchedule
	}

	logger := log.With().Str("component", "scheduler").Logger()
	return &Scheduler{
		// Skip a run while the previous one of the same job is still going
		cron:           cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		tradingService: tradingService,
		simulation:     simulation,
		snapshots:      snapshots,
		tradeRepo:      tradeRepo,
		schedules:      schedules,
		logger:         logger,
	}
}

// Start registers the jobs and starts the cron scheduler
func (s *Scheduler) Start() error {
	jobs := []struct {
		spec string
		name string
		run  func(ctx context.Context) error
	}{
		{s.schedules.Scan, "market_scan", s.runScan},
		{s.schedules.Position, "position_check", s.runPositionCheck},
		{s.schedules.Snapshot, "risk_snapshot", s.RunSnapshots},
	}

	for _, job := range jobs {
		job := job
		if _, err := s.cron.AddFunc(job.spec, func() { s.run(job.name, job.run) }); err != nil {
			return err
		}
		s.logger.Info().Str("job", job.name).Str("schedule", job.spec).Msg("Job registered")
	}

	s.cron.Start()
	s.logger.Info().Msg("Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	s.logger.Info().Msg("Stopping scheduler...")
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Scheduler stopped")
}

func (s *Scheduler) run(name string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	if err := fn(ctx); err != nil {
		s.logger.Error().Err(err).Str("job", name).Msg("Scheduled job failed")
		return
	}
	s.logger.Debug().Str("job", name).Dur("elapsed", time.Since(start)).Msg("Scheduled job done")
}

func (s *Scheduler) runScan(ctx context.Context) error {
	_, err := s.tradingService.ProcessMarketScan(ctx)
	return err
}

func (s *Scheduler) runPositionCheck(ctx context.Context) error {
	closed, err := s.simulation.CheckPositions(ctx)
	if closed > 0 {
		s.logger.Info().Int("closed", closed).Msg("Positions closed by SL/TP")
	}
	return err
}

// RunSnapshots records a risk snapshot and checks the daily loss limit for every user
// holding an active trade
func (s *Scheduler) RunSnapshots(ctx context.Context) error {
	users, err := s.tradeRepo.ActiveUserKeys(ctx)
	if err != nil {
		return err
	}

	for _, userKey := range users {
		if _, err := s.snapshots.Snapshot(ctx, userKey); err != nil {
			s.logger.Error().Err(err).Str("user", userKey).Msg("Risk snapshot failed")
			continue
		}
		if _, _, err := s.snapshots.CheckDailyLoss(ctx, userKey); err != nil {
			s.logger.Error().Err(err).Str("user", userKey).Msg("Daily loss check failed")
		}
	}
	return nil
}
