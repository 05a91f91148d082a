package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"edupass/internal/pkg/clock"
	"edupass/internal/pkg/config"
	"edupass/internal/usecase/commands"
	"edupass/internal/usecase/shared"

	"github.com/google/uuid"
)

// ExpiryReads is the read surface the jobs need; the voucher read store
// satisfies it.
type ExpiryReads interface {
	ListTimedOutRedeemedIDs(ctx context.Context, now time.Time, limit int32) ([]uuid.UUID, error)
	ListExpiringWithin(ctx context.Context, from, until time.Time) ([]shared.ExpiryWarning, error)
}

// ExpiryScheduler runs two background jobs: the hourly sweep that transitions
// timed-out redeemed vouchers to expired, and the daily scan that warns about
// vouchers approaching expiry. The sweep is a safety net; reads already treat
// a timed-out voucher as expired.
type ExpiryScheduler struct {
	commands commands.VoucherCommands
	reads    ExpiryReads
	notifier shared.Notifier
	cfg      config.SchedulerConfig
	clock    clock.Clock
	logger   *slog.Logger

	stop chan struct{}
	wg   sync.WaitGroup
	mu   sync.Mutex
	on   bool
}

func NewExpiryScheduler(
	cmds commands.VoucherCommands,
	reads ExpiryReads,
	notifier shared.Notifier,
	cfg config.SchedulerConfig,
	clk clock.Clock,
	logger *slog.Logger,
) *ExpiryScheduler {
	return &ExpiryScheduler{
		commands: cmds,
		reads:    reads,
		notifier: notifier,
		cfg:      cfg,
		clock:    clk,
		logger:   logger,
		stop:     make(chan struct{}),
	}
}

func (s *ExpiryScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cfg.Enabled || s.on {
		return
	}
	s.on = true

	s.wg.Add(2)
	go s.loop(s.cfg.SweepInterval, s.Sweep)
	go s.loop(s.cfg.WarningInterval, s.WarnUpcoming)

	s.logger.Info("expiry scheduler started",
		"sweep_interval", s.cfg.SweepInterval.String(),
		"warning_interval", s.cfg.WarningInterval.String(),
	)
}

func (s *ExpiryScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.on {
		return
	}
	s.on = false
	close(s.stop)
	s.wg.Wait()
	s.logger.Info("expiry scheduler stopped")
}

func (s *ExpiryScheduler) loop(interval time.Duration, job func(ctx context.Context) error) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run once at startup to catch up after downtime.
	s.runJob(job)

	for {
		select {
		case <-ticker.C:
			s.runJob(job)
		case <-s.stop:
			return
		}
	}
}

func (s *ExpiryScheduler) runJob(job func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := job(ctx); err != nil {
		s.logger.Error("scheduler job failed", "error", err.Error())
	}
}

// Sweep expires timed-out redeemed vouchers in batches. One voucher failing
// does not stop the batch; failures are logged and retried next run.
func (s *ExpiryScheduler) Sweep(ctx context.Context) error {
	now := s.clock.Now()

	ids, err := s.reads.ListTimedOutRedeemedIDs(ctx, now, int32(s.cfg.SweepBatchSize))
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	expired, failed := 0, 0
	for _, id := range ids {
		transitioned, err := s.commands.Expire(ctx, id)
		if err != nil {
			failed++
			s.logger.Error("failed to expire voucher", "voucher_id", id, "error", err.Error())
			continue
		}
		if transitioned {
			expired++
		}
	}

	s.logger.Info("expiry sweep completed",
		"candidates", len(ids),
		"expired", expired,
		"failed", failed,
	)
	return nil
}

// WarnUpcoming notifies about redeemed vouchers expiring inside the warning
// window. Purely informational; nothing transitions here.
func (s *ExpiryScheduler) WarnUpcoming(ctx context.Context) error {
	now := s.clock.Now()

	warnings, err := s.reads.ListExpiringWithin(ctx, now, now.Add(s.cfg.WarningWindow))
	if err != nil {
		return err
	}
	if len(warnings) == 0 {
		return nil
	}

	s.notifier.ExpiryApproaching(ctx, warnings)
	s.logger.Info("expiry warnings issued", "count", len(warnings))
	return nil
}
