package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/daveytran/playback-stats-staff-payer/internal/application/port"
	"github.com/daveytran/playback-stats-staff-payer/internal/application/service"
	"github.com/daveytran/playback-stats-staff-payer/internal/obs"
)

// RunMode selects what a scheduled run executes.
type RunMode string

const (
	// ModePreview runs report-only previews.
	ModePreview RunMode = "preview"
	// ModeCommit runs full commits.
	ModeCommit RunMode = "commit"
)

// RunScheduler executes invoicing runs on a fixed interval, unattended. The
// first run fires after one full interval, never at startup: restarting the
// process must not bill anything by itself.
type RunScheduler struct {
	svc      service.InvoicingService
	mode     RunMode
	interval time.Duration
	logger   *zap.Logger

	mu        sync.Mutex
	isRunning bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewRunScheduler creates a scheduler for the given mode and interval.
func NewRunScheduler(svc service.InvoicingService, mode RunMode, interval time.Duration, logger *zap.Logger) *RunScheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if mode != ModeCommit {
		mode = ModePreview
	}
	return &RunScheduler{
		svc:      svc,
		mode:     mode,
		interval: interval,
		logger:   logger,
	}
}

// Start starts the scheduling loop.
func (s *RunScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("run scheduler is already running")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.isRunning = true

	s.logger.Info("RunScheduler started",
		zap.String("mode", string(s.mode)),
		zap.Duration("interval", s.interval))

	go s.loop()

	return nil
}

// Stop stops the scheduling loop.
func (s *RunScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	s.isRunning = false
	if s.cancel != nil {
		s.cancel()
	}

	s.logger.Info("RunScheduler stopped")
}

// Name returns the worker name for identification
func (s *RunScheduler) Name() string {
	return fmt.Sprintf("RunScheduler(%s)", s.mode)
}

func (s *RunScheduler) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Debug("Scheduler loop context cancelled")
			return

		case <-ticker.C:
			s.execute()
		}
	}
}

func (s *RunScheduler) execute() {
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	// Scheduled runs never pass through the HTTP layer, so open the span here.
	ctx, span := obs.Tracer("worker").Start(ctx, "scheduled_run."+string(s.mode))
	defer span.End()

	if s.mode == ModeCommit {
		result, err := s.svc.Commit(ctx)
		if err != nil {
			if errors.Is(err, port.ErrLockHeld) {
				s.logger.Info("Scheduled commit skipped, another run holds the lock")
				return
			}
			s.logger.Error("Scheduled commit failed", zap.Error(err))
			return
		}
		if result.NothingToDo {
			s.logger.Info("Scheduled commit found nothing to do")
			return
		}

		s.logger.Info("Scheduled commit issued batch",
			zap.String("invoice_number", result.Batch.InvoiceNumber),
			zap.Int("payees", len(result.Batch.Lines)),
			zap.Int("invoiced", len(result.InvoicedIDs)),
			zap.Int("retry", len(result.RetryIDs)),
			zap.Float64("grand_total", result.Batch.GrandTotal()))
		return
	}

	proposal, err := s.svc.Preview(ctx)
	if err != nil {
		s.logger.Error("Scheduled preview failed", zap.Error(err))
		return
	}
	s.logger.Info("Scheduled preview complete",
		zap.Int("eligible", proposal.Summary.EligibleTasks),
		zap.Int("payees", proposal.Summary.DistinctPayees),
		zap.Float64("grand_total", proposal.Summary.GrandTotal))
}
