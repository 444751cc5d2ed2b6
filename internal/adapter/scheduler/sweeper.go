// Package scheduler runs periodic ledger maintenance.
package scheduler

import (
	"context"
	"fmt"
	"time"

	loanuc "invoice-ledger/internal/usecase/loan"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const sweepTimeout = 5 * time.Minute

// OverdueSweeper is the loan usecase surface the sweeper drives.
type OverdueSweeper interface {
	SweepOverdue(ctx context.Context, caller string) (*loanuc.SweepResult, error)
}

// Sweeper defaults overdue loans on a cron schedule, acting as one principal.
type Sweeper struct {
	cron   *cron.Cron
	loans  OverdueSweeper
	caller string
	log    logrus.FieldLogger
}

// NewSweeper parses spec (standard five-field or @every/@hourly descriptors).
// Overlapping runs are skipped rather than queued.
func NewSweeper(spec string, loans OverdueSweeper, caller string, log logrus.FieldLogger) (*Sweeper, error) {
	s := &Sweeper{loans: loans, caller: caller, log: log}
	s.cron = cron.New(cron.WithChain(
		cron.Recover(cron.DiscardLogger),
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))
	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Sweeper) Start() {
	s.cron.Start()
	s.log.WithField("caller", s.caller).Info("overdue sweeper started")
}

// Stop waits for a running sweep to finish or ctx to end.
func (s *Sweeper) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// RunOnce performs one sweep and logs its outcome.
func (s *Sweeper) RunOnce(ctx context.Context) *loanuc.SweepResult {
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	start := time.Now()
	res, err := s.loans.SweepOverdue(ctx, s.caller)
	if err != nil {
		s.log.WithError(err).Error("overdue sweep failed")
		return nil
	}
	entry := s.log.WithFields(logrus.Fields{
		"defaulted":  len(res.Defaulted),
		"skipped":    len(res.Skipped),
		"failed":     len(res.Failed),
		"latency_ms": time.Since(start).Milliseconds(),
	})
	if len(res.Failed) > 0 {
		entry.Warn("overdue sweep finished with failures")
	} else {
		entry.Info("overdue sweep finished")
	}
	return res
}
