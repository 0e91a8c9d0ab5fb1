// Package scheduler runs the overnight interest-recalculation sweep.
// Deferment interest only starts counting once an installment due date
// passes, so schedules go stale by clock movement alone; the sweep
// re-allocates every active assessment to pick that up.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	assessmentdomain "github.com/smallbiznis/taxsuite/internal/assessment/domain"
	"github.com/smallbiznis/taxsuite/internal/clock"
	obsmetrics "github.com/smallbiznis/taxsuite/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/taxsuite/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidConfig = errors.New("scheduler_invalid_config")

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	PaymentSvc paymentdomain.Service
	Clock      clock.Clock
	Config     Config `optional:"true"`
}

type Scheduler struct {
	db         *gorm.DB
	log        *zap.Logger
	cfg        Config
	paymentSvc paymentdomain.Service
	clock      clock.Clock
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.PaymentSvc == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		db:         p.DB,
		log:        p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:        p.Config.withDefaults(),
		paymentSvc: p.PaymentSvc,
		clock:      p.Clock,
	}, nil
}

// RunOnce sweeps active assessments in batches, re-allocating each one so
// shortfall, status, and 234C reflect the current date. One transaction
// per assessment; a failed assessment never blocks the rest.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := s.clock.Now()
	sweepMetrics := obsmetrics.Sweep()
	sweepMetrics.IncRun()

	var jobErr error
	var lastID snowflake.ID
	processed := 0

	for {
		if ctx.Err() != nil {
			jobErr = errors.Join(jobErr, ctx.Err())
			break
		}

		var ids []snowflake.ID
		err := s.db.WithContext(ctx).
			Model(&assessmentdomain.Assessment{}).
			Where("status = ? AND id > ?", assessmentdomain.StatusActive, lastID).
			Order("id ASC").
			Limit(s.cfg.BatchSize).
			Pluck("id", &ids).Error
		if err != nil {
			jobErr = errors.Join(jobErr, err)
			break
		}
		if len(ids) == 0 {
			break
		}
		lastID = ids[len(ids)-1]

		for _, id := range ids {
			if ctx.Err() != nil {
				jobErr = errors.Join(jobErr, ctx.Err())
				break
			}
			assessmentID := id
			err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				return s.paymentSvc.Reallocate(ctx, tx, assessmentID)
			})
			if err != nil {
				jobErr = errors.Join(jobErr, err)
				sweepMetrics.IncSweepError()
				s.log.Warn("sweep reallocate failed",
					zap.String("assessment_id", assessmentID.String()),
					zap.Error(err),
				)
				continue
			}
			processed++
		}
	}

	sweepMetrics.AddSwept(processed)
	sweepMetrics.ObserveRunDuration(time.Since(start))
	if jobErr != nil {
		sweepMetrics.IncRunError(jobErr)
	}

	s.log.Info("sweep finished",
		zap.Int("processed", processed),
		zap.Duration("took", time.Since(start)),
	)
	return jobErr
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	nextRun := s.clock.Now().Add(s.cfg.RunInterval)
	sweepMetrics := obsmetrics.Sweep()

	for {
		runLag := time.Since(nextRun)
		if runLag > 0 {
			sweepMetrics.ObserveRunLoopLag(runLag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("sweep run failed", zap.Error(err))
		}
		nextRun = nextRun.Add(s.cfg.RunInterval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
