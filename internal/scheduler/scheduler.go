// Package scheduler generates monthly bills for active connections.
package scheduler

import (
	"context"
	"errors"
	"time"

	billingdomain "github.com/gridsmith/meterbill/internal/billing/domain"
	"github.com/gridsmith/meterbill/internal/clock"
	"github.com/gridsmith/meterbill/internal/config"
	connectiondomain "github.com/gridsmith/meterbill/internal/connection/domain"
	"github.com/gridsmith/meterbill/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const cycleLockKey = "scheduler:billing:cycle"

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Clock       clock.Clock
	Config      config.Config
	BillingSvc  billingdomain.Service
	BillingRepo billingdomain.Repository
	Connections connectiondomain.Repository
	Locker      *ratelimit.Locker `optional:"true"`
}

// Scheduler runs the monthly billing sweep. Once the configured billing day
// is reached it bills the previous calendar month for every active
// connection that does not already have a bill for that period.
type Scheduler struct {
	db          *gorm.DB
	log         *zap.Logger
	clock       clock.Clock
	cfg         config.SchedulerConfig
	billingSvc  billingdomain.Service
	billingRepo billingdomain.Repository
	connections connectiondomain.Repository
	locker      *ratelimit.Locker
}

func New(p Params) *Scheduler {
	return &Scheduler{
		db:          p.DB,
		log:         p.Log.Named("scheduler"),
		clock:       p.Clock,
		cfg:         p.Config.Scheduler,
		billingSvc:  p.BillingSvc,
		billingRepo: p.BillingRepo,
		connections: p.Connections,
		locker:      p.Locker,
	}
}

func (s *Scheduler) RunForever(ctx context.Context) {
	interval := time.Duration(s.cfg.CheckIntervalSecs) * time.Second
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info("billing scheduler started",
		zap.Int("billing_day", s.cfg.BillingDay),
		zap.Duration("check_interval", interval),
	)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("billing scheduler stopped")
			return
		case <-ticker.C:
			if err := s.RunCycle(ctx); err != nil {
				s.log.Error("billing cycle failed", zap.Error(err))
			}
		}
	}
}

// RunCycle performs a single sweep. It is safe to call repeatedly; periods
// already billed are skipped, and a redis lock keeps concurrent instances
// from sweeping at the same time.
func (s *Scheduler) RunCycle(ctx context.Context) error {
	now := s.clock.Now()
	if now.Day() < s.billingDay() {
		return nil
	}

	if s.locker != nil {
		token, ok, err := s.locker.TryLock(ctx, cycleLockKey, 10*time.Minute)
		if err != nil {
			s.log.Warn("cycle lock unavailable, sweeping without it", zap.Error(err))
		} else if !ok {
			return nil
		} else {
			defer func() {
				if err := s.locker.Release(context.Background(), cycleLockKey, token); err != nil {
					s.log.Warn("cycle lock release failed", zap.Error(err))
				}
			}()
		}
	}

	periodStart, periodEnd := previousMonth(now)

	conns, err := s.connections.ListAllActive(ctx, s.db)
	if err != nil {
		return err
	}

	var generated, skipped, failed int
	for _, conn := range conns {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		billed, err := s.billingRepo.ExistsForConnectionPeriod(ctx, s.db, conn.ID, periodStart.UTC())
		if err != nil {
			return err
		}
		if billed {
			skipped++
			continue
		}

		_, err = s.billingSvc.Generate(ctx, billingdomain.GenerateBillRequest{
			CustomerID:   conn.CustomerID.String(),
			ConnectionID: conn.ID.String(),
			PeriodFrom:   periodStart,
			PeriodTo:     periodEnd,
		})
		if err != nil {
			// Missing tariffs or customers are data problems for one
			// connection, not reasons to abort the sweep.
			if errors.Is(err, billingdomain.ErrTariffNotFound) ||
				errors.Is(err, billingdomain.ErrCustomerNotFound) ||
				errors.Is(err, billingdomain.ErrMeterNotFound) {
				failed++
				s.log.Warn("auto-billing skipped connection",
					zap.String("connection_id", conn.ID.String()),
					zap.Error(err),
				)
				continue
			}
			return err
		}
		generated++
	}

	if generated > 0 || failed > 0 {
		s.log.Info("billing cycle complete",
			zap.Time("period_start", periodStart),
			zap.Time("period_end", periodEnd),
			zap.Int("generated", generated),
			zap.Int("skipped", skipped),
			zap.Int("failed", failed),
		)
	}
	return nil
}

func (s *Scheduler) billingDay() int {
	if s.cfg.BillingDay < 1 || s.cfg.BillingDay > 28 {
		return 1
	}
	return s.cfg.BillingDay
}

// previousMonth returns the closed [start, end] range of the calendar month
// before the given time, in UTC.
func previousMonth(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	firstOfThisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	start := firstOfThisMonth.AddDate(0, -1, 0)
	end := firstOfThisMonth.Add(-time.Nanosecond)
	return start, end
}
