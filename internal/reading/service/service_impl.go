package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gridsmith/meterbill/internal/cache"
	meterdomain "github.com/gridsmith/meterbill/internal/meter/domain"
	"github.com/gridsmith/meterbill/internal/observability/metrics"
	"github.com/gridsmith/meterbill/internal/providers/slack"
	"github.com/gridsmith/meterbill/internal/reading/domain"
	"github.com/gridsmith/meterbill/pkg/db"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      domain.Repository
	MeterRepo meterdomain.Repository
	Cache     cache.CaptureResolverCache `optional:"true"`
	Alerts    slack.Provider             `optional:"true"`
	Metrics   *metrics.Domain            `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      domain.Repository
	meterRepo meterdomain.Repository
	cache     cache.CaptureResolverCache
	alerts    slack.Provider
	metrics   *metrics.Domain
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("reading.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		meterRepo: p.MeterRepo,
		cache:     p.Cache,
		alerts:    p.Alerts,
		metrics:   p.Metrics,
	}
}

func (s *Service) Capture(ctx context.Context, req domain.CaptureReadingRequest) (domain.MeterReading, error) {
	meterID, err := snowflake.ParseString(strings.TrimSpace(req.MeterID))
	if err != nil {
		return domain.MeterReading{}, domain.ErrInvalidMeter
	}
	if req.ReadingDate.IsZero() {
		return domain.MeterReading{}, domain.ErrInvalidDate
	}
	if req.Value.IsNegative() {
		return domain.MeterReading{}, domain.ErrInvalidValue
	}

	meter, err := s.resolveMeter(ctx, meterID)
	if err != nil {
		return domain.MeterReading{}, err
	}
	if meter == nil {
		return domain.MeterReading{}, domain.ErrMeterNotFound
	}

	// Tamper check compares against the newest reading regardless of the
	// capture date; back-dated corrections go through the admin path.
	tampered := false
	latest, err := s.repo.Latest(ctx, s.db, meterID)
	if err != nil {
		return domain.MeterReading{}, err
	}
	if latest != nil && req.Value.LessThan(latest.Value) {
		tampered = true
	}

	reading := domain.MeterReading{
		ID:          s.genID.Generate(),
		MeterID:     meterID,
		ReadingDate: truncateToDate(req.ReadingDate),
		Value:       req.Value.Round(2),
		Tampered:    tampered,
		Source:      strings.TrimSpace(req.Source),
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, s.db, &reading); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.MeterReading{}, domain.ErrDuplicateDate
		}
		return domain.MeterReading{}, err
	}

	if s.metrics != nil {
		s.metrics.ReadingsCaptured.Inc()
		if tampered {
			s.metrics.ReadingsTampered.Inc()
		}
	}
	if tampered {
		s.log.Warn("tampered reading captured",
			zap.String("meter_id", meterID.String()),
			zap.String("value", reading.Value.String()),
			zap.String("previous_value", latest.Value.String()),
		)
		s.alertTamper(meter, reading, latest.Value)
	}

	return reading, nil
}

// resolveMeter consults the capture cache first. Field devices submit in
// bursts against the same meters, so a short TTL saves most store lookups.
func (s *Service) resolveMeter(ctx context.Context, meterID snowflake.ID) (*meterdomain.Meter, error) {
	if s.cache != nil {
		if meter, ok := s.cache.GetMeter(meterID); ok {
			return meter, nil
		}
	}

	meter, err := s.meterRepo.FindByID(ctx, s.db, meterID)
	if err != nil {
		return nil, err
	}
	if meter != nil && s.cache != nil {
		s.cache.SetMeter(meterID, meter)
	}
	return meter, nil
}

func (s *Service) alertTamper(meter *meterdomain.Meter, reading domain.MeterReading, previous decimal.Decimal) {
	if s.alerts == nil {
		return
	}
	msg := "Possible meter tampering: meter " + meter.Serial +
		" reported " + reading.Value.String() +
		" below previous reading " + previous.String() +
		" on " + reading.ReadingDate.Format("2006-01-02")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.alerts.Notify(ctx, msg); err != nil {
			s.log.Warn("tamper alert delivery failed", zap.Error(err))
		}
	}()
}

func (s *Service) ListByMeter(ctx context.Context, req domain.ListReadingRequest) ([]domain.MeterReading, error) {
	meterID, err := snowflake.ParseString(strings.TrimSpace(req.MeterID))
	if err != nil {
		return nil, domain.ErrInvalidMeter
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}

	return s.repo.ListByMeter(ctx, s.db, meterID, req.From, req.To, limit)
}

// ResolveConsumption brackets [periodStart, periodEnd] with the latest
// readings at or before each boundary and clamps negative deltas to zero.
func (s *Service) ResolveConsumption(ctx context.Context, meterID snowflake.ID, periodStart, periodEnd time.Time) (domain.Consumption, error) {
	previous, err := s.repo.LatestOnOrBefore(ctx, s.db, meterID, periodStart)
	if err != nil {
		return domain.Consumption{}, err
	}
	current, err := s.repo.LatestOnOrBefore(ctx, s.db, meterID, periodEnd)
	if err != nil {
		return domain.Consumption{}, err
	}

	previousValue := decimal.Zero
	if previous != nil {
		previousValue = previous.Value
	}
	currentValue := decimal.Zero
	if current != nil {
		currentValue = current.Value
	}

	consumed := currentValue.Sub(previousValue)
	if consumed.IsNegative() {
		consumed = decimal.Zero
	}

	return domain.Consumption{
		PreviousReading: previousValue,
		CurrentReading:  currentValue,
		Consumed:        consumed,
	}, nil
}

func truncateToDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
