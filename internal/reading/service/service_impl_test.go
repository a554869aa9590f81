package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	meterdomain "github.com/gridsmith/meterbill/internal/meter/domain"
	meterrepository "github.com/gridsmith/meterbill/internal/meter/repository"
	"github.com/gridsmith/meterbill/internal/reading/domain"
	"github.com/gridsmith/meterbill/internal/reading/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupReadingService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&meterdomain.Meter{}, &domain.MeterReading{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     node,
		Repo:      repository.Provide(),
		MeterRepo: meterrepository.Provide(),
	})
	return svc, db, node
}

func seedMeter(t *testing.T, db *gorm.DB, node *snowflake.Node, utility meterdomain.UtilityType) meterdomain.Meter {
	t.Helper()
	meter := meterdomain.Meter{
		ID:          node.Generate(),
		Serial:      "SER-" + node.Generate().String(),
		Utility:     utility,
		Status:      meterdomain.MeterStatusActive,
		InstalledAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(&meter).Error)
	return meter
}

func TestCaptureFlagsDecreasingValueAsTampered(t *testing.T) {
	svc, db, node := setupReadingService(t)
	meter := seedMeter(t, db, node, meterdomain.UtilityElectricity)
	ctx := context.Background()

	first, err := svc.Capture(ctx, domain.CaptureReadingRequest{
		MeterID:     meter.ID.String(),
		ReadingDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Value:       decimal.RequireFromString("120"),
	})
	require.NoError(t, err)
	assert.False(t, first.Tampered)

	second, err := svc.Capture(ctx, domain.CaptureReadingRequest{
		MeterID:     meter.ID.String(),
		ReadingDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		Value:       decimal.RequireFromString("90"),
	})
	require.NoError(t, err)
	assert.True(t, second.Tampered)
}

func TestCaptureRejectsDuplicateDate(t *testing.T) {
	svc, db, node := setupReadingService(t)
	meter := seedMeter(t, db, node, meterdomain.UtilityWater)
	ctx := context.Background()
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.Capture(ctx, domain.CaptureReadingRequest{
		MeterID:     meter.ID.String(),
		ReadingDate: date,
		Value:       decimal.RequireFromString("10"),
	})
	require.NoError(t, err)

	_, err = svc.Capture(ctx, domain.CaptureReadingRequest{
		MeterID:     meter.ID.String(),
		ReadingDate: date.Add(4 * time.Hour),
		Value:       decimal.RequireFromString("12"),
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateDate)
}

func TestCaptureValidation(t *testing.T) {
	svc, db, node := setupReadingService(t)
	meter := seedMeter(t, db, node, meterdomain.UtilityGas)
	ctx := context.Background()

	_, err := svc.Capture(ctx, domain.CaptureReadingRequest{
		MeterID:     "not-a-number",
		ReadingDate: time.Now(),
		Value:       decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidMeter)

	_, err = svc.Capture(ctx, domain.CaptureReadingRequest{
		MeterID: meter.ID.String(),
		Value:   decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidDate)

	_, err = svc.Capture(ctx, domain.CaptureReadingRequest{
		MeterID:     meter.ID.String(),
		ReadingDate: time.Now(),
		Value:       decimal.RequireFromString("-1"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidValue)

	_, err = svc.Capture(ctx, domain.CaptureReadingRequest{
		MeterID:     node.Generate().String(),
		ReadingDate: time.Now(),
		Value:       decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, domain.ErrMeterNotFound)
}

func TestResolveConsumptionBracketsPeriod(t *testing.T) {
	svc, db, node := setupReadingService(t)
	meter := seedMeter(t, db, node, meterdomain.UtilityElectricity)
	ctx := context.Background()

	capture := func(day time.Time, value string) {
		_, err := svc.Capture(ctx, domain.CaptureReadingRequest{
			MeterID:     meter.ID.String(),
			ReadingDate: day,
			Value:       decimal.RequireFromString(value),
		})
		require.NoError(t, err)
	}

	capture(time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), "1000")
	capture(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), "1100")
	capture(time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), "1250")

	got, err := svc.ResolveConsumption(ctx, meter.ID,
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC),
	)
	require.NoError(t, err)
	assert.Equal(t, "1000", got.PreviousReading.String())
	assert.Equal(t, "1250", got.CurrentReading.String())
	assert.Equal(t, "250", got.Consumed.String())
}

func TestResolveConsumptionMissingReadingsYieldZero(t *testing.T) {
	svc, db, node := setupReadingService(t)
	meter := seedMeter(t, db, node, meterdomain.UtilityWater)

	got, err := svc.ResolveConsumption(context.Background(), meter.ID,
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	assert.True(t, got.PreviousReading.IsZero())
	assert.True(t, got.CurrentReading.IsZero())
	assert.True(t, got.Consumed.IsZero())
}

func TestResolveConsumptionClampsNegativeDelta(t *testing.T) {
	svc, db, node := setupReadingService(t)
	meter := seedMeter(t, db, node, meterdomain.UtilityGas)
	ctx := context.Background()

	_, err := svc.Capture(ctx, domain.CaptureReadingRequest{
		MeterID:     meter.ID.String(),
		ReadingDate: time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
		Value:       decimal.RequireFromString("500"),
	})
	require.NoError(t, err)

	// A replaced meter register can legitimately go backwards; billing
	// clamps instead of charging a negative amount.
	_, err = svc.Capture(ctx, domain.CaptureReadingRequest{
		MeterID:     meter.ID.String(),
		ReadingDate: time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		Value:       decimal.RequireFromString("80"),
	})
	require.NoError(t, err)

	got, err := svc.ResolveConsumption(ctx, meter.ID,
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	assert.True(t, got.Consumed.IsZero())
}
