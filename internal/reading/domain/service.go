package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type CaptureReadingRequest struct {
	MeterID     string
	ReadingDate time.Time
	Value       decimal.Decimal
	Source      string
}

type ListReadingRequest struct {
	MeterID string
	From    *time.Time
	To      *time.Time
	Limit   int
}

// Consumption is the resolved delta for one meter over a billing period.
type Consumption struct {
	PreviousReading decimal.Decimal
	CurrentReading  decimal.Decimal
	// Consumed is max(0, current - previous). A negative register delta is
	// clamped here; tampering is a capture-time concern, not a billing one.
	Consumed decimal.Decimal
}

type Service interface {
	Capture(ctx context.Context, req CaptureReadingRequest) (MeterReading, error)
	ListByMeter(ctx context.Context, req ListReadingRequest) ([]MeterReading, error)
	// ResolveConsumption brackets the period with the latest readings at or
	// before each boundary. Missing readings resolve to zero.
	ResolveConsumption(ctx context.Context, meterID snowflake.ID, periodStart, periodEnd time.Time) (Consumption, error)
}

var (
	ErrInvalidMeter  = errors.New("invalid_meter")
	ErrInvalidDate   = errors.New("invalid_date")
	ErrInvalidValue  = errors.New("invalid_value")
	ErrDuplicateDate = errors.New("duplicate_reading_date")
	ErrMeterNotFound = errors.New("meter_not_found")
)
