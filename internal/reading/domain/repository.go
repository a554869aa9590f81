package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, reading *MeterReading) error
	// LatestOnOrBefore returns the most recent reading for the meter dated at
	// or before the given date, or nil when none exists.
	LatestOnOrBefore(ctx context.Context, db *gorm.DB, meterID snowflake.ID, date time.Time) (*MeterReading, error)
	Latest(ctx context.Context, db *gorm.DB, meterID snowflake.ID) (*MeterReading, error)
	ListByMeter(ctx context.Context, db *gorm.DB, meterID snowflake.ID, from, to *time.Time, limit int) ([]MeterReading, error)
}
