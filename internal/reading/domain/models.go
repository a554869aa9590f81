// Package domain contains persistence models for meter reading capture.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// MeterReading is one field-captured register value for a meter on a date.
// Values are monotonically non-decreasing under normal operation; a reading
// below its predecessor is flagged as tampered at capture time.
type MeterReading struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	MeterID     snowflake.ID    `gorm:"not null;uniqueIndex:ux_readings_meter_date,priority:1" json:"meter_id"`
	ReadingDate time.Time       `gorm:"not null;uniqueIndex:ux_readings_meter_date,priority:2" json:"reading_date"`
	Value       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"value"`
	Tampered    bool            `gorm:"not null;default:false" json:"tampered"`
	Source      string          `gorm:"type:text" json:"source,omitempty"`
	CreatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (MeterReading) TableName() string { return "meter_readings" }
