// Package domain contains persistence models for the tariff catalog.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/gridsmith/meterbill/internal/customer/domain"
	meterdomain "github.com/gridsmith/meterbill/internal/meter/domain"
	"github.com/shopspring/decimal"
)

// Tariff is the rule-set header: one utility type, one customer class, a
// validity window, and a one-time installation charge. Exactly one
// utility-specific payload row attaches to it.
type Tariff struct {
	ID                 snowflake.ID                 `gorm:"primaryKey" json:"id"`
	Name               string                       `gorm:"type:text;not null" json:"name"`
	Utility            meterdomain.UtilityType      `gorm:"type:text;not null;index:ix_tariffs_utility_class" json:"utility"`
	Class              customerdomain.CustomerClass `gorm:"type:text;not null;index:ix_tariffs_utility_class" json:"class"`
	ValidFrom          time.Time                    `gorm:"not null" json:"valid_from"`
	ValidTo            *time.Time                   `gorm:"" json:"valid_to,omitempty"`
	InstallationCharge decimal.Decimal              `gorm:"type:numeric(12,2);not null;default:0" json:"installation_charge"`
	CreatedAt          time.Time                    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time                    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Tariff) TableName() string { return "tariffs" }

// ElectricityTariff is a three-band progressive slab rate. The top band is
// unbounded.
type ElectricityTariff struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	TariffID  snowflake.ID    `gorm:"not null;uniqueIndex" json:"tariff_id"`
	Slab1Max  decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"slab1_max"`
	Slab1Rate decimal.Decimal `gorm:"type:numeric(12,4);not null" json:"slab1_rate"`
	Slab2Max  decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"slab2_max"`
	Slab2Rate decimal.Decimal `gorm:"type:numeric(12,4);not null" json:"slab2_rate"`
	Slab3Rate decimal.Decimal `gorm:"type:numeric(12,4);not null" json:"slab3_rate"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (ElectricityTariff) TableName() string { return "electricity_tariffs" }

// WaterTariff is a flat per-unit rate plus an unconditional fixed charge.
type WaterTariff struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	TariffID    snowflake.ID    `gorm:"not null;uniqueIndex" json:"tariff_id"`
	FlatRate    decimal.Decimal `gorm:"type:numeric(12,4);not null" json:"flat_rate"`
	FixedCharge decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"fixed_charge"`
	CreatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (WaterTariff) TableName() string { return "water_tariffs" }

// GasTariff is a two-band slab with a free-unit subsidy for household
// customers, deducted before slab arithmetic.
type GasTariff struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"id"`
	TariffID      snowflake.ID    `gorm:"not null;uniqueIndex" json:"tariff_id"`
	Slab1Max      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"slab1_max"`
	Slab1Rate     decimal.Decimal `gorm:"type:numeric(12,4);not null" json:"slab1_rate"`
	Slab2Rate     decimal.Decimal `gorm:"type:numeric(12,4);not null" json:"slab2_rate"`
	SubsidyAmount decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"subsidy_amount"`
	CreatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (GasTariff) TableName() string { return "gas_tariffs" }

// RateCard is the tagged union handed to the charge calculator. Matched is
// false when the tariff header exists but its payload row is missing; billing
// deliberately proceeds with zero charges in that case.
type RateCard struct {
	Utility meterdomain.UtilityType
	Matched bool

	Electricity *ElectricityTariff
	Water       *WaterTariff
	Gas         *GasTariff
}
