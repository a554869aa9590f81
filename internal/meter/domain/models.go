// Package domain contains persistence models for physical meters.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// UtilityType identifies what a meter measures.
type UtilityType string

const (
	UtilityElectricity UtilityType = "Electricity"
	UtilityWater       UtilityType = "Water"
	UtilityGas         UtilityType = "Gas"
)

// Valid reports whether the utility type is known.
func (u UtilityType) Valid() bool {
	switch u {
	case UtilityElectricity, UtilityWater, UtilityGas:
		return true
	default:
		return false
	}
}

// Unit returns the consumption unit printed on bills.
func (u UtilityType) Unit() string {
	switch u {
	case UtilityElectricity:
		return "kWh"
	case UtilityWater, UtilityGas:
		return "m3"
	default:
		return ""
	}
}

// MeterStatus represents meter lifecycle states.
type MeterStatus string

const (
	MeterStatusActive  MeterStatus = "Active"
	MeterStatusRetired MeterStatus = "Retired"
)

// Meter represents a physical measurement device in the field.
type Meter struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Serial      string       `gorm:"type:text;not null;uniqueIndex" json:"serial"`
	Utility     UtilityType  `gorm:"type:text;not null;index" json:"utility"`
	Status      MeterStatus  `gorm:"type:text;not null;default:'Active'" json:"status"`
	InstalledAt time.Time    `gorm:"not null" json:"installed_at"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Meter) TableName() string { return "meters" }
