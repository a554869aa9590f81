// Package domain contains persistence models for customer records.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// CustomerClass segments customers for tariff selection.
type CustomerClass string

const (
	ClassHousehold CustomerClass = "Household"
	ClassBusiness  CustomerClass = "Business"
)

// Valid reports whether the class is one of the known segments.
func (c CustomerClass) Valid() bool {
	switch c {
	case ClassHousehold, ClassBusiness:
		return true
	default:
		return false
	}
}

// CustomerStatus represents account lifecycle states.
type CustomerStatus string

const (
	CustomerStatusActive   CustomerStatus = "Active"
	CustomerStatusInactive CustomerStatus = "Inactive"
)

// Customer represents a billable account holder.
type Customer struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name      string            `gorm:"type:text;not null" json:"name"`
	Email     string            `gorm:"type:text;not null;uniqueIndex" json:"email"`
	Phone     string            `gorm:"type:text" json:"phone,omitempty"`
	Address   string            `gorm:"type:text;not null" json:"address"`
	Class     CustomerClass     `gorm:"type:text;not null" json:"class"`
	Status    CustomerStatus    `gorm:"type:text;not null;default:'Active'" json:"status"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Customer) TableName() string { return "customers" }
