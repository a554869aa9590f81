// Package domain contains the bill header and line-item models.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	meterdomain "github.com/gridsmith/meterbill/internal/meter/domain"
	"github.com/shopspring/decimal"
)

type BillStatus string

const (
	BillUnpaid BillStatus = "Unpaid"
	BillPaid   BillStatus = "Paid"
)

// Bill is the output of one assembly run. The header and its line items are
// committed in a single transaction; a bill is never visible without its
// items.
type Bill struct {
	ID           snowflake.ID            `gorm:"primaryKey" json:"id"`
	CustomerID   snowflake.ID            `gorm:"not null;index" json:"customer_id"`
	ConnectionID snowflake.ID            `gorm:"not null;index" json:"connection_id"`
	MeterID      snowflake.ID            `gorm:"not null;index:ix_bills_meter" json:"meter_id"`
	TariffID     snowflake.ID            `gorm:"not null" json:"tariff_id"`
	Utility      meterdomain.UtilityType `gorm:"type:text;not null" json:"utility"`

	PeriodStart time.Time `gorm:"not null" json:"period_start"`
	PeriodEnd   time.Time `gorm:"not null" json:"period_end"`

	PreviousReading decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"previous_reading"`
	CurrentReading  decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"current_reading"`
	Consumption     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"consumption"`

	ConsumptionCharge  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"consumption_charge"`
	FixedCharges       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"fixed_charges"`
	LateFee            decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"late_fee"`
	PreviousBalance    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"previous_balance"`
	InstallationCharge decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"installation_charge"`
	TotalAmount        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`

	IssueDate time.Time  `gorm:"not null" json:"issue_date"`
	DueDate   time.Time  `gorm:"not null" json:"due_date"`
	Status    BillStatus `gorm:"type:text;not null;index" json:"status"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Bill) TableName() string { return "bills" }

// BillLineItem is one itemized row explaining part of a bill total. Rows are
// ordered by LineNumber and immutable after commit.
type BillLineItem struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	BillID      snowflake.ID    `gorm:"not null;index" json:"bill_id"`
	LineNumber  int             `gorm:"not null" json:"line_number"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"quantity"`
	Rate        decimal.Decimal `gorm:"type:numeric(12,4);not null" json:"rate"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	CreatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (BillLineItem) TableName() string { return "bill_line_items" }
