package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	MethodCash     PaymentMethod = "Cash"
	MethodCard     PaymentMethod = "Card"
	MethodTransfer PaymentMethod = "Transfer"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodCard, MethodTransfer:
		return true
	default:
		return false
	}
}

// Payment settles exactly one bill in full. ReceiptNumber is a ULID so
// receipts sort by payment time.
type Payment struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"id"`
	BillID        snowflake.ID    `gorm:"not null;uniqueIndex:ux_payments_bill" json:"bill_id"`
	CustomerID    snowflake.ID    `gorm:"not null;index" json:"customer_id"`
	Amount        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Method        PaymentMethod   `gorm:"type:text;not null" json:"method"`
	ReceiptNumber string          `gorm:"type:text;not null;uniqueIndex" json:"receipt_number"`
	PaidAt        time.Time       `gorm:"not null" json:"paid_at"`
	CreatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Payment) TableName() string { return "payments" }
