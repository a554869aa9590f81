package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type RecordPaymentRequest struct {
	BillID string
	Amount decimal.Decimal
	Method string
}

type Service interface {
	// Record settles an unpaid bill and flips it to Paid in the same
	// transaction as the payment insert. The submitted amount must match the
	// bill total exactly; partial and over-payments are rejected.
	Record(ctx context.Context, req RecordPaymentRequest) (Payment, error)
	ListByBill(ctx context.Context, billID string) ([]Payment, error)
}

var (
	ErrInvalidID      = errors.New("invalid_id")
	ErrInvalidAmount  = errors.New("invalid_amount")
	ErrInvalidMethod  = errors.New("invalid_method")
	ErrBillNotFound   = errors.New("bill_not_found")
	ErrAlreadyPaid    = errors.New("bill_already_paid")
	ErrAmountMismatch = errors.New("amount_mismatch")
)
