package domain

import (
	"context"
	"errors"
	"time"

	"github.com/gridsmith/meterbill/pkg/db/pagination"
	"github.com/shopspring/decimal"
)

type GenerateBillRequest struct {
	CustomerID   string
	ConnectionID string
	PeriodFrom   time.Time
	PeriodTo     time.Time
}

type ListBillRequest struct {
	CustomerID string
	MeterID    string
	Status     string
	Pagination pagination.Pagination
}

// ChargeLine is one display row in a bill result.
type ChargeLine struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// BillResult is the presentation shape returned to callers. Charges carries
// the persisted line items in order, with "Late Fee" and "Previous Balance"
// rows appended for display when those values are positive.
type BillResult struct {
	BillID          string          `json:"bill_id"`
	CustomerName    string          `json:"customer_name"`
	CustomerEmail   string          `json:"customer_email"`
	CustomerAddress string          `json:"customer_address"`
	Utility         string          `json:"utility"`
	Meter           string          `json:"meter"`
	BillingPeriod   string          `json:"billing_period"`
	PreviousReading decimal.Decimal `json:"previous_reading"`
	CurrentReading  decimal.Decimal `json:"current_reading"`
	Consumption     decimal.Decimal `json:"consumption"`
	Unit            string          `json:"unit"`
	Charges         []ChargeLine    `json:"charges"`
	TotalAmount     string          `json:"total_amount"`
	DueDate         string          `json:"due_date"`
	IssueDate       string          `json:"issue_date"`
	Status          string          `json:"status"`
}

type Service interface {
	// Generate runs the full assembly pipeline and commits the bill with its
	// line items atomically.
	Generate(ctx context.Context, req GenerateBillRequest) (BillResult, error)
	List(ctx context.Context, req ListBillRequest) ([]*Bill, *pagination.PageInfo, error)
	GetByID(ctx context.Context, id string) (Bill, []BillLineItem, error)
	// Present formats an already persisted bill the same way Generate does.
	Present(ctx context.Context, id string) (BillResult, error)
}

var (
	ErrInvalidInput       = errors.New("invalid_input")
	ErrInvalidID          = errors.New("invalid_id")
	ErrConnectionNotFound = errors.New("connection_not_found")
	ErrCustomerNotFound   = errors.New("customer_not_found")
	ErrMeterNotFound      = errors.New("meter_not_found")
	ErrTariffNotFound     = errors.New("tariff_not_found")
	ErrNotFound           = errors.New("not_found")
)
