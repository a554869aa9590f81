// Package domain defines the back-office overview aggregates.
package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// AgingSlice is one receivables bucket: unpaid bill totals grouped by days
// past due.
type AgingSlice struct {
	Label  string          `json:"label"`
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

type UtilitySlice struct {
	Utility string          `json:"utility"`
	Bills   int64           `json:"bills"`
	Billed  decimal.Decimal `json:"billed"`
}

// Overview is the dashboard summary for the whole installation.
type Overview struct {
	Customers         int64           `json:"customers"`
	Meters            int64           `json:"meters"`
	ActiveConnections int64           `json:"active_connections"`
	BillsTotal        int64           `json:"bills_total"`
	BillsUnpaid       int64           `json:"bills_unpaid"`
	TotalBilled       decimal.Decimal `json:"total_billed"`
	TotalOutstanding  decimal.Decimal `json:"total_outstanding"`
	TotalCollected    decimal.Decimal `json:"total_collected"`
	ByUtility         []UtilitySlice  `json:"by_utility"`
	Receivables       []AgingSlice    `json:"receivables"`
}

type Service interface {
	Summary(ctx context.Context) (Overview, error)
}
