package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gridsmith/meterbill/pkg/db/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ListBillFilter struct {
	CustomerID snowflake.ID
	MeterID    snowflake.ID
	Status     BillStatus
	Pagination pagination.Pagination
}

type Repository interface {
	// InsertBill writes the header and all line items on the given handle.
	// Callers wrap it in a transaction.
	InsertBill(ctx context.Context, db *gorm.DB, bill *Bill, items []BillLineItem) error

	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Bill, error)
	FindLineItems(ctx context.Context, db *gorm.DB, billID snowflake.ID) ([]BillLineItem, error)
	List(ctx context.Context, db *gorm.DB, filter ListBillFilter) ([]*Bill, error)

	// LatestUnpaidTotal returns the total of the most recent unpaid bill for
	// the meter, or zero when none exists.
	LatestUnpaidTotal(ctx context.Context, db *gorm.DB, meterID snowflake.ID) (decimal.Decimal, error)
	// CountForMeter reports how many bills have ever been generated for the
	// meter, unpaid or not.
	CountForMeter(ctx context.Context, db *gorm.DB, meterID snowflake.ID) (int64, error)
	// ExistsForConnectionPeriod reports whether a bill starting at
	// periodStart already exists for the connection.
	ExistsForConnectionPeriod(ctx context.Context, db *gorm.DB, connectionID snowflake.ID, periodStart time.Time) (bool, error)

	Update(ctx context.Context, db *gorm.DB, bill *Bill) error
}
