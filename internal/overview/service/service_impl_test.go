package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	billingdomain "github.com/gridsmith/meterbill/internal/billing/domain"
	"github.com/gridsmith/meterbill/internal/clock"
	"github.com/gridsmith/meterbill/internal/config"
	connectiondomain "github.com/gridsmith/meterbill/internal/connection/domain"
	customerdomain "github.com/gridsmith/meterbill/internal/customer/domain"
	meterdomain "github.com/gridsmith/meterbill/internal/meter/domain"
	paymentdomain "github.com/gridsmith/meterbill/internal/payment/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupOverview(t *testing.T, buckets []config.AgingBucket) (*gorm.DB, *Service, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&customerdomain.Customer{},
		&meterdomain.Meter{},
		&connectiondomain.ServiceConnection{},
		&billingdomain.Bill{},
		&billingdomain.BillLineItem{},
		&paymentdomain.Payment{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	holder := config.NewStaticBillingConfigHolder(config.BillingConfig{
		DueDays:        30,
		CurrencySymbol: "$",
		AgingBuckets:   buckets,
	})
	svc := New(Params{
		DB:      db,
		Log:     zap.NewNop(),
		Clock:   clock.NewFakeClock(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)),
		Billing: holder,
	}).(*Service)
	return db, svc, node
}

func seedBill(t *testing.T, db *gorm.DB, node *snowflake.Node, utility string, total string, status billingdomain.BillStatus, dueDate time.Time) {
	t.Helper()
	bill := billingdomain.Bill{
		ID:           node.Generate(),
		CustomerID:   node.Generate(),
		ConnectionID: node.Generate(),
		MeterID:      node.Generate(),
		TariffID:     node.Generate(),
		Utility:      meterdomain.UtilityType(utility),
		PeriodStart:  dueDate.AddDate(0, -1, 0),
		PeriodEnd:    dueDate,
		TotalAmount:  decimal.RequireFromString(total),
		IssueDate:    dueDate.AddDate(0, 0, -30),
		DueDate:      dueDate,
		Status:       status,
	}
	require.NoError(t, db.Create(&bill).Error)
}

func TestSummaryAggregates(t *testing.T) {
	db, svc, node := setupOverview(t, nil)

	seedBill(t, db, node, "Electricity", "135.00", billingdomain.BillUnpaid, time.Date(2026, 5, 5, 0, 0, 0, 0, time.UTC))
	seedBill(t, db, node, "Electricity", "35.00", billingdomain.BillPaid, time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC))
	seedBill(t, db, node, "Water", "70.00", billingdomain.BillUnpaid, time.Date(2026, 5, 5, 0, 0, 0, 0, time.UTC))

	got, err := svc.Summary(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 3, got.BillsTotal)
	assert.EqualValues(t, 2, got.BillsUnpaid)
	assert.Equal(t, "240.00", got.TotalBilled.StringFixed(2))
	assert.Equal(t, "205.00", got.TotalOutstanding.StringFixed(2))

	require.Len(t, got.ByUtility, 2)
	assert.Equal(t, "Electricity", got.ByUtility[0].Utility)
	assert.EqualValues(t, 2, got.ByUtility[0].Bills)
	assert.Equal(t, "Water", got.ByUtility[1].Utility)
}

func TestAgingBucketsSplitByDaysPastDue(t *testing.T) {
	thirty := 30
	db, svc, node := setupOverview(t, []config.AgingBucket{
		{Label: "0-30 days", MinDays: 0, MaxDays: &thirty},
		{Label: "30+ days", MinDays: 30},
	})

	// Clock sits at 2026-06-01. One bill 10 days overdue, one 60 days.
	seedBill(t, db, node, "Gas", "50.00", billingdomain.BillUnpaid, time.Date(2026, 5, 22, 0, 0, 0, 0, time.UTC))
	seedBill(t, db, node, "Gas", "80.00", billingdomain.BillUnpaid, time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC))
	// Paid bills never age.
	seedBill(t, db, node, "Gas", "999.00", billingdomain.BillPaid, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	got, err := svc.Summary(context.Background())
	require.NoError(t, err)

	require.Len(t, got.Receivables, 2)
	assert.Equal(t, "0-30 days", got.Receivables[0].Label)
	assert.EqualValues(t, 1, got.Receivables[0].Count)
	assert.Equal(t, "50.00", got.Receivables[0].Amount.StringFixed(2))
	assert.Equal(t, "30+ days", got.Receivables[1].Label)
	assert.EqualValues(t, 1, got.Receivables[1].Count)
	assert.Equal(t, "80.00", got.Receivables[1].Amount.StringFixed(2))
}
