package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	billingdomain "github.com/gridsmith/meterbill/internal/billing/domain"
	billingrepository "github.com/gridsmith/meterbill/internal/billing/repository"
	"github.com/gridsmith/meterbill/internal/clock"
	"github.com/gridsmith/meterbill/internal/payment/domain"
	"github.com/gridsmith/meterbill/internal/payment/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupPaymentService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&billingdomain.Bill{}, &billingdomain.BillLineItem{}, &domain.Payment{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
		Bills: billingrepository.Provide(),
	})
	return svc, db, node
}

func seedUnpaidBill(t *testing.T, db *gorm.DB, node *snowflake.Node, total string) billingdomain.Bill {
	t.Helper()
	bill := billingdomain.Bill{
		ID:           node.Generate(),
		CustomerID:   node.Generate(),
		ConnectionID: node.Generate(),
		MeterID:      node.Generate(),
		TariffID:     node.Generate(),
		Utility:      "Electricity",
		PeriodStart:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:    time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		TotalAmount:  decimal.RequireFromString(total),
		IssueDate:    time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC),
		DueDate:      time.Date(2026, 5, 5, 0, 0, 0, 0, time.UTC),
		Status:       billingdomain.BillUnpaid,
	}
	require.NoError(t, db.Create(&bill).Error)
	return bill
}

func TestRecordPaymentSettlesBill(t *testing.T) {
	svc, db, node := setupPaymentService(t)
	bill := seedUnpaidBill(t, db, node, "135.00")

	payment, err := svc.Record(context.Background(), domain.RecordPaymentRequest{
		BillID: bill.ID.String(),
		Amount: decimal.RequireFromString("135.00"),
		Method: "Cash",
	})
	require.NoError(t, err)
	assert.Equal(t, bill.CustomerID, payment.CustomerID)
	assert.Equal(t, "135.00", payment.Amount.StringFixed(2))
	assert.NotEmpty(t, payment.ReceiptNumber)

	var settled billingdomain.Bill
	require.NoError(t, db.First(&settled, "id = ?", bill.ID).Error)
	assert.Equal(t, billingdomain.BillPaid, settled.Status)
	require.NotNil(t, settled.PaidAt)
}

func TestRecordPaymentRejectsDoubleSettlement(t *testing.T) {
	svc, db, node := setupPaymentService(t)
	bill := seedUnpaidBill(t, db, node, "60.00")
	ctx := context.Background()

	req := domain.RecordPaymentRequest{BillID: bill.ID.String(), Amount: decimal.RequireFromString("60.00"), Method: "Card"}
	_, err := svc.Record(ctx, req)
	require.NoError(t, err)

	_, err = svc.Record(ctx, req)
	assert.ErrorIs(t, err, domain.ErrAlreadyPaid)

	var payments int64
	require.NoError(t, db.Model(&domain.Payment{}).Where("bill_id = ?", bill.ID).Count(&payments).Error)
	assert.EqualValues(t, 1, payments)
}

func TestRecordPaymentValidation(t *testing.T) {
	svc, db, node := setupPaymentService(t)
	bill := seedUnpaidBill(t, db, node, "10.00")
	ctx := context.Background()

	_, err := svc.Record(ctx, domain.RecordPaymentRequest{BillID: "junk", Amount: decimal.RequireFromString("10.00"), Method: "Cash"})
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = svc.Record(ctx, domain.RecordPaymentRequest{BillID: bill.ID.String(), Amount: decimal.RequireFromString("10.00"), Method: "Barter"})
	assert.ErrorIs(t, err, domain.ErrInvalidMethod)

	_, err = svc.Record(ctx, domain.RecordPaymentRequest{BillID: bill.ID.String(), Amount: decimal.RequireFromString("-10.00"), Method: "Cash"})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.Record(ctx, domain.RecordPaymentRequest{BillID: node.Generate().String(), Amount: decimal.RequireFromString("10.00"), Method: "Transfer"})
	assert.ErrorIs(t, err, domain.ErrBillNotFound)
}

func TestRecordPaymentRejectsAmountMismatch(t *testing.T) {
	svc, db, node := setupPaymentService(t)
	bill := seedUnpaidBill(t, db, node, "135.00")
	ctx := context.Background()

	for _, amount := range []string{"135.01", "100.00", "0"} {
		_, err := svc.Record(ctx, domain.RecordPaymentRequest{
			BillID: bill.ID.String(),
			Amount: decimal.RequireFromString(amount),
			Method: "Transfer",
		})
		assert.ErrorIs(t, err, domain.ErrAmountMismatch)
	}

	// The bill stays unpaid and no payment row leaks out.
	var current billingdomain.Bill
	require.NoError(t, db.First(&current, "id = ?", bill.ID).Error)
	assert.Equal(t, billingdomain.BillUnpaid, current.Status)

	var payments int64
	require.NoError(t, db.Model(&domain.Payment{}).Where("bill_id = ?", bill.ID).Count(&payments).Error)
	assert.EqualValues(t, 0, payments)
}

func TestListByBill(t *testing.T) {
	svc, db, node := setupPaymentService(t)
	bill := seedUnpaidBill(t, db, node, "25.00")
	ctx := context.Background()

	_, err := svc.Record(ctx, domain.RecordPaymentRequest{BillID: bill.ID.String(), Amount: decimal.RequireFromString("25.00"), Method: "Transfer"})
	require.NoError(t, err)

	payments, err := svc.ListByBill(ctx, bill.ID.String())
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, bill.ID, payments[0].BillID)
}
