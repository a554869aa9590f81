package e2e

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	billingdomain "github.com/gridsmith/meterbill/internal/billing/domain"
	billingrepository "github.com/gridsmith/meterbill/internal/billing/repository"
	billingservice "github.com/gridsmith/meterbill/internal/billing/service"
	"github.com/gridsmith/meterbill/internal/clock"
	"github.com/gridsmith/meterbill/internal/config"
	connectiondomain "github.com/gridsmith/meterbill/internal/connection/domain"
	connectionrepository "github.com/gridsmith/meterbill/internal/connection/repository"
	connectionservice "github.com/gridsmith/meterbill/internal/connection/service"
	customerdomain "github.com/gridsmith/meterbill/internal/customer/domain"
	customerrepository "github.com/gridsmith/meterbill/internal/customer/repository"
	customerservice "github.com/gridsmith/meterbill/internal/customer/service"
	meterdomain "github.com/gridsmith/meterbill/internal/meter/domain"
	meterrepository "github.com/gridsmith/meterbill/internal/meter/repository"
	meterservice "github.com/gridsmith/meterbill/internal/meter/service"
	overviewservice "github.com/gridsmith/meterbill/internal/overview/service"
	paymentdomain "github.com/gridsmith/meterbill/internal/payment/domain"
	paymentrepository "github.com/gridsmith/meterbill/internal/payment/repository"
	paymentservice "github.com/gridsmith/meterbill/internal/payment/service"
	readingdomain "github.com/gridsmith/meterbill/internal/reading/domain"
	readingrepository "github.com/gridsmith/meterbill/internal/reading/repository"
	readingservice "github.com/gridsmith/meterbill/internal/reading/service"
	tariffdomain "github.com/gridsmith/meterbill/internal/tariff/domain"
	tariffrepository "github.com/gridsmith/meterbill/internal/tariff/repository"
	tariffservice "github.com/gridsmith/meterbill/internal/tariff/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stack struct {
	customers   customerdomain.Service
	meters      meterdomain.Service
	tariffs     tariffdomain.Service
	connections connectiondomain.Service
	readings    readingdomain.Service
	billing     billingdomain.Service
	payments    paymentdomain.Service
	clock       *clock.FakeClock
	db          *gorm.DB
	holder      *config.BillingConfigHolder
}

func setupStack(t *testing.T) *stack {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&customerdomain.Customer{},
		&meterdomain.Meter{},
		&readingdomain.MeterReading{},
		&tariffdomain.Tariff{},
		&tariffdomain.ElectricityTariff{},
		&tariffdomain.WaterTariff{},
		&tariffdomain.GasTariff{},
		&connectiondomain.ServiceConnection{},
		&billingdomain.Bill{},
		&billingdomain.BillLineItem{},
		&paymentdomain.Payment{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()
	fakeClock := clock.NewFakeClock(time.Date(2026, 4, 5, 10, 0, 0, 0, time.UTC))

	holder := config.NewStaticBillingConfigHolder(config.BillingConfig{
		DueDays:        30,
		CurrencyCode:   "USD",
		CurrencySymbol: "$",
		AgingBuckets: []config.AgingBucket{
			{Label: "current", MinDays: 0},
		},
	})

	customers := customerservice.New(customerservice.Params{
		DB: db, Log: log, GenID: node, Repo: customerrepository.Provide(),
	})
	meters := meterservice.New(meterservice.Params{
		DB: db, Log: log, GenID: node, Repo: meterrepository.Provide(),
	})
	tariffs := tariffservice.New(tariffservice.Params{
		DB: db, Log: log, GenID: node, Repo: tariffrepository.Provide(),
	})
	connections := connectionservice.New(connectionservice.Params{
		DB: db, Log: log, GenID: node,
		Repo:      connectionrepository.Provide(),
		Customers: customerrepository.Provide(),
		Meters:    meterrepository.Provide(),
		Tariffs:   tariffrepository.Provide(),
	})
	readings := readingservice.New(readingservice.Params{
		DB: db, Log: log, GenID: node,
		Repo:      readingrepository.Provide(),
		MeterRepo: meterrepository.Provide(),
	})
	billing := billingservice.New(billingservice.Params{
		DB:          db,
		Log:         log,
		GenID:       node,
		Clock:       fakeClock,
		Billing:     holder,
		Repo:        billingrepository.Provide(),
		Connections: connectionrepository.Provide(),
		Customers:   customerrepository.Provide(),
		Meters:      meterrepository.Provide(),
		Tariffs:     tariffs,
		Readings:    readings,
	})
	payments := paymentservice.New(paymentservice.Params{
		DB: db, Log: log, GenID: node, Clock: fakeClock,
		Repo:  paymentrepository.Provide(),
		Bills: billingrepository.Provide(),
	})

	return &stack{
		customers:   customers,
		meters:      meters,
		tariffs:     tariffs,
		connections: connections,
		readings:    readings,
		billing:     billing,
		payments:    payments,
		clock:       fakeClock,
		db:          db,
		holder:      holder,
	}
}

// Exercises the whole back-office path: onboarding, tariff setup, field
// capture, two billing runs, and settlement.
func TestBillingFlowEndToEnd(t *testing.T) {
	s := setupStack(t)
	ctx := context.Background()

	customer, err := s.customers.Create(ctx, customerdomain.CreateCustomerRequest{
		Name:    "Ayu Lestari",
		Email:   "ayu.lestari@example.com",
		Address: "12 Jalan Melati, Bandung",
		Class:   "Household",
	})
	require.NoError(t, err)

	meter, err := s.meters.Create(ctx, meterdomain.CreateMeterRequest{
		Serial:  "ELEC-0001",
		Utility: "Electricity",
	})
	require.NoError(t, err)

	tariff, err := s.tariffs.Create(ctx, tariffdomain.CreateTariffRequest{
		Name:               "Residential Electricity",
		Utility:            "Electricity",
		Class:              "Household",
		ValidFrom:          time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		InstallationCharge: decimal.NewFromInt(100),
		Electricity: &tariffdomain.ElectricitySlabs{
			Slab1Max:  decimal.NewFromInt(100),
			Slab1Rate: decimal.RequireFromString("0.10"),
			Slab2Max:  decimal.NewFromInt(200),
			Slab2Rate: decimal.RequireFromString("0.15"),
			Slab3Rate: decimal.RequireFromString("0.20"),
		},
	})
	require.NoError(t, err)

	conn, err := s.connections.Create(ctx, connectiondomain.CreateConnectionRequest{
		CustomerID: customer.ID.String(),
		MeterID:    meter.ID.String(),
		TariffID:   tariff.ID.String(),
	})
	require.NoError(t, err)

	for _, r := range []struct {
		day   time.Time
		value string
	}{
		{time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), "1000"},
		{time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), "1250"},
		{time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC), "1500"},
	} {
		_, err := s.readings.Capture(ctx, readingdomain.CaptureReadingRequest{
			MeterID:     meter.ID.String(),
			ReadingDate: r.day,
			Value:       decimal.RequireFromString(r.value),
			Source:      "field-device",
		})
		require.NoError(t, err)
	}

	march, err := s.billing.Generate(ctx, billingdomain.GenerateBillRequest{
		CustomerID:   customer.ID.String(),
		ConnectionID: conn.ID.String(),
		PeriodFrom:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodTo:     time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "$135.00", march.TotalAmount)
	assert.Equal(t, "Ayu Lestari", march.CustomerName)
	assert.Equal(t, "ELEC-0001", march.Meter)
	assert.Equal(t, "kWh", march.Unit)

	// Settle March, then bill April. The paid bill must not ride along as
	// previous balance.
	payment, err := s.payments.Record(ctx, paymentdomain.RecordPaymentRequest{
		BillID: march.BillID,
		Amount: decimal.RequireFromString("135.00"),
		Method: "Transfer",
	})
	require.NoError(t, err)
	assert.Equal(t, "135.00", payment.Amount.StringFixed(2))

	april, err := s.billing.Generate(ctx, billingdomain.GenerateBillRequest{
		CustomerID:   customer.ID.String(),
		ConnectionID: conn.ID.String(),
		PeriodFrom:   time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		PeriodTo:     time.Date(2026, 4, 30, 23, 59, 59, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "$35.00", april.TotalAmount)
	require.Len(t, april.Charges, 1)
	assert.Equal(t, "Electricity Consumption", april.Charges[0].Description)

	overview := overviewservice.New(overviewservice.Params{
		DB:      s.db,
		Log:     zap.NewNop(),
		Clock:   s.clock,
		Billing: s.holder,
	})
	summary, err := overview.Summary(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, summary.Customers)
	assert.EqualValues(t, 1, summary.Meters)
	assert.EqualValues(t, 1, summary.ActiveConnections)
	assert.EqualValues(t, 2, summary.BillsTotal)
	assert.EqualValues(t, 1, summary.BillsUnpaid)
	assert.Equal(t, "135.00", summary.TotalCollected.StringFixed(2))
	assert.Equal(t, "35.00", summary.TotalOutstanding.StringFixed(2))
}
