package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/gridsmith/meterbill/internal/billing/domain"
	billingrepository "github.com/gridsmith/meterbill/internal/billing/repository"
	"github.com/gridsmith/meterbill/internal/clock"
	"github.com/gridsmith/meterbill/internal/config"
	connectiondomain "github.com/gridsmith/meterbill/internal/connection/domain"
	connectionrepository "github.com/gridsmith/meterbill/internal/connection/repository"
	customerdomain "github.com/gridsmith/meterbill/internal/customer/domain"
	customerrepository "github.com/gridsmith/meterbill/internal/customer/repository"
	meterdomain "github.com/gridsmith/meterbill/internal/meter/domain"
	meterrepository "github.com/gridsmith/meterbill/internal/meter/repository"
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

type billingFixture struct {
	svc     domain.Service
	tariffs tariffdomain.Service
	reads   readingdomain.Service
	db      *gorm.DB
	node    *snowflake.Node
	clock   *clock.FakeClock
	holder  *config.BillingConfigHolder
}

func setupBillingService(t *testing.T) *billingFixture {
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
		&domain.Bill{},
		&domain.BillLineItem{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()
	fakeClock := clock.NewFakeClock(time.Date(2026, 4, 5, 10, 0, 0, 0, time.UTC))

	tariffs := tariffservice.New(tariffservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Repo:  tariffrepository.Provide(),
	})
	reads := readingservice.New(readingservice.Params{
		DB:        db,
		Log:       log,
		GenID:     node,
		Repo:      readingrepository.Provide(),
		MeterRepo: meterrepository.Provide(),
	})

	holder := config.NewStaticBillingConfigHolder(config.BillingConfig{
		DueDays:        30,
		CurrencyCode:   "USD",
		CurrencySymbol: "$",
	})

	svc := New(Params{
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
		Readings:    reads,
	})

	return &billingFixture{
		svc:     svc,
		tariffs: tariffs,
		reads:   reads,
		db:      db,
		node:    node,
		clock:   fakeClock,
		holder:  holder,
	}
}

func (f *billingFixture) seedCustomer(t *testing.T, class customerdomain.CustomerClass) customerdomain.Customer {
	t.Helper()
	c := customerdomain.Customer{
		ID:      f.node.Generate(),
		Name:    "Test Customer",
		Email:   f.node.Generate().String() + "@example.com",
		Address: "1 Test Street",
		Class:   class,
		Status:  customerdomain.CustomerStatusActive,
	}
	require.NoError(t, f.db.Create(&c).Error)
	return c
}

func (f *billingFixture) seedMeter(t *testing.T, utility meterdomain.UtilityType) meterdomain.Meter {
	t.Helper()
	m := meterdomain.Meter{
		ID:          f.node.Generate(),
		Serial:      "SER-" + f.node.Generate().String(),
		Utility:     utility,
		Status:      meterdomain.MeterStatusActive,
		InstalledAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, f.db.Create(&m).Error)
	return m
}

func (f *billingFixture) seedConnection(t *testing.T, customerID, meterID, tariffID snowflake.ID) connectiondomain.ServiceConnection {
	t.Helper()
	conn := connectiondomain.ServiceConnection{
		ID:          f.node.Generate(),
		CustomerID:  customerID,
		MeterID:     meterID,
		TariffID:    tariffID,
		Status:      connectiondomain.ConnectionActive,
		ConnectedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, f.db.Create(&conn).Error)
	return conn
}

func (f *billingFixture) createElectricityTariff(t *testing.T, installation string) tariffdomain.Tariff {
	t.Helper()
	tariff, err := f.tariffs.Create(context.Background(), tariffdomain.CreateTariffRequest{
		Name:               "Residential Electricity",
		Utility:            "Electricity",
		Class:              "Household",
		ValidFrom:          time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		InstallationCharge: decimal.RequireFromString(installation),
		Electricity: &tariffdomain.ElectricitySlabs{
			Slab1Max:  decimal.NewFromInt(100),
			Slab1Rate: decimal.RequireFromString("0.10"),
			Slab2Max:  decimal.NewFromInt(200),
			Slab2Rate: decimal.RequireFromString("0.15"),
			Slab3Rate: decimal.RequireFromString("0.20"),
		},
	})
	require.NoError(t, err)
	return tariff
}

func (f *billingFixture) capture(t *testing.T, meterID snowflake.ID, day time.Time, value string) {
	t.Helper()
	_, err := f.reads.Capture(context.Background(), readingdomain.CaptureReadingRequest{
		MeterID:     meterID.String(),
		ReadingDate: day,
		Value:       decimal.RequireFromString(value),
	})
	require.NoError(t, err)
}

func marchPeriod() (time.Time, time.Time) {
	return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)
}

func TestGenerateFirstBillIncludesInstallationCharge(t *testing.T) {
	f := setupBillingService(t)
	ctx := context.Background()

	customer := f.seedCustomer(t, customerdomain.ClassHousehold)
	meter := f.seedMeter(t, meterdomain.UtilityElectricity)
	tariff := f.createElectricityTariff(t, "100")
	conn := f.seedConnection(t, customer.ID, meter.ID, tariff.ID)

	f.capture(t, meter.ID, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), "1000")
	f.capture(t, meter.ID, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), "1250")

	from, to := marchPeriod()
	result, err := f.svc.Generate(ctx, domain.GenerateBillRequest{
		CustomerID:   customer.ID.String(),
		ConnectionID: conn.ID.String(),
		PeriodFrom:   from,
		PeriodTo:     to,
	})
	require.NoError(t, err)

	// 250 units across the three slabs plus the one-time installation charge.
	assert.Equal(t, "$135.00", result.TotalAmount)
	assert.Equal(t, "Unpaid", result.Status)
	require.Len(t, result.Charges, 2)
	assert.Equal(t, "Electricity Consumption", result.Charges[0].Description)
	assert.Equal(t, "35", result.Charges[0].Amount.String())
	assert.Equal(t, "Installation Charge", result.Charges[1].Description)
	assert.Equal(t, "100", result.Charges[1].Amount.String())
}

func TestGenerateSecondBillCarriesPreviousBalance(t *testing.T) {
	f := setupBillingService(t)
	ctx := context.Background()

	customer := f.seedCustomer(t, customerdomain.ClassHousehold)
	meter := f.seedMeter(t, meterdomain.UtilityElectricity)
	tariff := f.createElectricityTariff(t, "100")
	conn := f.seedConnection(t, customer.ID, meter.ID, tariff.ID)

	f.capture(t, meter.ID, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), "1000")
	f.capture(t, meter.ID, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), "1250")

	from, to := marchPeriod()
	req := domain.GenerateBillRequest{
		CustomerID:   customer.ID.String(),
		ConnectionID: conn.ID.String(),
		PeriodFrom:   from,
		PeriodTo:     to,
	}
	first, err := f.svc.Generate(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "$135.00", first.TotalAmount)

	// April period with identical consumption. The unpaid March bill rides
	// along as previous balance, and installation is never charged again.
	f.capture(t, meter.ID, time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC), "1500")
	req.PeriodFrom = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	req.PeriodTo = time.Date(2026, 4, 30, 23, 59, 59, 0, time.UTC)

	second, err := f.svc.Generate(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "$170.00", second.TotalAmount)

	require.Len(t, second.Charges, 2)
	assert.Equal(t, "Electricity Consumption", second.Charges[0].Description)
	assert.Equal(t, "Previous Balance", second.Charges[1].Description)
	assert.Equal(t, "135", second.Charges[1].Amount.String())
}

func TestGenerateWithMissingReadingsBillsZeroConsumption(t *testing.T) {
	f := setupBillingService(t)
	ctx := context.Background()

	customer := f.seedCustomer(t, customerdomain.ClassHousehold)
	meter := f.seedMeter(t, meterdomain.UtilityElectricity)
	tariff := f.createElectricityTariff(t, "0")
	conn := f.seedConnection(t, customer.ID, meter.ID, tariff.ID)

	from, to := marchPeriod()
	result, err := f.svc.Generate(ctx, domain.GenerateBillRequest{
		CustomerID:   customer.ID.String(),
		ConnectionID: conn.ID.String(),
		PeriodFrom:   from,
		PeriodTo:     to,
	})
	require.NoError(t, err)
	assert.Equal(t, "$0.00", result.TotalAmount)
	assert.Empty(t, result.Charges)
}

func TestGenerateWithOrphanTariffHeaderBillsZeroCharges(t *testing.T) {
	f := setupBillingService(t)
	ctx := context.Background()

	customer := f.seedCustomer(t, customerdomain.ClassHousehold)
	meter := f.seedMeter(t, meterdomain.UtilityElectricity)

	// Header without payload row. Generation still succeeds with zero
	// consumption charges rather than failing the run.
	orphan := tariffdomain.Tariff{
		ID:                 f.node.Generate(),
		Name:               "Orphan",
		Utility:            meterdomain.UtilityElectricity,
		Class:              customerdomain.ClassHousehold,
		ValidFrom:          time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		InstallationCharge: decimal.Zero,
	}
	require.NoError(t, f.db.Create(&orphan).Error)
	conn := f.seedConnection(t, customer.ID, meter.ID, orphan.ID)

	f.capture(t, meter.ID, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), "1000")
	f.capture(t, meter.ID, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), "1250")

	from, to := marchPeriod()
	result, err := f.svc.Generate(ctx, domain.GenerateBillRequest{
		CustomerID:   customer.ID.String(),
		ConnectionID: conn.ID.String(),
		PeriodFrom:   from,
		PeriodTo:     to,
	})
	require.NoError(t, err)
	assert.Equal(t, "$0.00", result.TotalAmount)
	assert.Equal(t, "250", result.Consumption.String())
}

func TestGenerateDueDateFollowsPolicy(t *testing.T) {
	f := setupBillingService(t)
	ctx := context.Background()

	customer := f.seedCustomer(t, customerdomain.ClassHousehold)
	meter := f.seedMeter(t, meterdomain.UtilityElectricity)
	tariff := f.createElectricityTariff(t, "0")
	conn := f.seedConnection(t, customer.ID, meter.ID, tariff.ID)

	from, to := marchPeriod()
	result, err := f.svc.Generate(ctx, domain.GenerateBillRequest{
		CustomerID:   customer.ID.String(),
		ConnectionID: conn.ID.String(),
		PeriodFrom:   from,
		PeriodTo:     to,
	})
	require.NoError(t, err)

	// Fake clock sits at 2026-04-05; due 30 days later.
	assert.Equal(t, "Apr 05, 2026", result.IssueDate)
	assert.Equal(t, "May 05, 2026", result.DueDate)
}

func TestGenerateRejectsMismatchedCustomer(t *testing.T) {
	f := setupBillingService(t)
	ctx := context.Background()

	owner := f.seedCustomer(t, customerdomain.ClassHousehold)
	stranger := f.seedCustomer(t, customerdomain.ClassHousehold)
	meter := f.seedMeter(t, meterdomain.UtilityElectricity)
	tariff := f.createElectricityTariff(t, "0")
	conn := f.seedConnection(t, owner.ID, meter.ID, tariff.ID)

	from, to := marchPeriod()
	_, err := f.svc.Generate(ctx, domain.GenerateBillRequest{
		CustomerID:   stranger.ID.String(),
		ConnectionID: conn.ID.String(),
		PeriodFrom:   from,
		PeriodTo:     to,
	})
	assert.ErrorIs(t, err, domain.ErrConnectionNotFound)
}

func TestGenerateValidatesInput(t *testing.T) {
	f := setupBillingService(t)
	ctx := context.Background()
	from, to := marchPeriod()

	_, err := f.svc.Generate(ctx, domain.GenerateBillRequest{
		CustomerID:   "",
		ConnectionID: f.node.Generate().String(),
		PeriodFrom:   from,
		PeriodTo:     to,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.Generate(ctx, domain.GenerateBillRequest{
		CustomerID:   f.node.Generate().String(),
		ConnectionID: f.node.Generate().String(),
		PeriodFrom:   to,
		PeriodTo:     from,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGeneratePersistsHeaderAndLineItemsAtomically(t *testing.T) {
	f := setupBillingService(t)
	ctx := context.Background()

	customer := f.seedCustomer(t, customerdomain.ClassHousehold)
	meter := f.seedMeter(t, meterdomain.UtilityElectricity)
	tariff := f.createElectricityTariff(t, "100")
	conn := f.seedConnection(t, customer.ID, meter.ID, tariff.ID)

	f.capture(t, meter.ID, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), "1000")
	f.capture(t, meter.ID, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), "1250")

	from, to := marchPeriod()
	result, err := f.svc.Generate(ctx, domain.GenerateBillRequest{
		CustomerID:   customer.ID.String(),
		ConnectionID: conn.ID.String(),
		PeriodFrom:   from,
		PeriodTo:     to,
	})
	require.NoError(t, err)

	billID, err := snowflake.ParseString(result.BillID)
	require.NoError(t, err)

	bill, items, err := f.svc.GetByID(ctx, billID.String())
	require.NoError(t, err)
	assert.Equal(t, "135", bill.TotalAmount.String())
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].LineNumber)
	assert.Equal(t, 2, items[1].LineNumber)
	assert.Equal(t, "Electricity Consumption", items[0].Description)
	assert.Equal(t, "Installation Charge", items[1].Description)
}

// lineItemFailRepo writes the bill header and then refuses the line items,
// simulating a mid-transaction write failure.
type lineItemFailRepo struct {
	domain.Repository
}

func (r lineItemFailRepo) InsertBill(ctx context.Context, db *gorm.DB, bill *domain.Bill, items []domain.BillLineItem) error {
	if err := db.WithContext(ctx).Create(bill).Error; err != nil {
		return err
	}
	return errors.New("line item write refused")
}

func TestGenerateRollsBackHeaderWhenLineItemsFail(t *testing.T) {
	f := setupBillingService(t)
	ctx := context.Background()

	customer := f.seedCustomer(t, customerdomain.ClassHousehold)
	meter := f.seedMeter(t, meterdomain.UtilityElectricity)
	tariff := f.createElectricityTariff(t, "100")
	conn := f.seedConnection(t, customer.ID, meter.ID, tariff.ID)

	f.capture(t, meter.ID, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), "1000")
	f.capture(t, meter.ID, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), "1250")

	svc := New(Params{
		DB:          f.db,
		Log:         zap.NewNop(),
		GenID:       f.node,
		Clock:       f.clock,
		Billing:     f.holder,
		Repo:        lineItemFailRepo{billingrepository.Provide()},
		Connections: connectionrepository.Provide(),
		Customers:   customerrepository.Provide(),
		Meters:      meterrepository.Provide(),
		Tariffs:     f.tariffs,
		Readings:    f.reads,
	})

	from, to := marchPeriod()
	_, err := svc.Generate(ctx, domain.GenerateBillRequest{
		CustomerID:   customer.ID.String(),
		ConnectionID: conn.ID.String(),
		PeriodFrom:   from,
		PeriodTo:     to,
	})
	require.Error(t, err)

	// The header committed inside the transaction must not survive the
	// rollback, and nothing else may be visible either.
	var bills, items int64
	require.NoError(t, f.db.Model(&domain.Bill{}).Count(&bills).Error)
	require.NoError(t, f.db.Model(&domain.BillLineItem{}).Count(&items).Error)
	assert.EqualValues(t, 0, bills)
	assert.EqualValues(t, 0, items)
}
