package scheduler

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
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type schedulerFixture struct {
	sched *Scheduler
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
	reads readingdomain.Service
}

func setupScheduler(t *testing.T) *schedulerFixture {
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
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()
	fakeClock := clock.NewFakeClock(time.Date(2026, 4, 2, 3, 0, 0, 0, time.UTC))

	tariffs := tariffservice.New(tariffservice.Params{
		DB: db, Log: log, GenID: node, Repo: tariffrepository.Provide(),
	})
	reads := readingservice.New(readingservice.Params{
		DB: db, Log: log, GenID: node,
		Repo:      readingrepository.Provide(),
		MeterRepo: meterrepository.Provide(),
	})
	billingRepo := billingrepository.Provide()
	connRepo := connectionrepository.Provide()

	holder := config.NewStaticBillingConfigHolder(config.BillingConfig{
		DueDays:        30,
		CurrencySymbol: "$",
	})

	billingSvc := billingservice.New(billingservice.Params{
		DB:          db,
		Log:         log,
		GenID:       node,
		Clock:       fakeClock,
		Billing:     holder,
		Repo:        billingRepo,
		Connections: connRepo,
		Customers:   customerrepository.Provide(),
		Meters:      meterrepository.Provide(),
		Tariffs:     tariffs,
		Readings:    reads,
	})

	sched := New(Params{
		DB:          db,
		Log:         log,
		Clock:       fakeClock,
		Config:      config.Config{Scheduler: config.SchedulerConfig{Enabled: true, BillingDay: 1}},
		BillingSvc:  billingSvc,
		BillingRepo: billingRepo,
		Connections: connRepo,
	})

	return &schedulerFixture{sched: sched, db: db, node: node, clock: fakeClock, reads: reads}
}

func (f *schedulerFixture) seedConnectedMeter(t *testing.T) connectiondomain.ServiceConnection {
	t.Helper()

	customer := customerdomain.Customer{
		ID:      f.node.Generate(),
		Name:    "Sweep Customer",
		Email:   f.node.Generate().String() + "@example.com",
		Address: "1 Sweep Street",
		Class:   customerdomain.ClassHousehold,
		Status:  customerdomain.CustomerStatusActive,
	}
	require.NoError(t, f.db.Create(&customer).Error)

	meter := meterdomain.Meter{
		ID:          f.node.Generate(),
		Serial:      "SER-" + f.node.Generate().String(),
		Utility:     meterdomain.UtilityElectricity,
		Status:      meterdomain.MeterStatusActive,
		InstalledAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, f.db.Create(&meter).Error)

	tariff := tariffdomain.Tariff{
		ID:                 f.node.Generate(),
		Name:               "Sweep Tariff",
		Utility:            meterdomain.UtilityElectricity,
		Class:              customerdomain.ClassHousehold,
		ValidFrom:          time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		InstallationCharge: decimal.Zero,
	}
	require.NoError(t, f.db.Create(&tariff).Error)
	payload := tariffdomain.ElectricityTariff{
		ID:        f.node.Generate(),
		TariffID:  tariff.ID,
		Slab1Max:  decimal.NewFromInt(100),
		Slab1Rate: decimal.RequireFromString("0.10"),
		Slab2Max:  decimal.NewFromInt(200),
		Slab2Rate: decimal.RequireFromString("0.15"),
		Slab3Rate: decimal.RequireFromString("0.20"),
	}
	require.NoError(t, f.db.Create(&payload).Error)

	conn := connectiondomain.ServiceConnection{
		ID:          f.node.Generate(),
		CustomerID:  customer.ID,
		MeterID:     meter.ID,
		TariffID:    tariff.ID,
		Status:      connectiondomain.ConnectionActive,
		ConnectedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, f.db.Create(&conn).Error)
	return conn
}

func (f *schedulerFixture) billCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&billingdomain.Bill{}).Count(&count).Error)
	return count
}

func TestRunCycleBillsPreviousMonthOnce(t *testing.T) {
	f := setupScheduler(t)
	conn := f.seedConnectedMeter(t)
	ctx := context.Background()

	_, err := f.reads.Capture(ctx, readingdomain.CaptureReadingRequest{
		MeterID:     conn.MeterID.String(),
		ReadingDate: time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
		Value:       decimal.RequireFromString("1000"),
	})
	require.NoError(t, err)
	_, err = f.reads.Capture(ctx, readingdomain.CaptureReadingRequest{
		MeterID:     conn.MeterID.String(),
		ReadingDate: time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		Value:       decimal.RequireFromString("1250"),
	})
	require.NoError(t, err)

	require.NoError(t, f.sched.RunCycle(ctx))
	assert.EqualValues(t, 1, f.billCount(t))

	var bill billingdomain.Bill
	require.NoError(t, f.db.First(&bill).Error)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), bill.PeriodStart.UTC())
	assert.Equal(t, "35", bill.TotalAmount.String())

	// A second sweep in the same month must not bill the period again.
	require.NoError(t, f.sched.RunCycle(ctx))
	assert.EqualValues(t, 1, f.billCount(t))
}

func TestRunCycleWaitsForBillingDay(t *testing.T) {
	f := setupScheduler(t)
	f.seedConnectedMeter(t)
	f.sched.cfg.BillingDay = 15

	require.NoError(t, f.sched.RunCycle(context.Background()))
	assert.EqualValues(t, 0, f.billCount(t))
}

func TestRunCycleSkipsConnectionsWithoutTariff(t *testing.T) {
	f := setupScheduler(t)
	conn := f.seedConnectedMeter(t)

	// Point the connection at a tariff that no longer exists and remove the
	// catalog entry so resolution fails for this one connection.
	require.NoError(t, f.db.Delete(&tariffdomain.Tariff{}, "id = ?", conn.TariffID).Error)

	require.NoError(t, f.sched.RunCycle(context.Background()))
	assert.EqualValues(t, 0, f.billCount(t))
}

type recordedLifecycle struct {
	hooks []fx.Hook
}

func (l *recordedLifecycle) Append(h fx.Hook) { l.hooks = append(l.hooks, h) }

func TestStartCancelsSweepLoopOnShutdown(t *testing.T) {
	f := setupScheduler(t)
	lc := &recordedLifecycle{}

	Start(lc, config.Config{Scheduler: config.SchedulerConfig{Enabled: true, BillingDay: 1}}, f.sched)

	// One hook carries both callbacks; stop must not return until the sweep
	// loop has exited.
	require.Len(t, lc.hooks, 1)
	hook := lc.hooks[0]
	require.NotNil(t, hook.OnStart)
	require.NotNil(t, hook.OnStop)

	require.NoError(t, hook.OnStart(context.Background()))

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, hook.OnStop(stopCtx))
}

func TestStartIsNoOpWhenDisabled(t *testing.T) {
	f := setupScheduler(t)
	lc := &recordedLifecycle{}

	Start(lc, config.Config{Scheduler: config.SchedulerConfig{Enabled: false}}, f.sched)
	assert.Empty(t, lc.hooks)
}
