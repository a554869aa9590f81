package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gridsmith/meterbill/internal/billing/domain"
	"github.com/gridsmith/meterbill/internal/billing/format"
	"github.com/gridsmith/meterbill/internal/billing/rating"
	"github.com/gridsmith/meterbill/internal/clock"
	connectiondomain "github.com/gridsmith/meterbill/internal/connection/domain"
	"github.com/gridsmith/meterbill/internal/config"
	customerdomain "github.com/gridsmith/meterbill/internal/customer/domain"
	meterdomain "github.com/gridsmith/meterbill/internal/meter/domain"
	"github.com/gridsmith/meterbill/internal/observability/logger"
	"github.com/gridsmith/meterbill/internal/observability/metrics"
	"github.com/gridsmith/meterbill/internal/providers/email"
	readingdomain "github.com/gridsmith/meterbill/internal/reading/domain"
	tariffdomain "github.com/gridsmith/meterbill/internal/tariff/domain"
	"github.com/gridsmith/meterbill/pkg/db/pagination"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Billing     *config.BillingConfigHolder
	Repo        domain.Repository
	Connections connectiondomain.Repository
	Customers   customerdomain.Repository
	Meters      meterdomain.Repository
	Tariffs     tariffdomain.Service
	Readings    readingdomain.Service
	Email       email.Provider  `optional:"true"`
	Metrics     *metrics.Domain `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	billing     *config.BillingConfigHolder
	repo        domain.Repository
	connections connectiondomain.Repository
	customers   customerdomain.Repository
	meters      meterdomain.Repository
	tariffs     tariffdomain.Service
	readings    readingdomain.Service
	email       email.Provider
	metrics     *metrics.Domain
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("billing.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		billing:     p.Billing,
		repo:        p.Repo,
		connections: p.Connections,
		customers:   p.Customers,
		meters:      p.Meters,
		tariffs:     p.Tariffs,
		readings:    p.Readings,
		email:       p.Email,
		metrics:     p.Metrics,
	}
}

// Generate runs the assembly pipeline. All reads happen before the single
// write transaction; any failure before commit leaves nothing behind.
func (s *Service) Generate(ctx context.Context, req domain.GenerateBillRequest) (domain.BillResult, error) {
	log := logger.WithContext(ctx, s.log)

	customerID, connectionID, err := parseGenerateRequest(req)
	if err != nil {
		return domain.BillResult{}, err
	}

	conn, err := s.connections.FindByID(ctx, s.db, connectionID)
	if err != nil {
		return domain.BillResult{}, err
	}
	if conn == nil || conn.CustomerID != customerID {
		return domain.BillResult{}, domain.ErrConnectionNotFound
	}

	customer, err := s.customers.FindByID(ctx, s.db, conn.CustomerID)
	if err != nil {
		return domain.BillResult{}, err
	}
	if customer == nil {
		return domain.BillResult{}, domain.ErrCustomerNotFound
	}

	meter, err := s.meters.FindByID(ctx, s.db, conn.MeterID)
	if err != nil {
		return domain.BillResult{}, err
	}
	if meter == nil {
		return domain.BillResult{}, domain.ErrMeterNotFound
	}

	now := s.clock.Now()

	// Tariff selection is valid-at-generation-time, not valid-in-period.
	// Back-dated billing therefore bills at today's tariff.
	tariff, err := s.resolveTariff(ctx, conn, meter.Utility, customer.Class, now)
	if err != nil {
		return domain.BillResult{}, err
	}

	consumption, err := s.readings.ResolveConsumption(ctx, conn.MeterID, req.PeriodFrom, req.PeriodTo)
	if err != nil {
		return domain.BillResult{}, err
	}

	card, err := s.tariffs.RateCardFor(ctx, tariff)
	if err != nil {
		return domain.BillResult{}, err
	}
	charges := rating.Calculate(card, customer.Class, consumption.Consumed)

	previousBalance, err := s.repo.LatestUnpaidTotal(ctx, s.db, conn.MeterID)
	if err != nil {
		return domain.BillResult{}, err
	}

	priorBills, err := s.repo.CountForMeter(ctx, s.db, conn.MeterID)
	if err != nil {
		return domain.BillResult{}, err
	}
	installationCharge := decimal.Zero
	if priorBills == 0 {
		installationCharge = tariff.InstallationCharge
	}

	lateFee := decimal.Zero
	total := charges.ConsumptionCharge.
		Add(charges.FixedCharges).
		Add(previousBalance).
		Add(lateFee).
		Add(installationCharge)

	cfg := s.billing.Get()
	bill := domain.Bill{
		ID:                 s.genID.Generate(),
		CustomerID:         customer.ID,
		ConnectionID:       conn.ID,
		MeterID:            meter.ID,
		TariffID:           tariff.ID,
		Utility:            meter.Utility,
		PeriodStart:        req.PeriodFrom.UTC(),
		PeriodEnd:          req.PeriodTo.UTC(),
		PreviousReading:    consumption.PreviousReading,
		CurrentReading:     consumption.CurrentReading,
		Consumption:        consumption.Consumed,
		ConsumptionCharge:  charges.ConsumptionCharge,
		FixedCharges:       charges.FixedCharges,
		LateFee:            lateFee,
		PreviousBalance:    previousBalance,
		InstallationCharge: installationCharge,
		TotalAmount:        total,
		IssueDate:          now,
		DueDate:            now.AddDate(0, 0, cfg.DueDays),
		Status:             domain.BillUnpaid,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	items := s.buildLineItems(&bill, card, now)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.InsertBill(ctx, tx, &bill, items)
	})
	if err != nil {
		return domain.BillResult{}, err
	}

	if s.metrics != nil {
		s.metrics.BillsGenerated.WithLabelValues(string(meter.Utility)).Inc()
	}
	log.Info("bill generated",
		zap.String("bill_id", bill.ID.String()),
		zap.String("meter_id", meter.ID.String()),
		zap.String("utility", string(meter.Utility)),
		zap.String("total_amount", total.StringFixed(2)),
		zap.Bool("tariff_matched", card.Matched),
	)

	result := format.BuildResult(cfg, &bill, items, customer, meter)
	s.notifyCustomer(customer.Email, result)
	return result, nil
}

// notifyCustomer mails the bill summary off the request path. Delivery
// failures are logged and never fail the generation.
func (s *Service) notifyCustomer(address string, result domain.BillResult) {
	if s.email == nil || strings.TrimSpace(address) == "" {
		return
	}

	subject, body, err := email.RenderBillNotice(email.BillNotice{
		CustomerName:  result.CustomerName,
		Utility:       result.Utility,
		MeterSerial:   result.Meter,
		BillingPeriod: result.BillingPeriod,
		TotalAmount:   result.TotalAmount,
		DueDate:       result.DueDate,
	})
	if err != nil {
		s.log.Warn("bill notice render failed", zap.Error(err))
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.email.Send(ctx, []string{address}, subject, body); err != nil {
			s.log.Warn("bill notice delivery failed",
				zap.String("bill_id", result.BillID),
				zap.Error(err),
			)
		}
	}()
}

// resolveTariff prefers the currently valid tariff for the utility and class
// pair, and falls back to the tariff pinned on the connection when the
// catalog has no active entry.
func (s *Service) resolveTariff(ctx context.Context, conn *connectiondomain.ServiceConnection, utility meterdomain.UtilityType, class customerdomain.CustomerClass, now time.Time) (*tariffdomain.Tariff, error) {
	tariff, err := s.tariffs.ActiveFor(ctx, utility, class, now)
	if err != nil {
		return nil, err
	}
	if tariff != nil {
		return tariff, nil
	}

	pinned, err := s.tariffs.GetByID(ctx, conn.TariffID.String())
	if err != nil {
		if errors.Is(err, tariffdomain.ErrNotFound) {
			return nil, domain.ErrTariffNotFound
		}
		return nil, err
	}
	return &pinned, nil
}

// buildLineItems emits rows in fixed order: consumption, fixed charge,
// installation charge, each only when positive. Late fee and previous
// balance are display-only and never persisted as line items.
func (s *Service) buildLineItems(bill *domain.Bill, card tariffdomain.RateCard, now time.Time) []domain.BillLineItem {
	var items []domain.BillLineItem
	line := 1

	if bill.ConsumptionCharge.IsPositive() {
		rate := decimal.Zero
		if card.Water != nil {
			rate = card.Water.FlatRate
		} else if bill.Consumption.IsPositive() {
			rate = bill.ConsumptionCharge.Div(bill.Consumption).Round(4)
		}
		items = append(items, domain.BillLineItem{
			ID:          s.genID.Generate(),
			BillID:      bill.ID,
			LineNumber:  line,
			Description: format.ConsumptionDescription(bill.Utility),
			Quantity:    bill.Consumption,
			Rate:        rate,
			Amount:      bill.ConsumptionCharge,
			CreatedAt:   now,
		})
		line++
	}

	if bill.FixedCharges.IsPositive() {
		items = append(items, domain.BillLineItem{
			ID:          s.genID.Generate(),
			BillID:      bill.ID,
			LineNumber:  line,
			Description: "Fixed Charge",
			Quantity:    decimal.NewFromInt(1),
			Rate:        bill.FixedCharges,
			Amount:      bill.FixedCharges,
			CreatedAt:   now,
		})
		line++
	}

	if bill.InstallationCharge.IsPositive() {
		items = append(items, domain.BillLineItem{
			ID:          s.genID.Generate(),
			BillID:      bill.ID,
			LineNumber:  line,
			Description: "Installation Charge",
			Quantity:    decimal.NewFromInt(1),
			Rate:        bill.InstallationCharge,
			Amount:      bill.InstallationCharge,
			CreatedAt:   now,
		})
	}

	return items
}

func (s *Service) List(ctx context.Context, req domain.ListBillRequest) ([]*domain.Bill, *pagination.PageInfo, error) {
	filter := domain.ListBillFilter{
		Status:     domain.BillStatus(strings.TrimSpace(req.Status)),
		Pagination: req.Pagination,
	}
	if customerID := strings.TrimSpace(req.CustomerID); customerID != "" {
		id, err := snowflake.ParseString(customerID)
		if err != nil {
			return nil, nil, domain.ErrInvalidID
		}
		filter.CustomerID = id
	}
	if meterID := strings.TrimSpace(req.MeterID); meterID != "" {
		id, err := snowflake.ParseString(meterID)
		if err != nil {
			return nil, nil, domain.ErrInvalidID
		}
		filter.MeterID = id
	}
	if filter.Pagination.PageSize <= 0 {
		filter.Pagination.PageSize = 50
	}

	bills, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, nil, err
	}

	data, pageInfo := pagination.BuildCursorPageInfo(bills, filter.Pagination.PageSize, func(b *domain.Bill) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        b.ID.String(),
			CreatedAt: b.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	return data, pageInfo, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Bill, []domain.BillLineItem, error) {
	billID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.Bill{}, nil, domain.ErrInvalidID
	}

	bill, err := s.repo.FindByID(ctx, s.db, billID)
	if err != nil {
		return domain.Bill{}, nil, err
	}
	if bill == nil {
		return domain.Bill{}, nil, domain.ErrNotFound
	}

	items, err := s.repo.FindLineItems(ctx, s.db, billID)
	if err != nil {
		return domain.Bill{}, nil, err
	}
	return *bill, items, nil
}

func (s *Service) Present(ctx context.Context, id string) (domain.BillResult, error) {
	bill, items, err := s.GetByID(ctx, id)
	if err != nil {
		return domain.BillResult{}, err
	}

	customer, err := s.customers.FindByID(ctx, s.db, bill.CustomerID)
	if err != nil {
		return domain.BillResult{}, err
	}
	if customer == nil {
		return domain.BillResult{}, domain.ErrCustomerNotFound
	}

	meter, err := s.meters.FindByID(ctx, s.db, bill.MeterID)
	if err != nil {
		return domain.BillResult{}, err
	}
	if meter == nil {
		return domain.BillResult{}, domain.ErrMeterNotFound
	}

	return format.BuildResult(s.billing.Get(), &bill, items, customer, meter), nil
}

func parseGenerateRequest(req domain.GenerateBillRequest) (snowflake.ID, snowflake.ID, error) {
	customerRaw := strings.TrimSpace(req.CustomerID)
	connectionRaw := strings.TrimSpace(req.ConnectionID)
	if customerRaw == "" || connectionRaw == "" || req.PeriodFrom.IsZero() || req.PeriodTo.IsZero() {
		return 0, 0, domain.ErrInvalidInput
	}
	if !req.PeriodTo.After(req.PeriodFrom) {
		return 0, 0, domain.ErrInvalidInput
	}

	customerID, err := snowflake.ParseString(customerRaw)
	if err != nil {
		return 0, 0, domain.ErrInvalidInput
	}
	connectionID, err := snowflake.ParseString(connectionRaw)
	if err != nil {
		return 0, 0, domain.ErrInvalidInput
	}
	return customerID, connectionID, nil
}
