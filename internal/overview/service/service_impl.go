package service

import (
	"context"

	billingdomain "github.com/gridsmith/meterbill/internal/billing/domain"
	"github.com/gridsmith/meterbill/internal/clock"
	connectiondomain "github.com/gridsmith/meterbill/internal/connection/domain"
	"github.com/gridsmith/meterbill/internal/config"
	customerdomain "github.com/gridsmith/meterbill/internal/customer/domain"
	meterdomain "github.com/gridsmith/meterbill/internal/meter/domain"
	"github.com/gridsmith/meterbill/internal/overview/domain"
	paymentdomain "github.com/gridsmith/meterbill/internal/payment/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Billing *config.BillingConfigHolder
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	billing *config.BillingConfigHolder
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("overview.service"),
		clock:   p.Clock,
		billing: p.Billing,
	}
}

type sumRow struct {
	Total decimal.Decimal
	Count int64
}

type utilityRow struct {
	Utility string
	Count   int64
	Total   decimal.Decimal
}

func (s *Service) Summary(ctx context.Context) (domain.Overview, error) {
	var out domain.Overview

	if err := s.db.WithContext(ctx).Model(&customerdomain.Customer{}).Count(&out.Customers).Error; err != nil {
		return domain.Overview{}, err
	}
	if err := s.db.WithContext(ctx).Model(&meterdomain.Meter{}).Count(&out.Meters).Error; err != nil {
		return domain.Overview{}, err
	}
	if err := s.db.WithContext(ctx).
		Model(&connectiondomain.ServiceConnection{}).
		Where("status = ?", connectiondomain.ConnectionActive).
		Count(&out.ActiveConnections).Error; err != nil {
		return domain.Overview{}, err
	}

	var billed sumRow
	if err := s.db.WithContext(ctx).
		Model(&billingdomain.Bill{}).
		Select("COALESCE(SUM(total_amount), 0) AS total, COUNT(*) AS count").
		Scan(&billed).Error; err != nil {
		return domain.Overview{}, err
	}
	out.BillsTotal = billed.Count
	out.TotalBilled = billed.Total

	var unpaid sumRow
	if err := s.db.WithContext(ctx).
		Model(&billingdomain.Bill{}).
		Select("COALESCE(SUM(total_amount), 0) AS total, COUNT(*) AS count").
		Where("status = ?", billingdomain.BillUnpaid).
		Scan(&unpaid).Error; err != nil {
		return domain.Overview{}, err
	}
	out.BillsUnpaid = unpaid.Count
	out.TotalOutstanding = unpaid.Total

	var collected sumRow
	if err := s.db.WithContext(ctx).
		Model(&paymentdomain.Payment{}).
		Select("COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Scan(&collected).Error; err != nil {
		return domain.Overview{}, err
	}
	out.TotalCollected = collected.Total

	var byUtility []utilityRow
	if err := s.db.WithContext(ctx).
		Model(&billingdomain.Bill{}).
		Select("utility, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS total").
		Group("utility").
		Order("utility").
		Scan(&byUtility).Error; err != nil {
		return domain.Overview{}, err
	}
	for _, row := range byUtility {
		out.ByUtility = append(out.ByUtility, domain.UtilitySlice{
			Utility: row.Utility,
			Bills:   row.Count,
			Billed:  row.Total,
		})
	}

	receivables, err := s.agingBuckets(ctx)
	if err != nil {
		return domain.Overview{}, err
	}
	out.Receivables = receivables

	return out, nil
}

// agingBuckets groups unpaid bills by days past due according to the
// configured bucket boundaries.
func (s *Service) agingBuckets(ctx context.Context) ([]domain.AgingSlice, error) {
	now := s.clock.Now()
	cfg := s.billing.Get()

	slices := make([]domain.AgingSlice, 0, len(cfg.AgingBuckets))
	for _, bucket := range cfg.AgingBuckets {
		// Bills overdue by at least MinDays were due MinDays or more ago.
		upper := now.AddDate(0, 0, -bucket.MinDays)
		stmt := s.db.WithContext(ctx).
			Model(&billingdomain.Bill{}).
			Select("COALESCE(SUM(total_amount), 0) AS total, COUNT(*) AS count").
			Where("status = ?", billingdomain.BillUnpaid).
			Where("due_date <= ?", upper)
		if bucket.MaxDays != nil {
			lower := now.AddDate(0, 0, -*bucket.MaxDays)
			stmt = stmt.Where("due_date > ?", lower)
		}

		var row sumRow
		if err := stmt.Scan(&row).Error; err != nil {
			return nil, err
		}
		slices = append(slices, domain.AgingSlice{
			Label:  bucket.Label,
			Count:  row.Count,
			Amount: row.Total,
		})
	}
	return slices, nil
}
