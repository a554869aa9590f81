package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gridsmith/meterbill/internal/billing/domain"
	"github.com/gridsmith/meterbill/pkg/db/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertBill(ctx context.Context, db *gorm.DB, bill *domain.Bill, items []domain.BillLineItem) error {
	if err := db.WithContext(ctx).Create(bill).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&items).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Bill, error) {
	var bill domain.Bill
	err := db.WithContext(ctx).First(&bill, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bill, nil
}

func (r *repo) FindLineItems(ctx context.Context, db *gorm.DB, billID snowflake.ID) ([]domain.BillLineItem, error) {
	var items []domain.BillLineItem
	err := db.WithContext(ctx).
		Where("bill_id = ?", billID).
		Order("line_number asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListBillFilter) ([]*domain.Bill, error) {
	var bills []*domain.Bill
	stmt := db.WithContext(ctx).Model(&domain.Bill{})
	if filter.CustomerID != 0 {
		stmt = stmt.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.MeterID != 0 {
		stmt = stmt.Where("meter_id = ?", filter.MeterID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.Pagination.PageToken != "" {
		cursor, err := pagination.DecodeCursor(filter.Pagination.PageToken)
		if err != nil {
			return nil, err
		}
		createdAt, id, err := cursor.Keys()
		if err != nil {
			return nil, err
		}
		stmt = stmt.Where("(created_at, id) < (?, ?)", createdAt, id)
	}
	err := stmt.
		Order("created_at desc, id desc").
		Limit(filter.Pagination.PageSize + 1).
		Find(&bills).Error
	if err != nil {
		return nil, err
	}
	return bills, nil
}

func (r *repo) LatestUnpaidTotal(ctx context.Context, db *gorm.DB, meterID snowflake.ID) (decimal.Decimal, error) {
	var bill domain.Bill
	err := db.WithContext(ctx).
		Where("meter_id = ? AND status = ?", meterID, domain.BillUnpaid).
		Order("issue_date desc, id desc").
		First(&bill).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return bill.TotalAmount, nil
}

func (r *repo) CountForMeter(ctx context.Context, db *gorm.DB, meterID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Bill{}).
		Where("meter_id = ?", meterID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repo) ExistsForConnectionPeriod(ctx context.Context, db *gorm.DB, connectionID snowflake.ID, periodStart time.Time) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Bill{}).
		Where("connection_id = ? AND period_start = ?", connectionID, periodStart).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, bill *domain.Bill) error {
	return db.WithContext(ctx).Save(bill).Error
}
