package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/gridsmith/meterbill/internal/connection/domain"
	"github.com/gridsmith/meterbill/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, conn *domain.ServiceConnection) error {
	return db.WithContext(ctx).Create(conn).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.ServiceConnection, error) {
	var conn domain.ServiceConnection
	err := db.WithContext(ctx).First(&conn, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conn, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListConnectionFilter) ([]*domain.ServiceConnection, error) {
	var conns []*domain.ServiceConnection
	stmt := db.WithContext(ctx).Model(&domain.ServiceConnection{})
	if filter.CustomerID != 0 {
		stmt = stmt.Where("customer_id = ?", filter.CustomerID)
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
		Find(&conns).Error
	if err != nil {
		return nil, err
	}
	return conns, nil
}

func (r *repo) ActiveByMeter(ctx context.Context, db *gorm.DB, meterID snowflake.ID) (*domain.ServiceConnection, error) {
	var conn domain.ServiceConnection
	err := db.WithContext(ctx).
		Where("meter_id = ? AND status = ?", meterID, domain.ConnectionActive).
		First(&conn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conn, nil
}

func (r *repo) ListAllActive(ctx context.Context, db *gorm.DB) ([]*domain.ServiceConnection, error) {
	var conns []*domain.ServiceConnection
	err := db.WithContext(ctx).
		Where("status = ?", domain.ConnectionActive).
		Order("id asc").
		Find(&conns).Error
	if err != nil {
		return nil, err
	}
	return conns, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, conn *domain.ServiceConnection) error {
	return db.WithContext(ctx).Save(conn).Error
}
