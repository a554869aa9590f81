package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/gridsmith/meterbill/internal/meter/domain"
	"github.com/gridsmith/meterbill/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, meter *domain.Meter) error {
	return db.WithContext(ctx).Create(meter).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Meter, error) {
	var meter domain.Meter
	err := db.WithContext(ctx).First(&meter, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &meter, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListMeterFilter, page pagination.Pagination) ([]*domain.Meter, error) {
	var meters []*domain.Meter
	stmt := db.WithContext(ctx).Model(&domain.Meter{})
	if filter.Serial != "" {
		stmt = stmt.Where("serial = ?", filter.Serial)
	}
	if filter.Utility != "" {
		stmt = stmt.Where("utility = ?", filter.Utility)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
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
		Limit(page.PageSize + 1).
		Find(&meters).Error
	if err != nil {
		return nil, err
	}
	return meters, nil
}
