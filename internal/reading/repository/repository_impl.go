package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gridsmith/meterbill/internal/reading/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, reading *domain.MeterReading) error {
	return db.WithContext(ctx).Create(reading).Error
}

func (r *repo) LatestOnOrBefore(ctx context.Context, db *gorm.DB, meterID snowflake.ID, date time.Time) (*domain.MeterReading, error) {
	var reading domain.MeterReading
	err := db.WithContext(ctx).
		Where("meter_id = ? AND reading_date <= ?", meterID, date).
		Order("reading_date desc").
		First(&reading).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reading, nil
}

func (r *repo) Latest(ctx context.Context, db *gorm.DB, meterID snowflake.ID) (*domain.MeterReading, error) {
	var reading domain.MeterReading
	err := db.WithContext(ctx).
		Where("meter_id = ?", meterID).
		Order("reading_date desc").
		First(&reading).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reading, nil
}

func (r *repo) ListByMeter(ctx context.Context, db *gorm.DB, meterID snowflake.ID, from, to *time.Time, limit int) ([]domain.MeterReading, error) {
	var readings []domain.MeterReading
	stmt := db.WithContext(ctx).Where("meter_id = ?", meterID)
	if from != nil {
		stmt = stmt.Where("reading_date >= ?", *from)
	}
	if to != nil {
		stmt = stmt.Where("reading_date <= ?", *to)
	}
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}
	err := stmt.Order("reading_date desc").Find(&readings).Error
	if err != nil {
		return nil, err
	}
	return readings, nil
}
