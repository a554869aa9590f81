package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/gridsmith/meterbill/internal/customer/domain"
	meterdomain "github.com/gridsmith/meterbill/internal/meter/domain"
	"github.com/gridsmith/meterbill/internal/tariff/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, tariff *domain.Tariff) error {
	return db.WithContext(ctx).Create(tariff).Error
}

func (r *repo) InsertElectricity(ctx context.Context, db *gorm.DB, payload *domain.ElectricityTariff) error {
	return db.WithContext(ctx).Create(payload).Error
}

func (r *repo) InsertWater(ctx context.Context, db *gorm.DB, payload *domain.WaterTariff) error {
	return db.WithContext(ctx).Create(payload).Error
}

func (r *repo) InsertGas(ctx context.Context, db *gorm.DB, payload *domain.GasTariff) error {
	return db.WithContext(ctx).Create(payload).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Tariff, error) {
	var tariff domain.Tariff
	err := db.WithContext(ctx).First(&tariff, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tariff, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListTariffFilter) ([]domain.Tariff, error) {
	var tariffs []domain.Tariff
	stmt := db.WithContext(ctx).Model(&domain.Tariff{})
	if filter.Utility != "" {
		stmt = stmt.Where("utility = ?", filter.Utility)
	}
	if filter.Class != "" {
		stmt = stmt.Where("class = ?", filter.Class)
	}
	if filter.ActiveAt != nil {
		stmt = stmt.
			Where("valid_from <= ?", *filter.ActiveAt).
			Where("valid_to IS NULL OR valid_to >= ?", *filter.ActiveAt)
	}
	err := stmt.Order("valid_from desc, id desc").Find(&tariffs).Error
	if err != nil {
		return nil, err
	}
	return tariffs, nil
}

func (r *repo) ActiveFor(ctx context.Context, db *gorm.DB, utility meterdomain.UtilityType, class customerdomain.CustomerClass, at time.Time) (*domain.Tariff, error) {
	var tariff domain.Tariff
	err := db.WithContext(ctx).
		Where("utility = ? AND class = ?", utility, class).
		Where("valid_from <= ?", at).
		Where("valid_to IS NULL OR valid_to >= ?", at).
		Order("valid_from desc, id desc").
		First(&tariff).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tariff, nil
}

func (r *repo) FindElectricity(ctx context.Context, db *gorm.DB, tariffID snowflake.ID) (*domain.ElectricityTariff, error) {
	var payload domain.ElectricityTariff
	err := db.WithContext(ctx).First(&payload, "tariff_id = ?", tariffID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payload, nil
}

func (r *repo) FindWater(ctx context.Context, db *gorm.DB, tariffID snowflake.ID) (*domain.WaterTariff, error) {
	var payload domain.WaterTariff
	err := db.WithContext(ctx).First(&payload, "tariff_id = ?", tariffID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payload, nil
}

func (r *repo) FindGas(ctx context.Context, db *gorm.DB, tariffID snowflake.ID) (*domain.GasTariff, error) {
	var payload domain.GasTariff
	err := db.WithContext(ctx).First(&payload, "tariff_id = ?", tariffID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payload, nil
}
