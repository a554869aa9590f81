package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/gridsmith/meterbill/internal/customer/domain"
	meterdomain "github.com/gridsmith/meterbill/internal/meter/domain"
	"gorm.io/gorm"
)

type ListTariffFilter struct {
	Utility  meterdomain.UtilityType
	Class    customerdomain.CustomerClass
	ActiveAt *time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, tariff *Tariff) error
	InsertElectricity(ctx context.Context, db *gorm.DB, payload *ElectricityTariff) error
	InsertWater(ctx context.Context, db *gorm.DB, payload *WaterTariff) error
	InsertGas(ctx context.Context, db *gorm.DB, payload *GasTariff) error

	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Tariff, error)
	List(ctx context.Context, db *gorm.DB, filter ListTariffFilter) ([]Tariff, error)
	// ActiveFor returns the most recently started tariff valid at the given
	// instant for the utility/class pair, or nil.
	ActiveFor(ctx context.Context, db *gorm.DB, utility meterdomain.UtilityType, class customerdomain.CustomerClass, at time.Time) (*Tariff, error)

	FindElectricity(ctx context.Context, db *gorm.DB, tariffID snowflake.ID) (*ElectricityTariff, error)
	FindWater(ctx context.Context, db *gorm.DB, tariffID snowflake.ID) (*WaterTariff, error)
	FindGas(ctx context.Context, db *gorm.DB, tariffID snowflake.ID) (*GasTariff, error)
}
