package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/gridsmith/meterbill/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListMeterFilter struct {
	Serial  string
	Utility UtilityType
	Status  MeterStatus
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, meter *Meter) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Meter, error)
	List(ctx context.Context, db *gorm.DB, filter ListMeterFilter, page pagination.Pagination) ([]*Meter, error)
}
