package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/gridsmith/meterbill/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListConnectionFilter struct {
	CustomerID snowflake.ID
	Status     ConnectionStatus
	Pagination pagination.Pagination
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, conn *ServiceConnection) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ServiceConnection, error)
	List(ctx context.Context, db *gorm.DB, filter ListConnectionFilter) ([]*ServiceConnection, error)
	// ActiveByMeter returns the active connection for a meter, or nil.
	ActiveByMeter(ctx context.Context, db *gorm.DB, meterID snowflake.ID) (*ServiceConnection, error)
	// ListAllActive returns every active connection. Used by the billing
	// scheduler, which walks the whole set once per cycle.
	ListAllActive(ctx context.Context, db *gorm.DB) ([]*ServiceConnection, error)
	Update(ctx context.Context, db *gorm.DB, conn *ServiceConnection) error
}
