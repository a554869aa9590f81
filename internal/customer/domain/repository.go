package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/gridsmith/meterbill/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListCustomerFilter struct {
	Name  string
	Email string
	Class CustomerClass
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, customer *Customer) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Customer, error)
	List(ctx context.Context, db *gorm.DB, filter ListCustomerFilter, page pagination.Pagination) ([]*Customer, error)
	Update(ctx context.Context, db *gorm.DB, customer *Customer) error
}
