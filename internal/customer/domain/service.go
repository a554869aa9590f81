package domain

import (
	"context"
	"errors"

	"github.com/gridsmith/meterbill/pkg/db/pagination"
)

type CreateCustomerRequest struct {
	Name    string
	Email   string
	Phone   string
	Address string
	Class   string
}

type UpdateCustomerRequest struct {
	Name    *string
	Phone   *string
	Address *string
	Status  *string
}

type ListCustomerRequest struct {
	PageToken string
	PageSize  int
	Name      string
	Email     string
	Class     string
}

type ListCustomerResponse struct {
	pagination.PageInfo
	Customers []Customer `json:"customers"`
}

type Service interface {
	Create(ctx context.Context, req CreateCustomerRequest) (Customer, error)
	List(ctx context.Context, req ListCustomerRequest) (ListCustomerResponse, error)
	GetByID(ctx context.Context, id string) (Customer, error)
	Update(ctx context.Context, id string, req UpdateCustomerRequest) (Customer, error)
}

var (
	ErrInvalidName    = errors.New("invalid_name")
	ErrInvalidEmail   = errors.New("invalid_email")
	ErrInvalidAddress = errors.New("invalid_address")
	ErrInvalidClass   = errors.New("invalid_class")
	ErrInvalidStatus  = errors.New("invalid_status")
	ErrInvalidID      = errors.New("invalid_id")
	ErrEmailTaken     = errors.New("email_taken")
	ErrNotFound       = errors.New("not_found")
)
