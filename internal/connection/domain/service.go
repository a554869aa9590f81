package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/gridsmith/meterbill/pkg/db/pagination"
)

type CreateConnectionRequest struct {
	CustomerID string
	MeterID    string
	TariffID   string
}

type ListConnectionRequest struct {
	CustomerID string
	Status     string
	Pagination pagination.Pagination
}

type Service interface {
	Create(ctx context.Context, req CreateConnectionRequest) (ServiceConnection, error)
	List(ctx context.Context, req ListConnectionRequest) ([]*ServiceConnection, *pagination.PageInfo, error)
	GetByID(ctx context.Context, id string) (ServiceConnection, error)
	// Disconnect marks the connection disconnected. Already disconnected
	// connections fail with ErrAlreadyDisconnected.
	Disconnect(ctx context.Context, id string) (ServiceConnection, error)
	// ActiveByMeter resolves the active connection serving a meter, or nil.
	ActiveByMeter(ctx context.Context, meterID snowflake.ID) (*ServiceConnection, error)
}

var (
	ErrInvalidID           = errors.New("invalid_id")
	ErrCustomerNotFound    = errors.New("customer_not_found")
	ErrMeterNotFound       = errors.New("meter_not_found")
	ErrTariffNotFound      = errors.New("tariff_not_found")
	ErrUtilityMismatch     = errors.New("utility_mismatch")
	ErrClassMismatch       = errors.New("class_mismatch")
	ErrMeterConnected      = errors.New("meter_already_connected")
	ErrAlreadyDisconnected = errors.New("already_disconnected")
	ErrNotFound            = errors.New("not_found")
)
