package domain

import (
	"context"
	"errors"
	"time"

	"github.com/gridsmith/meterbill/pkg/db/pagination"
)

type CreateMeterRequest struct {
	Serial      string
	Utility     string
	InstalledAt *time.Time
}

type ListMeterRequest struct {
	PageToken string
	PageSize  int
	Serial    string
	Utility   string
	Status    string
}

type ListMeterResponse struct {
	pagination.PageInfo
	Meters []Meter `json:"meters"`
}

type Service interface {
	Create(ctx context.Context, req CreateMeterRequest) (Meter, error)
	List(ctx context.Context, req ListMeterRequest) (ListMeterResponse, error)
	GetByID(ctx context.Context, id string) (Meter, error)
}

var (
	ErrInvalidSerial  = errors.New("invalid_serial")
	ErrInvalidUtility = errors.New("invalid_utility")
	ErrInvalidID      = errors.New("invalid_id")
	ErrSerialTaken    = errors.New("serial_taken")
	ErrNotFound       = errors.New("not_found")
)
