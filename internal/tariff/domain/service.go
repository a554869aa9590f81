package domain

import (
	"context"
	"errors"
	"time"

	customerdomain "github.com/gridsmith/meterbill/internal/customer/domain"
	meterdomain "github.com/gridsmith/meterbill/internal/meter/domain"
	"github.com/shopspring/decimal"
)

// CreateTariffRequest carries the header plus exactly one payload matching
// the utility type.
type CreateTariffRequest struct {
	Name               string
	Utility            string
	Class              string
	ValidFrom          time.Time
	ValidTo            *time.Time
	InstallationCharge decimal.Decimal

	Electricity *ElectricitySlabs
	Water       *WaterRates
	Gas         *GasSlabs
}

type ElectricitySlabs struct {
	Slab1Max  decimal.Decimal
	Slab1Rate decimal.Decimal
	Slab2Max  decimal.Decimal
	Slab2Rate decimal.Decimal
	Slab3Rate decimal.Decimal
}

type WaterRates struct {
	FlatRate    decimal.Decimal
	FixedCharge decimal.Decimal
}

type GasSlabs struct {
	Slab1Max      decimal.Decimal
	Slab1Rate     decimal.Decimal
	Slab2Rate     decimal.Decimal
	SubsidyAmount decimal.Decimal
}

type ListTariffRequest struct {
	Utility string
	Class   string
	// ActiveAt filters to tariffs valid at the given instant.
	ActiveAt *time.Time
}

type Service interface {
	Create(ctx context.Context, req CreateTariffRequest) (Tariff, error)
	List(ctx context.Context, req ListTariffRequest) ([]Tariff, error)
	GetByID(ctx context.Context, id string) (Tariff, error)
	// ActiveFor returns the currently valid tariff for the utility/class
	// pair, preferring the most recently started one.
	ActiveFor(ctx context.Context, utility meterdomain.UtilityType, class customerdomain.CustomerClass, at time.Time) (*Tariff, error)
	// RateCardFor loads the utility-specific payload for a tariff. A missing
	// payload yields Matched=false, never an error.
	RateCardFor(ctx context.Context, tariff *Tariff) (RateCard, error)
}

var (
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidUtility   = errors.New("invalid_utility")
	ErrInvalidClass     = errors.New("invalid_class")
	ErrInvalidValidity  = errors.New("invalid_validity")
	ErrInvalidPayload   = errors.New("invalid_payload")
	ErrInvalidSlabOrder = errors.New("invalid_slab_order")
	ErrInvalidRate      = errors.New("invalid_rate")
	ErrInvalidID        = errors.New("invalid_id")
	ErrNotFound         = errors.New("not_found")
)
