package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/gridsmith/meterbill/internal/customer/domain"
	meterdomain "github.com/gridsmith/meterbill/internal/meter/domain"
	"github.com/gridsmith/meterbill/internal/tariff/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("tariff.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateTariffRequest) (domain.Tariff, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Tariff{}, domain.ErrInvalidName
	}

	utility := meterdomain.UtilityType(strings.TrimSpace(req.Utility))
	if !utility.Valid() {
		return domain.Tariff{}, domain.ErrInvalidUtility
	}

	class := customerdomain.CustomerClass(strings.TrimSpace(req.Class))
	if !class.Valid() {
		return domain.Tariff{}, domain.ErrInvalidClass
	}

	if req.ValidFrom.IsZero() {
		return domain.Tariff{}, domain.ErrInvalidValidity
	}
	if req.ValidTo != nil && !req.ValidTo.After(req.ValidFrom) {
		return domain.Tariff{}, domain.ErrInvalidValidity
	}
	if req.InstallationCharge.IsNegative() {
		return domain.Tariff{}, domain.ErrInvalidRate
	}

	if err := validatePayload(utility, req); err != nil {
		return domain.Tariff{}, err
	}

	now := time.Now().UTC()
	tariff := domain.Tariff{
		ID:                 s.genID.Generate(),
		Name:               name,
		Utility:            utility,
		Class:              class,
		ValidFrom:          req.ValidFrom.UTC(),
		ValidTo:            req.ValidTo,
		InstallationCharge: req.InstallationCharge.Round(2),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &tariff); err != nil {
			return err
		}
		switch utility {
		case meterdomain.UtilityElectricity:
			return s.repo.InsertElectricity(ctx, tx, &domain.ElectricityTariff{
				ID:        s.genID.Generate(),
				TariffID:  tariff.ID,
				Slab1Max:  req.Electricity.Slab1Max,
				Slab1Rate: req.Electricity.Slab1Rate,
				Slab2Max:  req.Electricity.Slab2Max,
				Slab2Rate: req.Electricity.Slab2Rate,
				Slab3Rate: req.Electricity.Slab3Rate,
				CreatedAt: now,
			})
		case meterdomain.UtilityWater:
			return s.repo.InsertWater(ctx, tx, &domain.WaterTariff{
				ID:          s.genID.Generate(),
				TariffID:    tariff.ID,
				FlatRate:    req.Water.FlatRate,
				FixedCharge: req.Water.FixedCharge,
				CreatedAt:   now,
			})
		case meterdomain.UtilityGas:
			return s.repo.InsertGas(ctx, tx, &domain.GasTariff{
				ID:            s.genID.Generate(),
				TariffID:      tariff.ID,
				Slab1Max:      req.Gas.Slab1Max,
				Slab1Rate:     req.Gas.Slab1Rate,
				Slab2Rate:     req.Gas.Slab2Rate,
				SubsidyAmount: req.Gas.SubsidyAmount,
				CreatedAt:     now,
			})
		}
		return domain.ErrInvalidUtility
	})
	if err != nil {
		return domain.Tariff{}, err
	}

	return tariff, nil
}

func (s *Service) List(ctx context.Context, req domain.ListTariffRequest) ([]domain.Tariff, error) {
	return s.repo.List(ctx, s.db, domain.ListTariffFilter{
		Utility:  meterdomain.UtilityType(strings.TrimSpace(req.Utility)),
		Class:    customerdomain.CustomerClass(strings.TrimSpace(req.Class)),
		ActiveAt: req.ActiveAt,
	})
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Tariff, error) {
	tariffID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.Tariff{}, domain.ErrInvalidID
	}

	tariff, err := s.repo.FindByID(ctx, s.db, tariffID)
	if err != nil {
		return domain.Tariff{}, err
	}
	if tariff == nil {
		return domain.Tariff{}, domain.ErrNotFound
	}
	return *tariff, nil
}

func (s *Service) ActiveFor(ctx context.Context, utility meterdomain.UtilityType, class customerdomain.CustomerClass, at time.Time) (*domain.Tariff, error) {
	return s.repo.ActiveFor(ctx, s.db, utility, class, at)
}

func (s *Service) RateCardFor(ctx context.Context, tariff *domain.Tariff) (domain.RateCard, error) {
	card := domain.RateCard{Utility: tariff.Utility}

	switch tariff.Utility {
	case meterdomain.UtilityElectricity:
		payload, err := s.repo.FindElectricity(ctx, s.db, tariff.ID)
		if err != nil {
			return domain.RateCard{}, err
		}
		card.Electricity = payload
		card.Matched = payload != nil
	case meterdomain.UtilityWater:
		payload, err := s.repo.FindWater(ctx, s.db, tariff.ID)
		if err != nil {
			return domain.RateCard{}, err
		}
		card.Water = payload
		card.Matched = payload != nil
	case meterdomain.UtilityGas:
		payload, err := s.repo.FindGas(ctx, s.db, tariff.ID)
		if err != nil {
			return domain.RateCard{}, err
		}
		card.Gas = payload
		card.Matched = payload != nil
	}

	if !card.Matched {
		s.log.Warn("tariff payload missing, billing will proceed with zero charges",
			zap.String("tariff_id", tariff.ID.String()),
			zap.String("utility", string(tariff.Utility)),
		)
	}

	return card, nil
}

func validatePayload(utility meterdomain.UtilityType, req domain.CreateTariffRequest) error {
	switch utility {
	case meterdomain.UtilityElectricity:
		p := req.Electricity
		if p == nil || req.Water != nil || req.Gas != nil {
			return domain.ErrInvalidPayload
		}
		if p.Slab1Rate.IsNegative() || p.Slab2Rate.IsNegative() || p.Slab3Rate.IsNegative() {
			return domain.ErrInvalidRate
		}
		if !p.Slab1Max.IsPositive() || !p.Slab2Max.GreaterThan(p.Slab1Max) {
			return domain.ErrInvalidSlabOrder
		}
	case meterdomain.UtilityWater:
		p := req.Water
		if p == nil || req.Electricity != nil || req.Gas != nil {
			return domain.ErrInvalidPayload
		}
		if p.FlatRate.IsNegative() || p.FixedCharge.IsNegative() {
			return domain.ErrInvalidRate
		}
	case meterdomain.UtilityGas:
		p := req.Gas
		if p == nil || req.Electricity != nil || req.Water != nil {
			return domain.ErrInvalidPayload
		}
		if p.Slab1Rate.IsNegative() || p.Slab2Rate.IsNegative() || p.SubsidyAmount.IsNegative() {
			return domain.ErrInvalidRate
		}
		if !p.Slab1Max.IsPositive() {
			return domain.ErrInvalidSlabOrder
		}
	}
	return nil
}
