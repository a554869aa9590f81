package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gridsmith/meterbill/internal/meter/domain"
	"github.com/gridsmith/meterbill/pkg/db"
	"github.com/gridsmith/meterbill/pkg/db/pagination"
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
		log:   p.Log.Named("meter.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateMeterRequest) (domain.Meter, error) {
	serial := strings.TrimSpace(req.Serial)
	if serial == "" {
		return domain.Meter{}, domain.ErrInvalidSerial
	}

	utility := domain.UtilityType(strings.TrimSpace(req.Utility))
	if !utility.Valid() {
		return domain.Meter{}, domain.ErrInvalidUtility
	}

	now := time.Now().UTC()
	installedAt := now
	if req.InstalledAt != nil {
		installedAt = req.InstalledAt.UTC()
	}

	meter := domain.Meter{
		ID:          s.genID.Generate(),
		Serial:      serial,
		Utility:     utility,
		Status:      domain.MeterStatusActive,
		InstalledAt: installedAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Insert(ctx, s.db, &meter); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Meter{}, domain.ErrSerialTaken
		}
		return domain.Meter{}, err
	}

	return meter, nil
}

func (s *Service) List(ctx context.Context, req domain.ListMeterRequest) (domain.ListMeterResponse, error) {
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, domain.ListMeterFilter{
		Serial:  strings.TrimSpace(req.Serial),
		Utility: domain.UtilityType(strings.TrimSpace(req.Utility)),
		Status:  domain.MeterStatus(strings.TrimSpace(req.Status)),
	}, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListMeterResponse{}, err
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(meter *domain.Meter) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        meter.ID.String(),
			CreatedAt: meter.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})

	meters := make([]domain.Meter, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		meters = append(meters, *item)
	}

	return domain.ListMeterResponse{
		PageInfo: *pageInfo,
		Meters:   meters,
	}, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Meter, error) {
	meterID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.Meter{}, domain.ErrInvalidID
	}

	meter, err := s.repo.FindByID(ctx, s.db, meterID)
	if err != nil {
		return domain.Meter{}, err
	}
	if meter == nil {
		return domain.Meter{}, domain.ErrNotFound
	}
	return *meter, nil
}
