package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gridsmith/meterbill/internal/connection/domain"
	customerdomain "github.com/gridsmith/meterbill/internal/customer/domain"
	meterdomain "github.com/gridsmith/meterbill/internal/meter/domain"
	tariffdomain "github.com/gridsmith/meterbill/internal/tariff/domain"
	"github.com/gridsmith/meterbill/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      domain.Repository
	Customers customerdomain.Repository
	Meters    meterdomain.Repository
	Tariffs   tariffdomain.Repository
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      domain.Repository
	customers customerdomain.Repository
	meters    meterdomain.Repository
	tariffs   tariffdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("connection.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		customers: p.Customers,
		meters:    p.Meters,
		tariffs:   p.Tariffs,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateConnectionRequest) (domain.ServiceConnection, error) {
	customerID, err := snowflake.ParseString(strings.TrimSpace(req.CustomerID))
	if err != nil {
		return domain.ServiceConnection{}, domain.ErrInvalidID
	}
	meterID, err := snowflake.ParseString(strings.TrimSpace(req.MeterID))
	if err != nil {
		return domain.ServiceConnection{}, domain.ErrInvalidID
	}
	tariffID, err := snowflake.ParseString(strings.TrimSpace(req.TariffID))
	if err != nil {
		return domain.ServiceConnection{}, domain.ErrInvalidID
	}

	customer, err := s.customers.FindByID(ctx, s.db, customerID)
	if err != nil {
		return domain.ServiceConnection{}, err
	}
	if customer == nil {
		return domain.ServiceConnection{}, domain.ErrCustomerNotFound
	}

	meter, err := s.meters.FindByID(ctx, s.db, meterID)
	if err != nil {
		return domain.ServiceConnection{}, err
	}
	if meter == nil {
		return domain.ServiceConnection{}, domain.ErrMeterNotFound
	}

	tariff, err := s.tariffs.FindByID(ctx, s.db, tariffID)
	if err != nil {
		return domain.ServiceConnection{}, err
	}
	if tariff == nil {
		return domain.ServiceConnection{}, domain.ErrTariffNotFound
	}

	if tariff.Utility != meter.Utility {
		return domain.ServiceConnection{}, domain.ErrUtilityMismatch
	}
	if tariff.Class != customer.Class {
		return domain.ServiceConnection{}, domain.ErrClassMismatch
	}

	existing, err := s.repo.ActiveByMeter(ctx, s.db, meterID)
	if err != nil {
		return domain.ServiceConnection{}, err
	}
	if existing != nil {
		return domain.ServiceConnection{}, domain.ErrMeterConnected
	}

	now := time.Now().UTC()
	conn := domain.ServiceConnection{
		ID:          s.genID.Generate(),
		CustomerID:  customerID,
		MeterID:     meterID,
		TariffID:    tariffID,
		Status:      domain.ConnectionActive,
		ConnectedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, s.db, &conn); err != nil {
		return domain.ServiceConnection{}, err
	}

	s.log.Info("service connection created",
		zap.String("connection_id", conn.ID.String()),
		zap.String("customer_id", customerID.String()),
		zap.String("meter_id", meterID.String()),
		zap.String("tariff_id", tariffID.String()),
	)

	return conn, nil
}

func (s *Service) List(ctx context.Context, req domain.ListConnectionRequest) ([]*domain.ServiceConnection, *pagination.PageInfo, error) {
	filter := domain.ListConnectionFilter{
		Status:     domain.ConnectionStatus(strings.TrimSpace(req.Status)),
		Pagination: req.Pagination,
	}
	if customerID := strings.TrimSpace(req.CustomerID); customerID != "" {
		id, err := snowflake.ParseString(customerID)
		if err != nil {
			return nil, nil, domain.ErrInvalidID
		}
		filter.CustomerID = id
	}
	if filter.Pagination.PageSize <= 0 {
		filter.Pagination.PageSize = 50
	}

	conns, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, nil, err
	}

	data, pageInfo := pagination.BuildCursorPageInfo(conns, filter.Pagination.PageSize, func(c *domain.ServiceConnection) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        c.ID.String(),
			CreatedAt: c.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	return data, pageInfo, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.ServiceConnection, error) {
	connID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.ServiceConnection{}, domain.ErrInvalidID
	}

	conn, err := s.repo.FindByID(ctx, s.db, connID)
	if err != nil {
		return domain.ServiceConnection{}, err
	}
	if conn == nil {
		return domain.ServiceConnection{}, domain.ErrNotFound
	}
	return *conn, nil
}

func (s *Service) Disconnect(ctx context.Context, id string) (domain.ServiceConnection, error) {
	connID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.ServiceConnection{}, domain.ErrInvalidID
	}

	conn, err := s.repo.FindByID(ctx, s.db, connID)
	if err != nil {
		return domain.ServiceConnection{}, err
	}
	if conn == nil {
		return domain.ServiceConnection{}, domain.ErrNotFound
	}
	if conn.Status == domain.ConnectionDisconnected {
		return domain.ServiceConnection{}, domain.ErrAlreadyDisconnected
	}

	now := time.Now().UTC()
	conn.Status = domain.ConnectionDisconnected
	conn.DisconnectedAt = &now
	conn.UpdatedAt = now
	if err := s.repo.Update(ctx, s.db, conn); err != nil {
		return domain.ServiceConnection{}, err
	}

	s.log.Info("service connection disconnected",
		zap.String("connection_id", conn.ID.String()),
		zap.String("meter_id", conn.MeterID.String()),
	)

	return *conn, nil
}

func (s *Service) ActiveByMeter(ctx context.Context, meterID snowflake.ID) (*domain.ServiceConnection, error) {
	return s.repo.ActiveByMeter(ctx, s.db, meterID)
}
