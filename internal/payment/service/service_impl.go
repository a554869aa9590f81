package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/gridsmith/meterbill/internal/billing/domain"
	"github.com/gridsmith/meterbill/internal/clock"
	"github.com/gridsmith/meterbill/internal/observability/metrics"
	"github.com/gridsmith/meterbill/internal/payment/domain"
	"github.com/oklog/ulid/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Bills   billingdomain.Repository
	Metrics *metrics.Domain `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	bills   billingdomain.Repository
	metrics *metrics.Domain
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("payment.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		bills:   p.Bills,
		metrics: p.Metrics,
	}
}

func (s *Service) Record(ctx context.Context, req domain.RecordPaymentRequest) (domain.Payment, error) {
	billID, err := snowflake.ParseString(strings.TrimSpace(req.BillID))
	if err != nil {
		return domain.Payment{}, domain.ErrInvalidID
	}
	method := domain.PaymentMethod(strings.TrimSpace(req.Method))
	if !method.Valid() {
		return domain.Payment{}, domain.ErrInvalidMethod
	}
	if req.Amount.IsNegative() {
		return domain.Payment{}, domain.ErrInvalidAmount
	}

	now := s.clock.Now()
	payment := domain.Payment{
		ID:            s.genID.Generate(),
		BillID:        billID,
		Method:        method,
		ReceiptNumber: ulid.Make().String(),
		PaidAt:        now,
		CreatedAt:     now,
	}

	// Settling the bill and inserting the payment commit or roll back
	// together; a payment row must never exist against an unpaid bill.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bill, err := s.bills.FindByID(ctx, tx, billID)
		if err != nil {
			return err
		}
		if bill == nil {
			return domain.ErrBillNotFound
		}
		if bill.Status == billingdomain.BillPaid {
			return domain.ErrAlreadyPaid
		}
		// Bills settle in full. A partial or over-payment is a caller error,
		// not something to absorb silently.
		if !req.Amount.Equal(bill.TotalAmount) {
			return domain.ErrAmountMismatch
		}

		payment.CustomerID = bill.CustomerID
		payment.Amount = bill.TotalAmount

		if err := s.repo.Insert(ctx, tx, &payment); err != nil {
			return err
		}

		bill.Status = billingdomain.BillPaid
		bill.PaidAt = &now
		bill.UpdatedAt = now
		return s.bills.Update(ctx, tx, bill)
	})
	if err != nil {
		return domain.Payment{}, err
	}

	if s.metrics != nil {
		s.metrics.PaymentsRecorded.Inc()
	}
	s.log.Info("payment recorded",
		zap.String("payment_id", payment.ID.String()),
		zap.String("bill_id", billID.String()),
		zap.String("receipt_number", payment.ReceiptNumber),
		zap.String("amount", payment.Amount.StringFixed(2)),
	)

	return payment, nil
}

func (s *Service) ListByBill(ctx context.Context, billID string) ([]domain.Payment, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(billID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	return s.repo.ListByBill(ctx, s.db, id)
}
