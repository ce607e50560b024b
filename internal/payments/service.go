package payments

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/square"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ConfirmInput is the payment callback posted by the hosted checkout page.
type ConfirmInput struct {
	RemoteOrderID   string `json:"remote_order_id" validate:"required,max=255"`
	RemotePaymentID string `json:"remote_payment_id" validate:"required,max=255"`
	Signature       string `json:"signature" validate:"omitempty,max=255"`
	CallbackOrderID string `json:"callback_order_id" validate:"omitempty,max=255"`
}

type ServiceParams struct {
	Orders            orders.Repository
	TransactionRunner txRunner
	Outbox            outbox.Emitter
	Logger            *logger.Logger
	// SignatureSecret enables HMAC verification of confirmations when set.
	SignatureSecret string
	MediaPrefix     string
	Now             func() time.Time
}

type Service struct {
	orders      orders.Repository
	tx          txRunner
	outbox      outbox.Emitter
	logg        *logger.Logger
	secret      string
	mediaPrefix string
	now         func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repo required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "outbox emitter required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		orders:      params.Orders,
		tx:          params.TransactionRunner,
		outbox:      params.Outbox,
		logg:        logg,
		secret:      params.SignatureSecret,
		mediaPrefix: params.MediaPrefix,
		now:         now,
	}, nil
}

// Confirm records a gateway payment against an order and marks it Paid.
// Repeating a confirmation with the same payment id returns the order as is.
func (s *Service) Confirm(ctx context.Context, in ConfirmInput) (*orders.OrderDTO, error) {
	in.RemoteOrderID = strings.TrimSpace(in.RemoteOrderID)
	in.RemotePaymentID = strings.TrimSpace(in.RemotePaymentID)
	if in.RemoteOrderID == "" || in.RemotePaymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "remote_order_id and remote_payment_id are required")
	}
	ctx = s.logg.WithField(ctx, "remote_order_id", in.RemoteOrderID)

	if s.secret != "" {
		if !square.VerifyPaymentSignature(s.secret, in.RemoteOrderID, in.RemotePaymentID, in.Signature) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid payment signature")
		}
	} else {
		s.logg.Warn(ctx, "payment signature secret not configured; trusting client payment fields")
	}

	var result *orders.OrderDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		order, err := repo.FindByRemoteID(ctx, in.RemoteOrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}

		if !order.IsPaid {
			paidAt := s.now().UTC()
			changed, err := repo.MarkPaid(ctx, order.ID, orders.PaymentFields{
				RemotePaymentID:       in.RemotePaymentID,
				RemoteSignature:       in.Signature,
				RemoteCallbackOrderID: in.CallbackOrderID,
				PaidAt:                paidAt,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark order paid")
			}
			if changed {
				if err := s.emitOrderPaid(ctx, tx, order, in.RemotePaymentID, paidAt); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue order.paid")
				}
			}
			if order, err = repo.FindByRemoteID(ctx, in.RemoteOrderID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload order")
			}
		}

		if order.RemotePaymentID == nil || *order.RemotePaymentID != in.RemotePaymentID {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order already paid with a different payment")
		}
		dto := orders.NewOrderDTO(order, s.mediaPrefix)
		result = &dto
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithOrderID(ctx, result.ReceiptID.String()), "payment confirmed")
	return result, nil
}

func (s *Service) emitOrderPaid(ctx context.Context, tx *gorm.DB, order *models.Order, paymentID string, paidAt time.Time) error {
	remote := ""
	if order.RemoteOrderID != nil {
		remote = *order.RemoteOrderID
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderPaid,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{UserID: order.UserID},
		OccurredAt:    paidAt,
		Data: outbox.OrderPaidEvent{
			OrderID:         order.ID,
			UserID:          order.UserID,
			RemoteOrderID:   remote,
			RemotePaymentID: paymentID,
			PaidAt:          paidAt,
		},
	})
}
