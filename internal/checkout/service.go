package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/pricing"
	"github.com/angelmondragon/storefront-backend/pkg/square"
)

const defaultGatewayTimeout = 10 * time.Second

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// PaymentGateway registers an order with the remote payment provider.
type PaymentGateway interface {
	RegisterOrder(ctx context.Context, in square.RegisterOrderInput) (square.RegisterOrderResult, error)
}

type pricer interface {
	Price(ctx context.Context, userID uuid.UUID, subtotal int64) (pricing.Totals, error)
}

// ProfileFinder resolves the profile of a user inside tx (nil means no tx).
type ProfileFinder interface {
	FindProfileTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*models.UserProfile, error)
}

type addressFinder interface {
	FindByPhone(ctx context.Context, tx *gorm.DB, profileID uuid.UUID, phone string) (*address.DTO, error)
}

// Service converts the active cart into an order.
type Service interface {
	Checkout(ctx context.Context, userID uuid.UUID, phone string) (*orders.OrderDTO, error)
}

// Options carries the non-collaborator settings of the checkout service.
type Options struct {
	Currency       string
	GatewayTimeout time.Duration
	MediaPrefix    string
}

type service struct {
	tx        txRunner
	carts     cart.CartRepository
	orders    orders.Repository
	profiles  ProfileFinder
	addresses addressFinder
	pricing   pricer
	gateway   PaymentGateway
	outbox    outbox.Emitter
	logg      *logger.Logger
	opts      Options
}

// NewService builds the checkout service.
func NewService(
	tx txRunner,
	carts cart.CartRepository,
	ordersRepo orders.Repository,
	profiles ProfileFinder,
	addresses addressFinder,
	prices pricer,
	gateway PaymentGateway,
	publisher outbox.Emitter,
	logg *logger.Logger,
	opts Options,
) (Service, error) {
	switch {
	case tx == nil:
		return nil, fmt.Errorf("tx runner required")
	case carts == nil:
		return nil, fmt.Errorf("cart repository required")
	case ordersRepo == nil:
		return nil, fmt.Errorf("orders repository required")
	case profiles == nil:
		return nil, fmt.Errorf("profile finder required")
	case addresses == nil:
		return nil, fmt.Errorf("address finder required")
	case prices == nil:
		return nil, fmt.Errorf("pricing calculator required")
	case gateway == nil:
		return nil, fmt.Errorf("payment gateway required")
	case publisher == nil:
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	if opts.GatewayTimeout <= 0 {
		opts.GatewayTimeout = defaultGatewayTimeout
	}
	if strings.TrimSpace(opts.Currency) == "" {
		opts.Currency = "INR"
	}
	return &service{
		tx:        tx,
		carts:     carts,
		orders:    ordersRepo,
		profiles:  profiles,
		addresses: addresses,
		pricing:   prices,
		gateway:   gateway,
		outbox:    publisher,
		logg:      logg,
		opts:      opts,
	}, nil
}

// Checkout snapshots the active cart into an order and registers it with the
// gateway. Every write, including the remote id, commits together or not at all.
func (s *service) Checkout(ctx context.Context, userID uuid.UUID, phone string) (*orders.OrderDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if address.NormalizePhone(phone) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	}

	var result *orders.OrderDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)

		lines, err := carts.ActiveLines(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}
		if len(lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
		}

		addr, err := s.shippingAddress(ctx, tx, userID, phone)
		if err != nil {
			return err
		}

		var cost int64
		for _, line := range lines {
			if line.Variant == nil {
				return pkgerrors.New(pkgerrors.CodeInternal, "cart line is missing its variant")
			}
			cost += line.Variant.Price * int64(line.Quantity)
		}
		totals, err := s.pricing.Price(ctx, userID, cost)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "price order")
		}
		if totals.Total <= 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order total must be positive")
		}

		order := &models.Order{
			UserID:    userID,
			AddressID: addr.ID,
			Cost:      totals.Subtotal,
			GST:       totals.GST,
			Shipping:  totals.Shipping,
			Currency:  s.opts.Currency,
			Status:    enums.OrderStatusProcessing,
			IsActive:  true,
		}
		if err := ordersRepo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}

		sold := make([]models.SoldProduct, 0, len(lines))
		consumed := make([]uuid.UUID, 0, len(lines))
		gatewayLines := make([]square.OrderLine, 0, len(lines))
		for _, line := range lines {
			sold = append(sold, models.SoldProduct{
				OrderID:    order.ID,
				VariantID:  line.VariantID,
				Price:      line.Variant.Price,
				Quantity:   line.Quantity,
				TotalPrice: line.Variant.Price * int64(line.Quantity),
			})
			consumed = append(consumed, line.ID)
			gatewayLines = append(gatewayLines, square.OrderLine{
				Name:      line.Variant.Name,
				Quantity:  line.Quantity,
				UnitPrice: line.Variant.Price,
			})
		}
		if err := ordersRepo.CreateSoldProducts(ctx, sold); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order lines")
		}
		if err := carts.DeactivateLines(ctx, consumed); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "consume cart lines")
		}

		remote, err := s.registerRemote(ctx, square.RegisterOrderInput{
			ReferenceID: order.ID,
			Amount:      totals.Total,
			Currency:    s.opts.Currency,
			Lines:       gatewayLines,
			GST:         totals.GST,
			Shipping:    totals.Shipping,
		})
		if err != nil {
			return err
		}
		if err := ordersRepo.SetRemoteOrderID(ctx, order.ID, remote.RemoteOrderID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store remote order id")
		}

		if err := s.emitOrderCreated(ctx, tx, order, remote.RemoteOrderID, sold); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue order.created")
		}

		stored, err := ordersRepo.FindForUser(ctx, userID, remote.RemoteOrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload order")
		}
		dto := orders.NewOrderDTO(stored, s.opts.MediaPrefix)
		result = &dto
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithOrderID(ctx, result.ReceiptID.String()), "checkout completed")
	return result, nil
}

func (s *service) shippingAddress(ctx context.Context, tx *gorm.DB, userID uuid.UUID, phone string) (*address.DTO, error) {
	profile, err := s.profiles.FindProfileTx(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipping address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load profile")
	}
	return s.addresses.FindByPhone(ctx, tx, profile.ID, phone)
}

func (s *service) registerRemote(ctx context.Context, in square.RegisterOrderInput) (square.RegisterOrderResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.opts.GatewayTimeout)
	defer cancel()

	res, err := s.gateway.RegisterOrder(callCtx, in)
	if err != nil {
		s.logg.Error(s.logg.WithOrderID(ctx, in.ReferenceID.String()), "payment gateway register failed", err)
		return square.RegisterOrderResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment gateway unavailable")
	}
	if strings.TrimSpace(res.RemoteOrderID) == "" {
		return square.RegisterOrderResult{}, pkgerrors.New(pkgerrors.CodeDependency, "payment gateway returned no order id")
	}
	return res, nil
}

func (s *service) emitOrderCreated(ctx context.Context, tx *gorm.DB, order *models.Order, remoteOrderID string, sold []models.SoldProduct) error {
	lines := make([]outbox.OrderLine, 0, len(sold))
	for _, line := range sold {
		lines = append(lines, outbox.OrderLine{VariantID: line.VariantID, Quantity: line.Quantity, Price: line.Price})
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{UserID: order.UserID},
		Data: outbox.OrderCreatedEvent{
			OrderID:       order.ID,
			UserID:        order.UserID,
			RemoteOrderID: remoteOrderID,
			Cost:          order.Cost,
			GST:           order.GST,
			Shipping:      order.Shipping,
			Currency:      order.Currency,
			Lines:         lines,
		},
	})
}
