package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/pricing"
	"github.com/angelmondragon/storefront-backend/pkg/square"
)

type stubGateway struct {
	calls int
	last  square.RegisterOrderInput
	err   error
}

func (g *stubGateway) RegisterOrder(ctx context.Context, in square.RegisterOrderInput) (square.RegisterOrderResult, error) {
	g.calls++
	g.last = in
	if _, ok := ctx.Deadline(); !ok {
		return square.RegisterOrderResult{}, errors.New("gateway call has no deadline")
	}
	if g.err != nil {
		return square.RegisterOrderResult{}, g.err
	}
	return square.RegisterOrderResult{RemoteOrderID: "sq_" + in.ReferenceID.String()[:8]}, nil
}

type checkoutHarness struct {
	db      *gorm.DB
	svc     Service
	gateway *stubGateway
	outbox  *outbox.Repository
	user    *models.User
	variant models.ProductVariant
}

const phone = "9800000000"

func newCheckoutHarness(t *testing.T, withAddress bool) checkoutHarness {
	t.Helper()
	conn := dbtest.Open(t)
	ctx := context.Background()

	usersRepo := users.NewRepository(conn)
	user, profile, err := usersRepo.GetOrCreate(ctx, phone)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	addrSvc, err := address.NewService(address.NewRepository(conn))
	if err != nil {
		t.Fatalf("address service: %v", err)
	}
	if withAddress {
		_, err := addrSvc.Upsert(ctx, nil, profile.ID, address.Input{
			POCName: "Kiran", Phone: phone, Line1: "7 Park St", City: "Kolkata", State: "WB", Pin: 700016,
		})
		if err != nil {
			t.Fatalf("seed address: %v", err)
		}
	}

	variant := models.ProductVariant{ProductID: uuid.New(), CategoryID: uuid.New(), Name: "Teapot", Price: 1000, CurrentStock: 5, IsActive: true}
	if err := conn.Create(&variant).Error; err != nil {
		t.Fatalf("seed variant: %v", err)
	}

	calc, err := pricing.NewCalculator(config.PricingConfig{TaxRate: "0.18"}, pricing.FlatRateShipping{Fee: 200})
	if err != nil {
		t.Fatalf("calculator: %v", err)
	}
	gateway := &stubGateway{}
	outboxRepo := outbox.NewRepository(conn)
	svc, err := NewService(
		db.Wrap(conn),
		cart.NewRepository(conn),
		orders.NewRepository(conn),
		usersRepo,
		addrSvc,
		calc,
		gateway,
		outbox.NewService(outboxRepo, logger.Nop()),
		logger.Nop(),
		Options{Currency: "INR", GatewayTimeout: time.Second, MediaPrefix: "/media/"},
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return checkoutHarness{db: conn, svc: svc, gateway: gateway, outbox: outboxRepo, user: user, variant: variant}
}

func (h checkoutHarness) addToCart(t *testing.T, qty int) {
	t.Helper()
	line := models.CartItem{UserID: h.user.ID, VariantID: h.variant.ID, Quantity: qty, IsActive: true}
	if err := h.db.Create(&line).Error; err != nil {
		t.Fatalf("seed cart line: %v", err)
	}
}

func (h checkoutHarness) count(t *testing.T, model any, where string, args ...any) int64 {
	t.Helper()
	var n int64
	if err := h.db.Model(model).Where(where, args...).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestCheckoutCreatesOrderFromCart(t *testing.T) {
	h := newCheckoutHarness(t, true)
	h.addToCart(t, 2)

	order, err := h.svc.Checkout(context.Background(), h.user.ID, phone)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if order.Cost != 2000 || order.GST != 360 || order.Shipping != 200 || order.TotalCost != 2560 {
		t.Fatalf("unexpected totals %+v", order)
	}
	if order.Status != enums.OrderStatusProcessing.String() || order.IsPaid {
		t.Fatalf("expected unpaid processing order, got %+v", order)
	}
	if order.OrderID == nil || *order.OrderID == "" {
		t.Fatal("expected remote order id to be stored")
	}
	if len(order.SoldProducts) != 1 || order.SoldProducts[0].TotalPrice != 2000 || order.TotalQuantity != 2 {
		t.Fatalf("unexpected sold products %+v", order.SoldProducts)
	}
	if order.Address == nil || order.Address.Phone != phone {
		t.Fatalf("expected shipping address on order, got %+v", order.Address)
	}

	if h.gateway.last.Amount != 2560 || h.gateway.last.ReferenceID != order.ReceiptID {
		t.Fatalf("unexpected gateway input %+v", h.gateway.last)
	}
	if n := h.count(t, &models.CartItem{}, "user_id = ? AND is_active = ?", h.user.ID, true); n != 0 {
		t.Fatalf("expected cart lines consumed, %d still active", n)
	}

	events, err := h.outbox.ListForAggregate(enums.AggregateOrder, order.ReceiptID)
	if err != nil {
		t.Fatalf("list outbox: %v", err)
	}
	if len(events) != 1 || events[0].EventType != enums.EventOrderCreated {
		t.Fatalf("expected one order.created event, got %+v", events)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	h := newCheckoutHarness(t, true)

	_, err := h.svc.Checkout(context.Background(), h.user.ID, phone)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if h.gateway.calls != 0 {
		t.Fatal("gateway should not be called for an empty cart")
	}
	if n := h.count(t, &models.Order{}, "user_id = ?", h.user.ID); n != 0 {
		t.Fatalf("expected no orders, got %d", n)
	}
}

func TestCheckoutMissingAddress(t *testing.T) {
	h := newCheckoutHarness(t, false)
	h.addToCart(t, 1)

	_, err := h.svc.Checkout(context.Background(), h.user.ID, phone)
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	var typed *pkgerrors.Error
	if !errors.As(err, &typed) || typed.Message() != "shipping address not found" {
		t.Fatalf("unexpected error message: %v", err)
	}
}

func TestCheckoutGatewayFailureRollsBack(t *testing.T) {
	h := newCheckoutHarness(t, true)
	h.addToCart(t, 3)
	h.gateway.err = errors.New("square unavailable")

	_, err := h.svc.Checkout(context.Background(), h.user.ID, phone)
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if n := h.count(t, &models.Order{}, "user_id = ?", h.user.ID); n != 0 {
		t.Fatalf("expected rollback to leave no orders, got %d", n)
	}
	if n := h.count(t, &models.SoldProduct{}, "1 = 1"); n != 0 {
		t.Fatalf("expected no sold products, got %d", n)
	}
	if n := h.count(t, &models.CartItem{}, "user_id = ? AND is_active = ?", h.user.ID, true); n != 1 {
		t.Fatalf("expected cart line to stay active, got %d", n)
	}
	if n := h.count(t, &models.OutboxEvent{}, "1 = 1"); n != 0 {
		t.Fatalf("expected no outbox events, got %d", n)
	}
}

func TestCheckoutRequiresPhone(t *testing.T) {
	h := newCheckoutHarness(t, true)
	if _, err := h.svc.Checkout(context.Background(), h.user.ID, "  "); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCheckoutRejectsZeroTotal(t *testing.T) {
	h := newCheckoutHarness(t, true)
	if err := h.db.Model(&h.variant).Update("price", 0).Error; err != nil {
		t.Fatalf("zero price: %v", err)
	}
	h.addToCart(t, 2)

	_, err := h.svc.Checkout(context.Background(), h.user.ID, phone)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if h.gateway.calls != 0 {
		t.Fatal("gateway should not be called for a zero total")
	}
	if n := h.count(t, &models.Order{}, "user_id = ?", h.user.ID); n != 0 {
		t.Fatalf("expected no orders, got %d", n)
	}
}
