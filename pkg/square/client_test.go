package square

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	sq "github.com/square/square-go-sdk"
	sqcore "github.com/square/square-go-sdk/core"
	sqoption "github.com/square/square-go-sdk/option"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type stubOrders struct {
	req  *sq.CreateOrderRequest
	resp *sq.CreateOrderResponse
	err  error
}

func (s *stubOrders) Create(_ context.Context, req *sq.CreateOrderRequest, _ ...sqoption.RequestOption) (*sq.CreateOrderResponse, error) {
	s.req = req
	return s.resp, s.err
}

func sampleInput() RegisterOrderInput {
	return RegisterOrderInput{
		ReferenceID: uuid.New(),
		Amount:      1380,
		Currency:    "INR",
		Lines:       []OrderLine{{Name: "Tee / M", Quantity: 2, UnitPrice: 500}},
		GST:         180,
		Shipping:    200,
	}
}

func TestNewClientValidation(t *testing.T) {
	ctx := context.Background()
	if _, err := NewClient(ctx, config.SquareConfig{AccessToken: "tok", LocationID: "loc"}, nil); !errors.Is(err, errLoggerRequired) {
		t.Fatalf("expected logger error, got %v", err)
	}
	if _, err := NewClient(ctx, config.SquareConfig{LocationID: "loc"}, logger.Nop()); !errors.Is(err, errAccessTokenRequired) {
		t.Fatalf("expected token error, got %v", err)
	}
	if _, err := NewClient(ctx, config.SquareConfig{AccessToken: "tok"}, logger.Nop()); !errors.Is(err, errLocationRequired) {
		t.Fatalf("expected location error, got %v", err)
	}
	if _, err := NewClient(ctx, config.SquareConfig{AccessToken: "tok", LocationID: "loc", Env: "staging"}, logger.Nop()); !errors.Is(err, errInvalidSquareEnv) {
		t.Fatalf("expected env error, got %v", err)
	}
	client, err := NewClient(ctx, config.SquareConfig{AccessToken: "tok", LocationID: "loc"}, logger.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.Environment() != sandboxEnv {
		t.Fatalf("expected sandbox, got %q", client.Environment())
	}
}

func TestRegisterOrderBuildsLineItems(t *testing.T) {
	orderID := "sq_order_1"
	stub := &stubOrders{resp: &sq.CreateOrderResponse{Order: &sq.Order{ID: &orderID}}}
	c := &Client{orders: stub, locationID: "loc", logger: logger.Nop()}

	in := sampleInput()
	res, err := c.RegisterOrder(context.Background(), in)
	if err != nil {
		t.Fatalf("RegisterOrder: %v", err)
	}
	if res.RemoteOrderID != orderID {
		t.Fatalf("unexpected remote id %q", res.RemoteOrderID)
	}
	if stub.req == nil || stub.req.Order == nil {
		t.Fatal("expected request to be sent")
	}
	if got := stringValue(stub.req.Order.ReferenceID); got != in.ReferenceID.String() {
		t.Fatalf("unexpected reference id %q", got)
	}
	if got := stringValue(stub.req.IdempotencyKey); got != "order-"+in.ReferenceID.String() {
		t.Fatalf("unexpected idempotency key %q", got)
	}
	items := stub.req.Order.LineItems
	if len(items) != 3 {
		t.Fatalf("expected product, gst and shipping lines, got %d", len(items))
	}
	if items[0].Quantity != "2" || *items[0].BasePriceMoney.Amount != 500 {
		t.Fatalf("unexpected product line %+v", items[0])
	}
	if stringValue(items[1].Name) != "GST" || *items[1].BasePriceMoney.Amount != 180 {
		t.Fatalf("unexpected gst line")
	}
	if *items[2].BasePriceMoney.Currency != sq.Currency("INR") {
		t.Fatalf("unexpected currency %v", *items[2].BasePriceMoney.Currency)
	}
}

func TestRegisterOrderRejectsMismatchedTotals(t *testing.T) {
	c := &Client{orders: &stubOrders{}, locationID: "loc", logger: logger.Nop()}
	in := sampleInput()
	in.Amount = 999
	_, err := c.RegisterOrder(context.Background(), in)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRegisterOrderMissingRemoteID(t *testing.T) {
	c := &Client{orders: &stubOrders{resp: &sq.CreateOrderResponse{}}, locationID: "loc", logger: logger.Nop()}
	_, err := c.RegisterOrder(context.Background(), sampleInput())
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestEnsureIdempotencyKey(t *testing.T) {
	c := &Client{}
	if got := c.ensureIdempotencyKey("order", "abc"); got != "order-abc" {
		t.Fatalf("expected prefixed key, got %q", got)
	}
	if got := c.ensureIdempotencyKey("order", ""); !strings.HasPrefix(got, "order-") {
		t.Fatalf("generated idempotency key %q missing prefix", got)
	}
}

func TestRedact(t *testing.T) {
	if out := redact("access_token", "abc123"); out != "[REDACTED]" {
		t.Fatalf("expected redacted value, got %v", out)
	}
	if v := redact("amount", 10); v != 10 {
		t.Fatalf("unexpected redaction for safe key")
	}
}

func TestMapSquareError(t *testing.T) {
	c := &Client{}
	table := []struct {
		name     string
		status   int
		payload  string
		wantCode pkgerrors.Code
	}{
		{
			name:     "authentication error",
			status:   http.StatusUnauthorized,
			payload:  `{"errors":[{"category":"AUTHENTICATION_ERROR","code":"UNAUTHORIZED"}]}`,
			wantCode: pkgerrors.CodeDependency,
		},
		{
			name:     "idempotency key reused",
			status:   http.StatusBadRequest,
			payload:  `{"errors":[{"category":"INVALID_REQUEST_ERROR","code":"IDEMPOTENCY_KEY_REUSED"}]}`,
			wantCode: pkgerrors.CodeIdempotency,
		},
		{
			name:     "throttled",
			status:   http.StatusTooManyRequests,
			payload:  `{"errors":[]}`,
			wantCode: pkgerrors.CodeRateLimit,
		},
	}
	for _, tt := range table {
		t.Run(tt.name, func(t *testing.T) {
			err := c.mapSquareError(sqcore.NewAPIError(tt.status, errors.New(tt.payload)), "create order")
			if !pkgerrors.IsCode(err, tt.wantCode) {
				t.Fatalf("expected %s, got %v", tt.wantCode, err)
			}
		})
	}

	if err := c.mapSquareError(errors.New("dial tcp: timeout"), "create order"); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency for transport error, got %v", err)
	}
}

func TestPaymentSignature(t *testing.T) {
	sig := SignPayment("s3cret", "order_1", "pay_1")
	if !VerifyPaymentSignature("s3cret", "order_1", "pay_1", sig) {
		t.Fatal("expected signature to verify")
	}
	if !VerifyPaymentSignature("s3cret", "order_1", "pay_1", strings.ToUpper(sig)) {
		t.Fatal("expected hex comparison to be case insensitive")
	}
	if VerifyPaymentSignature("s3cret", "order_1", "pay_2", sig) {
		t.Fatal("expected mismatched payment id to fail")
	}
	if VerifyPaymentSignature("", "order_1", "pay_1", sig) {
		t.Fatal("expected empty secret to fail")
	}
}

func TestOfflineGatewayStableIDs(t *testing.T) {
	in := sampleInput()
	first, err := OfflineGateway{}.RegisterOrder(context.Background(), in)
	if err != nil {
		t.Fatalf("RegisterOrder: %v", err)
	}
	second, _ := OfflineGateway{}.RegisterOrder(context.Background(), in)
	if first.RemoteOrderID != second.RemoteOrderID || !strings.HasPrefix(first.RemoteOrderID, "offline_") {
		t.Fatalf("unexpected ids %q %q", first.RemoteOrderID, second.RemoteOrderID)
	}
}
