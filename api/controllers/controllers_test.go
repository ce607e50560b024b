package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/payments"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type stubCatalog struct {
	catalog.Service
	mode   string
	query  string
	params pagination.Params
	viewer uuid.UUID
}

func (s *stubCatalog) ByCategoryProduct(_ context.Context, category string, _ uuid.UUID, p pagination.Params, viewer uuid.UUID) (*catalog.View, error) {
	s.mode, s.query, s.params, s.viewer = "category", category, p, viewer
	return &catalog.View{Title: category, TotalCount: 3}, nil
}

func (s *stubCatalog) Search(_ context.Context, query string, p pagination.Params, viewer uuid.UUID) (*catalog.View, error) {
	s.mode, s.query, s.params, s.viewer = "search", query, p, viewer
	return &catalog.View{Title: query, TotalCount: 12}, nil
}

func (s *stubCatalog) ByFeaturedLine(_ context.Context, _ uuid.UUID, p pagination.Params, viewer uuid.UUID) (*catalog.View, error) {
	s.mode, s.params, s.viewer = "featured", p, viewer
	return &catalog.View{TotalCount: 1}, nil
}

type stubCart struct {
	cart.Service
	userID    uuid.UUID
	variantID uuid.UUID
	action    string
	err       error
}

func (s *stubCart) Mutate(_ context.Context, userID, variantID uuid.UUID, action string) (*cart.MutationResult, error) {
	s.userID, s.variantID, s.action = userID, variantID, action
	if s.err != nil {
		return nil, s.err
	}
	return &cart.MutationResult{Quantity: 1, Subtotal: 1000, TotalAmt: 1000, Success: true}, nil
}

type stubOrders struct {
	orders.Service
	filters orders.ListFilters
	params  pagination.Params
}

func (s *stubOrders) List(_ context.Context, _ uuid.UUID, filters orders.ListFilters, p pagination.Params) (*orders.OrderList, error) {
	s.filters, s.params = filters, p
	return &orders.OrderList{}, nil
}

func (s *stubOrders) PublicLookup(_ context.Context, remoteOrderID string) (*orders.PublicOrder, error) {
	if remoteOrderID != "sq-1" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return &orders.PublicOrder{}, nil
}

type stubConfirmer struct {
	in payments.ConfirmInput
}

func (s *stubConfirmer) Confirm(_ context.Context, in payments.ConfirmInput) (*orders.OrderDTO, error) {
	s.in = in
	return &orders.OrderDTO{}, nil
}

type stubAuth struct {
	auth.Service
	revoked string
}

func (s *stubAuth) RequestOTP(_ context.Context, username string) (*auth.OTPIssued, error) {
	return &auth.OTPIssued{Username: username, ExpiresIn: 300}, nil
}

func (s *stubAuth) Logout(_ context.Context, accessID string) error {
	s.revoked = accessID
	return nil
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) responses.ErrorBody {
	t.Helper()
	var env responses.Failure
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env.Error
}

func asUser(r *http.Request, userID uuid.UUID) *http.Request {
	return r.WithContext(middleware.WithUserID(r.Context(), userID))
}

func TestCatalogFilterRequiresAMode(t *testing.T) {
	rec := httptest.NewRecorder()
	CatalogFilter(&stubCatalog{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/catalog/filter", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "no filter parameters provided", decodeError(t, rec).Message)

	rec = httptest.NewRecorder()
	CatalogFilter(&stubCatalog{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/catalog/filter?search_str=", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCatalogFilterDispatch(t *testing.T) {
	productID := uuid.New()
	cases := []struct {
		name string
		url  string
		mode string
	}{
		{"category wins over search", "/api/catalog/filter?category=Tea&product_id=" + productID.String() + "&search_str=x", "category"},
		{"search", "/api/catalog/filter?search_str=tea", "search"},
		{"blank search falls through to featured", "/api/catalog/filter?search_str=%20&featured_prod_id=" + uuid.NewString(), "featured"},
		{"featured line", "/api/catalog/filter?featured_prod_id=" + uuid.NewString(), "featured"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubCatalog{}
			rec := httptest.NewRecorder()
			CatalogFilter(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.url, nil))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tc.mode, svc.mode)
		})
	}
}

func TestCatalogFilterPaginationBounds(t *testing.T) {
	svc := &stubCatalog{}
	rec := httptest.NewRecorder()
	CatalogFilter(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/catalog/filter?search_str=tea&skip=-1", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	viewer := uuid.New()
	req := asUser(httptest.NewRequest(http.MethodGet, "/api/catalog/filter?search_str=tea&skip=5&limit=5", nil), viewer)
	CatalogFilter(svc, nil).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, svc.params.Skip)
	assert.Equal(t, 5, svc.params.Limit)
	assert.Equal(t, viewer, svc.viewer)

	var env struct {
		Data catalog.FilterResult `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.EqualValues(t, 12, env.Data.TotalCount)
	assert.True(t, env.Data.Pagination.HasMore)
}

func TestCartMutateRequiresUser(t *testing.T) {
	rec := httptest.NewRecorder()
	body := `{"variant_id":"` + uuid.NewString() + `","action":"add"}`
	CartMutate(&stubCart{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/cart", strings.NewReader(body)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCartMutateValidatesAction(t *testing.T) {
	rec := httptest.NewRecorder()
	body := `{"variant_id":"` + uuid.NewString() + `","action":"double"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/cart", strings.NewReader(body)), uuid.New())
	CartMutate(&stubCart{}, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	apiErr := decodeError(t, rec)
	assert.Equal(t, string(pkgerrors.CodeValidation), apiErr.Code)
}

func TestCartMutatePassesThrough(t *testing.T) {
	svc := &stubCart{}
	userID, variantID := uuid.New(), uuid.New()
	body := `{"variant_id":"` + variantID.String() + `","action":"remove"}`
	rec := httptest.NewRecorder()
	CartMutate(svc, nil).ServeHTTP(rec, asUser(httptest.NewRequest(http.MethodPost, "/api/cart", strings.NewReader(body)), userID))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, svc.userID)
	assert.Equal(t, variantID, svc.variantID)
	assert.Equal(t, "remove", svc.action)

	svc.err = pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
	rec = httptest.NewRecorder()
	CartMutate(svc, nil).ServeHTTP(rec, asUser(httptest.NewRequest(http.MethodPost, "/api/cart", strings.NewReader(body)), userID))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrdersListParsesFilters(t *testing.T) {
	svc := &stubOrders{}
	rec := httptest.NewRecorder()
	req := asUser(httptest.NewRequest(http.MethodGet, "/api/orders?order_id=sq-1&status=paid&offset=10", nil), uuid.New())
	OrdersList(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "sq-1", svc.filters.RemoteOrderID)
	assert.Equal(t, enums.OrderStatusPaid, svc.filters.Status)
	assert.Equal(t, 10, svc.params.Skip)
	assert.Equal(t, orders.DefaultListLimit, svc.params.Limit)

	rec = httptest.NewRecorder()
	req = asUser(httptest.NewRequest(http.MethodGet, "/api/orders?status=lost", nil), uuid.New())
	OrdersList(svc, nil).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderLookupIsPublic(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/api/orders/lookup/{remoteOrderID}", OrderLookup(&stubOrders{}, nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders/lookup/sq-1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders/lookup/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPaymentConfirmValidatesBody(t *testing.T) {
	svc := &stubConfirmer{}
	rec := httptest.NewRecorder()
	PaymentConfirm(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/payments/confirm", strings.NewReader(`{"remote_order_id":"sq-1"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	body := `{"remote_order_id":"sq-1","remote_payment_id":"pay-1","signature":"abc"}`
	PaymentConfirm(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/payments/confirm", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pay-1", svc.in.RemotePaymentID)
}

func TestAuthRequestOTPAccepted(t *testing.T) {
	rec := httptest.NewRecorder()
	AuthRequestOTP(&stubAuth{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/otp/request", strings.NewReader(`{"username":"ada@example.com"}`)))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = httptest.NewRecorder()
	AuthRequestOTP(&stubAuth{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/otp/request", strings.NewReader(`{"username":"a","extra":1}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{}
	rec := httptest.NewRecorder()
	HealthReady(cfg, nil, map[string]Pinger{"postgres": fakePinger{}, "redis": fakePinger{}}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	HealthReady(cfg, nil, map[string]Pinger{"postgres": fakePinger{}, "redis": fakePinger{err: errors.New("down")}}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestMediaFilesServesOnlyFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "products"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "products", "tea.jpg"), []byte("jpeg"), 0o644))
	h := MediaFiles("/media/", root)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/products/tea.jpg", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jpeg", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/products/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
