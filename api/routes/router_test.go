package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	pkgauth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessions struct {
	revoked map[string]bool
}

func (s stubSessions) HasSession(_ context.Context, accessID string) (bool, error) {
	return !s.revoked[accessID], nil
}

type stubCatalog struct {
	catalog.Service
}

func (stubCatalog) Categories(context.Context) (map[string][]catalog.ProductSummary, error) {
	return map[string][]catalog.ProductSummary{"Tea": {{ID: uuid.New(), Name: "Green"}}}, nil
}

type stubCart struct {
	cart.Service
	seen uuid.UUID
}

func (s *stubCart) View(_ context.Context, userID uuid.UUID) (*cart.View, error) {
	s.seen = userID
	return &cart.View{Username: "9800000000"}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "dev", CORSOrigins: []string{"http://localhost:3000"}},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "storefront", ExpirationMinutes: 60},
		AuthRateLimit: config.AuthRateLimitConfig{
			OTPWindow:  time.Minute,
			OTPIPLimit: 3,
		},
		Media: config.MediaConfig{URLPrefix: "/media/"},
	}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func buildToken(t *testing.T, cfg *config.Config, userID uuid.UUID, accessID string) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID:   userID,
		Username: "9800000000",
		JTI:      accessID,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthRoutes(t *testing.T) {
	router := NewRouter(Deps{
		Config: testConfig(),
		Logger: testLogger(),
		Health: map[string]controllers.Pinger{"postgres": stubPinger{}, "redis": stubPinger{}},
	})

	for _, path := range []string{"/health/live", "/health/ready"} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
		if got := resp.Header().Get("X-Storefront-Env"); got != "dev" {
			t.Fatalf("%s: expected env header, got %q", path, got)
		}
	}
}

func TestCatalogIsPublic(t *testing.T) {
	router := NewRouter(Deps{Config: testConfig(), Logger: testLogger(), Catalog: stubCatalog{}})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/catalog/categories", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/catalog/categories", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("catalog should ignore bad tokens, got %d", resp.Code)
	}
}

func TestPrivateRoutesRequireToken(t *testing.T) {
	router := NewRouter(Deps{Config: testConfig(), Logger: testLogger(), Sessions: stubSessions{}})

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/cart"},
		{http.MethodPost, "/api/cart"},
		{http.MethodGet, "/api/orders"},
		{http.MethodGet, "/api/orders/sq-1"},
		{http.MethodPost, "/api/orders/checkout"},
		{http.MethodGet, "/api/profile"},
		{http.MethodPut, "/api/profile"},
		{http.MethodDelete, "/api/profile/addresses/9800000000"},
		{http.MethodPost, "/api/auth/logout"},
	}
	for _, tc := range cases {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(tc.method, tc.path, nil))
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401 got %d", tc.method, tc.path, resp.Code)
		}
	}
}

func TestCartRouteResolvesUser(t *testing.T) {
	cfg := testConfig()
	svc := &stubCart{}
	router := NewRouter(Deps{Config: cfg, Logger: testLogger(), Sessions: stubSessions{}, Cart: svc})

	userID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, userID, session.NewAccessID()))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.seen != userID {
		t.Fatalf("expected cart lookup for %s, got %s", userID, svc.seen)
	}
}

func TestRevokedSessionIsRejected(t *testing.T) {
	cfg := testConfig()
	accessID := session.NewAccessID()
	router := NewRouter(Deps{
		Config:   cfg,
		Logger:   testLogger(),
		Sessions: stubSessions{revoked: map[string]bool{accessID: true}},
		Cart:     &stubCart{},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, uuid.New(), accessID))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for revoked session got %d", resp.Code)
	}
}

func TestMissingServiceReturnsInternalError(t *testing.T) {
	router := NewRouter(Deps{Config: testConfig(), Logger: testLogger()})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/payments/confirm", strings.NewReader(`{}`)))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	router := NewRouter(Deps{
		Config:   testConfig(),
		Logger:   testLogger(),
		Registry: reg,
		Metrics:  metrics.NewHTTPMetrics(reg),
	})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `route="/health/live"`) {
		t.Fatalf("expected route label in metrics output:\n%s", resp.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	router := NewRouter(Deps{Config: testConfig(), Logger: testLogger()})

	req := httptest.NewRequest(http.MethodOptions, "/api/cart", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("expected allowed origin, got %q", got)
	}
}
