package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

// Store is the Redis surface used by the rate limit and idempotency
// middleware. *redis.Client implements it.
type Store interface {
	middleware.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Deps carries everything the router mounts. Nil services answer with a
// 500 envelope rather than panicking.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Store    Store
	Sessions session.AccessSessionChecker
	Health   map[string]controllers.Pinger

	Registry prometheus.Gatherer
	Metrics  *metrics.HTTPMetrics

	Catalog  catalog.Service
	Cart     cart.Service
	Orders   orders.Service
	Checkout checkout.Service
	Payments controllers.PaymentConfirmer
	Auth     auth.Service
	Profiles users.ProfileService
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)
	if d.Metrics != nil {
		r.Use(middleware.Metrics(d.Metrics))
	}

	otpPolicy := middleware.NewAuthRateLimitPolicy(
		"otp_request",
		cfg.AuthRateLimit.OTPWindow,
		cfg.AuthRateLimit.OTPIPLimit,
		cfg.AuthRateLimit.OTPUsernameLimit,
	)
	verifyPolicy := middleware.NewAuthRateLimitPolicy(
		"otp_verify",
		cfg.AuthRateLimit.VerifyWindow,
		cfg.AuthRateLimit.VerifyIPLimit,
		0,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.Health))
	})
	if d.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}
	if cfg.Media.Root != "" {
		r.Handle(cfg.Media.URLPrefix+"*", controllers.MediaFiles(cfg.Media.URLPrefix, cfg.Media.Root))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/catalog", func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, d.Sessions, logg))
			r.Get("/filter", controllers.CatalogFilter(d.Catalog, logg))
			r.Get("/categories", controllers.CatalogCategories(d.Catalog, logg))
			r.Get("/popular", controllers.CatalogPopular(d.Catalog, logg))
			r.Get("/featured", controllers.CatalogFeatured(d.Catalog, logg))
			r.Get("/variants/{slug}", controllers.CatalogVariant(d.Catalog, logg))
		})

		r.With(middleware.AuthRateLimit(otpPolicy, d.Store, logg)).Post("/auth/otp/request", controllers.AuthRequestOTP(d.Auth, logg))
		r.With(middleware.AuthRateLimit(verifyPolicy, d.Store, logg)).Post("/auth/otp/verify", controllers.AuthVerifyOTP(d.Auth, logg))
		r.Post("/auth/authenticate", controllers.AuthAuthenticate(d.Auth, logg))
		r.Get("/orders/lookup/{remoteOrderID}", controllers.OrderLookup(d.Orders, logg))
		r.Post("/payments/confirm", controllers.PaymentConfirm(d.Payments, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))
			r.Use(middleware.Idempotency(d.Store, logg))

			r.Post("/auth/logout", controllers.AuthLogout(d.Auth, logg))

			r.Get("/cart", controllers.CartView(d.Cart, logg))
			r.Post("/cart", controllers.CartMutate(d.Cart, logg))

			r.Get("/orders", controllers.OrdersList(d.Orders, logg))
			r.Post("/orders/checkout", controllers.Checkout(d.Checkout, logg))
			r.Get("/orders/{remoteOrderID}", controllers.OrderDetail(d.Orders, logg))

			r.Get("/profile", controllers.ProfileGet(d.Profiles, logg))
			r.Put("/profile", controllers.ProfileUpdate(d.Profiles, logg))
			r.Delete("/profile/addresses/{phone}", controllers.ProfileDeleteAddress(d.Profiles, logg))
		})
	})

	return r
}
