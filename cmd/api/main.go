package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/api"
	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/payments"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/env"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/pricing"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/square"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Fields:      map[string]any{"env": cfg.App.Env, "instance": env.InstanceID()},
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	deps, err := buildServices(ctx, cfg, logg, dbClient, redisClient, sessionManager)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	deps.Registry = registry
	deps.Metrics = metrics.NewHTTPMetrics(registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"addr": addr,
	})
	logg.Info(logCtx, "starting api server")

	return api.NewServer(addr, routes.NewRouter(deps), logg).Run(logCtx)
}

func buildServices(
	ctx context.Context,
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	sessionManager *session.Manager,
) (routes.Deps, error) {
	conn := dbClient.DB()
	mediaPrefix := cfg.Media.URLPrefix

	usersRepo := users.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	ordersRepo := orders.NewRepository(conn)
	outboxService := outbox.NewService(outbox.NewRepository(conn), logg)

	calculator, err := pricing.NewCalculator(cfg.Pricing, pricing.NewFlatRateShipping(cfg.Pricing))
	if err != nil {
		return routes.Deps{}, err
	}

	var gateway checkout.PaymentGateway = square.OfflineGateway{}
	if cfg.Square.AccessToken != "" {
		client, err := square.NewClient(ctx, cfg.Square, logg)
		if err != nil {
			return routes.Deps{}, err
		}
		gateway = client
	} else {
		logg.Warn(ctx, "square access token not set, using offline payment gateway")
	}

	addressService, err := address.NewService(address.NewRepository(conn))
	if err != nil {
		return routes.Deps{}, err
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(conn), catalog.NewPostgresSearcher(conn), cartRepo, mediaPrefix)
	if err != nil {
		return routes.Deps{}, err
	}
	cartService, err := cart.NewService(cartRepo, dbClient, usersRepo, calculator, mediaPrefix)
	if err != nil {
		return routes.Deps{}, err
	}
	ordersService, err := orders.NewService(ordersRepo, usersRepo, mediaPrefix)
	if err != nil {
		return routes.Deps{}, err
	}
	checkoutService, err := checkout.NewService(
		dbClient,
		cartRepo,
		ordersRepo,
		usersRepo,
		addressService,
		calculator,
		gateway,
		outboxService,
		logg,
		checkout.Options{
			Currency:       cfg.Pricing.Currency,
			GatewayTimeout: cfg.Square.Timeout,
			MediaPrefix:    mediaPrefix,
		},
	)
	if err != nil {
		return routes.Deps{}, err
	}
	paymentsService, err := payments.NewService(payments.ServiceParams{
		Orders:            ordersRepo,
		TransactionRunner: dbClient,
		Outbox:            outboxService,
		Logger:            logg,
		SignatureSecret:   cfg.Payment.SignatureSecret,
		MediaPrefix:       mediaPrefix,
	})
	if err != nil {
		return routes.Deps{}, err
	}
	profileService, err := users.NewProfileService(usersRepo, dbClient, addressService, cartRepo)
	if err != nil {
		return routes.Deps{}, err
	}

	otpStore, err := auth.NewRedisOTPStore(redisClient, time.Now)
	if err != nil {
		return routes.Deps{}, err
	}
	authService, err := auth.NewService(auth.ServiceParams{
		Users:             usersRepo,
		TransactionRunner: dbClient,
		SessionManager:    sessionManager,
		OTPStore:          otpStore,
		Sender:            auth.NewLogSender(logg, cfg.OTP.LogCodes || cfg.App.IsDev()),
		JWTConfig:         cfg.JWT,
		OTPConfig:         cfg.OTP,
		Logger:            logg,
	})
	if err != nil {
		return routes.Deps{}, err
	}

	return routes.Deps{
		Config:   cfg,
		Logger:   logg,
		Store:    redisClient,
		Sessions: sessionManager,
		Health: map[string]controllers.Pinger{
			"postgres": dbClient,
			"redis":    redisClient,
		},
		Catalog:  catalogService,
		Cart:     cartService,
		Orders:   ordersService,
		Checkout: checkoutService,
		Payments: paymentsService,
		Auth:     authService,
		Profiles: profileService,
	}, nil
}
