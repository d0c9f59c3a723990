package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/burgnice/storefront/api/routes"
	"github.com/burgnice/storefront/internal/auth"
	"github.com/burgnice/storefront/internal/cartsync"
	"github.com/burgnice/storefront/internal/catalog"
	"github.com/burgnice/storefront/internal/checkout"
	"github.com/burgnice/storefront/internal/events"
	"github.com/burgnice/storefront/internal/guestcart"
	"github.com/burgnice/storefront/internal/ledger"
	"github.com/burgnice/storefront/internal/lock"
	"github.com/burgnice/storefront/internal/loyalty"
	"github.com/burgnice/storefront/internal/orders"
	"github.com/burgnice/storefront/internal/session"
	"github.com/burgnice/storefront/pkg/config"
	"github.com/burgnice/storefront/pkg/db"
	"github.com/burgnice/storefront/pkg/instance"
	"github.com/burgnice/storefront/pkg/logger"
	"github.com/burgnice/storefront/pkg/metrics"
	"github.com/burgnice/storefront/pkg/migrate"
	"github.com/burgnice/storefront/pkg/redis"
	"github.com/burgnice/storefront/pkg/upstream"
)

const shutdownTimeout = 15 * time.Second

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
		Format:      cfg.App.LogFormat,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, redisClient.Close())
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	storefrontMetrics := metrics.NewStorefrontMetrics(registry)

	api, err := upstream.NewClient(cfg.Upstream.BaseURL, upstream.WithTimeout(cfg.Upstream.Timeout))
	if err != nil {
		return err
	}

	bus := events.NewBus()

	sessions, err := session.NewManager(redisClient, cfg.Session.TTL)
	if err != nil {
		return err
	}
	guest, err := guestcart.NewStore(redisClient, bus, logg, cfg.Session.TTL)
	if err != nil {
		return err
	}
	checkoutStore, err := checkout.NewStore(redisClient, logg, cfg.Session.TTL)
	if err != nil {
		return err
	}
	locks, err := lock.NewLocker(redisClient, cfg.Checkout.SubmitLockTTL)
	if err != nil {
		return err
	}

	catalogService, err := catalog.NewService(api, redisClient, logg, catalog.Options{
		CacheTTL:     cfg.Catalog.CacheTTL,
		TopDealsSize: cfg.Catalog.TopDealsSize,
	})
	if err != nil {
		return err
	}

	cartService, err := cartsync.NewService(guest, sessions, api, catalogService, locks, bus, storefrontMetrics, logg)
	if err != nil {
		return err
	}

	ledgerService, err := ledger.NewService(ledger.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		return err
	}

	policy := loyalty.PolicyFromConfig(cfg.Loyalty)
	checkoutService, err := checkout.NewService(
		sessions,
		cartService,
		guest,
		checkoutStore,
		api,
		locks,
		ledgerService,
		bus,
		storefrontMetrics,
		logg,
		checkout.Options{
			Policy:     policy,
			PendingTTL: cfg.Checkout.PendingPaymentTTL,
			SuccessURL: cfg.Checkout.SuccessURL,
			CancelURL:  cfg.Checkout.CancelURL,
		},
	)
	if err != nil {
		return err
	}

	authService, err := auth.NewService(auth.ServiceParams{
		API:      api,
		Sessions: sessions,
		Carts:    cartService,
		Guest:    guest,
		Checkout: checkoutService,
		Policy:   policy,
		Logger:   logg,
	})
	if err != nil {
		return err
	}

	ordersService, err := orders.NewService(sessions, api)
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
		"upstream": cfg.Upstream.BaseURL,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			redisClient,
			sessions,
			authService,
			catalogService,
			cartService,
			checkoutService,
			ordersService,
			bus,
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(logCtx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
