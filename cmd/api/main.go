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
	"go.uber.org/multierr"

	"github.com/onetwoclick/rinkshots-backend/api/controllers"
	"github.com/onetwoclick/rinkshots-backend/api/routes"
	"github.com/onetwoclick/rinkshots-backend/internal/admin"
	"github.com/onetwoclick/rinkshots-backend/internal/cart"
	"github.com/onetwoclick/rinkshots-backend/internal/catalog"
	"github.com/onetwoclick/rinkshots-backend/internal/checkout"
	"github.com/onetwoclick/rinkshots-backend/internal/identity"
	"github.com/onetwoclick/rinkshots-backend/internal/mailer"
	"github.com/onetwoclick/rinkshots-backend/internal/orders"
	stripewebhook "github.com/onetwoclick/rinkshots-backend/internal/webhooks/stripe"
	"github.com/onetwoclick/rinkshots-backend/pkg/config"
	"github.com/onetwoclick/rinkshots-backend/pkg/db"
	"github.com/onetwoclick/rinkshots-backend/pkg/logger"
	"github.com/onetwoclick/rinkshots-backend/pkg/metrics"
	"github.com/onetwoclick/rinkshots-backend/pkg/migrate"
	"github.com/onetwoclick/rinkshots-backend/pkg/pubsub"
	"github.com/onetwoclick/rinkshots-backend/pkg/redis"
	"github.com/onetwoclick/rinkshots-backend/pkg/storage/gcs"
	pkgstripe "github.com/onetwoclick/rinkshots-backend/pkg/stripe"
)

const (
	shutdownTimeout = 15 * time.Second
	webhookEventTTL = 7 * 24 * time.Hour
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = db.DriverSQLite
	}
	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)

	stripeClient, err := pkgstripe.NewClient(ctx, cfg.Stripe, logg)
	requireResource(ctx, logg, "stripe", err)
	sessions := pkgstripe.NewCheckoutSessions(stripeClient)

	gcsClient, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
	requireResource(ctx, logg, "gcs", err)

	var pubsubClient *pubsub.Client
	if cfg.PubSub.Enabled() {
		pubsubClient, err = pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		requireResource(ctx, logg, "pubsub", err)
	}

	dispatcher, err := mailer.New(cfg, logg)
	requireResource(ctx, logg, "mailer", err)

	var verifier *identity.Verifier
	if cfg.Identity.JWTSecret != "" {
		verifier, err = identity.NewVerifier(cfg.Identity)
		requireResource(ctx, logg, "identity verifier", err)
	} else {
		logg.Warn(ctx, "identity secret not set; only guest carts are available")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()), gcsClient, logg)
	requireResource(ctx, logg, "catalog service", err)

	prices := cart.PriceList{Digital: cfg.Pricing.DigitalPrice(), Print: cfg.Pricing.PrintPrice()}
	cartPersister, err := cart.NewRedisPersister(redisClient, cfg.Cart.TTL)
	requireResource(ctx, logg, "cart persister", err)
	cartService, err := cart.NewService(cart.ServiceParams{
		Persister: cartPersister,
		Photos:    catalogService,
		Prices:    prices,
		Logger:    logg,
		Metrics:   metrics.NewCartMetrics(registry),
	})
	requireResource(ctx, logg, "cart service", err)

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Sessions:   sessions,
		Carts:      cartService,
		Prices:     &prices,
		Currency:   cfg.Pricing.Currency,
		SuccessURL: cfg.Site.SuccessURL(),
		CancelURL:  cfg.Site.CancelURL(),
		Logger:     logg,
	})
	requireResource(ctx, logg, "checkout service", err)

	adminService, err := admin.NewService(admin.ServiceParams{
		Repo:            admin.NewRepository(dbClient.DB()),
		Tx:              dbClient,
		Storage:         gcsClient,
		WatermarkBucket: cfg.GCS.WatermarkBucket,
		UploadTTL:       cfg.GCS.UploadURLExpiry,
		Logger:          logg,
	})
	requireResource(ctx, logg, "admin service", err)

	ledger, err := orders.NewLedgerFromConfig(cfg.Ledger, redisClient, dbClient.DB())
	requireResource(ctx, logg, "session ledger", err)

	finalizerParams := orders.FinalizerParams{
		Ledger:         ledger,
		Payments:       orders.NewStripeProvider(sessions),
		Photos:         catalogService,
		Mailer:         dispatcher,
		AdminAddress:   cfg.Mail.AdminAddress,
		From:           cfg.Mail.From,
		PickupNote:     cfg.Mail.PickupNote,
		Lease:          cfg.Ledger.Lease,
		AttachDigitals: cfg.FeatureFlags.AttachDigitals,
		Fetcher:        gcsClient,
		Carts:          cartService,
		Metrics:        metrics.NewOrderMetrics(registry),
		Logger:         logg,
	}
	if pubsubClient != nil {
		finalizerParams.Events = pubsubClient
		finalizerParams.EventsTopic = pubsubClient.OrdersTopic()
	}
	finalizer, err := orders.NewFinalizer(finalizerParams)
	requireResource(ctx, logg, "order finalizer", err)

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{Finalizer: finalizer, Logger: logg})
	requireResource(ctx, logg, "stripe webhook service", err)
	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, webhookEventTTL, "stripe_webhook")
	requireResource(ctx, logg, "stripe webhook guard", err)

	readiness := map[string]controllers.Pinger{
		"db":    dbClient,
		"redis": redisClient,
	}
	if pubsubClient != nil {
		readiness["pubsub"] = pubsubClient
	}

	addr := ":" + cfg.App.Port
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Dependencies{
			Readiness:            readiness,
			Redis:                redisClient,
			Verifier:             verifier,
			Gatherer:             registry,
			Catalog:              catalogService,
			Cart:                 cartService,
			Checkout:             checkoutService,
			Finalizer:            finalizer,
			Admin:                adminService,
			StripeClient:         stripeClient,
			StripeWebhookService: webhookService,
			StripeWebhookGuard:   webhookGuard,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"stripe_env": stripeClient.Environment(),
	})
	logg.Info(serverCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logg.Error(serverCtx, "api server stopped unexpectedly", err)
		}
	case <-ctx.Done():
		logg.Info(serverCtx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	closeErr := server.Shutdown(shutdownCtx)
	closeErr = multierr.Append(closeErr, redisClient.Close())
	closeErr = multierr.Append(closeErr, dbClient.Close())
	if pubsubClient != nil {
		closeErr = multierr.Append(closeErr, pubsubClient.Close())
	}
	if closeErr != nil {
		logg.Error(serverCtx, "errors during shutdown", closeErr)
		os.Exit(1)
	}
	logg.Info(serverCtx, "api server stopped")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "resource not working: "+resource, err)
	os.Exit(1)
}
