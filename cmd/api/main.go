package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/posfront/api/routes"
	"github.com/angelmondragon/posfront/internal/cart"
	"github.com/angelmondragon/posfront/internal/catalog"
	checkoutsvc "github.com/angelmondragon/posfront/internal/checkout"
	"github.com/angelmondragon/posfront/internal/currencies"
	"github.com/angelmondragon/posfront/internal/pos"
	"github.com/angelmondragon/posfront/internal/selection"
	"github.com/angelmondragon/posfront/internal/session"
	"github.com/angelmondragon/posfront/internal/variants"
	"github.com/angelmondragon/posfront/pkg/config"
	"github.com/angelmondragon/posfront/pkg/db"
	"github.com/angelmondragon/posfront/pkg/logger"
	"github.com/angelmondragon/posfront/pkg/metrics"
	"github.com/angelmondragon/posfront/pkg/migrate"
	"github.com/angelmondragon/posfront/pkg/redis"
	"github.com/angelmondragon/posfront/pkg/sequence"
	"github.com/angelmondragon/posfront/pkg/upstream"
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
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(logg, "database", err)

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	requireResource(logg, "redis", err)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	apiClient, err := upstream.NewClient(cfg.Upstream.BaseURL,
		upstream.WithTimeout(cfg.Upstream.Timeout),
		upstream.WithServiceToken(cfg.Upstream.ServiceToken),
		upstream.WithForwardedUserToken(cfg.Upstream.ForwardUserToken),
		upstream.WithObserver(metrics.NewUpstreamMetrics(registry)),
	)
	requireResource(logg, "retail api client", err)

	catalogClient, err := catalog.NewClient(apiClient)
	requireResource(logg, "catalog client", err)
	variantClient, err := variants.NewClient(apiClient)
	requireResource(logg, "variant client", err)
	currencyClient, err := currencies.NewClient(apiClient)
	requireResource(logg, "currency client", err)
	saleClient, err := checkoutsvc.NewSaleClient(apiClient)
	requireResource(logg, "sale client", err)

	cartStore, err := cart.NewStore(cart.NewRepository(dbClient.DB()), dbClient)
	requireResource(logg, "cart store", err)
	selectionStore, err := selection.NewRedisStore(redisClient, cfg.Session.SelectionTTL)
	requireResource(logg, "selection store", err)
	sessions, err := session.NewService(cartStore, selectionStore, logg)
	requireResource(logg, "session service", err)

	seq, err := sequence.NewRedis(redisClient, cfg.Session.SelectionTTL)
	requireResource(logg, "request sequencer", err)

	currencyService, err := currencies.NewService(currencyClient, redisClient, cfg.Currency.CacheTTL, logg)
	requireResource(logg, "currency service", err)
	variantService, err := variants.NewService(variantClient, seq, logg)
	requireResource(logg, "variant service", err)
	catalogService, err := catalog.NewService(catalogClient, variantService, sessions, currencyService, logg)
	requireResource(logg, "catalog service", err)
	posService, err := pos.NewService(sessions, variantService, catalogClient, catalogService)
	requireResource(logg, "pos service", err)
	checkoutService, err := checkoutsvc.NewService(
		sessions,
		saleClient,
		checkoutsvc.NewRepository(dbClient.DB()),
		catalogService,
		metrics.NewCheckoutMetrics(registry),
		logg,
	)
	requireResource(logg, "checkout service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"upstream": cfg.Upstream.BaseURL,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			catalogService,
			currencyService,
			posService,
			checkoutService,
		),
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	closeErr := multierr.Combine(
		server.Shutdown(shutdownCtx),
		redisClient.Close(),
		dbClient.Close(),
	)
	if closeErr != nil {
		logg.Error(ctx, "api shutdown incomplete", closeErr)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}

func requireResource(logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "resource not working: "+resource, err)
	os.Exit(1)
}
