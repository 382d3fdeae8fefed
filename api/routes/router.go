package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/posfront/api/controllers"
	"github.com/angelmondragon/posfront/api/middleware"
	"github.com/angelmondragon/posfront/internal/catalog"
	checkoutsvc "github.com/angelmondragon/posfront/internal/checkout"
	"github.com/angelmondragon/posfront/internal/currencies"
	"github.com/angelmondragon/posfront/internal/pos"
	"github.com/angelmondragon/posfront/pkg/config"
	"github.com/angelmondragon/posfront/pkg/enums"
	"github.com/angelmondragon/posfront/pkg/logger"
	"github.com/angelmondragon/posfront/pkg/redis"
)

// RedisStore is the slice of the Redis client the HTTP layer needs.
type RedisStore interface {
	redis.IdempotencyStore
	middleware.RateLimitStore
	Ping(ctx context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisStore RedisStore,
	gatherer prometheus.Gatherer,
	catalogService catalog.Service,
	currencyService currencies.Service,
	posService pos.Service,
	checkoutService checkoutsvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.HTTP.CORSOrigins),
	)

	checkoutPolicy := middleware.NewRateLimitPolicy(
		"checkout",
		cfg.HTTP.CheckoutRateWindow,
		cfg.HTTP.CheckoutRateIPLimit,
		cfg.HTTP.CheckoutRateSessionLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, map[string]controllers.Pinger{
			"db":    dbP,
			"redis": redisStore,
		}, logg))
	})
	if gatherer != nil {
		r.Handle("/metrics", controllers.Metrics(gatherer))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.CompanyContext(logg))

		r.Get("/companies/{companyID}/products", controllers.ProductCards(catalogService, logg))

		r.Route("/products/{productID}", func(r chi.Router) {
			r.Get("/display", controllers.ProductDisplay(catalogService, logg))
			r.Put("/selection", controllers.ProductSelection(catalogService, logg))

			r.Get("/variants", controllers.VariantList(catalogService, logg))
			r.Get("/variants/{variantID}", controllers.VariantGet(catalogService, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireCatalogManager(logg))
				r.With(middleware.Idempotency(redisStore, logg)).Post("/variants", controllers.VariantCreate(catalogService, logg))
				r.Put("/variants/{variantID}", controllers.VariantUpdate(catalogService, logg))
				r.Delete("/variants/{variantID}", controllers.VariantDelete(catalogService, logg))
			})
		})

		r.Route("/currencies", func(r chi.Router) {
			r.Get("/", controllers.CurrencyList(currencyService, logg))
			r.Post("/format", controllers.CurrencyFormat(currencyService, catalogService, logg))
			r.Get("/{currencyID}", controllers.CurrencyGet(currencyService, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(posService, logg))
			r.Delete("/", controllers.CartClear(posService, logg))
			r.Post("/items", controllers.CartAddItem(posService, logg))
			r.Patch("/items/{itemID}", controllers.CartUpdateItem(posService, logg))
			r.Delete("/items/{itemID}", controllers.CartRemoveItem(posService, logg))
			r.Put("/customer", controllers.CartSelectCustomer(posService, logg))
		})

		r.With(
			middleware.RequirePermission(enums.PermissionCheckout, logg),
			middleware.RateLimit(checkoutPolicy, redisStore, logg),
			middleware.Idempotency(redisStore, logg),
		).Post("/checkout", controllers.Checkout(checkoutService, logg))
		r.Get("/checkout/attempts", controllers.CheckoutAttempts(checkoutService, logg))
	})

	return r
}
