package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/burgnice/storefront/api/controllers"
	cartcontrollers "github.com/burgnice/storefront/api/controllers/cart"
	eventcontrollers "github.com/burgnice/storefront/api/controllers/events"
	ordercontrollers "github.com/burgnice/storefront/api/controllers/orders"
	"github.com/burgnice/storefront/api/middleware"
	"github.com/burgnice/storefront/internal/auth"
	"github.com/burgnice/storefront/internal/cartsync"
	"github.com/burgnice/storefront/internal/catalog"
	checkoutsvc "github.com/burgnice/storefront/internal/checkout"
	"github.com/burgnice/storefront/internal/events"
	"github.com/burgnice/storefront/internal/orders"
	"github.com/burgnice/storefront/internal/session"
	"github.com/burgnice/storefront/pkg/config"
	"github.com/burgnice/storefront/pkg/logger"
)

type sessionManager interface {
	Create(ctx context.Context) (*session.State, error)
	Load(ctx context.Context, sessionID string) (*session.State, error)
	Touch(ctx context.Context, sessionID string) error
}

// keyStore backs idempotency records and auth throttling counters.
type keyStore interface {
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisP controllers.Pinger,
	store keyStore,
	sessions sessionManager,
	authService auth.Service,
	catalogService catalog.Service,
	cartService cartsync.Service,
	checkoutService checkoutsvc.Service,
	ordersService orders.Service,
	bus *events.Bus,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.CORS),
		middleware.Logging(logg),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": dbP,
			"redis":    redisP,
		}))
	})
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Opening a tab is the only call without a session; it is throttled per IP.
		r.With(middleware.RateLimit(cfg.RateLimit, logg)).
			Post("/session", controllers.SessionCreate(sessions, cfg.Session, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(cfg.Session, sessions, logg))
			r.Use(middleware.RateLimit(cfg.RateLimit, logg))
			r.Use(middleware.Idempotency(store, logg))

			r.Get("/session", controllers.SessionShow(sessions, logg))
			r.Get("/events", eventcontrollers.Stream(bus, eventcontrollers.Options{AllowedOrigins: cfg.CORS.AllowedOrigins}, logg))

			r.Route("/catalog", func(r chi.Router) {
				r.Get("/categories", controllers.CatalogCategories(catalogService, logg))
				r.Get("/menu", controllers.CatalogMenu(catalogService, logg))
				r.Get("/top-deals", controllers.CatalogTopDeals(catalogService, logg))
				r.Get("/items/{itemId}", controllers.CatalogItem(catalogService, logg))
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.CartFetch(cartService, logg))
				r.Delete("/", cartcontrollers.CartClear(cartService, logg))
				r.Post("/items", cartcontrollers.CartAddItem(cartService, logg))
				r.Get("/items/{itemId}", cartcontrollers.CartItemQuantity(cartService, logg))
				r.Put("/items/{itemId}", cartcontrollers.CartSetQuantity(cartService, logg))
				r.Post("/sync", cartcontrollers.CartSync(cartService, logg))
			})

			r.Route("/auth", func(r chi.Router) {
				r.With(middleware.AuthRateLimit(loginPolicy, store, logg)).Post("/login", controllers.AuthLogin(authService, logg))
				r.With(middleware.AuthRateLimit(registerPolicy, store, logg)).Post("/register", controllers.AuthRegister(authService, logg))
				r.Post("/logout", controllers.AuthLogout(authService, logg))
				r.Get("/profile", controllers.AuthProfile(authService, logg))
			})
			r.Get("/loyalty", controllers.LoyaltyStatus(authService, logg))

			r.Route("/checkout", func(r chi.Router) {
				r.Get("/draft", controllers.CheckoutDraftFetch(checkoutService, logg))
				r.Put("/draft", controllers.CheckoutDraftSave(checkoutService, logg))
				r.Get("/order-type", controllers.CheckoutOrderTypeFetch(checkoutService, logg))
				r.Put("/order-type", controllers.CheckoutOrderTypeSet(checkoutService, logg))
				r.Get("/quote", controllers.CheckoutQuote(checkoutService, logg))
				r.Post("/submit", controllers.CheckoutSubmit(checkoutService, logg))
				r.Route("/payment", func(r chi.Router) {
					r.Get("/pending", controllers.CheckoutPendingPayment(checkoutService, logg))
					r.Post("/verify", controllers.CheckoutVerifyPayment(checkoutService, logg))
					r.Post("/cancel", controllers.CheckoutCancelPayment(checkoutService, logg))
				})
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordercontrollers.List(ordersService, logg))
				r.Get("/{orderId}", ordercontrollers.Detail(ordersService, logg))
			})
		})
	})

	return r
}
