package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/onetwoclick/rinkshots-backend/api/controllers"
	webhookcontrollers "github.com/onetwoclick/rinkshots-backend/api/controllers/webhooks"
	"github.com/onetwoclick/rinkshots-backend/api/middleware"
	"github.com/onetwoclick/rinkshots-backend/internal/admin"
	"github.com/onetwoclick/rinkshots-backend/internal/cart"
	"github.com/onetwoclick/rinkshots-backend/internal/catalog"
	checkoutsvc "github.com/onetwoclick/rinkshots-backend/internal/checkout"
	"github.com/onetwoclick/rinkshots-backend/internal/identity"
	stripewebhook "github.com/onetwoclick/rinkshots-backend/internal/webhooks/stripe"
	"github.com/onetwoclick/rinkshots-backend/pkg/config"
	"github.com/onetwoclick/rinkshots-backend/pkg/logger"
	"github.com/onetwoclick/rinkshots-backend/pkg/redis"
	"github.com/onetwoclick/rinkshots-backend/pkg/stripe"
)

// Dependencies are the services the HTTP surface dispatches to.
type Dependencies struct {
	Readiness map[string]controllers.Pinger
	Redis     *redis.Client
	Verifier  *identity.Verifier
	Gatherer  prometheus.Gatherer

	Catalog   catalog.Service
	Cart      cart.Service
	Checkout  checkoutsvc.Service
	Finalizer controllers.OrderFinalizer
	Admin     admin.Service

	StripeClient         *stripe.Client
	StripeWebhookService *stripewebhook.Service
	StripeWebhookGuard   *stripewebhook.IdempotencyGuard
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.Site.AllowedOrigins),
	)

	checkoutPolicy := middleware.NewRateLimitPolicy("checkout", cfg.RateLimit.CheckoutWindow, cfg.RateLimit.CheckoutLimit)
	finalizePolicy := middleware.NewRateLimitPolicy("finalize", cfg.RateLimit.FinalizeWindow, cfg.RateLimit.FinalizeLimit)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.Readiness, logg))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// Stripe signs the raw body; no identity or idempotency layers here.
	r.Post("/api/v1/webhooks/stripe", webhookcontrollers.StripeWebhook(
		deps.StripeWebhookService, deps.StripeClient, deps.StripeWebhookGuard, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identity(deps.Verifier, logg))

		r.Get("/galleries", controllers.ListGalleries(deps.Catalog, logg))
		r.Get("/galleries/{galleryId}/photos", controllers.ListGalleryPhotos(deps.Catalog, logg))
		r.Get("/photos/{photoId}", controllers.GetPhoto(deps.Catalog, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(deps.Cart, logg))
			r.Delete("/", controllers.ClearCart(deps.Cart, logg))
			r.Post("/items", controllers.AddCartItem(deps.Cart, logg))
			r.Patch("/items/{cartItemId}", controllers.UpdateCartItem(deps.Cart, logg))
			r.Delete("/items/{cartItemId}", controllers.RemoveCartItem(deps.Cart, logg))
			r.Post("/merge", controllers.MergeCart(deps.Cart, logg))
		})

		r.With(
			middleware.RateLimit(checkoutPolicy, deps.Redis, logg),
			middleware.Idempotency(deps.Redis, logg),
		).Post("/checkout-sessions", controllers.CreateCheckoutSession(deps.Checkout, logg))

		r.With(middleware.RateLimit(finalizePolicy, deps.Redis, logg)).
			Post("/finalize-order", controllers.FinalizeOrder(deps.Finalizer, logg))

		r.Get("/watermark", controllers.GetWatermark(deps.Admin, logg))

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(deps.Admin, logg))
			r.Post("/galleries", controllers.AdminCreateGallery(deps.Admin, logg))
			r.Patch("/galleries/{galleryId}", controllers.AdminRenameGallery(deps.Admin, logg))
			r.Delete("/galleries/{galleryId}", controllers.AdminDeleteGallery(deps.Admin, logg))
			r.Post("/galleries/{galleryId}/uploads", controllers.AdminPresignPhotoUpload(deps.Admin, logg))
			r.Post("/galleries/{galleryId}/photos", controllers.AdminRegisterPhotos(deps.Admin, logg))
			r.Post("/watermark/uploads", controllers.AdminPresignWatermarkUpload(deps.Admin, logg))
			r.Put("/watermark", controllers.AdminSetWatermark(deps.Admin, logg))
			r.Delete("/watermark", controllers.AdminRemoveWatermark(deps.Admin, logg))
		})
	})

	return r
}
