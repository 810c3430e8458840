package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ihza6661/dua-insan-story-sub002/api/controllers"
	webhookcontrollers "github.com/ihza6661/dua-insan-story-sub002/api/controllers/webhooks"
	"github.com/ihza6661/dua-insan-story-sub002/api/middleware"
	authsvc "github.com/ihza6661/dua-insan-story-sub002/internal/auth"
	cancellationsvc "github.com/ihza6661/dua-insan-story-sub002/internal/cancellations"
	checkoutsvc "github.com/ihza6661/dua-insan-story-sub002/internal/checkout"
	orderssvc "github.com/ihza6661/dua-insan-story-sub002/internal/orders"
	midtranswebhook "github.com/ihza6661/dua-insan-story-sub002/internal/webhooks/midtrans"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/config"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/enums"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/logger"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/metrics"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/midtrans"
)

// Deps carries everything the router mounts.
type Deps struct {
	Config          *config.Config
	Logger          *logger.Logger
	AuthService     authsvc.Service
	CheckoutService checkoutsvc.Service
	OrdersService   orderssvc.Service
	Cancellations   cancellationsvc.Service
	WebhookService  *midtranswebhook.Service
	WebhookGuard    *midtranswebhook.IdempotencyGuard
	Gateway         midtrans.NotificationVerifier
	PaymentMetrics  *metrics.PaymentMetrics
	MetricsGatherer prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg))
	})

	if deps.MetricsGatherer != nil {
		r.Get("/metrics", promhttp.HandlerFor(deps.MetricsGatherer, promhttp.HandlerOpts{}).ServeHTTP)
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/midtrans", webhookcontrollers.MidtransWebhook(
			deps.WebhookService, deps.Gateway, webhookGuard(deps.WebhookGuard), deps.PaymentMetrics, logg,
		))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.Login(deps.AuthService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Post("/checkout", controllers.Checkout(deps.CheckoutService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(deps.OrdersService, logg))
			r.Get("/{orderID}", controllers.GetOrder(deps.OrdersService, logg))
			r.Post("/{orderID}/retry-payment", controllers.RetryPayment(deps.OrdersService, logg))
			r.Post("/{orderID}/final-payment", controllers.InitiateFinalPayment(deps.OrdersService, logg))
			r.Post("/{orderID}/cancellation", controllers.CreateCancellation(deps.Cancellations, logg))
			r.Get("/{orderID}/cancellation", controllers.GetCancellation(deps.Cancellations, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))

		r.Post("/orders/{orderID}/advance", controllers.AdvanceOrder(deps.OrdersService, logg))
		r.Route("/cancellation-requests/{requestID}", func(r chi.Router) {
			r.Post("/approve", controllers.ApproveCancellation(deps.Cancellations, logg))
			r.Post("/reject", controllers.RejectCancellation(deps.Cancellations, logg))
		})
	})

	return r
}

// webhookGuard keeps a nil *IdempotencyGuard from turning into a non-nil
// interface inside the controller.
func webhookGuard(guard *midtranswebhook.IdempotencyGuard) webhookcontrollers.Guard {
	if guard == nil {
		return nil
	}
	return guard
}
