package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/campuspay-backend/api/controllers"
	webhookcontrollers "github.com/angelmondragon/campuspay-backend/api/controllers/webhooks"
	"github.com/angelmondragon/campuspay-backend/api/middleware"
	"github.com/angelmondragon/campuspay-backend/pkg/config"
	"github.com/angelmondragon/campuspay-backend/pkg/db"
	"github.com/angelmondragon/campuspay-backend/pkg/logger"
	"github.com/angelmondragon/campuspay-backend/pkg/metrics"
	"github.com/angelmondragon/campuspay-backend/pkg/razorpay"
	pkgredis "github.com/angelmondragon/campuspay-backend/pkg/redis"
)

// RouterParams bundles everything the HTTP surface depends on. Optional
// members (redis, metrics) may be nil; the routes degrade gracefully.
type RouterParams struct {
	Config          *config.Config
	Logger          *logger.Logger
	DBPinger        db.Pinger
	RedisPinger     pkgredis.Pinger
	Metrics         *metrics.HTTPMetrics
	MetricsRegistry *prometheus.Registry
	PaymentsService controllers.PaymentsService
	RazorpayClient  *razorpay.Client
	WebhookService  webhookcontrollers.RazorpayWebhookService
	WebhookGuard    webhookcontrollers.WebhookGuard
}

func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(params.Logger),
		middleware.RequestID(params.Logger),
		middleware.Logging(params.Logger),
		middleware.Metrics(params.Metrics),
		middleware.CORS(params.Config.CORS.ExtraOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(params.Config))
		r.Get("/ready", controllers.HealthReady(params.Config, params.Logger, params.DBPinger, params.RedisPinger))
	})

	if params.MetricsRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.MetricsRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/payments", func(r chi.Router) {
		r.Post("/create-order", controllers.CreateOrder(params.PaymentsService, params.Logger))
		r.Post("/verify-payment", controllers.VerifyPayment(params.PaymentsService, params.Logger))
		r.Post("/webhook", webhookcontrollers.RazorpayWebhook(params.WebhookService, params.RazorpayClient, params.WebhookGuard, params.Logger))
		r.Get("/{orderId}", controllers.GetPayment(params.PaymentsService, params.Logger))
	})

	return r
}
