package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/campuspay-backend/api/routes"
	"github.com/angelmondragon/campuspay-backend/internal/catalog"
	"github.com/angelmondragon/campuspay-backend/internal/payments"
	razorpaywebhook "github.com/angelmondragon/campuspay-backend/internal/webhooks/razorpay"
	"github.com/angelmondragon/campuspay-backend/pkg/config"
	"github.com/angelmondragon/campuspay-backend/pkg/db"
	"github.com/angelmondragon/campuspay-backend/pkg/logger"
	"github.com/angelmondragon/campuspay-backend/pkg/metrics"
	"github.com/angelmondragon/campuspay-backend/pkg/migrate"
	"github.com/angelmondragon/campuspay-backend/pkg/razorpay"
	pkgredis "github.com/angelmondragon/campuspay-backend/pkg/redis"
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
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	// Redis is optional. Without it the webhook path skips duplicate
	// suppression; MarkPaidByOrderID is idempotent either way.
	var redisClient *pkgredis.Client
	var webhookGuard *razorpaywebhook.IdempotencyGuard
	if cfg.Redis.URL != "" || cfg.Redis.Address != "" {
		redisClient, err = pkgredis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		webhookGuard, err = razorpaywebhook.NewIdempotencyGuard(redisClient, cfg.Webhook.IdempotencyTTL, "razorpay-webhook")
		if err != nil {
			logg.Error(context.Background(), "failed to create webhook idempotency guard", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "redis not configured, webhook idempotency guard disabled")
	}

	razorpayClient, err := razorpay.NewClient(context.Background(), cfg.Razorpay, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create razorpay client", err)
		os.Exit(1)
	}

	paymentsRepo := payments.NewRepository(dbClient.DB())

	paymentsService, err := payments.NewService(payments.ServiceParams{
		Repo:    paymentsRepo,
		Gateway: razorpayClient,
		Secrets: razorpayClient,
		Catalog: catalog.Default(),
		Tx:      dbClient,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	webhookService, err := razorpaywebhook.NewService(razorpaywebhook.ServiceParams{
		Repo:   paymentsRepo,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	routerParams := routes.RouterParams{
		Config:          cfg,
		Logger:          logg,
		DBPinger:        dbClient,
		Metrics:         httpMetrics,
		MetricsRegistry: registry,
		PaymentsService: paymentsService,
		RazorpayClient:  razorpayClient,
		WebhookService:  webhookService,
	}
	if redisClient != nil {
		routerParams.RedisPinger = redisClient
	}
	if webhookGuard != nil {
		routerParams.WebhookGuard = webhookGuard
	}

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(routerParams),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
