package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ihza6661/dua-insan-story-sub002/api/routes"
	"github.com/ihza6661/dua-insan-story-sub002/internal/auth"
	"github.com/ihza6661/dua-insan-story-sub002/internal/cancellations"
	"github.com/ihza6661/dua-insan-story-sub002/internal/checkout"
	"github.com/ihza6661/dua-insan-story-sub002/internal/orders"
	"github.com/ihza6661/dua-insan-story-sub002/internal/promos"
	"github.com/ihza6661/dua-insan-story-sub002/internal/users"
	midtranswebhook "github.com/ihza6661/dua-insan-story-sub002/internal/webhooks/midtrans"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/config"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/db"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/enums"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/logger"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/metrics"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/midtrans"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/migrate"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/outbox"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/redis"
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gateway, err := midtrans.NewClient(context.Background(), cfg.Midtrans, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment gateway client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	payMetrics := metrics.NewPaymentMetrics(registry)

	usersRepo := users.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	authService, err := auth.NewService(usersRepo, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	promoService, err := promos.NewService(promos.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create promo service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(ordersRepo, dbClient, gateway, usersRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(dbClient, ordersRepo, promoService, nil, gateway, usersRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	allowedStatuses, err := parseAllowedStatuses(cfg.Cancellation.AllowedStatuses)
	if err != nil {
		logg.Error(context.Background(), "invalid cancellation allow-list", err)
		os.Exit(1)
	}
	cancellationService, err := cancellations.NewService(
		cancellations.NewRepository(dbClient.DB()),
		ordersRepo,
		dbClient,
		outboxService,
		nil,
		allowedStatuses,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create cancellation service", err)
		os.Exit(1)
	}

	webhookService, err := midtranswebhook.NewService(midtranswebhook.ServiceParams{
		OrdersRepo:        ordersRepo,
		Outbox:            outboxService,
		TransactionRunner: dbClient,
		Logger:            logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := midtranswebhook.NewIdempotencyGuard(redisClient, cfg.Eventing.WebhookIdempotencyTTL, "midtrans")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook idempotency guard", err)
		os.Exit(1)
	}

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

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:          cfg,
			Logger:          logg,
			AuthService:     authService,
			CheckoutService: checkoutService,
			OrdersService:   ordersService,
			Cancellations:   cancellationService,
			WebhookService:  webhookService,
			WebhookGuard:    webhookGuard,
			Gateway:         gateway,
			PaymentMetrics:  payMetrics,
			MetricsGatherer: registry,
		}),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-shutdownCtx.Done()
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "api server shut down")
}

func parseAllowedStatuses(raw []string) ([]enums.OrderStatus, error) {
	statuses := make([]enums.OrderStatus, 0, len(raw))
	for _, value := range raw {
		status, err := enums.ParseOrderStatus(value)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
