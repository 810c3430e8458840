package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ihza6661/dua-insan-story-sub002/internal/dispatcher"
	"github.com/ihza6661/dua-insan-story-sub002/internal/invitations"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/config"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/db"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/enums"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/logger"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/metrics"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/migrate"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/outbox"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "worker",
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

	registry := prometheus.NewRegistry()
	payMetrics := metrics.NewPaymentMetrics(registry)

	invitationService, err := invitations.NewService(dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create invitation service", err)
		os.Exit(1)
	}

	d, err := dispatcher.New(dispatcher.Params{
		Repo:    outbox.NewRepository(dbClient.DB()),
		Logger:  logg,
		Metrics: payMetrics,
		Config:  cfg.Outbox,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox dispatcher", err)
		os.Exit(1)
	}
	d.Register(enums.EventOrderPaid, dispatcher.NewOrderPaidInvitationHandler(invitationService))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	logg.Info(ctx, "starting outbox worker")

	if err := d.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "outbox worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "outbox worker shutting down gracefully")
}
