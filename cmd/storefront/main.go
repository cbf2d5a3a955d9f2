package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_cart/storefront/internal/app"
	"github.com/fjod/go_cart/storefront/internal/backend"
	"github.com/fjod/go_cart/storefront/internal/config"
	h "github.com/fjod/go_cart/storefront/internal/http"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/publisher"
	"github.com/fjod/go_cart/storefront/internal/service"
	"github.com/fjod/go_cart/storefront/internal/store"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info").WithError(err).Fatal("failed to load config")
	}
	log := logger.New(cfg.LogLevel)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	st, err := store.Open(startCtx, cfg.StoreOptions())
	cancel()
	if err != nil {
		log.WithError(err).WithField("driver", cfg.StoreDriver).Fatal("failed to open store")
	}
	log.WithFields(logrus.Fields{
		"driver":  cfg.StoreDriver,
		"profile": cfg.StoreProfile,
	}).Info("store opened")

	client, err := backend.New(backend.Options{
		BaseURL:          cfg.BackendURL,
		Timeout:          cfg.BackendTimeout,
		MaxFailures:      cfg.BreakerMaxFailures,
		OpenTimeout:      cfg.BreakerOpenTimeout,
		HalfOpenRequests: cfg.BreakerHalfOpenRequests,
	}, log)
	if err != nil {
		log.WithError(err).Fatal("failed to create backend client")
	}

	var events service.EventPublisher
	var kafkaPublisher *publisher.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher = publisher.NewKafkaPublisher(cfg.KafkaTopic, cfg.KafkaBrokers...)
		events = kafkaPublisher
		log.WithField("topic", cfg.KafkaTopic).Info("publishing checkout events to kafka")
	}

	storefront := app.New(st, store.NewKeys(cfg.StoreNamespace), client, events, log)
	storefront.Load(context.Background())

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      h.NewRouter(storefront, log, cfg.RequestTimeout),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("storefront starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	ctx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			log.WithError(err).Error("failed to close kafka writer")
		}
	}
	if err := storefront.Close(); err != nil {
		log.WithError(err).Error("failed to close store")
	}
	log.Info("server stopped")
}
