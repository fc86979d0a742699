package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"price-dashboard/internal/config"
	"price-dashboard/internal/tracker"
	"price-dashboard/internal/tracker/api"
	"price-dashboard/internal/tracker/cache"
	"price-dashboard/internal/tracker/messaging"
	"price-dashboard/internal/web"

	_ "price-dashboard/docs"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	metricFetchesTotal   = "dashboard_cache_fetches_total"
	metricCoalescedTotal = "dashboard_cache_coalesced_total"
	metricCreatedTotal   = "dashboard_products_created_total"
	metricUpdatedTotal   = "dashboard_products_updated_total"
	metricDeletedTotal   = "dashboard_products_deleted_total"
)

// @title        Price Dashboard API
// @version      1.0
// @description  Cache-backed JSON endpoints of the price-tracking dashboard.
// @host         localhost:8080
// @BasePath     /
func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.LoadDashboard()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	fetchesCounter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metricFetchesTotal,
		Help: "Total cache fetches by key and result",
	}, []string{"key", "result"})
	coalescedCounter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricCoalescedTotal,
		Help: "Total requests coalesced into an in-flight fetch",
	})
	createdCounter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricCreatedTotal,
		Help: "Total products registered for tracking",
	})
	updatedCounter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricUpdatedTotal,
		Help: "Total product updates sent to the backend",
	})
	deletedCounter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricDeletedTotal,
		Help: "Total products removed from tracking",
	})
	prometheus.MustRegister(fetchesCounter, coalescedCounter, createdCounter, updatedCounter, deletedCounter)

	client := api.New(cfg.APIBaseURL, logger)
	store := cache.New(logger, fetchesCounter, coalescedCounter)
	defer store.Close()

	var publisher tracker.AlertPublisher
	if cfg.RabbitMQURL != "" {
		rabbitConn, err := amqp.Dial(cfg.RabbitMQURL)
		if err != nil {
			logger.Error("connect rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitConn.Close()

		rabbitPublisher, err := messaging.NewRabbitPublisher(rabbitConn, tracker.AlertsQueue)
		if err != nil {
			logger.Error("init publisher", "error", err)
			os.Exit(1)
		}
		defer rabbitPublisher.Close()
		publisher = rabbitPublisher
	} else {
		logger.Info("RABBITMQ_URL not set, price-alert events disabled")
	}

	svc := tracker.NewService(client, store, publisher, logger, tracker.Counters{
		Created: createdCounter,
		Updated: updatedCounter,
		Deleted: deletedCounter,
	})
	defer svc.Close()

	handler := web.NewHandler(svc, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(web.RequestIDMiddleware())
	router.Use(web.AccessLogMiddleware(logger))
	web.RegisterRoutes(router, handler, client)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("dashboard started", "addr", cfg.HTTPAddr, "backend", cfg.APIBaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("http server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("dashboard stopped")
}
