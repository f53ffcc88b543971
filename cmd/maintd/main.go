package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"maintenance-tracker/config"
	"maintenance-tracker/internal/api"
	"maintenance-tracker/internal/db"
	"maintenance-tracker/internal/logging"
	"maintenance-tracker/internal/metrics"
	"maintenance-tracker/internal/notification"
	"maintenance-tracker/internal/reminder"
	"maintenance-tracker/internal/store"
)

func main() {
	if err := config.LoadEnv(""); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load env file: %v\n", err)
		os.Exit(1)
	}

	configPath := config.Path()
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration from %s: %v\n", configPath, err)
		os.Exit(1)
	}

	logger := logging.Must(logging.New(cfg.Log.Level))
	defer func() { _ = logger.Sync() }()
	logger.Info("configuration loaded", zap.String("path", configPath), zap.String("storage", cfg.Storage.Driver))

	if err := run(cfg, logger); err != nil {
		logger.Fatal("maintd stopped with error", zap.Error(err))
	}
	logger.Info("server gracefully stopped")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	openCtx, cancelOpen := context.WithTimeout(ctx, 15*time.Second)
	backend, err := db.OpenBackend(openCtx, &cfg.Storage, logging.Named(logger, "db"))
	cancelOpen()
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer backend.Close()

	reg := prom.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewRecorder(reg)

	machines := store.New(backend, store.WithLogger(logging.Named(logger, "store")))
	themes := store.NewThemeStore(backend)
	subs := store.NewSubscriptionStore(backend, store.WithSubscriptionLogger(logging.Named(logger, "subscriptions")))

	var webpushOptions *webpush.Options
	var pool *notification.WorkerPool
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool = notification.NewWorkerPool(cfg.WorkerPool.Size, subs, webpushOptions,
			notification.WithLogger(logging.Named(logger, "push")),
			notification.WithMetrics(rec))
		pool.Start(ctx)
	} else {
		logger.Warn("VAPID keys are not configured, push reminders are off")
	}

	var dispatcher reminder.Dispatcher
	if pool != nil {
		dispatcher = pool
	}
	reminders := reminder.NewService(cfg.Reminder, cfg.Tracker.Location, machines, dispatcher,
		reminder.WithLogger(logging.Named(logger, "reminder")),
		reminder.WithMetrics(rec))
	reminderDone := make(chan error, 1)
	go func() { reminderDone <- reminders.Run(ctx) }()

	gin.SetMode(gin.ReleaseMode)
	handler := api.NewHandler(machines, themes, subs, webpushOptions,
		api.WithLocation(cfg.Tracker.Location),
		api.WithLogger(logging.Named(logger, "api")))
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewRouter(handler, cfg.Server, rec, logging.Named(logger, "http")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping services")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	if err := <-reminderDone; err != nil {
		logger.Error("reminder scheduler", zap.Error(err))
	}
	if pool != nil {
		pool.Wait()
	}
	return nil
}
