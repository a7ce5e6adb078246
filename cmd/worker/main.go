package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/ghuser/storefront/pkg/app"
	"github.com/ghuser/storefront/pkg/cache"
	"github.com/ghuser/storefront/pkg/config"
	"github.com/ghuser/storefront/pkg/events"
	"github.com/ghuser/storefront/pkg/httpx"
	"github.com/ghuser/storefront/pkg/logger"
	"github.com/ghuser/storefront/pkg/media"
	"github.com/ghuser/storefront/pkg/telemetry"
	"github.com/ghuser/storefront/pkg/workflows"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := config.ValidateForProduction(cfg); err != nil {
		slog.Error("production config validation failed", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg).With("process", "worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Error("failed to setup otel", "error", err)
		os.Exit(1)
	}
	defer tel.Shutdown(context.Background()) //nolint:errcheck

	if err := telemetry.SetupSentry(cfg, "worker"); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	// The worker only consumes; the API process runs the outbox forwarder.
	eventBus, err := events.Open(cfg, events.Options{
		ConsumerGroup: cfg.ServiceName + "-worker",
		MaxAttempts:   5,
	}, log)
	if err != nil {
		log.Error("failed to setup event bus", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer eventBus.Close() //nolint:errcheck

	redisClient, err := cache.NewRedisClient(ctx, cfg)
	if err != nil {
		log.Warn("redis unavailable, cache maintenance disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close() //nolint:errcheck
		log.Info("redis connected")
	}

	store, closeMedia, err := media.New(ctx, cfg)
	if err != nil {
		log.Error("failed to setup media store", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer closeMedia() //nolint:errcheck

	temporalClient, err := workflows.NewTemporalClient(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize temporal client", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer temporalClient.Close()

	a := &app.Application{
		Config:         cfg,
		Logger:         log,
		EventBus:       eventBus,
		Redis:          redisClient,
		Media:          store,
		TemporalClient: temporalClient,
	}

	if err := run(ctx, a, tel.MetricsHandler); err != nil {
		log.Error("worker stopped with error", "error", err)
		os.Exit(1) //nolint:gocritic
	}

	// EventBus.Close() (via defer) waits up to 30s for in-flight handlers.
	log.Info("worker stopped")
}

// run subscribes to the catalog topics, runs the Temporal media worker and
// serves /health and /metrics until ctx is cancelled or one of them fails.
func run(ctx context.Context, a *app.Application, metrics http.Handler) error {
	g, ctx := errgroup.WithContext(ctx)

	srv := httpx.NewServer(a.Config.WorkerHTTPAddr, opsRouter(a, metrics))
	g.Go(func() error {
		a.Logger.Info("worker ops listener", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("worker ops listener: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	var ic itemCache
	if a.Redis != nil {
		ic = cache.NewItemCache(a.Redis)
	}

	subs := subscriptions(ic, a.TemporalClient, a.Logger)
	topics := make([]string, 0, len(subs))
	for _, sub := range subs {
		errCh, err := a.EventBus.Subscribe(ctx, sub.topic, sub.handle)
		if err != nil {
			return err
		}
		topics = append(topics, sub.topic)

		// Drain subscriber errors so the channel never blocks; it closes on shutdown.
		topic := sub.topic
		g.Go(func() error {
			for err := range errCh {
				a.Logger.ErrorContext(ctx, "subscriber error", "topic", topic, "error", err)
				telemetry.CaptureSubscriberError(ctx, topic, err)
			}
			return nil
		})
	}
	a.Logger.Info("event subscribers registered", "topics", topics)

	w := a.TemporalClient.NewMediaWorker(&workflows.MediaActivities{Media: a.Media})
	g.Go(func() error {
		interrupt := make(chan any)
		go func() {
			<-ctx.Done()
			close(interrupt)
		}()
		return w.Run(interrupt)
	})

	return g.Wait()
}

// opsRouter serves the worker's health and metrics endpoints. Redis is
// reported as disabled when the worker runs without it.
func opsRouter(a *app.Application, metrics http.Handler) http.Handler {
	checks := []httpx.Check{
		{Name: "event_bus", Checker: a.EventBus},
		{Name: "temporal", Checker: a.TemporalClient},
		{Name: "redis"},
	}
	if a.Redis != nil {
		checks[2].Checker = a.Redis
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", httpx.HealthHandler(checks...))
	if metrics != nil {
		r.Get("/metrics", metrics.ServeHTTP)
	}
	return r
}
