package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"

	"github.com/ghuser/storefront/pkg/config"
)

// SetupSentry initializes the Sentry SDK for process ("api" or "worker").
// No-ops if DSN is empty.
func SetupSentry(cfg *config.Config, process string) error {
	if cfg.SentryDSN == "" {
		return nil
	}
	sampleRate := 1.0
	if cfg.Environment == config.EnvProduction {
		sampleRate = 0.2
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		Release:          cfg.ServiceName + "@" + cfg.ServiceVersion,
		ServerName:       cfg.ServiceName + "-" + process,
		TracesSampleRate: sampleRate,
		Tags:             map[string]string{"process": process},
	}); err != nil {
		return fmt.Errorf("sentry init: %w", err)
	}
	return nil
}

// SentryFlush flushes buffered events before process exit.
func SentryFlush() {
	sentry.Flush(2 * time.Second)
}

// SentryMiddleware returns a net/http middleware that captures panics and errors.
// Repanic: true so the outer Recovery middleware still handles the 500 response.
func SentryMiddleware() func(http.Handler) http.Handler {
	h := sentryhttp.New(sentryhttp.Options{Repanic: true})
	return h.Handle
}

// CaptureSubscriberError reports an event handler failure with its topic.
// Safe to call when Sentry is not initialized.
func CaptureSubscriberError(ctx context.Context, topic string, err error) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("topic", topic)
		hub.CaptureException(err)
	})
}
