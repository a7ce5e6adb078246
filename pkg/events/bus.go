// Package events is the catalog's PostgreSQL-backed event bus, built on
// Watermill's SQL transport.
//
// Delivery: subscribers sharing Options.ConsumerGroup split the stream, so
// each message is handled by one instance of that group. Handlers must be
// idempotent; a failing message is retried with exponential backoff, then
// Nacked and redelivered.
//
// Outbox: a bus opened with Options.Outbox routes every publish through
// Watermill's forwarder queue. Writes made with PublishTx become visible only
// when the surrounding transaction commits; StartForwarder moves them to their
// real topics.
//
// Trace context travels in message metadata, so a consumer span continues
// the trace of the request that produced the event.
package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	watermillsql "github.com/ThreeDotsLabs/watermill-sql/v3/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/ThreeDotsLabs/watermill/message"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ghuser/storefront/pkg/config"
	"github.com/ghuser/storefront/pkg/logger"
)

const (
	shutdownTimeout = 30 * time.Second
	outboxTopic     = "catalog_outbox"
)

// Options tunes an EventBus. Zero values fall back to the defaults below.
type Options struct {
	// ConsumerGroup names the subscriber group. Default: "<ServiceName>-consumer".
	ConsumerGroup string
	// Outbox routes publishes through the forwarder queue.
	Outbox bool
	// MaxAttempts is how often a handler is tried per delivery. Default 3.
	MaxAttempts int
	// RetryBaseDelay is the first backoff delay, doubled per attempt. Default 1s.
	RetryBaseDelay time.Duration
}

func (o Options) withDefaults(cfg *config.Config) Options {
	if o.ConsumerGroup == "" {
		o.ConsumerGroup = cfg.ServiceName + "-consumer"
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.RetryBaseDelay <= 0 {
		o.RetryBaseDelay = time.Second
	}
	return o
}

// EventBus publishes and consumes catalog events over PostgreSQL.
type EventBus struct {
	publisher  message.Publisher
	subscriber *watermillsql.Subscriber
	fwd        *forwarder.Forwarder
	db         *sql.DB
	log        logger.Logger
	opts       Options
	retry      retryPolicy
	wg         sync.WaitGroup
}

// NewEventBusWithForwarder opens a bus in outbox mode. Call StartForwarder
// afterwards to begin delivering.
func NewEventBusWithForwarder(cfg *config.Config, log logger.Logger) (*EventBus, error) {
	return Open(cfg, Options{Outbox: true}, log)
}

// Open connects to cfg.CatalogDatabaseURL with its own small pool and creates
// the Watermill publisher and subscriber. Schema tables are created on first use.
func Open(cfg *config.Config, opts Options, log logger.Logger) (*EventBus, error) {
	opts = opts.withDefaults(cfg)

	db, err := sql.Open("pgx", cfg.CatalogDatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("events: open db: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	wlog := &slogAdapter{log: log}

	pub, err := newSQLPublisher(db, true, wlog)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	sub, err := newSQLSubscriber(db, opts.ConsumerGroup, wlog)
	if err != nil {
		_ = pub.Close()
		_ = db.Close()
		return nil, err
	}

	return &EventBus{
		publisher:  wrapOutbox(pub, opts.Outbox),
		subscriber: sub,
		db:         db,
		log:        log,
		opts:       opts,
		retry:      retryPolicy{attempts: opts.MaxAttempts, baseDelay: opts.RetryBaseDelay},
	}, nil
}

func newSQLPublisher(db watermillsql.ContextExecutor, initSchema bool, wlog *slogAdapter) (*watermillsql.Publisher, error) {
	pub, err := watermillsql.NewPublisher(db, watermillsql.PublisherConfig{
		SchemaAdapter:        watermillsql.DefaultPostgreSQLSchema{},
		AutoInitializeSchema: initSchema,
	}, wlog)
	if err != nil {
		return nil, fmt.Errorf("events: new publisher: %w", err)
	}
	return pub, nil
}

func newSQLSubscriber(db *sql.DB, group string, wlog *slogAdapter) (*watermillsql.Subscriber, error) {
	sub, err := watermillsql.NewSubscriber(db, watermillsql.SubscriberConfig{
		SchemaAdapter:    watermillsql.DefaultPostgreSQLSchema{},
		OffsetsAdapter:   watermillsql.DefaultPostgreSQLOffsetsAdapter{},
		InitializeSchema: true,
		ConsumerGroup:    group,
	}, wlog)
	if err != nil {
		return nil, fmt.Errorf("events: new subscriber %s: %w", group, err)
	}
	return sub, nil
}

// Ping checks the bus's database connection.
func (q *EventBus) Ping(ctx context.Context) error {
	if err := q.db.PingContext(ctx); err != nil {
		return fmt.Errorf("events: ping db: %w", err)
	}
	return nil
}

// Close stops consuming, waits up to 30s for in-flight handlers, then closes
// the publisher and the database pool. Every step runs; errors are joined.
func (q *EventBus) Close() error {
	var errs []error
	if err := q.subscriber.Close(); err != nil {
		errs = append(errs, fmt.Errorf("events: close subscriber: %w", err))
	}
	if q.fwd != nil {
		if err := q.fwd.Close(); err != nil {
			errs = append(errs, fmt.Errorf("events: close forwarder: %w", err))
		}
	}

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		q.log.Error("events: timed out waiting for in-flight handlers")
	}

	if err := q.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("events: close publisher: %w", err))
	}
	if err := q.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("events: close db: %w", err))
	}
	return errors.Join(errs...)
}
