package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ghuser/storefront/pkg/logger"
)

var tracer = otel.Tracer("github.com/ghuser/storefront/pkg/events")

// Subscribe consumes topic in the background. Each message is handled in a
// consumer span that continues the producer's trace.
//
//   - handler returns nil: Ack
//   - handler fails on every attempt: Nack (redelivered) and the last error
//     is sent on the returned channel
//
// The channel is buffered (100) and closed on shutdown; callers must drain it.
// Close waits for in-flight handlers.
func (q *EventBus) Subscribe(ctx context.Context, topic string, handler HandlerFunc) (<-chan error, error) {
	ch, err := q.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("events: subscribe to %s: %w", topic, err)
	}

	errCh := make(chan error, 100)
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		defer close(errCh)
		for msg := range ch {
			if err := q.consume(ctx, topic, msg, handler); err != nil {
				select {
				case errCh <- err:
				default:
					q.log.ErrorContext(ctx, "events: error channel full, dropping error", "topic", topic, "error", err)
				}
			}
		}
	}()
	return errCh, nil
}

func (q *EventBus) consume(ctx context.Context, topic string, msg *message.Message, handler HandlerFunc) error {
	msgCtx, span := tracer.Start(extractTrace(ctx, msg), "consume "+topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "watermill-sql"),
			attribute.String("messaging.destination.name", topic),
			attribute.String("messaging.message.id", msg.UUID),
			attribute.String("catalog.event_id", msg.Metadata.Get(MetaEventID)),
		),
	)
	defer span.End()

	if err := q.retry.run(msgCtx, msg, handler, q.log); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "handler failed")
		msg.Nack()
		return fmt.Errorf("%s: %w", topic, err)
	}
	msg.Ack()
	return nil
}

// retryPolicy tries a handler up to attempts times, doubling the delay
// between tries starting at baseDelay.
type retryPolicy struct {
	attempts  int
	baseDelay time.Duration
}

func (p retryPolicy) run(ctx context.Context, msg *message.Message, handler HandlerFunc, log logger.Logger) error {
	delay := p.baseDelay
	var err error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		if err = handler(ctx, msg); err == nil {
			return nil
		}
		if attempt == p.attempts {
			break
		}
		log.WarnContext(ctx, "events: handler failed, retrying",
			"attempt", attempt,
			"max_attempts", p.attempts,
			"next_delay", delay,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("events: handler failed after %d attempts: %w", p.attempts, err)
}
