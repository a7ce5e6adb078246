package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// ErrNotOutbox is returned by StartForwarder on a bus opened without Options.Outbox.
var ErrNotOutbox = errors.New("events: bus is not in outbox mode")

func wrapOutbox(pub message.Publisher, outbox bool) message.Publisher {
	if !outbox {
		return pub
	}
	return forwarder.NewPublisher(pub, forwarder.PublisherConfig{ForwarderTopic: outboxTopic})
}

// StartForwarder runs the daemon that drains the outbox queue into the real
// topics. It returns once the forwarder is running; it stops when ctx ends.
func (q *EventBus) StartForwarder(ctx context.Context) error {
	if !q.opts.Outbox {
		return ErrNotOutbox
	}
	if q.fwd != nil {
		return errors.New("events: forwarder already started")
	}

	wlog := &slogAdapter{log: q.log}
	outboxSub, err := newSQLSubscriber(q.db, "catalog-outbox-forwarder", wlog)
	if err != nil {
		return err
	}
	target, err := newSQLPublisher(q.db, true, wlog)
	if err != nil {
		_ = outboxSub.Close()
		return err
	}

	fwd, err := forwarder.NewForwarder(outboxSub, target, wlog, forwarder.Config{ForwarderTopic: outboxTopic})
	if err != nil {
		_ = target.Close()
		_ = outboxSub.Close()
		return fmt.Errorf("events: create forwarder: %w", err)
	}
	q.fwd = fwd

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.log.InfoContext(ctx, "events: outbox forwarder started", "topic", outboxTopic)
		if err := fwd.Run(ctx); err != nil {
			q.log.ErrorContext(ctx, "events: outbox forwarder stopped", "error", err)
		}
	}()

	select {
	case <-fwd.Running():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("events: waiting for forwarder: %w", ctx.Err())
	}
}

// PublishTx writes msgs inside tx, so they are delivered only if tx commits.
// Tables already exist by the time a transaction publishes, so schema
// initialization is skipped.
func (q *EventBus) PublishTx(ctx context.Context, tx *sql.Tx, topic string, msgs ...*message.Message) error {
	pub, err := newSQLPublisher(tx, false, &slogAdapter{log: q.log})
	if err != nil {
		return err
	}
	injectTrace(ctx, msgs)
	if err := wrapOutbox(pub, q.opts.Outbox).Publish(topic, msgs...); err != nil {
		return fmt.Errorf("events: publish to %s in tx: %w", topic, err)
	}
	return nil
}

// Publish sends msgs outside any transaction.
func (q *EventBus) Publish(ctx context.Context, topic string, msgs ...*message.Message) error {
	injectTrace(ctx, msgs)
	if err := q.publisher.Publish(topic, msgs...); err != nil { //nolint:contextcheck
		return fmt.Errorf("events: publish to %s: %w", topic, err)
	}
	return nil
}

// PublishJSON encodes payload into one message and publishes it outside a
// transaction. Used for events that do not accompany a database write.
func (q *EventBus) PublishJSON(ctx context.Context, topic string, eventID uuid.UUID, version int, payload any) error {
	msg, err := NewJSONMessage(eventID, version, payload)
	if err != nil {
		return err
	}
	return q.Publish(ctx, topic, msg)
}
