package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/ghuser/storefront/pkg/logger"
)

// Metadata keys every catalog event carries, readable without decoding the payload.
const (
	MetaEventID      = "event_id"
	MetaEventVersion = "event_version"
	MetaOccurredAt   = "occurred_at"
)

// ErrMalformedMeta is returned by ReadMeta when a required key is missing or unparsable.
var ErrMalformedMeta = errors.New("events: malformed message metadata")

// HandlerFunc consumes one message. Returning an error triggers a retry.
type HandlerFunc func(context.Context, *message.Message) error

// Meta is the decoded envelope of a catalog event.
type Meta struct {
	EventID    uuid.UUID
	Version    int
	OccurredAt time.Time
}

// NewJSONMessage builds a message with payload encoded as JSON and the
// envelope keys set in metadata.
func NewJSONMessage(eventID uuid.UUID, version int, payload any) (*message.Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("events: marshal payload: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), body)
	msg.Metadata.Set(MetaEventID, eventID.String())
	msg.Metadata.Set(MetaEventVersion, strconv.Itoa(version))
	msg.Metadata.Set(MetaOccurredAt, time.Now().UTC().Format(time.RFC3339Nano))
	return msg, nil
}

// DecodeJSON unmarshals msg's payload into v.
func DecodeJSON(msg *message.Message, v any) error {
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("events: decode %s: %w", msg.UUID, err)
	}
	return nil
}

// ReadMeta parses the envelope keys. occurred_at is optional.
func ReadMeta(msg *message.Message) (Meta, error) {
	var m Meta
	id, err := uuid.Parse(msg.Metadata.Get(MetaEventID))
	if err != nil {
		return m, fmt.Errorf("%w: %s: %v", ErrMalformedMeta, MetaEventID, err)
	}
	version, err := strconv.Atoi(msg.Metadata.Get(MetaEventVersion))
	if err != nil {
		return m, fmt.Errorf("%w: %s: %v", ErrMalformedMeta, MetaEventVersion, err)
	}
	m.EventID, m.Version = id, version
	if ts := msg.Metadata.Get(MetaOccurredAt); ts != "" {
		if m.OccurredAt, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return m, fmt.Errorf("%w: %s: %v", ErrMalformedMeta, MetaOccurredAt, err)
		}
	}
	return m, nil
}

// RequireVersion wraps h so that messages newer than maxVersion, or without a
// readable envelope, are acknowledged and skipped instead of retried. A
// consumer that is older than its producer logs and moves on.
func RequireVersion(maxVersion int, log logger.Logger, h HandlerFunc) HandlerFunc {
	return func(ctx context.Context, msg *message.Message) error {
		meta, err := ReadMeta(msg)
		if err != nil {
			log.WarnContext(ctx, "events: skipping message with bad envelope", "message_id", msg.UUID, "error", err)
			return nil
		}
		if meta.Version > maxVersion {
			log.WarnContext(ctx, "events: skipping unsupported event version",
				"event_id", meta.EventID, "version", meta.Version, "max_version", maxVersion)
			return nil
		}
		return h(ctx, msg)
	}
}

func injectTrace(ctx context.Context, msgs []*message.Message) {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for _, msg := range msgs {
		for k, v := range carrier {
			msg.Metadata.Set(k, v)
		}
	}
}

func extractTrace(ctx context.Context, msg *message.Message) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(msg.Metadata))
}
