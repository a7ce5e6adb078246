package events

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	watermillsql "github.com/ThreeDotsLabs/watermill-sql/v3/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/ghuser/storefront/pkg/config"
	"github.com/ghuser/storefront/pkg/logger"
)

func setupTracer() *sdktrace.TracerProvider {
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	return tp
}

// The bus hands database/sql handles straight to watermill-sql.
var (
	_ watermillsql.Beginner        = (*sql.DB)(nil)
	_ watermillsql.ContextExecutor = (*sql.Tx)(nil)
)

var fastRetry = retryPolicy{attempts: 3, baseDelay: time.Millisecond}

func TestOptions_Defaults(t *testing.T) {
	cfg := &config.Config{ServiceName: "storefront"}

	got := Options{}.withDefaults(cfg)
	if got.ConsumerGroup != "storefront-consumer" || got.MaxAttempts != 3 || got.RetryBaseDelay != time.Second {
		t.Fatalf("unexpected defaults %+v", got)
	}

	custom := Options{ConsumerGroup: "storefront-worker", MaxAttempts: 5, RetryBaseDelay: time.Millisecond}.withDefaults(cfg)
	if custom.ConsumerGroup != "storefront-worker" || custom.MaxAttempts != 5 || custom.RetryBaseDelay != time.Millisecond {
		t.Fatalf("explicit options overridden: %+v", custom)
	}
}

func TestRetryPolicy(t *testing.T) {
	tests := []struct {
		name      string
		failFirst int
		wantCalls int
		wantErr   bool
	}{
		{"success on first attempt", 0, 1, false},
		{"success after retries", 2, 3, false},
		{"exhausts attempts", 10, 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			handler := func(_ context.Context, _ *message.Message) error {
				calls++
				if calls <= tt.failFirst {
					return errors.New("transient")
				}
				return nil
			}
			err := fastRetry.run(context.Background(), message.NewMessage("id", nil), handler, logger.Nop())
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("expected %d calls, got %d", tt.wantCalls, calls)
			}
		})
	}
}

func TestRetryPolicy_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	handler := func(_ context.Context, _ *message.Message) error {
		calls++
		return errors.New("error")
	}
	p := retryPolicy{attempts: 3, baseDelay: time.Second}
	if err := p.run(ctx, message.NewMessage("id", nil), handler, logger.Nop()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call before cancel, got %d", calls)
	}
}

func TestStartForwarder_RequiresOutbox(t *testing.T) {
	bus := &EventBus{}
	if err := bus.StartForwarder(context.Background()); !errors.Is(err, ErrNotOutbox) {
		t.Fatalf("expected ErrNotOutbox, got %v", err)
	}
}

func TestJSONMessage_Envelope(t *testing.T) {
	eventID := uuid.MustParse("550e8400-e29b-41d4-a716-446655440001")
	payload := struct {
		ItemIDs []string `json:"item_ids"`
	}{ItemIDs: []string{"a", "b"}}

	before := time.Now().Add(-time.Second)
	msg, err := NewJSONMessage(eventID, 2, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	meta, err := ReadMeta(msg)
	if err != nil {
		t.Fatalf("read meta: %v", err)
	}
	if meta.EventID != eventID || meta.Version != 2 {
		t.Errorf("unexpected meta %+v", meta)
	}
	if meta.OccurredAt.Before(before) {
		t.Errorf("occurred_at %v not stamped at creation", meta.OccurredAt)
	}

	var decoded struct {
		ItemIDs []string `json:"item_ids"`
	}
	if err := DecodeJSON(msg, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded.ItemIDs) != 2 || decoded.ItemIDs[1] != "b" {
		t.Errorf("unexpected payload: %+v", decoded)
	}
}

func TestJSONMessage_Errors(t *testing.T) {
	if _, err := NewJSONMessage(uuid.New(), 1, make(chan int)); err == nil {
		t.Fatal("expected marshal error")
	}
	var v map[string]any
	if err := DecodeJSON(message.NewMessage("id", []byte("{not json")), &v); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestReadMeta_Malformed(t *testing.T) {
	tests := []struct {
		name string
		meta map[string]string
	}{
		{"missing event id", map[string]string{MetaEventVersion: "1"}},
		{"bad version", map[string]string{MetaEventID: uuid.NewString(), MetaEventVersion: "one"}},
		{"bad timestamp", map[string]string{MetaEventID: uuid.NewString(), MetaEventVersion: "1", MetaOccurredAt: "yesterday"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := message.NewMessage("id", nil)
			for k, v := range tt.meta {
				msg.Metadata.Set(k, v)
			}
			if _, err := ReadMeta(msg); !errors.Is(err, ErrMalformedMeta) {
				t.Fatalf("expected ErrMalformedMeta, got %v", err)
			}
		})
	}
}

func TestRequireVersion(t *testing.T) {
	called := 0
	h := RequireVersion(1, logger.Nop(), func(context.Context, *message.Message) error {
		called++
		return errors.New("handled")
	})

	current, _ := NewJSONMessage(uuid.New(), 1, struct{}{})
	if err := h(context.Background(), current); err == nil || called != 1 {
		t.Fatalf("current version must reach the handler (called=%d, err=%v)", called, err)
	}

	newer, _ := NewJSONMessage(uuid.New(), 2, struct{}{})
	if err := h(context.Background(), newer); err != nil || called != 1 {
		t.Fatalf("newer version must be skipped (called=%d, err=%v)", called, err)
	}
}

func TestTracePropagation_RoundTrip(t *testing.T) {
	tp := setupTracer()
	defer tp.Shutdown(context.Background()) //nolint:errcheck

	ctx, span := otel.Tracer("test").Start(context.Background(), "publish-span")
	defer span.End()
	want := span.SpanContext().TraceID()

	msg := message.NewMessage("id", nil)
	injectTrace(ctx, []*message.Message{msg})

	got := trace.SpanFromContext(extractTrace(context.Background(), msg)).SpanContext()
	if !got.IsValid() {
		t.Fatal("extracted span context is not valid")
	}
	if got.TraceID() != want {
		t.Errorf("trace ID mismatch: want %s, got %s", want, got.TraceID())
	}
}

func TestSQLPubSub_AcceptStdHandles(t *testing.T) {
	// sql.Open does not dial, so no database is needed to build the pair.
	db, err := sql.Open("pgx", "postgres://storefront@127.0.0.1:1/none?sslmode=disable")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close() //nolint:errcheck

	wlog := &slogAdapter{log: logger.Nop()}
	pub, err := newSQLPublisher(db, false, wlog)
	if err != nil {
		t.Fatalf("publisher over *sql.DB: %v", err)
	}
	defer pub.Close() //nolint:errcheck

	sub, err := newSQLSubscriber(db, "storefront-test", wlog)
	if err != nil {
		t.Fatalf("subscriber over *sql.DB: %v", err)
	}
	defer sub.Close() //nolint:errcheck
}
