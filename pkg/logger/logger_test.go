package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var m map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &m); err != nil {
		t.Fatalf("failed to parse log line %q: %v", lines[len(lines)-1], err)
	}
	return m
}

func TestInfoContext_TraceFields(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	defer tp.Shutdown(context.Background()) //nolint:errcheck

	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug")

	t.Run("with span", func(t *testing.T) {
		ctx, span := otel.Tracer("test").Start(context.Background(), "catalog-span")
		defer span.End()

		log.InfoContext(ctx, "item created", "item_id", "abc")
		entry := lastEntry(t, &buf)
		if _, ok := entry["trace_id"]; !ok {
			t.Error("expected trace_id")
		}
		if _, ok := entry["span_id"]; !ok {
			t.Error("expected span_id")
		}
		if entry["item_id"] != "abc" {
			t.Errorf("expected item_id=abc, got %v", entry["item_id"])
		}
	})

	t.Run("without span", func(t *testing.T) {
		log.InfoContext(context.Background(), "no span")
		entry := lastEntry(t, &buf)
		if _, ok := entry["trace_id"]; ok {
			t.Error("trace_id should not be present without an active span")
		}
	})
}

func TestWith_BindsAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info").With("component", "cart")
	log.Info("reconciled")

	if entry := lastEntry(t, &buf); entry["component"] != "cart" {
		t.Errorf("expected component=cart, got %v", entry["component"])
	}
}

func TestNewWithWriter_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn")
	log.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered at warn level, got %s", buf.String())
	}
	log.Warn("kept")
	if buf.Len() == 0 {
		t.Fatal("expected warn entry")
	}
}

func TestMiddleware_LevelByStatus(t *testing.T) {
	tests := []struct {
		status    int
		wantLevel string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusNotFound, "WARN"},
		{http.StatusInternalServerError, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var buf bytes.Buffer
			log := NewWithWriter(&buf, "debug")

			r := chi.NewRouter()
			r.Use(middleware.RequestID)
			r.Use(Middleware(log))
			r.Get("/catalog/getOneItem/{id}", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("ok"))
			})

			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/catalog/getOneItem/42", http.NoBody))

			entry := lastEntry(t, &buf)
			if entry["level"] != tt.wantLevel {
				t.Errorf("level: got %v, want %s", entry["level"], tt.wantLevel)
			}
			if _, ok := entry["request_id"]; !ok {
				t.Error("expected request_id in request log")
			}
			if entry["status"] != float64(tt.status) {
				t.Errorf("status: got %v, want %d", entry["status"], tt.status)
			}
			if entry["route"] != "/catalog/getOneItem/{id}" {
				t.Errorf("route: got %v", entry["route"])
			}
			if entry["bytes"] != float64(2) {
				t.Errorf("bytes: got %v, want 2", entry["bytes"])
			}
		})
	}
}

func TestRecovery_Returns500(t *testing.T) {
	var buf bytes.Buffer
	h := Recovery(NewWithWriter(&buf, "error"))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body["error"] != "Internal Server Error" {
		t.Errorf("expected JSON error body, got %q", rr.Body.String())
	}
	if entry := lastEntry(t, &buf); entry["msg"] != "panic recovered" {
		t.Errorf("unexpected log message: %v", entry["msg"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info+2", slog.LevelInfo + 2},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewConsole_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	NewConsole(&buf, "info").Info("cart saved", "lines", 2)

	out := buf.String()
	if !strings.Contains(out, `msg="cart saved"`) || !strings.Contains(out, "lines=2") {
		t.Fatalf("unexpected console output %q", out)
	}
}
