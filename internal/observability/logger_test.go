package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/UVMHacks2025/BashProShop/internal/actorctx"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestLogger_AddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger("dev", &buf)

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	log.InfoContext(ctx, "hello")
	span.End()

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log line is not json: %v (%s)", err, buf.String())
	}

	if rec["trace_id"] != span.SpanContext().TraceID().String() {
		t.Fatalf("trace_id missing or wrong: %v", rec["trace_id"])
	}
	if rec["span_id"] == nil {
		t.Fatalf("span_id missing")
	}
}

func TestLogger_ProdSkipsDebug(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger("prod", &buf)

	log.Debug("noisy")

	if buf.Len() != 0 {
		t.Fatalf("debug line should be dropped in prod, got %s", buf.String())
	}
}

func TestLogger_AddsUserID(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger("dev", &buf)

	log.InfoContext(actorctx.WithUserID(context.Background(), "user-7"), "checkout")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log line is not json: %v (%s)", err, buf.String())
	}
	if rec["user_id"] != "user-7" {
		t.Fatalf("user_id = %v, want user-7", rec["user_id"])
	}
	if _, ok := rec["trace_id"]; ok {
		t.Fatalf("no span is active, trace_id must be absent")
	}
}
