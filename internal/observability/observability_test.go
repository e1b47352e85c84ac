package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestSetupLogger_JSONWithTraceIDs(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	logger := SetupLogger("debug", "json", &buf)

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	logger.DebugContext(ctx, "dispatching", "handler", "LaunchRequestHandler")
	span.End()

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "dispatching", line["msg"])
	require.Equal(t, "LaunchRequestHandler", line["handler"])
	require.Equal(t, span.SpanContext().TraceID().String(), line["trace_id"])
	require.Equal(t, span.SpanContext().SpanID().String(), line["span_id"])
}

func TestSetupLogger_TextAndLevel(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	logger := SetupLogger("warn", "text", &buf)
	logger.Info("hidden")
	logger.With("k", "v").Warn("shown")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "msg=shown")
	require.Contains(t, out, "k=v")
	require.NotContains(t, out, "trace_id")
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, parseLevel("warn"))
	require.Equal(t, slog.LevelError, parseLevel(" error "))
	require.Equal(t, slog.LevelInfo, parseLevel("nonsense"))
}

func TestMetrics_Observe(t *testing.T) {
	m := NewMetrics()

	m.ObserveDispatch("LaunchRequestHandler", nil, 10*time.Millisecond)
	m.ObserveDispatch("LaunchRequestHandler", errors.New("boom"), time.Millisecond)
	m.ObserveListCall("create_list", nil)
	m.ObserveListCall("get_lists_metadata", errors.New("403"))
	m.ObserveRejected("skill_id")

	require.Equal(t, 1.0, testutil.ToFloat64(m.DispatchTotal.WithLabelValues("LaunchRequestHandler", OutcomeOK)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.DispatchTotal.WithLabelValues("LaunchRequestHandler", OutcomeError)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.ListAPITotal.WithLabelValues("create_list", OutcomeOK)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.ListAPITotal.WithLabelValues("get_lists_metadata", OutcomeError)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.RejectedTotal.WithLabelValues("skill_id")))
	require.Equal(t, 1, testutil.CollectAndCount(m.DispatchDuration))
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.ObserveDispatch("h", nil, time.Second)
		m.ObserveListCall("op", nil)
		m.ObserveRejected("r")
	})
}

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	prev := otel.GetTracerProvider()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return rec
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[string]string {
	out := make(map[string]string)
	for _, kv := range span.Attributes() {
		out[string(kv.Key)] = kv.Value.Emit()
	}
	return out
}

func TestDispatchSpan_CarriesTurn(t *testing.T) {
	rec := recordSpans(t)

	_, span := StartDispatch(context.Background(), Turn{
		RequestType: "IntentRequest",
		IntentName:  "GetCustomListsIntent",
		RequestID:   "r-1",
	})
	EndDispatch(span, "GetCustomListsIntentHandler", nil)

	ended := rec.Ended()
	require.Len(t, ended, 1)
	require.Equal(t, "skill.dispatch", ended[0].Name())
	require.Equal(t, trace.SpanKindServer, ended[0].SpanKind())
	require.Equal(t, codes.Unset, ended[0].Status().Code)
	require.Equal(t, map[string]string{
		"alexa.request_type": "IntentRequest",
		"alexa.request_id":   "r-1",
		"alexa.intent_name":  "GetCustomListsIntent",
		"skill.handler":      "GetCustomListsIntentHandler",
		"skill.outcome":      OutcomeOK,
	}, spanAttrs(ended[0]))
}

func TestDispatchSpan_RecordsFailure(t *testing.T) {
	rec := recordSpans(t)

	_, span := StartDispatch(context.Background(), Turn{RequestType: "LaunchRequest", RequestID: "r-2"})
	EndDispatch(span, "none", errors.New("boom"))

	ended := rec.Ended()
	require.Len(t, ended, 1)
	require.Equal(t, codes.Error, ended[0].Status().Code)
	require.Equal(t, "boom", ended[0].Status().Description)
	attrs := spanAttrs(ended[0])
	require.NotContains(t, attrs, "alexa.intent_name")
	require.Equal(t, OutcomeError, attrs["skill.outcome"])
	require.Len(t, ended[0].Events(), 1)
}

func TestInitTracer_RequiresEndpoint(t *testing.T) {
	_, err := InitTracer(context.Background(), TracerConfig{ServiceName: "custom-list-skill"})
	require.Error(t, err)
}
