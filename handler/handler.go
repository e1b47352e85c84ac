package handler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"

	"custom-list-skill/internal/alexa"
)

// Dispatcher produces the response for one request envelope.
type Dispatcher interface {
	Dispatch(ctx context.Context, env alexa.RequestEnvelope) (alexa.ResponseEnvelope, error)
}

// Flusher exports telemetry buffered during an invocation.
type Flusher interface {
	ForceFlush(ctx context.Context) error
}

// Handler adapts a Dispatcher to the Lambda runtime. The platform invokes the
// function with the request envelope as the event payload and expects the
// response envelope as the result.
type Handler struct {
	skill   Dispatcher
	flusher Flusher
}

type Option func(*Handler)

// WithFlusher flushes f before each invocation returns. Lambda freezes the
// process between invocations, so spans left in a batch would otherwise sit
// unexported until the next thaw.
func WithFlusher(f Flusher) Option {
	return func(h *Handler) {
		h.flusher = f
	}
}

func NewHandler(d Dispatcher, opts ...Option) (*Handler, error) {
	if d == nil {
		return nil, errors.New("handler: dispatcher must not be nil")
	}
	h := &Handler{skill: d}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Handle returns an error only for requests the skill refuses to serve, such
// as ones addressed to another skill; every other turn yields a response.
func (h *Handler) Handle(ctx context.Context, env alexa.RequestEnvelope) (alexa.ResponseEnvelope, error) {
	logger := slog.Default().With(
		"aws_request_id", invocationID(ctx),
		"alexa_request_id", env.Request.RequestID,
	)
	start := time.Now()
	defer h.flush(ctx, logger)

	resp, err := h.skill.Dispatch(ctx, env)
	if err != nil {
		logger.ErrorContext(ctx, "request failed", "request_type", env.Request.Type, "err", err)
		return alexa.ResponseEnvelope{}, err
	}

	logger.InfoContext(ctx, "request handled",
		"request_type", env.Request.Type,
		"intent", alexa.IntentName(env),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}

func (h *Handler) flush(ctx context.Context, logger *slog.Logger) {
	if h.flusher == nil {
		return
	}
	if err := h.flusher.ForceFlush(ctx); err != nil {
		logger.WarnContext(ctx, "telemetry flush failed", "err", err)
	}
}

// invocationID returns the Lambda request ID, or a fresh ID outside Lambda.
func invocationID(ctx context.Context) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return lc.AwsRequestID
	}
	return newUUID()
}

var newUUID = func() string {
	return uuid.NewString()
}
