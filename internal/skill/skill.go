package skill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"custom-list-skill/internal/alexa"
	"custom-list-skill/internal/observability"
)

const noHandler = "none"

// Input is what every handler receives for one turn.
type Input struct {
	Envelope alexa.RequestEnvelope
	Logger   *slog.Logger
}

// Log returns the request-scoped logger.
func (in *Input) Log() *slog.Logger {
	if in == nil || in.Logger == nil {
		return slog.Default()
	}
	return in.Logger
}

// RequestHandler is one capability of the skill. CanHandle must be cheap and
// free of side effects.
type RequestHandler interface {
	CanHandle(ctx context.Context, in *Input) bool
	Handle(ctx context.Context, in *Input) (alexa.ResponseEnvelope, error)
}

// ErrorHandler turns a failure of the request handler chain into a response.
type ErrorHandler interface {
	CanHandle(ctx context.Context, in *Input, err error) bool
	Handle(ctx context.Context, in *Input, err error) (alexa.ResponseEnvelope, error)
}

// Verifier rejects requests that must not reach any handler.
type Verifier interface {
	Verify(ctx context.Context, env alexa.RequestEnvelope) error
}

// Skill dispatches each request to the first registered handler whose
// CanHandle returns true, in registration order.
type Skill struct {
	handlers      []RequestHandler
	errorHandlers []ErrorHandler
	verifiers     []Verifier
	metrics       *observability.Metrics
	logger        *slog.Logger
}

type Option func(*Skill)

func WithVerifiers(verifiers ...Verifier) Option {
	return func(s *Skill) {
		s.verifiers = append(s.verifiers, verifiers...)
	}
}

func WithMetrics(m *observability.Metrics) Option {
	return func(s *Skill) {
		s.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Skill) {
		s.logger = logger
	}
}

// New builds a Skill. At least one request handler is required.
func New(handlers []RequestHandler, errorHandlers []ErrorHandler, opts ...Option) (*Skill, error) {
	if len(handlers) == 0 {
		return nil, errors.New("skill: at least one request handler is required")
	}
	for i, h := range handlers {
		if h == nil {
			return nil, fmt.Errorf("skill: request handler %d must not be nil", i)
		}
	}
	for i, h := range errorHandlers {
		if h == nil {
			return nil, fmt.Errorf("skill: error handler %d must not be nil", i)
		}
	}
	s := &Skill{
		handlers:      append([]RequestHandler(nil), handlers...),
		errorHandlers: append([]ErrorHandler(nil), errorHandlers...),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// Dispatch verifies env and produces the response for it. Handler failures,
// panics and unmatched requests are passed to the error handlers; an error is
// returned only when verification fails or no error handler accepts the
// failure.
func (s *Skill) Dispatch(ctx context.Context, env alexa.RequestEnvelope) (alexa.ResponseEnvelope, error) {
	for _, v := range s.verifiers {
		if err := v.Verify(ctx, env); err != nil {
			if CodeOf(err) != ErrorVerification {
				err = newError(ErrorVerification, "verifier_failed", err)
			}
			var skillErr *Error
			errors.As(err, &skillErr)
			s.metrics.ObserveRejected(skillErr.Reason)
			s.logger.WarnContext(ctx, "request rejected", "reason", skillErr.Reason, "err", err)
			return alexa.ResponseEnvelope{}, err
		}
	}

	ctx, span := observability.StartDispatch(ctx, observability.Turn{
		RequestType: alexa.RequestType(env),
		IntentName:  alexa.IntentName(env),
		RequestID:   env.Request.RequestID,
	})
	start := time.Now()

	in := &Input{
		Envelope: env,
		Logger: s.logger.With(
			"request_id", env.Request.RequestID,
			"request_type", alexa.RequestType(env),
		),
	}

	name, resp, handlerErr := s.invoke(ctx, in)

	var err error
	if handlerErr != nil {
		resp, err = s.handleFailure(ctx, in, handlerErr)
	}

	s.metrics.ObserveDispatch(name, handlerErr, time.Since(start))
	observability.EndDispatch(span, name, handlerErr)
	return resp, err
}

func (s *Skill) invoke(ctx context.Context, in *Input) (name string, resp alexa.ResponseEnvelope, err error) {
	name = noHandler
	defer func() {
		if r := recover(); r != nil {
			skillErr := newError(ErrorHandlerFailed, name, fmt.Errorf("panic: %v", r))
			skillErr.Stack = string(debug.Stack())
			resp, err = alexa.ResponseEnvelope{}, skillErr
		}
	}()

	for _, h := range s.handlers {
		if !h.CanHandle(ctx, in) {
			continue
		}
		name = handlerName(h)
		resp, err = h.Handle(ctx, in)
		if err != nil && CodeOf(err) == "" {
			err = newError(ErrorHandlerFailed, name, err)
		}
		return name, resp, err
	}

	reason := alexa.RequestType(in.Envelope)
	if intent := alexa.IntentName(in.Envelope); intent != "" {
		reason += "/" + intent
	}
	return name, alexa.ResponseEnvelope{}, newError(ErrorNoHandler, reason, nil)
}

func (s *Skill) handleFailure(ctx context.Context, in *Input, cause error) (resp alexa.ResponseEnvelope, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp, err = alexa.ResponseEnvelope{}, fmt.Errorf("skill: error handler panicked: %v: %w", r, cause)
		}
	}()

	for _, h := range s.errorHandlers {
		if h.CanHandle(ctx, in, cause) {
			return h.Handle(ctx, in, cause)
		}
	}
	return alexa.ResponseEnvelope{}, cause
}

// handlerName derives a metrics/log label from the handler's type name.
func handlerName(h any) string {
	name := fmt.Sprintf("%T", h)
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimLeft(name, "*")
}
