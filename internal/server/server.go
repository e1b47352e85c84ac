package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"custom-list-skill/internal/alexa"
	"custom-list-skill/internal/observability"
	"custom-list-skill/internal/skill"
)

const (
	maxBodyBytes      = 1 << 20
	correlationHeader = "X-Correlation-Id"
	defaultShutdown   = 10 * time.Second
)

// Dispatcher produces the response for one request envelope.
type Dispatcher interface {
	Dispatch(ctx context.Context, env alexa.RequestEnvelope) (alexa.ResponseEnvelope, error)
}

type Config struct {
	Addr            string
	Path            string
	RateLimit       int
	ShutdownTimeout time.Duration
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// Server hosts the skill as an HTTPS web service endpoint. TLS is expected
// to terminate in front of it.
type Server struct {
	cfg        Config
	httpServer *http.Server
}

func New(cfg Config, d Dispatcher, m *observability.Metrics) (*Server, error) {
	if d == nil {
		return nil, errors.New("server: dispatcher must not be nil")
	}
	if m == nil {
		return nil, errors.New("server: metrics must not be nil")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errors.New("server: listen address must not be empty")
	}
	if cfg.Path == "" {
		cfg.Path = "/alexa"
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdown
	}
	return &Server{
		cfg: cfg,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           NewRouter(cfg, d, m),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// NewRouter returns the HTTP routes of the web service.
func NewRouter(cfg Config, d Dispatcher, m *observability.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		if cfg.RateLimit > 0 {
			r.Use(rateLimit(cfg.RateLimit, time.Minute))
		}
		r.Post(cfg.Path, skillHandler(d))
	})

	return otelhttp.NewHandler(r, "skill-server",
		otelhttp.WithFilter(func(req *http.Request) bool {
			return req.URL.Path != "/healthz" && req.URL.Path != "/metrics"
		}),
	)
}

func rateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate_limit_exceeded"})
		}),
	)
}

func skillHandler(d Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		correlationID := strings.TrimSpace(r.Header.Get(correlationHeader))
		if correlationID == "" {
			correlationID = uuid.NewString()
		}
		w.Header().Set(correlationHeader, correlationID)
		logger := slog.Default().With("correlation_id", correlationID)

		var env alexa.RequestEnvelope
		dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
		if err := dec.Decode(&env); err != nil {
			logger.WarnContext(r.Context(), "invalid request body", "err", err)
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: string(skill.ErrorInvalidRequest), Detail: "malformed request envelope"})
			return
		}

		resp, err := d.Dispatch(r.Context(), env)
		if err != nil {
			status := http.StatusInternalServerError
			code := skill.CodeOf(err)
			if code == skill.ErrorVerification {
				status = http.StatusBadRequest
			}
			if code == "" {
				code = skill.ErrorHandlerFailed
			}
			logger.ErrorContext(r.Context(), "request failed", "status", status, "err", err)
			writeJSON(w, status, errorResponse{Error: string(code)})
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// writeJSON leaves SSML markup unescaped so response bodies read the same as
// the Lambda output.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json;charset=UTF-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("skill server listening", "addr", ln.Addr().String(), "path", s.cfg.Path)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		slog.Info("skill server stopped")
		return nil
	})

	return g.Wait()
}
