// Package bootstrap assembles the skill from configuration for both the
// Lambda and the web service entrypoints.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"custom-list-skill/internal/config"
	"custom-list-skill/internal/integrations/listmanagement"
	"custom-list-skill/internal/integrations/paramstore"
	"custom-list-skill/internal/observability"
	"custom-list-skill/internal/skill"
	"custom-list-skill/internal/usecase"
)

// Mode selects the verifiers that apply to the hosting environment.
type Mode int

const (
	ModeLambda Mode = iota
	ModeWebService
)

// newParamGetter is replaced in tests to avoid loading AWS credentials.
var newParamGetter = func(ctx context.Context) (skill.ParamGetter, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: load aws config: %w", err)
	}
	params, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
	if err != nil {
		return nil, err
	}
	return params, nil
}

// Verifiers builds the request verifiers for cfg. The skill ID check is
// skipped with a warning when no ID is configured.
func Verifiers(ctx context.Context, cfg config.Config, mode Mode) ([]skill.Verifier, error) {
	var verifiers []skill.Verifier

	switch {
	case cfg.ID != "":
		v, err := skill.NewSkillIDVerifier(cfg.ID)
		if err != nil {
			return nil, err
		}
		verifiers = append(verifiers, v)
	case cfg.IDParam != "":
		params, err := newParamGetter(ctx)
		if err != nil {
			return nil, err
		}
		v, err := skill.NewSkillIDVerifierFromParam(params, cfg.IDParam)
		if err != nil {
			return nil, err
		}
		verifiers = append(verifiers, v)
	default:
		slog.Warn("skill id verification disabled; set SKILL_ID or SKILL_ID_PARAM")
	}

	if mode == ModeWebService {
		v, err := skill.NewTimestampVerifier(cfg.Verify.TimestampTolerance)
		if err != nil {
			return nil, err
		}
		verifiers = append(verifiers, v)
	}
	return verifiers, nil
}

// NewSkill wires the List API client factory, metrics and verifiers into the
// handler chain.
func NewSkill(ctx context.Context, cfg config.Config, mode Mode, m *observability.Metrics) (*skill.Skill, error) {
	verifiers, err := Verifiers(ctx, cfg, mode)
	if err != nil {
		return nil, err
	}
	lists := listmanagement.NewFactory(listmanagement.WithTimeout(cfg.ListAPI.Timeout))
	return usecase.NewSkill(usecase.ListClientsFrom(lists), m, skill.WithVerifiers(verifiers...))
}

// Tracing owns the process tracer provider. The zero value and a nil
// *Tracing are valid and do nothing, which is the state when no OTLP endpoint
// is configured.
type Tracing struct {
	provider *sdktrace.TracerProvider
}

// ForceFlush exports every span ended so far. The Lambda adapter calls it at
// the end of each invocation because the batch exporter's timer does not run
// while the execution environment is frozen.
func (t *Tracing) ForceFlush(ctx context.Context) error {
	if t == nil || t.provider == nil {
		return nil
	}
	return t.provider.ForceFlush(ctx)
}

// Shutdown flushes and stops the provider.
func (t *Tracing) Shutdown(ctx context.Context) error {
	if t == nil || t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}

// StartTracing installs the OTLP tracer when an endpoint is configured. The
// returned Tracing is never nil.
func StartTracing(ctx context.Context, cfg config.ObservabilityConfig) (*Tracing, error) {
	if cfg.OTLPEndpoint == "" {
		return &Tracing{}, nil
	}
	tp, err := observability.InitTracer(ctx, observability.TracerConfig{
		Endpoint:       cfg.OTLPEndpoint,
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.ServiceVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: start tracing: %w", err)
	}
	return &Tracing{provider: tp}, nil
}
