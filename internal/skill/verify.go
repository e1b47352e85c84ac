package skill

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"custom-list-skill/internal/alexa"
)

const (
	DefaultTimestampTolerance = 150 * time.Second
	MaxTimestampTolerance     = time.Hour
)

// ParamGetter resolves a named configuration parameter.
type ParamGetter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// SkillIDVerifier rejects requests addressed to a different skill.
type SkillIDVerifier struct {
	resolve func(ctx context.Context) (string, error)
}

// NewSkillIDVerifier checks requests against a fixed skill ID.
func NewSkillIDVerifier(skillID string) (*SkillIDVerifier, error) {
	skillID = strings.TrimSpace(skillID)
	if skillID == "" {
		return nil, errors.New("skill: skill id must not be empty")
	}
	return &SkillIDVerifier{
		resolve: func(context.Context) (string, error) { return skillID, nil },
	}, nil
}

// NewSkillIDVerifierFromParam reads the expected skill ID from the parameter
// store on each check. The getter is expected to cache.
func NewSkillIDVerifierFromParam(p ParamGetter, name string) (*SkillIDVerifier, error) {
	if p == nil {
		return nil, errors.New("skill: param getter must not be nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("skill: skill id parameter name must not be empty")
	}
	return &SkillIDVerifier{
		resolve: func(ctx context.Context) (string, error) {
			v, err := p.GetParameter(ctx, name)
			if err != nil {
				return "", fmt.Errorf("skill: load skill id: %w", err)
			}
			v = strings.TrimSpace(v)
			if v == "" {
				return "", errors.New("skill: skill id parameter is empty")
			}
			return v, nil
		},
	}, nil
}

func (v *SkillIDVerifier) Verify(ctx context.Context, env alexa.RequestEnvelope) error {
	expected, err := v.resolve(ctx)
	if err != nil {
		return newError(ErrorVerification, "skill_id_unavailable", err)
	}
	if got := alexa.ApplicationID(env); got != expected {
		return newError(ErrorVerification, "skill_id_mismatch", fmt.Errorf("request addressed to %q", got))
	}
	return nil
}

// TimestampVerifier rejects requests whose timestamp is too far from now,
// which protects web-service endpoints against replays.
type TimestampVerifier struct {
	tolerance time.Duration
	now       func() time.Time
}

// NewTimestampVerifier builds a verifier; tolerance <= 0 selects the default
// and values above MaxTimestampTolerance are rejected.
func NewTimestampVerifier(tolerance time.Duration) (*TimestampVerifier, error) {
	if tolerance <= 0 {
		tolerance = DefaultTimestampTolerance
	}
	if tolerance > MaxTimestampTolerance {
		return nil, fmt.Errorf("skill: timestamp tolerance %s exceeds %s", tolerance, MaxTimestampTolerance)
	}
	return &TimestampVerifier{tolerance: tolerance, now: time.Now}, nil
}

func (v *TimestampVerifier) Verify(_ context.Context, env alexa.RequestEnvelope) error {
	ts := env.Request.Timestamp
	if ts.IsZero() {
		return newError(ErrorVerification, "timestamp_missing", nil)
	}
	delta := v.now().Sub(ts)
	if delta < 0 {
		delta = -delta
	}
	if delta > v.tolerance {
		return newError(ErrorVerification, "timestamp_out_of_tolerance", fmt.Errorf("request timestamp %s is %s away", ts.Format(time.RFC3339), delta))
	}
	return nil
}
