package skill

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"custom-list-skill/internal/alexa"
)

type fakeParams struct {
	val   string
	err   error
	calls int
}

func (f *fakeParams) GetParameter(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.val, f.err
}

func envelopeFor(skillID string) alexa.RequestEnvelope {
	return alexa.RequestEnvelope{Context: alexa.Context{System: alexa.System{
		Application: alexa.Application{ApplicationID: skillID},
	}}}
}

func TestSkillIDVerifier_Fixed(t *testing.T) {
	_, err := NewSkillIDVerifier("  ")
	require.Error(t, err)

	v, err := NewSkillIDVerifier("amzn1.ask.skill.abc")
	require.NoError(t, err)

	require.NoError(t, v.Verify(context.Background(), envelopeFor("amzn1.ask.skill.abc")))

	err = v.Verify(context.Background(), envelopeFor("amzn1.ask.skill.other"))
	var skillErr *Error
	require.ErrorAs(t, err, &skillErr)
	require.Equal(t, ErrorVerification, skillErr.Code)
	require.Equal(t, "skill_id_mismatch", skillErr.Reason)
}

func TestSkillIDVerifier_FromParam(t *testing.T) {
	_, err := NewSkillIDVerifierFromParam(nil, "/skill-id")
	require.Error(t, err)
	_, err = NewSkillIDVerifierFromParam(&fakeParams{}, " ")
	require.Error(t, err)

	p := &fakeParams{val: " amzn1.ask.skill.abc\n"}
	v, err := NewSkillIDVerifierFromParam(p, "/custom-list-skill/skill-id")
	require.NoError(t, err)
	require.NoError(t, v.Verify(context.Background(), envelopeFor("amzn1.ask.skill.abc")))
	require.Equal(t, 1, p.calls)
}

func TestSkillIDVerifier_ParamUnavailable(t *testing.T) {
	v, err := NewSkillIDVerifierFromParam(&fakeParams{err: errors.New("ssm down")}, "/skill-id")
	require.NoError(t, err)

	err = v.Verify(context.Background(), envelopeFor("amzn1.ask.skill.abc"))
	var skillErr *Error
	require.ErrorAs(t, err, &skillErr)
	require.Equal(t, "skill_id_unavailable", skillErr.Reason)
	require.ErrorContains(t, err, "ssm down")

	v, err = NewSkillIDVerifierFromParam(&fakeParams{val: ""}, "/skill-id")
	require.NoError(t, err)
	require.Error(t, v.Verify(context.Background(), envelopeFor("")))
}

func TestTimestampVerifier(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	v, err := NewTimestampVerifier(0)
	require.NoError(t, err)
	v.now = func() time.Time { return now }

	at := func(ts time.Time) alexa.RequestEnvelope {
		return alexa.RequestEnvelope{Request: alexa.Request{Timestamp: ts}}
	}

	require.NoError(t, v.Verify(context.Background(), at(now.Add(-149*time.Second))))
	require.NoError(t, v.Verify(context.Background(), at(now.Add(30*time.Second))))

	err = v.Verify(context.Background(), at(now.Add(-151*time.Second)))
	var skillErr *Error
	require.ErrorAs(t, err, &skillErr)
	require.Equal(t, "timestamp_out_of_tolerance", skillErr.Reason)

	err = v.Verify(context.Background(), at(time.Time{}))
	require.ErrorAs(t, err, &skillErr)
	require.Equal(t, "timestamp_missing", skillErr.Reason)
}

func TestNewTimestampVerifier_Bounds(t *testing.T) {
	v, err := NewTimestampVerifier(-time.Second)
	require.NoError(t, err)
	require.Equal(t, DefaultTimestampTolerance, v.tolerance)

	_, err = NewTimestampVerifier(2 * time.Hour)
	require.Error(t, err)
}
