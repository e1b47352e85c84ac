package handler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/stretchr/testify/require"

	"custom-list-skill/internal/alexa"
	"custom-list-skill/internal/skill"
)

type stubDispatcher struct {
	out alexa.ResponseEnvelope
	err error
	in  alexa.RequestEnvelope
}

func (s *stubDispatcher) Dispatch(_ context.Context, env alexa.RequestEnvelope) (alexa.ResponseEnvelope, error) {
	s.in = env
	return s.out, s.err
}

type countingFlusher struct {
	calls int
	err   error
}

func (f *countingFlusher) ForceFlush(context.Context) error {
	f.calls++
	return f.err
}

func makeEvent(t *testing.T, body string) alexa.RequestEnvelope {
	t.Helper()
	var env alexa.RequestEnvelope
	require.NoError(t, json.Unmarshal([]byte(body), &env))
	return env
}

func TestNewHandler_ValidatesDependency(t *testing.T) {
	_, err := NewHandler(nil)
	require.Error(t, err)
}

func TestHandle_HappyPath(t *testing.T) {
	d := &stubDispatcher{out: alexa.NewResponseBuilder().Speak("hello").Response()}
	h, err := NewHandler(d)
	require.NoError(t, err)

	ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{AwsRequestID: "aws-1"})
	resp, err := h.Handle(ctx, makeEvent(t, `{"version":"1.0","request":{"type":"LaunchRequest","requestId":"r-1"}}`))
	require.NoError(t, err)
	require.Equal(t, "hello", resp.Response.SpeechText())
	require.Equal(t, "r-1", d.in.Request.RequestID)
	require.Equal(t, alexa.RequestTypeLaunch, d.in.Request.Type)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	require.JSONEq(t, `{"version":"1.0","response":{"outputSpeech":{"type":"SSML","ssml":"<speak>hello</speak>"}}}`, string(raw))
}

func TestHandle_RejectedRequestFailsInvocation(t *testing.T) {
	rejected := &skill.Error{Code: skill.ErrorVerification, Reason: "skill_id_mismatch"}
	h, err := NewHandler(&stubDispatcher{err: rejected})
	require.NoError(t, err)

	_, err = h.Handle(context.Background(), makeEvent(t, `{"request":{"type":"LaunchRequest"}}`))
	require.Error(t, err)
	require.True(t, errors.Is(err, rejected))
}

func TestInvocationID(t *testing.T) {
	prev := newUUID
	defer func() { newUUID = prev }()
	newUUID = func() string { return "generated" }

	require.Equal(t, "generated", invocationID(context.Background()))

	ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{AwsRequestID: "aws-1"})
	require.Equal(t, "aws-1", invocationID(ctx))
}

func TestHandle_FlushesTelemetryOncePerInvocation(t *testing.T) {
	flusher := &countingFlusher{}
	h, err := NewHandler(&stubDispatcher{out: alexa.NewResponseBuilder().Speak("hi").Response()}, WithFlusher(flusher))
	require.NoError(t, err)

	event := makeEvent(t, `{"request":{"type":"LaunchRequest","requestId":"r-1"}}`)
	_, err = h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, 1, flusher.calls)

	_, err = h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, 2, flusher.calls)
}

func TestHandle_FlushesOnRejectedRequest(t *testing.T) {
	flusher := &countingFlusher{}
	rejected := &skill.Error{Code: skill.ErrorVerification, Reason: "skill_id_mismatch"}
	h, err := NewHandler(&stubDispatcher{err: rejected}, WithFlusher(flusher))
	require.NoError(t, err)

	_, err = h.Handle(context.Background(), makeEvent(t, `{"request":{"type":"LaunchRequest"}}`))
	require.ErrorIs(t, err, rejected)
	require.Equal(t, 1, flusher.calls)
}

func TestHandle_FlushFailureDoesNotFailInvocation(t *testing.T) {
	flusher := &countingFlusher{err: errors.New("collector unreachable")}
	h, err := NewHandler(&stubDispatcher{out: alexa.NewResponseBuilder().Speak("hi").Response()}, WithFlusher(flusher))
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), makeEvent(t, `{"request":{"type":"LaunchRequest"}}`))
	require.NoError(t, err)
	require.Equal(t, "hi", resp.Response.SpeechText())
	require.Equal(t, 1, flusher.calls)
}
