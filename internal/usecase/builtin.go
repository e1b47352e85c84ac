package usecase

import (
	"context"
	"errors"

	"custom-list-skill/internal/alexa"
	"custom-list-skill/internal/skill"
)

func isIntent(env alexa.RequestEnvelope, names ...string) bool {
	if alexa.RequestType(env) != alexa.RequestTypeIntent {
		return false
	}
	got := alexa.IntentName(env)
	for _, name := range names {
		if got == name {
			return true
		}
	}
	return false
}

// LaunchRequestHandler greets the user and lists what the skill can do.
type LaunchRequestHandler struct{}

func (LaunchRequestHandler) CanHandle(_ context.Context, in *skill.Input) bool {
	return alexa.RequestType(in.Envelope) == alexa.RequestTypeLaunch
}

func (LaunchRequestHandler) Handle(_ context.Context, _ *skill.Input) (alexa.ResponseEnvelope, error) {
	speech := welcomeSpeech()
	return alexa.NewResponseBuilder().
		Speak(speech).
		Reprompt(speech).
		Response(), nil
}

type HelpIntentHandler struct{}

func (HelpIntentHandler) CanHandle(_ context.Context, in *skill.Input) bool {
	return isIntent(in.Envelope, IntentHelp)
}

func (HelpIntentHandler) Handle(_ context.Context, _ *skill.Input) (alexa.ResponseEnvelope, error) {
	speech := helpSpeech()
	return alexa.NewResponseBuilder().
		Speak(speech).
		Reprompt(speech).
		Response(), nil
}

type CancelAndStopIntentHandler struct{}

func (CancelAndStopIntentHandler) CanHandle(_ context.Context, in *skill.Input) bool {
	return isIntent(in.Envelope, IntentCancel, IntentStop)
}

func (CancelAndStopIntentHandler) Handle(_ context.Context, _ *skill.Input) (alexa.ResponseEnvelope, error) {
	return alexa.NewResponseBuilder().
		Speak(goodbyeSpeech).
		WithShouldEndSession(true).
		Response(), nil
}

// SessionEndedRequestHandler acknowledges the end of a session. The platform
// ignores any speech in the reply.
type SessionEndedRequestHandler struct{}

func (SessionEndedRequestHandler) CanHandle(_ context.Context, in *skill.Input) bool {
	return alexa.RequestType(in.Envelope) == alexa.RequestTypeSessionEnded
}

func (SessionEndedRequestHandler) Handle(ctx context.Context, in *skill.Input) (alexa.ResponseEnvelope, error) {
	req := in.Envelope.Request
	attrs := []any{"reason", req.Reason}
	if req.Error != nil {
		attrs = append(attrs, "error_type", req.Error.Type, "error_message", req.Error.Message)
	}
	in.Log().InfoContext(ctx, "session ended", attrs...)
	return alexa.NewResponseBuilder().Response(), nil
}

// IntentReflectorHandler repeats the name of any intent nothing else handled.
// It matches every IntentRequest and must be registered last.
type IntentReflectorHandler struct{}

func (IntentReflectorHandler) CanHandle(_ context.Context, in *skill.Input) bool {
	return alexa.RequestType(in.Envelope) == alexa.RequestTypeIntent
}

func (IntentReflectorHandler) Handle(_ context.Context, in *skill.Input) (alexa.ResponseEnvelope, error) {
	return alexa.NewResponseBuilder().
		Speak(reflectorSpeechPrefix + alexa.IntentName(in.Envelope)).
		Response(), nil
}

// ErrorHandler accepts every failure and asks the user to try again.
type ErrorHandler struct{}

func (ErrorHandler) CanHandle(_ context.Context, _ *skill.Input, _ error) bool {
	return true
}

func (ErrorHandler) Handle(ctx context.Context, in *skill.Input, err error) (alexa.ResponseEnvelope, error) {
	attrs := []any{"err", err, "code", string(skill.CodeOf(err))}
	var skillErr *skill.Error
	if errors.As(err, &skillErr) && skillErr.Stack != "" {
		attrs = append(attrs, "stack", skillErr.Stack)
	}
	in.Log().ErrorContext(ctx, "error handled", attrs...)

	return alexa.NewResponseBuilder().
		Speak(apologySpeech).
		Reprompt(apologySpeech).
		Response(), nil
}
