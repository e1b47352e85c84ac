package usecase

import (
	"custom-list-skill/internal/observability"
	"custom-list-skill/internal/skill"
)

// NewSkill wires the handler chain. Order matters: the first handler that
// accepts a request handles it, so IntentReflectorHandler stays last.
func NewSkill(lists ListClientFactory, m *observability.Metrics, opts ...skill.Option) (*skill.Skill, error) {
	create, err := NewCreateCustomListIntentHandler(lists, m)
	if err != nil {
		return nil, err
	}
	get, err := NewGetCustomListsIntentHandler(lists, m)
	if err != nil {
		return nil, err
	}

	handlers := []skill.RequestHandler{
		LaunchRequestHandler{},
		create,
		get,
		HelpIntentHandler{},
		CancelAndStopIntentHandler{},
		SessionEndedRequestHandler{},
		IntentReflectorHandler{},
	}
	errorHandlers := []skill.ErrorHandler{
		ErrorHandler{},
	}

	opts = append([]skill.Option{skill.WithMetrics(m)}, opts...)
	return skill.New(handlers, errorHandlers, opts...)
}
