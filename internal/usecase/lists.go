package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"custom-list-skill/internal/alexa"
	"custom-list-skill/internal/domain"
	"custom-list-skill/internal/integrations/listmanagement"
	"custom-list-skill/internal/observability"
	"custom-list-skill/internal/skill"
)

const (
	// defaultListCount is the number of platform lists (shopping, to-do) the
	// service reports ahead of user-created lists.
	defaultListCount = 2

	defaultListNameLayout = "Mon Jan 02 2006 15:04:05 GMT-0700"

	opCreateList       = "create_list"
	opGetListsMetadata = "get_lists_metadata"
)

// ListClient is the subset of the household list API used by the intents.
type ListClient interface {
	CreateList(ctx context.Context, list domain.List, listVersionToken string) (domain.List, error)
	GetListsMetadata(ctx context.Context) ([]domain.List, error)
}

// ListClientFactory returns a ListClient authorized for one request.
type ListClientFactory func(apiEndpoint, apiAccessToken string) (ListClient, error)

// ListClientsFrom adapts a listmanagement.Factory.
func ListClientsFrom(f *listmanagement.Factory) ListClientFactory {
	return func(apiEndpoint, apiAccessToken string) (ListClient, error) {
		c, err := f.ForRequest(apiEndpoint, apiAccessToken)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

var now = time.Now

// zoneNames spells out common zone abbreviations in the long form users hear
// for their other lists. Unknown abbreviations are kept as they are.
var zoneNames = map[string]string{
	"UTC":  "Coordinated Universal Time",
	"GMT":  "Greenwich Mean Time",
	"BST":  "British Summer Time",
	"CET":  "Central European Standard Time",
	"CEST": "Central European Summer Time",
	"EST":  "Eastern Standard Time",
	"EDT":  "Eastern Daylight Time",
	"CST":  "Central Standard Time",
	"CDT":  "Central Daylight Time",
	"MST":  "Mountain Standard Time",
	"MDT":  "Mountain Daylight Time",
	"PST":  "Pacific Standard Time",
	"PDT":  "Pacific Daylight Time",
}

// defaultListName names a list after t, e.g.
// "Sun Oct 18 2026 09:30:05 GMT+0000 (Coordinated Universal Time)".
func defaultListName(t time.Time) string {
	zone, _ := t.Zone()
	if long, ok := zoneNames[zone]; ok {
		zone = long
	}
	return t.Format(defaultListNameLayout) + " (" + zone + ")"
}

func consentResponse() alexa.ResponseEnvelope {
	return alexa.NewResponseBuilder().
		Speak(permissionsMissingSpeech).
		WithAskForPermissionsConsentCard(listPermissions()).
		Response()
}

func listErrorResponse() alexa.ResponseEnvelope {
	return alexa.NewResponseBuilder().
		Speak(listErrorSpeech).
		Response()
}

// statusOf returns the HTTP status carried by err, or 0.
func statusOf(err error) int {
	var se interface{ HTTPStatusCode() int }
	if errors.As(err, &se) {
		return se.HTTPStatusCode()
	}
	return 0
}

func clientFor(factory ListClientFactory, env alexa.RequestEnvelope) (ListClient, error) {
	sys := env.Context.System
	c, err := factory(sys.APIEndpoint, sys.APIAccessToken)
	if err != nil {
		return nil, fmt.Errorf("usecase: list client: %w", err)
	}
	return c, nil
}

// CreateCustomListIntentHandler creates a list named by the list_name slot,
// or by the current time when the slot is empty.
type CreateCustomListIntentHandler struct {
	lists   ListClientFactory
	metrics *observability.Metrics
}

func NewCreateCustomListIntentHandler(lists ListClientFactory, m *observability.Metrics) (*CreateCustomListIntentHandler, error) {
	if lists == nil {
		return nil, errors.New("usecase: list client factory must not be nil")
	}
	return &CreateCustomListIntentHandler{lists: lists, metrics: m}, nil
}

func (h *CreateCustomListIntentHandler) CanHandle(_ context.Context, in *skill.Input) bool {
	return isIntent(in.Envelope, IntentCreateCustomList)
}

func (h *CreateCustomListIntentHandler) Handle(ctx context.Context, in *skill.Input) (alexa.ResponseEnvelope, error) {
	if !alexa.HasPermissions(in.Envelope) {
		return consentResponse(), nil
	}

	name := strings.TrimSpace(alexa.SlotValue(in.Envelope, slotListName))
	if name == "" {
		name = defaultListName(now())
	}

	client, err := clientFor(h.lists, in.Envelope)
	if err == nil {
		_, err = client.CreateList(ctx, domain.List{Name: name, State: domain.ListStateActive}, "")
		h.metrics.ObserveListCall(opCreateList, err)
	}
	if err != nil {
		in.Log().ErrorContext(ctx, "create list failed", "list_name", name, "status", statusOf(err), "err", err)
		return listErrorResponse(), nil
	}

	in.Log().InfoContext(ctx, "list created", "list_name", name)
	return alexa.NewResponseBuilder().
		Speak(listCreatedSpeech).
		Response(), nil
}

// GetCustomListsIntentHandler reads out the names of the user-created lists.
type GetCustomListsIntentHandler struct {
	lists   ListClientFactory
	metrics *observability.Metrics
}

func NewGetCustomListsIntentHandler(lists ListClientFactory, m *observability.Metrics) (*GetCustomListsIntentHandler, error) {
	if lists == nil {
		return nil, errors.New("usecase: list client factory must not be nil")
	}
	return &GetCustomListsIntentHandler{lists: lists, metrics: m}, nil
}

func (h *GetCustomListsIntentHandler) CanHandle(_ context.Context, in *skill.Input) bool {
	return isIntent(in.Envelope, IntentGetCustomLists)
}

func (h *GetCustomListsIntentHandler) Handle(ctx context.Context, in *skill.Input) (alexa.ResponseEnvelope, error) {
	if !alexa.HasPermissions(in.Envelope) {
		return consentResponse(), nil
	}

	var lists []domain.List
	client, err := clientFor(h.lists, in.Envelope)
	if err == nil {
		lists, err = client.GetListsMetadata(ctx)
		h.metrics.ObserveListCall(opGetListsMetadata, err)
	}
	if err != nil {
		in.Log().ErrorContext(ctx, "get lists failed", "status", statusOf(err), "err", err)
		return listErrorResponse(), nil
	}

	custom := customLists(lists)
	names := make([]string, 0, len(custom))
	for _, l := range custom {
		names = append(names, l.Name)
	}

	return alexa.NewResponseBuilder().
		Speak(fmt.Sprintf("You have %d custom lists: %s", len(custom), strings.Join(names, ","))).
		Response(), nil
}

// customLists drops the platform default lists. It relies on the service
// reporting exactly defaultListCount defaults first.
func customLists(lists []domain.List) []domain.List {
	if len(lists) <= defaultListCount {
		return nil
	}
	return lists[defaultListCount:]
}
