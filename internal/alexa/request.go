package alexa

import "time"

// Request types delivered by the voice platform.
const (
	RequestTypeLaunch       = "LaunchRequest"
	RequestTypeIntent       = "IntentRequest"
	RequestTypeSessionEnded = "SessionEndedRequest"
)

// Scope status values reported in Permissions.Scopes.
const (
	ScopeGranted = "GRANTED"
	ScopeDenied  = "DENIED"
)

// RequestEnvelope is the JSON document the platform sends for every turn.
type RequestEnvelope struct {
	Version string   `json:"version"`
	Session *Session `json:"session,omitempty"`
	Context Context  `json:"context"`
	Request Request  `json:"request"`
}

type Session struct {
	New         bool        `json:"new"`
	SessionID   string      `json:"sessionId"`
	Application Application `json:"application"`
	User        User        `json:"user"`
}

type Context struct {
	System System `json:"System"`
}

// System carries the caller identity and the credentials needed to call
// platform service APIs on the user's behalf.
type System struct {
	Application    Application `json:"application"`
	User           User        `json:"user"`
	APIEndpoint    string      `json:"apiEndpoint"`
	APIAccessToken string      `json:"apiAccessToken"`
}

type Application struct {
	ApplicationID string `json:"applicationId"`
}

type User struct {
	UserID      string       `json:"userId"`
	AccessToken string       `json:"accessToken,omitempty"`
	Permissions *Permissions `json:"permissions,omitempty"`
}

// Permissions is present only once the user has granted at least one
// permission to the skill.
type Permissions struct {
	ConsentToken string           `json:"consentToken,omitempty"`
	Scopes       map[string]Scope `json:"scopes,omitempty"`
}

type Scope struct {
	Status string `json:"status"`
}

// Request is the tagged union of request kinds, discriminated by Type.
// Intent is set for IntentRequest; Reason and Error for SessionEndedRequest.
type Request struct {
	Type      string        `json:"type"`
	RequestID string        `json:"requestId"`
	Timestamp time.Time     `json:"timestamp"`
	Locale    string        `json:"locale,omitempty"`
	Intent    *Intent       `json:"intent,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	Error     *RequestError `json:"error,omitempty"`
}

type Intent struct {
	Name               string          `json:"name"`
	ConfirmationStatus string          `json:"confirmationStatus,omitempty"`
	Slots              map[string]Slot `json:"slots,omitempty"`
}

type Slot struct {
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
}

type RequestError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// RequestType returns the request kind of the envelope.
func RequestType(env RequestEnvelope) string {
	return env.Request.Type
}

// IntentName returns the intent name for IntentRequests and "" otherwise.
func IntentName(env RequestEnvelope) string {
	if env.Request.Type != RequestTypeIntent || env.Request.Intent == nil {
		return ""
	}
	return env.Request.Intent.Name
}

// SlotValue returns the value of the named slot, or "" when the slot is
// missing or was not filled.
func SlotValue(env RequestEnvelope, name string) string {
	if env.Request.Intent == nil {
		return ""
	}
	slot, ok := env.Request.Intent.Slots[name]
	if !ok {
		return ""
	}
	return slot.Value
}

// ApplicationID returns the skill ID the request was addressed to.
func ApplicationID(env RequestEnvelope) string {
	if id := env.Context.System.Application.ApplicationID; id != "" {
		return id
	}
	if env.Session != nil {
		return env.Session.Application.ApplicationID
	}
	return ""
}

// HasPermissions reports whether the user granted the skill any permission.
// A permissions object with neither a consent token nor a granted scope is
// treated as absent.
func HasPermissions(env RequestEnvelope) bool {
	p := env.Context.System.User.Permissions
	if p == nil {
		return false
	}
	if p.ConsentToken != "" {
		return true
	}
	for _, s := range p.Scopes {
		if s.Status == ScopeGranted {
			return true
		}
	}
	return false
}
