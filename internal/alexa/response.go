package alexa

import (
	"bytes"
	"encoding/xml"
)

const (
	responseVersion = "1.0"

	speechTypeSSML            = "SSML"
	cardTypeAskForPermissions = "AskForPermissionsConsent"
)

// ResponseEnvelope is the JSON document returned to the platform.
type ResponseEnvelope struct {
	Version  string   `json:"version"`
	Response Response `json:"response"`
}

type Response struct {
	OutputSpeech     *OutputSpeech `json:"outputSpeech,omitempty"`
	Reprompt         *Reprompt     `json:"reprompt,omitempty"`
	Card             *Card         `json:"card,omitempty"`
	ShouldEndSession *bool         `json:"shouldEndSession,omitempty"`
}

type OutputSpeech struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	SSML string `json:"ssml,omitempty"`
}

type Reprompt struct {
	OutputSpeech OutputSpeech `json:"outputSpeech"`
}

type Card struct {
	Type        string   `json:"type"`
	Title       string   `json:"title,omitempty"`
	Content     string   `json:"content,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// ResponseBuilder accumulates the parts of a single response. The zero value
// is ready to use.
type ResponseBuilder struct {
	resp Response
}

// NewResponseBuilder returns an empty builder.
func NewResponseBuilder() *ResponseBuilder {
	return &ResponseBuilder{}
}

// Speak sets the output speech. The text is escaped and wrapped in <speak>.
func (b *ResponseBuilder) Speak(text string) *ResponseBuilder {
	b.resp.OutputSpeech = &OutputSpeech{Type: speechTypeSSML, SSML: wrapSSML(text)}
	return b
}

// Reprompt sets the reprompt speech and keeps the session open.
func (b *ResponseBuilder) Reprompt(text string) *ResponseBuilder {
	b.resp.Reprompt = &Reprompt{OutputSpeech: OutputSpeech{Type: speechTypeSSML, SSML: wrapSSML(text)}}
	return b.WithShouldEndSession(false)
}

// WithAskForPermissionsConsentCard attaches a card asking the user to grant
// the given permission scopes in the companion app.
func (b *ResponseBuilder) WithAskForPermissionsConsentCard(permissions []string) *ResponseBuilder {
	b.resp.Card = &Card{
		Type:        cardTypeAskForPermissions,
		Permissions: append([]string(nil), permissions...),
	}
	return b
}

func (b *ResponseBuilder) WithShouldEndSession(end bool) *ResponseBuilder {
	b.resp.ShouldEndSession = &end
	return b
}

// Response finalizes the builder into an envelope. Later calls on the builder
// do not affect envelopes already returned.
func (b *ResponseBuilder) Response() ResponseEnvelope {
	resp := b.resp
	if resp.ShouldEndSession != nil {
		end := *resp.ShouldEndSession
		resp.ShouldEndSession = &end
	}
	if resp.Card != nil {
		card := *resp.Card
		card.Permissions = append([]string(nil), card.Permissions...)
		resp.Card = &card
	}
	if resp.OutputSpeech != nil {
		speech := *resp.OutputSpeech
		resp.OutputSpeech = &speech
	}
	if resp.Reprompt != nil {
		reprompt := *resp.Reprompt
		resp.Reprompt = &reprompt
	}
	return ResponseEnvelope{Version: responseVersion, Response: resp}
}

// SpeechText returns the unescaped text of the output speech, or "".
func (r Response) SpeechText() string {
	if r.OutputSpeech == nil {
		return ""
	}
	return r.OutputSpeech.PlainText()
}

// RepromptText returns the unescaped text of the reprompt, or "".
func (r Response) RepromptText() string {
	if r.Reprompt == nil {
		return ""
	}
	return r.Reprompt.OutputSpeech.PlainText()
}

// PlainText returns the speech with the SSML envelope and escaping removed.
func (s OutputSpeech) PlainText() string {
	if s.Type != speechTypeSSML {
		return s.Text
	}
	var node struct {
		Text string `xml:",chardata"`
	}
	if err := xml.Unmarshal([]byte(s.SSML), &node); err != nil {
		return s.SSML
	}
	return node.Text
}

func wrapSSML(text string) string {
	var buf bytes.Buffer
	buf.WriteString("<speak>")
	_ = xml.EscapeText(&buf, []byte(text))
	buf.WriteString("</speak>")
	return buf.String()
}
