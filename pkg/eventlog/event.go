// Package eventlog records test automation events as JSON lines and reads
// them back for post-processing.
package eventlog

import "context"

// Type identifies an event.
type Type string

const (
	TypeStart        Type = "start"
	TypeStop         Type = "stop"
	TypeClick        Type = "click"
	TypeSendKeys     Type = "send_keys"
	TypeAcceptAlert  Type = "accept_alert"
	TypeDismissAlert Type = "dismiss_alert"
	TypeScreenshot   Type = "screenshot"
	TypeValidation   Type = "validation"
	TypeError        Type = "error"
)

// Event is a single test action.
type Event struct {
	Type Type

	// Data is serialized as JSON under event.data when non-nil.
	Data any

	// Element describes the UI element acted on, keyed by locator strategy.
	Element map[string]string

	// Screenshot is the path of a screenshot taken with the event.
	Screenshot string

	// Err marks the event as a failure.
	Err error
}

// Sink receives events.
type Sink interface {
	Record(ctx context.Context, e Event)
}

// ValidationData is the payload of validation events. Events written by
// ValidateTCP carry only the host and path criteria; Passed is unset until
// the trace has been checked.
type ValidationData struct {
	Host            string   `json:"host"`
	URIContains     []string `json:"uri_contains,omitempty"`
	URINotContains  []string `json:"uri_not_contains,omitempty"`
	BodyContains    []string `json:"body_contains,omitempty"`
	BodyNotContains []string `json:"body_not_contains,omitempty"`
	Passed          *bool    `json:"passed,omitempty"`
	Diagnostic      string   `json:"diagnostic,omitempty"`
	From            string   `json:"from,omitempty"`
	To              string   `json:"to,omitempty"`
}
