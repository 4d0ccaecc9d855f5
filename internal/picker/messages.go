// Package picker holds the activation state of the element picker and
// handles the messages exchanged with the pages it runs in.
package picker

import "context"

// MessageType identifies a picker message.
type MessageType string

const (
	// TypeToggle asks the controller to switch picking on or off.
	TypeToggle MessageType = "TOGGLE_EXTENSION"
	// TypeStateChanged tells a page the new activation state.
	TypeStateChanged MessageType = "STATE_CHANGED"
	// TypeSelectorUpdated reports a selector generated from a click.
	TypeSelectorUpdated MessageType = "SELECTOR_UPDATED"
)

// Message is the envelope shared by pages and the controller.
type Message struct {
	Type     MessageType `json:"type"`
	IsActive bool        `json:"isActive,omitempty"`
	Selector string      `json:"selector,omitempty"`
}

// Response acknowledges a handled Message.
type Response struct {
	Received bool `json:"received"`
}

// Notifier receives STATE_CHANGED broadcasts. A browser tab is a Notifier.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, msg Message) error

func (f NotifierFunc) Notify(ctx context.Context, msg Message) error { return f(ctx, msg) }
