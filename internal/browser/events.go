// internal/browser/events.go
package browser

import (
	"errors"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrMarkerNotFound means a click was reported but no element carries the
// session marker, typically because the click happened inside a frame.
var ErrMarkerNotFound = errors.New("clicked element not found in DOM snapshot")

// bindingEvent is the payload of a selectorPickEvent call.
type bindingEvent struct {
	Kind   string `json:"kind"`
	Token  string `json:"token,omitempty"`
	URL    string `json:"url,omitempty"`
	Active bool   `json:"active,omitempty"`
}

func decodeEvent(payload string) (bindingEvent, error) {
	var ev bindingEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return bindingEvent{}, fmt.Errorf("could not decode picker event: %w", err)
	}
	switch ev.Kind {
	case kindReady, kindClick, kindToggle:
		return ev, nil
	}
	return bindingEvent{}, fmt.Errorf("unknown picker event kind %q", ev.Kind)
}

// findMarked returns the first element under root whose marker attribute
// equals token.
func findMarked(root *cdp.Node, token string) *cdp.Node {
	if root == nil {
		return nil
	}
	if root.NodeType == cdp.NodeTypeElement {
		if v, ok := root.Attribute(markerAttr); ok && v == token {
			return root
		}
	}
	for _, c := range root.Children {
		if found := findMarked(c, token); found != nil {
			return found
		}
	}
	return nil
}
