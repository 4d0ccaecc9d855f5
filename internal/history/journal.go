package history

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/go-homedir"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// EventType names a change to the picker state.
type EventType string

const (
	EventSelectorUpdated EventType = "selector_updated"
	EventHistoryCleared  EventType = "history_cleared"
	EventStateChanged    EventType = "state_changed"
)

// Event is one line of the journal.
type Event struct {
	ID       string    `json:"id"`
	Type     EventType `json:"type"`
	Selector string    `json:"selector,omitempty"`
	Active   bool      `json:"active"`
	At       time.Time `json:"at"`
}

// Journal appends Events to a JSON-lines file.
type Journal struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// OpenJournal opens path for appending, creating it and its directory as
// needed. A leading "~" is expanded to the user's home directory.
func OpenJournal(path string) (*Journal, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand journal path %q: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}
	f, err := os.OpenFile(expanded, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	return &Journal{path: expanded, file: f}, nil
}

// Path is the expanded location of the journal file.
func (j *Journal) Path() string { return j.path }

// Append writes ev as a single line. A missing ID or timestamp is filled in.
func (j *Journal) Append(ev Event) (Event, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	line, err := json.Marshal(ev)
	if err != nil {
		return ev, fmt.Errorf("failed to encode journal event: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.file.Write(append(line, '\n')); err != nil {
		return ev, fmt.Errorf("failed to append journal event: %w", err)
	}
	return ev, nil
}

// Close closes the underlying file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}

// DecodeEvent parses one journal line.
func DecodeEvent(line []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(line, &ev); err != nil {
		return Event{}, fmt.Errorf("malformed journal line: %w", err)
	}
	if ev.Type == "" {
		return Event{}, fmt.Errorf("malformed journal line: missing event type")
	}
	return ev, nil
}
