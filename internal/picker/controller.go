package picker

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/selector-cli/internal/selector"
	"github.com/xkilldash9x/selector-cli/internal/store"
)

// Recorder persists selectors and the activation flag.
// *history.Recorder satisfies it.
type Recorder interface {
	Record(ctx context.Context, sel string) (store.State, error)
	SetActive(ctx context.Context, active bool) (store.State, error)
}

// Controller owns the activation flag. Clicks and selector updates are
// only acted on while it is active.
type Controller struct {
	mu        sync.Mutex
	active    bool
	recorder  Recorder
	logger    *zap.Logger
	notifiers map[int]Notifier
	nextID    int
}

// Option configures a Controller.
type Option func(*Controller)

// WithActive sets the initial activation state. Controllers start inactive.
func WithActive(active bool) Option {
	return func(c *Controller) { c.active = active }
}

// New returns a Controller that records through recorder.
func New(recorder Recorder, logger *zap.Logger, opts ...Option) *Controller {
	c := &Controller{
		recorder:  recorder,
		logger:    logger.Named("picker"),
		notifiers: make(map[int]Notifier),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start persists the initial activation state, replacing whatever a
// previous run left behind.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	active := c.active
	c.mu.Unlock()

	if _, err := c.recorder.SetActive(ctx, active); err != nil {
		return fmt.Errorf("failed to reset activation state: %w", err)
	}
	c.logger.Debug("Picker started.", zap.Bool("active", active))
	return nil
}

// Active reports whether picking is on.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Subscribe registers n for STATE_CHANGED broadcasts and returns a
// function that removes it.
func (c *Controller) Subscribe(n Notifier) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.notifiers[id] = n
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.notifiers, id)
	}
}

// Handle processes one message. Unknown types are acknowledged and ignored.
func (c *Controller) Handle(ctx context.Context, msg Message) (Response, error) {
	switch msg.Type {
	case TypeToggle:
		if err := c.setActive(ctx, msg.IsActive); err != nil {
			return Response{}, err
		}

	case TypeSelectorUpdated:
		if !c.Active() {
			c.logger.Debug("Ignoring selector while inactive.", zap.String("selector", msg.Selector))
			break
		}
		if _, err := c.recorder.Record(ctx, msg.Selector); err != nil {
			return Response{}, fmt.Errorf("failed to record selector: %w", err)
		}
		c.logger.Info("Selector recorded.", zap.String("selector", msg.Selector))

	default:
		c.logger.Debug("Ignoring message.", zap.String("type", string(msg.Type)))
	}
	return Response{Received: true}, nil
}

// Click synthesizes the selector of el and records it. While inactive it
// returns ok == false and does nothing.
func (c *Controller) Click(ctx context.Context, el selector.Element) (sel string, ok bool, err error) {
	if !c.Active() {
		return "", false, nil
	}
	sel = selector.Synthesize(el)
	if _, err := c.Handle(ctx, Message{Type: TypeSelectorUpdated, Selector: sel}); err != nil {
		return sel, true, err
	}
	return sel, true, nil
}

func (c *Controller) setActive(ctx context.Context, active bool) error {
	c.mu.Lock()
	if _, err := c.recorder.SetActive(ctx, active); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("failed to persist activation state: %w", err)
	}
	c.active = active
	notifiers := make([]Notifier, 0, len(c.notifiers))
	for _, n := range c.notifiers {
		notifiers = append(notifiers, n)
	}
	c.mu.Unlock()

	c.logger.Info("Picker toggled.", zap.Bool("active", active))
	c.broadcast(ctx, Message{Type: TypeStateChanged, IsActive: active}, notifiers)
	return nil
}

// broadcast delivers msg to every notifier. A notifier that fails, such as
// a tab that already closed, does not stop the others.
func (c *Controller) broadcast(ctx context.Context, msg Message, notifiers []Notifier) {
	for _, n := range notifiers {
		if err := n.Notify(ctx, msg); err != nil {
			c.logger.Debug("Failed to notify subscriber.", zap.Error(err))
		}
	}
}
