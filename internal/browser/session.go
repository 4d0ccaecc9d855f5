// internal/browser/session.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/selector-cli/internal/config"
	"github.com/xkilldash9x/selector-cli/internal/picker"
	"github.com/xkilldash9x/selector-cli/internal/selector"
)

// Pick is a selector produced by a click in the session's tab.
type Pick struct {
	Selector string
	URL      string
	At       time.Time
}

// Session is a browser tab in which clicks are turned into selectors.
// It implements picker.Notifier so toggles reach the page.
type Session struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
	cfg    config.BrowserConfig

	controller  *picker.Controller
	unsubscribe func()
	token       string

	events chan bindingEvent
	picks  chan Pick
	done   chan struct{}

	closeOnce sync.Once
}

// Ensure Session implements the interface.
var _ picker.Notifier = (*Session)(nil)

// eventBuffer bounds the binding events waiting to be processed. Events
// beyond it are dropped because the CDP listener must not block.
const eventBuffer = 32

// NewSession launches Chrome, installs the capture script and binding, and
// subscribes the tab to controller broadcasts. Close releases the browser.
func NewSession(ctx context.Context, cfg config.BrowserConfig, controller *picker.Controller, logger *zap.Logger) (*Session, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, AllocatorOptions(cfg)...)

	var ctxOpts []chromedp.ContextOption
	if cfg.Debug {
		ctxOpts = append(ctxOpts, chromedp.WithDebugf(logger.Sugar().Debugf))
	}
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, ctxOpts...)

	s := &Session{
		ctx: tabCtx,
		cancel: func() {
			tabCancel()
			allocCancel()
		},
		logger:     logger.Named("browser"),
		cfg:        cfg,
		controller: controller,
		token:      uuid.NewString(),
		events:     make(chan bindingEvent, eventBuffer),
		picks:      make(chan Pick),
		done:       make(chan struct{}),
	}

	chromedp.ListenTarget(tabCtx, s.bindingListener)

	script := captureScript(s.token)
	err := chromedp.Run(tabCtx,
		runtime.AddBinding(bindingName),
		chromedp.ActionFunc(func(c context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(script).Do(c)
			return err
		}),
	)
	if err != nil {
		s.cancel()
		return nil, fmt.Errorf("failed to start browser session: %w", err)
	}

	s.unsubscribe = controller.Subscribe(s)
	go s.processEvents()
	s.logger.Debug("Browser session started.", zap.Bool("headless", cfg.Headless))
	return s, nil
}

// Picks delivers selectors as they are clicked. It is closed by Close or
// when the browser exits.
func (s *Session) Picks() <-chan Pick {
	return s.picks
}

// Done is closed once the session has stopped processing events.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Navigate loads url in the tab and waits for the body.
func (s *Session) Navigate(ctx context.Context, url string) error {
	runCtx, cancel := s.runContext(ctx)
	defer cancel()

	s.logger.Info("Navigating.", zap.String("url", url))
	if err := chromedp.Run(runCtx, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// Notify applies a STATE_CHANGED message to the page. Other message types
// are ignored.
func (s *Session) Notify(ctx context.Context, msg picker.Message) error {
	if msg.Type != picker.TypeStateChanged {
		return nil
	}
	runCtx, cancel := s.runContext(ctx)
	defer cancel()
	if err := chromedp.Run(runCtx, chromedp.Evaluate(setActiveScript(msg.IsActive), nil)); err != nil {
		return fmt.Errorf("failed to update page state: %w", err)
	}
	return nil
}

// Close stops event processing and shuts the browser down.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		s.cancel()
		<-s.done
	})
	return nil
}

// runContext derives a chromedp context bounded by the navigation timeout
// that is also cancelled with ctx.
func (s *Session) runContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.cfg.NavigationTimeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	runCtx, cancel := context.WithTimeout(s.ctx, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

// bindingListener runs on chromedp's event goroutine and must not block.
func (s *Session) bindingListener(ev interface{}) {
	binding, ok := ev.(*runtime.EventBindingCalled)
	if !ok || binding.Name != bindingName {
		return
	}
	event, err := decodeEvent(binding.Payload)
	if err != nil {
		s.logger.Warn("Ignoring picker event.", zap.Error(err), zap.String("payload", binding.Payload))
		return
	}
	select {
	case s.events <- event:
	case <-s.ctx.Done():
	default:
		s.logger.Warn("Picker event queue full, dropping event.", zap.String("kind", event.Kind))
	}
}

func (s *Session) processEvents() {
	defer func() {
		close(s.picks)
		close(s.done)
	}()

	for {
		select {
		case <-s.ctx.Done():
			return
		case ev := <-s.events:
			if err := s.handleEvent(ev); err != nil {
				if s.ctx.Err() != nil {
					return
				}
				s.logger.Warn("Failed to handle picker event.", zap.String("kind", ev.Kind), zap.Error(err))
			}
		}
	}
}

func (s *Session) handleEvent(ev bindingEvent) error {
	switch ev.Kind {
	case kindReady:
		// A fresh document starts inactive; bring it in line with the controller.
		return s.Notify(s.ctx, picker.Message{Type: picker.TypeStateChanged, IsActive: s.controller.Active()})

	case kindToggle:
		_, err := s.controller.Handle(s.ctx, picker.Message{Type: picker.TypeToggle, IsActive: ev.Active})
		return err

	case kindClick:
		if ev.Token != s.token {
			return fmt.Errorf("click carries a foreign marker %q", ev.Token)
		}
		el, err := s.clickedElement()
		if err != nil {
			return err
		}
		sel, ok, err := s.controller.Click(s.ctx, el)
		if err != nil || !ok {
			return err
		}
		s.logger.Debug("Element picked.", zap.String("selector", sel), zap.String("url", ev.URL))
		select {
		case s.picks <- Pick{Selector: sel, URL: ev.URL, At: time.Now()}:
		case <-s.ctx.Done():
		}
	}
	return nil
}

// clickedElement snapshots the DOM, locates the marked element and clears
// the marker so it does not leak into later snapshots.
func (s *Session) clickedElement() (selector.Element, error) {
	runCtx, cancel := s.runContext(s.ctx)
	defer cancel()

	var el selector.Element
	err := chromedp.Run(runCtx, chromedp.ActionFunc(func(c context.Context) error {
		root, err := dom.GetDocument().WithDepth(-1).Do(c)
		if err != nil {
			return fmt.Errorf("failed to snapshot DOM: %w", err)
		}
		marked := findMarked(root, s.token)
		if marked == nil {
			return ErrMarkerNotFound
		}
		node, ok := selector.FromCDP(root)[marked.NodeID]
		if !ok {
			return ErrMarkerNotFound
		}
		el = node

		if err := dom.RemoveAttribute(marked.NodeID, markerAttr).Do(c); err != nil {
			s.logger.Debug("Could not clear click marker.", zap.Error(err))
		}
		return nil
	}))
	if err != nil {
		if errors.Is(err, ErrMarkerNotFound) {
			return nil, ErrMarkerNotFound
		}
		return nil, err
	}
	return el, nil
}
