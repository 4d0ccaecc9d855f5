package history

import (
	"context"
	"fmt"

	"github.com/hpcloud/tail"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
)

// Watcher follows a journal file and decodes the events appended to it.
type Watcher struct {
	logger *zap.Logger
	path   string
	// FromStart replays events already in the journal before following it.
	FromStart bool
	// Poll watches the file by polling instead of inotify.
	Poll bool
}

// NewWatcher returns a Watcher for the journal at path.
func NewWatcher(logger *zap.Logger, path string) *Watcher {
	return &Watcher{
		logger: logger.Named("history-watcher"),
		path:   path,
	}
}

// Watch starts following the journal. The returned channel is closed when
// ctx is cancelled or the tail ends. The journal does not need to exist yet.
func (w *Watcher) Watch(ctx context.Context) (<-chan Event, error) {
	path, err := homedir.Expand(w.path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand journal path %q: %w", w.path, err)
	}

	cfg := tail.Config{
		Follow: true,
		ReOpen: true,
		Poll:   w.Poll,
		Logger: tail.DiscardingLogger,
	}
	if !w.FromStart {
		cfg.Location = &tail.SeekInfo{Offset: 0, Whence: 2}
	}

	t, err := tail.TailFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to tail journal: %w", err)
	}

	events := make(chan Event)
	go w.monitorLoop(ctx, t, events)
	return events, nil
}

func (w *Watcher) monitorLoop(ctx context.Context, t *tail.Tail, events chan<- Event) {
	defer func() {
		// The tailer blocks on unread lines; drain them so Stop can finish.
		// Lines is closed when the tailer exits.
		go func() {
			for range t.Lines {
			}
		}()
		t.Stop()
		// Cleanup releases inotify watches. Calling it from a polling tail
		// would start the shared inotify goroutine for nothing.
		if !w.Poll {
			t.Cleanup()
		}
		// Closed last, so a closed channel means the tail has stopped.
		close(events)
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("Stopping journal watcher.")
			return

		case line, ok := <-t.Lines:
			if !ok {
				w.logger.Debug("Journal tailer channel closed.")
				return
			}
			if line.Err != nil {
				w.logger.Warn("Error reading from journal", zap.Error(line.Err))
				continue
			}
			if line.Text == "" {
				continue
			}

			ev, err := DecodeEvent([]byte(line.Text))
			if err != nil {
				w.logger.Warn("Skipping journal line", zap.String("line", line.Text), zap.Error(err))
				continue
			}

			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}
