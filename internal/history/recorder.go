package history

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/selector-cli/internal/store"
)

// Recorder applies selector, clear and activation changes to a Store and
// mirrors each change into an optional Journal.
type Recorder struct {
	mu       sync.Mutex
	store    store.Store
	journal  *Journal
	capacity int
	logger   *zap.Logger
}

// NewRecorder returns a Recorder over st. journal may be nil.
func NewRecorder(st store.Store, journal *Journal, capacity int, logger *zap.Logger) *Recorder {
	return &Recorder{
		store:    st,
		journal:  journal,
		capacity: capacity,
		logger:   logger.Named("history"),
	}
}

// Record makes sel the last selector and moves it to the front of the
// history. An empty sel changes nothing.
func (r *Recorder) Record(ctx context.Context, sel string) (store.State, error) {
	if sel == "" {
		return r.Snapshot(ctx)
	}
	return r.update(ctx, Event{Type: EventSelectorUpdated, Selector: sel}, func(st *store.State) {
		st.LastSelector = sel
		st.History = Push(st.History, sel, r.capacity)
	})
}

// Clear empties the history. The last selector is kept.
func (r *Recorder) Clear(ctx context.Context) (store.State, error) {
	return r.update(ctx, Event{Type: EventHistoryCleared}, func(st *store.State) {
		st.History = nil
	})
}

// SetActive persists the activation flag.
func (r *Recorder) SetActive(ctx context.Context, active bool) (store.State, error) {
	return r.update(ctx, Event{Type: EventStateChanged, Active: active}, func(st *store.State) {
		st.Active = active
	})
}

// Snapshot loads the current state.
func (r *Recorder) Snapshot(ctx context.Context) (store.State, error) {
	st, err := r.store.Load(ctx)
	if err != nil {
		return store.State{}, fmt.Errorf("failed to load picker state: %w", err)
	}
	return st, nil
}

func (r *Recorder) update(ctx context.Context, ev Event, apply func(*store.State)) (store.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, err := r.Snapshot(ctx)
	if err != nil {
		return store.State{}, err
	}
	apply(&st)
	if err := r.store.Save(ctx, st); err != nil {
		return store.State{}, fmt.Errorf("failed to save picker state: %w", err)
	}

	ev.Active = st.Active
	if r.journal != nil {
		// The state is already saved; a journal failure only costs watchers an update.
		if _, err := r.journal.Append(ev); err != nil {
			r.logger.Warn("Failed to append to journal", zap.String("type", string(ev.Type)), zap.Error(err))
		}
	}
	r.logger.Debug("Picker state updated",
		zap.String("type", string(ev.Type)),
		zap.String("last_selector", st.LastSelector),
		zap.Int("history_len", len(st.History)),
		zap.Bool("active", st.Active))
	return st, nil
}
