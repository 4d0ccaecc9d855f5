package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xkilldash9x/selector-cli/internal/config"
)

// ErrUnknownBackend is returned by Open for an unrecognized history.backend.
var ErrUnknownBackend = errors.New("unknown storage backend")

// State is everything the picker persists between runs. The JSON names
// are the keys the browser extension kept in local storage.
type State struct {
	LastSelector string   `json:"lastSelector"`
	History      []string `json:"selectorHistory"`
	Active       bool     `json:"isActive"`
}

// Clone returns a copy of s that shares no memory with it.
func (s State) Clone() State {
	if s.History != nil {
		s.History = append([]string(nil), s.History...)
	}
	return s
}

// Store loads and saves picker State.
type Store interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, state State) error
	Close() error
}

// Open creates the Store selected by cfg.History.Backend. The caller owns
// the returned Store and must Close it.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Store, error) {
	switch cfg.History.Backend {
	case config.BackendMemory:
		return NewMemory(State{}), nil

	case config.BackendFile:
		return NewFile(cfg.History.Path)

	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to create database pool: %w", err)
		}
		pg, err := New(ctx, pool, logger)
		if err != nil {
			pool.Close()
			return nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return pg, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.History.Backend)
}
