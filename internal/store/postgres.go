package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// DBPool is an interface that abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

// stateRowID is the key of the single row holding the picker state.
const stateRowID = 1

const (
	sqlCreateStateTable = `
        CREATE TABLE IF NOT EXISTS picker_state (
            id            SMALLINT PRIMARY KEY CHECK (id = 1),
            last_selector TEXT NOT NULL DEFAULT '',
            history       JSONB NOT NULL DEFAULT '[]'::jsonb,
            is_active     BOOLEAN NOT NULL DEFAULT FALSE,
            updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
        );
    `
	sqlLoadState = `
        SELECT last_selector, history, is_active
        FROM picker_state
        WHERE id = $1;
    `
	sqlUpsertState = `
        INSERT INTO picker_state (id, last_selector, history, is_active, updated_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (id) DO UPDATE SET
            last_selector = EXCLUDED.last_selector,
            history = EXCLUDED.history,
            is_active = EXCLUDED.is_active,
            updated_at = EXCLUDED.updated_at;
    `
)

// Postgres keeps State in a single-row picker_state table.
type Postgres struct {
	pool DBPool
	log  *zap.Logger
}

// New creates a new store instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Postgres, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

// Migrate creates the picker_state table if it does not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, sqlCreateStateTable); err != nil {
		return fmt.Errorf("failed to create picker_state table: %w", err)
	}
	return nil
}

// Load reads the state row. An absent row is the zero State.
func (p *Postgres) Load(ctx context.Context) (State, error) {
	var (
		state   State
		history []byte
	)
	err := p.pool.QueryRow(ctx, sqlLoadState, stateRowID).Scan(&state.LastSelector, &history, &state.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("failed to load picker state: %w", err)
	}

	if len(history) > 0 {
		if err := json.Unmarshal(history, &state.History); err != nil {
			return State{}, fmt.Errorf("failed to decode selector history: %w", err)
		}
	}
	return state, nil
}

// Save upserts the state row inside a transaction.
func (p *Postgres) Save(ctx context.Context, state State) error {
	history := state.History
	if history == nil {
		history = []string{}
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to encode selector history: %w", err)
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// Rollback after Commit reports ErrTxClosed, which is expected.
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			p.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	if _, err := tx.Exec(ctx, sqlUpsertState,
		stateRowID, state.LastSelector, historyJSON, state.Active, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("failed to save picker state: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close releases the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
