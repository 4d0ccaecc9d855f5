package store

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// flexibleSQLMatcher creates a regex that is insensitive to whitespace for more robust SQL mock testing.
func flexibleSQLMatcher(sql string) string {
	trimmed := strings.TrimSpace(sql)
	return regexp.MustCompile(`\s+`).ReplaceAllString(regexp.QuoteMeta(trimmed), `\s+`)
}

// ArgumentMatcherFunc is a helper to create inline mock matchers.
type ArgumentMatcherFunc func(interface{}) bool

func (f ArgumentMatcherFunc) Match(v interface{}) bool {
	return f(v)
}

// anyTime is a matcher that accepts any value (used for timestamps we can't predict exactly)
var anyTime = ArgumentMatcherFunc(func(v interface{}) bool {
	return true
})

func newMockStore(t *testing.T, logger *zap.Logger) (*Postgres, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)

	mockPool.ExpectPing()
	pg, err := New(context.Background(), mockPool, logger)
	require.NoError(t, err)
	return pg, mockPool
}

// -- Test Cases --

func TestNewPostgres(t *testing.T) {
	t.Run("should return error if ping fails", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		pingErr := errors.New("database unavailable")
		mockPool.ExpectPing().WillReturnError(pingErr)

		_, err = New(context.Background(), mockPool, zap.NewNop())
		require.Error(t, err)
		assert.ErrorIs(t, err, pingErr, "Error from ping should be propagated")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestMigrate(t *testing.T) {
	pg, mockPool := newMockStore(t, zap.NewNop())

	mockPool.ExpectExec(flexibleSQLMatcher(sqlCreateStateTable)).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, pg.Migrate(context.Background()))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPostgresLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes the state row", func(t *testing.T) {
		pg, mockPool := newMockStore(t, zap.NewNop())

		rows := pgxmock.NewRows([]string{"last_selector", "history", "is_active"}).
			AddRow("#top > a", []byte(`["#top > a","div.card"]`), true)
		mockPool.ExpectQuery(flexibleSQLMatcher(sqlLoadState)).
			WithArgs(stateRowID).
			WillReturnRows(rows)

		st, err := pg.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, State{
			LastSelector: "#top > a",
			History:      []string{"#top > a", "div.card"},
			Active:       true,
		}, st)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("missing row is the zero state", func(t *testing.T) {
		pg, mockPool := newMockStore(t, zap.NewNop())

		mockPool.ExpectQuery(flexibleSQLMatcher(sqlLoadState)).
			WithArgs(stateRowID).
			WillReturnError(pgx.ErrNoRows)

		st, err := pg.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, State{}, st)
	})

	t.Run("query errors are wrapped", func(t *testing.T) {
		pg, mockPool := newMockStore(t, zap.NewNop())

		queryErr := errors.New("connection reset")
		mockPool.ExpectQuery(flexibleSQLMatcher(sqlLoadState)).
			WithArgs(stateRowID).
			WillReturnError(queryErr)

		_, err := pg.Load(ctx)
		assert.ErrorIs(t, err, queryErr)
	})
}

func TestPostgresSave(t *testing.T) {
	ctx := context.Background()

	t.Run("should upsert without rollback errors", func(t *testing.T) {
		observedZapCore, observedLogs := observer.New(zapcore.ErrorLevel)
		pg, mockPool := newMockStore(t, zap.New(observedZapCore))

		mockPool.ExpectBegin()
		mockPool.ExpectExec(flexibleSQLMatcher(sqlUpsertState)).
			WithArgs(stateRowID, "div > a", []byte(`["div > a"]`), true, anyTime).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		// Expect Commit AND the subsequent Rollback (which returns ErrTxClosed)
		mockPool.ExpectCommit()
		mockPool.ExpectRollback().WillReturnError(pgx.ErrTxClosed)

		err := pg.Save(ctx, State{LastSelector: "div > a", History: []string{"div > a"}, Active: true})
		require.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
		assert.Empty(t, observedLogs.All(), "Expected no errors logged on successful commit")
	})

	t.Run("nil history is stored as an empty array", func(t *testing.T) {
		pg, mockPool := newMockStore(t, zap.NewNop())

		mockPool.ExpectBegin()
		mockPool.ExpectExec(flexibleSQLMatcher(sqlUpsertState)).
			WithArgs(stateRowID, "", []byte(`[]`), false, anyTime).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectCommit()
		mockPool.ExpectRollback().WillReturnError(pgx.ErrTxClosed)

		require.NoError(t, pg.Save(ctx, State{}))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should rollback if the upsert fails", func(t *testing.T) {
		pg, mockPool := newMockStore(t, zap.NewNop())

		execErr := errors.New("constraint violation")
		mockPool.ExpectBegin()
		mockPool.ExpectExec(flexibleSQLMatcher(sqlUpsertState)).
			WithArgs(stateRowID, "a", []byte(`["a"]`), false, anyTime).
			WillReturnError(execErr)
		mockPool.ExpectRollback()

		err := pg.Save(ctx, State{LastSelector: "a", History: []string{"a"}})
		require.Error(t, err)
		assert.ErrorIs(t, err, execErr)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should return error if begin fails", func(t *testing.T) {
		pg, mockPool := newMockStore(t, zap.NewNop())

		beginErr := errors.New("too many connections")
		mockPool.ExpectBegin().WillReturnError(beginErr)

		err := pg.Save(ctx, State{})
		assert.ErrorIs(t, err, beginErr)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("rollback failures are logged", func(t *testing.T) {
		observedZapCore, observedLogs := observer.New(zapcore.ErrorLevel)
		pg, mockPool := newMockStore(t, zap.New(observedZapCore))

		mockPool.ExpectBegin()
		mockPool.ExpectExec(flexibleSQLMatcher(sqlUpsertState)).
			WithArgs(stateRowID, "", []byte(`[]`), false, anyTime).
			WillReturnError(errors.New("boom"))
		mockPool.ExpectRollback().WillReturnError(errors.New("rollback failed"))

		require.Error(t, pg.Save(ctx, State{}))
		require.Equal(t, 1, observedLogs.Len())
		assert.Equal(t, "Failed to rollback transaction", observedLogs.All()[0].Message)
	})
}
