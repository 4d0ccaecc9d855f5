package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/selector-cli/internal/config"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory backend", func(t *testing.T) {
		cfg := config.NewDefaultConfig()
		cfg.History.Backend = config.BackendMemory

		st, err := Open(ctx, cfg, zap.NewNop())
		require.NoError(t, err)
		defer st.Close()
		assert.IsType(t, &Memory{}, st)
	})

	t.Run("file backend", func(t *testing.T) {
		cfg := config.NewDefaultConfig()
		cfg.History.Path = t.TempDir() + "/state.json"

		st, err := Open(ctx, cfg, zap.NewNop())
		require.NoError(t, err)
		defer st.Close()
		require.IsType(t, &File{}, st)
		assert.Equal(t, cfg.History.Path, st.(*File).Path())
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := config.NewDefaultConfig()
		cfg.History.Backend = "redis"

		_, err := Open(ctx, cfg, zap.NewNop())
		assert.ErrorIs(t, err, ErrUnknownBackend)
	})
}

func TestStateClone(t *testing.T) {
	original := State{LastSelector: "a", History: []string{"a", "b"}, Active: true}
	clone := original.Clone()
	clone.History[0] = "changed"

	assert.Equal(t, "a", original.History[0])
	assert.Nil(t, State{}.Clone().History)
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(State{LastSelector: "#a", History: []string{"#a"}})

	st, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "#a", st.LastSelector)

	// Mutating a loaded value must not leak into the store.
	st.History[0] = "mutated"
	again, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"#a"}, again.History)

	require.NoError(t, m.Save(ctx, State{Active: true}))
	again, err = m.Load(ctx)
	require.NoError(t, err)
	assert.True(t, again.Active)
	assert.Empty(t, again.History)
}
