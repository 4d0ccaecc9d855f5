package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile(t *testing.T) {
	ctx := context.Background()

	t.Run("missing file loads as zero state", func(t *testing.T) {
		f, err := NewFile(filepath.Join(t.TempDir(), "absent.json"))
		require.NoError(t, err)

		st, err := f.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, State{}, st)
	})

	t.Run("round trip creates parent directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "state.json")
		f, err := NewFile(path)
		require.NoError(t, err)

		want := State{LastSelector: "div.card > a", History: []string{"div.card > a", "#top"}, Active: true}
		require.NoError(t, f.Save(ctx, want))

		got, err := f.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"selectorHistory"`)
		assert.Contains(t, string(raw), `"lastSelector"`)
		assert.Contains(t, string(raw), `"isActive": true`)
	})

	t.Run("nil history is written as an empty array", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state.json")
		f, err := NewFile(path)
		require.NoError(t, err)
		require.NoError(t, f.Save(ctx, State{}))

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"selectorHistory": []`)
	})

	t.Run("save leaves no temporary files behind", func(t *testing.T) {
		dir := t.TempDir()
		f, err := NewFile(filepath.Join(dir, "state.json"))
		require.NoError(t, err)
		require.NoError(t, f.Save(ctx, State{LastSelector: "a"}))
		require.NoError(t, f.Save(ctx, State{LastSelector: "b"}))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "state.json", entries[0].Name())
	})

	t.Run("corrupt file is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
		f, err := NewFile(path)
		require.NoError(t, err)

		_, err = f.Load(ctx)
		assert.Error(t, err)
	})

	t.Run("empty path is rejected", func(t *testing.T) {
		_, err := NewFile("")
		assert.Error(t, err)
	})
}
