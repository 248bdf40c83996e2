package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	t.Run("get missing key", func(t *testing.T) {
		_, err := store.Get(ctx, "nope")
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})

	t.Run("put and get round trip", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "pom_bolt_project_a", []byte(`{"id":"a"}`)))

		value, err := store.Get(ctx, "pom_bolt_project_a")
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"id":"a"}`), value)
	})

	t.Run("binary payload stored verbatim", func(t *testing.T) {
		payload := []byte{0x50, 0x4b, 0x03, 0x04, 0x00, 0xff, 0xfe}
		require.NoError(t, store.Put(ctx, "pom_bolt_artifact_a", payload))

		value, err := store.Get(ctx, "pom_bolt_artifact_a")
		require.NoError(t, err)
		assert.Equal(t, payload, value)
	})

	t.Run("returned value is a copy", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "copy", []byte("abc")))

		value, err := store.Get(ctx, "copy")
		require.NoError(t, err)
		value[0] = 'x'

		again, err := store.Get(ctx, "copy")
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), again)
	})

	t.Run("list filters by prefix", func(t *testing.T) {
		keys, err := store.List(ctx, "pom_bolt_project_")
		require.NoError(t, err)
		assert.Equal(t, []string{"pom_bolt_project_a"}, keys)
	})

	t.Run("delete removes key", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "pom_bolt_project_a"))

		_, err := store.Get(ctx, "pom_bolt_project_a")
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})

	t.Run("reset clears everything", func(t *testing.T) {
		store.Reset()

		keys, err := store.List(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, keys)
	})
}
