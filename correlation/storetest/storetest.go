// Package storetest holds the behavior every correlation.Store backend must share.
package storetest

import (
	"context"
	"testing"

	"github.com/jrsteele09/go-oauth-flows/correlation"
	"github.com/stretchr/testify/require"
)

// Run exercises store against the single-slot contract.
func Run(t *testing.T, store correlation.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, found, err := store.Get(ctx, "never-written")
		require.NoError(t, err)
		require.False(t, found)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, correlation.Key, `{"flowId":"AUTHORIZATION_CODE"}`))
		value, found, err := store.Get(ctx, correlation.Key)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, `{"flowId":"AUTHORIZATION_CODE"}`, value)
	})

	t.Run("second set overwrites", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, correlation.Key, "first"))
		require.NoError(t, store.Set(ctx, correlation.Key, "second"))
		value, found, err := store.Get(ctx, correlation.Key)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, "second", value)
	})

	t.Run("delete clears and is idempotent", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, correlation.Key, "value"))
		require.NoError(t, store.Delete(ctx, correlation.Key))
		_, found, err := store.Get(ctx, correlation.Key)
		require.NoError(t, err)
		require.False(t, found)
		require.NoError(t, store.Delete(ctx, correlation.Key))
	})

	t.Run("empty key rejected", func(t *testing.T) {
		_, _, err := store.Get(ctx, "")
		require.ErrorIs(t, err, correlation.ErrEmptyKey)
		require.ErrorIs(t, store.Set(ctx, "", "v"), correlation.ErrEmptyKey)
		require.ErrorIs(t, store.Delete(ctx, ""), correlation.ErrEmptyKey)
	})
}
