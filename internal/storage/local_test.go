package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T, publicBaseURL string) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir(), publicBaseURL, zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestLocalStoreRoundTrip(t *testing.T) {
	store := newTestStore(t, "")
	ctx := context.Background()

	data := []byte("blob content")
	require.NoError(t, store.Put(ctx, "tabc_hash.png", data))

	exists, err := store.Exists(ctx, "tabc_hash.png")
	require.NoError(t, err)
	require.True(t, exists)

	got, err := store.Get(ctx, "tabc_hash.png")
	require.NoError(t, err)
	require.Equal(t, data, got)

	require.NoError(t, store.Delete(ctx, "tabc_hash.png"))
	exists, err = store.Exists(ctx, "tabc_hash.png")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestLocalStorePutOverwrites(t *testing.T) {
	store := newTestStore(t, "")
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "blob", []byte("first")))
	require.NoError(t, store.Put(ctx, "blob", []byte("second")))

	got, err := store.Get(ctx, "blob")
	require.NoError(t, err)
	require.Equal(t, []byte("second"), got)
}

func TestLocalStoreMissingBlob(t *testing.T) {
	store := newTestStore(t, "")
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, store.Delete(ctx, "missing"), ErrNotFound)
}

func TestLocalStoreSanitizesNames(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "", zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "../escape.txt", []byte("contained")))

	// the blob lands inside the store directory, not beside it
	_, statErr := os.Stat(filepath.Join(dir, "escape.txt"))
	require.NoError(t, statErr)
	_, statErr = os.Stat(filepath.Join(filepath.Dir(dir), "escape.txt"))
	require.True(t, os.IsNotExist(statErr))
}

func TestLocalStorePublicURL(t *testing.T) {
	withURL := newTestStore(t, "https://files.example.com/attachments/")
	url, ok := withURL.PublicURL("tabc_hash.png")
	require.True(t, ok)
	require.Equal(t, "https://files.example.com/attachments/tabc_hash.png", url)

	withoutURL := newTestStore(t, "")
	_, ok = withoutURL.PublicURL("tabc_hash.png")
	require.False(t, ok)
}
