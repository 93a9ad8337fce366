package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBlob(t *testing.T, s Store, name, data string) {
	t.Helper()
	w, err := s.Create(context.Background(), name)
	require.NoError(t, err)
	_, err = io.WriteString(w, data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func readBlob(t *testing.T, s Store, name string) string {
	t.Helper()
	r, err := s.Open(context.Background(), name)
	require.NoError(t, err)
	defer r.Close()
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(b)
}

func TestLocalStore_Lifecycle(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)
	ctx := context.Background()

	name := "maps/terrain.tmap"
	data := []byte("hello world, this is a test blob for topomap")

	w, err := store.Create(ctx, name)
	require.NoError(t, err)
	n, err := w.Write(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)

	_, err = store.Open(ctx, name)
	require.ErrorIs(t, err, ErrNotFound, "blob must not be visible before Close")

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	_, err = os.Stat(filepath.Join(tmpDir, "maps", "terrain.tmap"))
	require.NoError(t, err)

	assert.Equal(t, string(data), readBlob(t, store, name))

	writeBlob(t, store, "maps/bunny.tmap", "bunny")
	writeBlob(t, store, "other.bin", "")

	names, err := store.List(ctx, "maps/")
	require.NoError(t, err)
	require.Equal(t, []string{"maps/bunny.tmap", "maps/terrain.tmap"}, names)

	require.NoError(t, store.Delete(ctx, name))
	require.NoError(t, store.Delete(ctx, name), "deleting a missing blob is not an error")

	names, err = store.List(ctx, "")
	require.NoError(t, err)
	require.Equal(t, []string{"maps/bunny.tmap", "other.bin"}, names)

	_, err = store.Open(ctx, name)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_Overwrite(t *testing.T) {
	store := NewLocalStore(t.TempDir())

	writeBlob(t, store, "a.tmap", "first version")
	writeBlob(t, store, "a.tmap", "second")
	assert.Equal(t, "second", readBlob(t, store, "a.tmap"))
}

func TestLocalStore_Abort(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)
	ctx := context.Background()

	writeBlob(t, store, "a.tmap", "published")

	w, err := store.Create(ctx, "a.tmap")
	require.NoError(t, err)
	_, err = w.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, w.Abort())
	require.NoError(t, w.Abort())
	require.NoError(t, w.Close())

	assert.Equal(t, "published", readBlob(t, store, "a.tmap"))

	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "aborted temp file must be removed")
	assert.Equal(t, "a.tmap", entries[0].Name())
}

func TestLocalStore_ListMissingRoot(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "absent"))
	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Open(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	w, err := store.Create(ctx, "a")
	require.NoError(t, err)
	_, err = w.Write([]byte("stream"))
	require.NoError(t, err)
	_, err = store.Open(ctx, "a")
	require.ErrorIs(t, err, ErrNotFound, "blob must not be visible before Close")
	_, err = w.Write([]byte("ed"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Abort(), "abort after close keeps the blob")

	writeBlob(t, store, "b", "snapshot")

	aborted, err := store.Create(ctx, "c")
	require.NoError(t, err)
	_, err = aborted.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, aborted.Abort())

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)
	assert.Equal(t, "streamed", readBlob(t, store, "a"))
	assert.Equal(t, "snapshot", readBlob(t, store, "b"))

	require.NoError(t, store.Delete(ctx, "b"))
	names, err = store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, names)
}
