package topomap_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/topomap"
	"github.com/hupe1980/topomap/blobstore"
	"github.com/hupe1980/topomap/cmap2"
)

func TestSnapshots(t *testing.T) {
	stores := map[string]blobstore.Store{
		"memory": blobstore.NewMemoryStore(),
		"local":  blobstore.NewLocalStore(t.TempDir()),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			m, _ := newGrid(t, 4, 3)

			require.NoError(t, m.SaveSnapshot(ctx, store, "maps/grid"))
			require.NoError(t, topomap.SaveSnapshot(ctx, m, store, "maps/other"))
			w, err := store.Create(ctx, "maps/readme.txt")
			require.NoError(t, err)
			_, err = io.WriteString(w, "not a snapshot")
			require.NoError(t, err)
			require.NoError(t, w.Close())

			names, err := topomap.ListSnapshots(ctx, store, "maps/")
			require.NoError(t, err)
			assert.Equal(t, []string{"maps/grid", "maps/other"}, names)

			loaded := cmap2.New()
			require.NoError(t, loaded.LoadSnapshot(ctx, store, "maps/grid"))
			requireSameMap(t, m, loaded)

			err = loaded.LoadSnapshot(ctx, store, "maps/missing")
			require.ErrorIs(t, err, blobstore.ErrNotFound)

			require.NoError(t, topomap.DeleteSnapshot(ctx, store, "maps/other"))
			require.NoError(t, topomap.DeleteSnapshot(ctx, store, "maps/other"))
			names, err = topomap.ListSnapshots(ctx, store, "maps/")
			require.NoError(t, err)
			assert.Equal(t, []string{"maps/grid"}, names)
		})
	}
}

var errDiskFull = errors.New("disk full")

// failingStore hands out writers that reject every write.
type failingStore struct {
	blobstore.Store
	aborted int
}

func (s *failingStore) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	w, err := s.Store.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	return &failingWriter{WritableBlob: w, store: s}, nil
}

type failingWriter struct {
	blobstore.WritableBlob
	store *failingStore
}

func (w *failingWriter) Write([]byte) (int, error) { return 0, errDiskFull }

func (w *failingWriter) Abort() error {
	w.store.aborted++
	return w.WritableBlob.Abort()
}

func TestSaveSnapshot_FailureIsAborted(t *testing.T) {
	ctx := context.Background()
	mem := blobstore.NewMemoryStore()
	m, _ := newGrid(t, 2, 2)
	require.NoError(t, m.SaveSnapshot(ctx, mem, "grid"))

	store := &failingStore{Store: mem}
	err := m.SaveSnapshot(ctx, store, "grid")
	require.ErrorIs(t, err, errDiskFull)
	assert.Equal(t, 1, store.aborted)

	err = m.SaveSnapshot(ctx, store, "fresh")
	require.ErrorIs(t, err, errDiskFull)

	names, err := topomap.ListSnapshots(ctx, mem, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"grid"}, names, "a failed save must not publish a blob")

	loaded := cmap2.New()
	require.NoError(t, loaded.LoadSnapshot(ctx, mem, "grid"))
	requireSameMap(t, m, loaded)
}
