package topomap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/topomap/blobstore"
)

// SnapshotExt is appended to snapshot names in a blob store.
const SnapshotExt = ".tmap"

// SaveSnapshot writes a binary dump of m to store under name. A failed dump
// is aborted and leaves any earlier snapshot of that name in place.
func SaveSnapshot(ctx context.Context, m Map, store blobstore.Store, name string) error {
	w, err := store.Create(ctx, name+SnapshotExt)
	if err != nil {
		return fmt.Errorf("snapshot %q: %w", name, err)
	}
	if err := SaveBin(ctx, m, w); err != nil {
		return errors.Join(fmt.Errorf("snapshot %q: %w", name, err), w.Abort())
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("snapshot %q: %w", name, err)
	}
	return nil
}

// LoadSnapshot replaces the content of m with the snapshot name of store.
// A missing snapshot fails with an error matching blobstore.ErrNotFound.
func LoadSnapshot(ctx context.Context, m Map, store blobstore.Store, name string) error {
	rc, err := store.Open(ctx, name+SnapshotExt)
	if err != nil {
		return fmt.Errorf("snapshot %q: %w", name, err)
	}
	defer rc.Close()

	if err := LoadBin(ctx, m, rc); err != nil {
		return fmt.Errorf("snapshot %q: %w", name, err)
	}
	return nil
}

// ListSnapshots returns the names of the snapshots of store starting with prefix.
func ListSnapshots(ctx context.Context, store blobstore.Store, prefix string) ([]string, error) {
	names, err := store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := names[:0]
	for _, n := range names {
		if base, ok := strings.CutSuffix(n, SnapshotExt); ok && base != "" {
			out = append(out, base)
		}
	}
	return out, nil
}

// DeleteSnapshot removes the snapshot name from store. Removing a missing
// snapshot is not an error.
func DeleteSnapshot(ctx context.Context, store blobstore.Store, name string) error {
	if err := store.Delete(ctx, name+SnapshotExt); err != nil {
		return fmt.Errorf("snapshot %q: %w", name, err)
	}
	return nil
}
