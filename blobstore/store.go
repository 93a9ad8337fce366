package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist. It matches
// os.ErrNotExist.
var ErrNotFound = os.ErrNotExist

// ErrAborted ends the upload behind an aborted WritableBlob.
var ErrAborted = errors.New("blobstore: write aborted")

// Store holds map snapshots as named immutable blobs. A blob is written
// once through Create and read whole through Open. Implementations must be
// safe for concurrent use.
type Store interface {
	// Open returns a reader over the whole blob.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Create starts writing a blob. It becomes visible on Close, never
	// before, and never if the write is aborted.
	Create(ctx context.Context, name string) (WritableBlob, error)
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the sorted names of the blobs starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// WritableBlob is a blob being written. Exactly one of Close and Abort
// ends the write; later calls return the first result.
type WritableBlob interface {
	io.WriteCloser
	// Abort discards everything written so far.
	Abort() error
}
