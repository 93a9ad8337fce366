package blobstore

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// tmpPrefix marks blobs still being written; List skips them.
const tmpPrefix = ".tmp-"

// LocalStore keeps snapshots as files below a root directory. Names use
// forward slashes and map to subdirectories. A blob is written to a
// temporary file and renamed into place on Close, so readers never see a
// partial snapshot.
type LocalStore struct {
	root string
}

// NewLocalStore returns a LocalStore rooted at root. The directory is
// created on the first write.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

func (s *LocalStore) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// Open implements Store.
func (s *LocalStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

// Create implements Store.
func (s *LocalStore) Create(_ context.Context, name string) (WritableBlob, error) {
	dst := s.path(name)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, err
	}
	f, err := os.CreateTemp(filepath.Dir(dst), tmpPrefix+filepath.Base(dst)+"-*")
	if err != nil {
		return nil, err
	}
	return &localWriter{f: f, dst: dst}, nil
}

// Delete implements Store.
func (s *LocalStore) Delete(_ context.Context, name string) error {
	err := os.Remove(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// List implements Store. A missing root holds no blobs.
func (s *LocalStore) List(_ context.Context, prefix string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), tmpPrefix) {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		if name := filepath.ToSlash(rel); strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(names)
	return names, nil
}

type localWriter struct {
	f    *os.File
	dst  string
	done bool
	err  error
}

func (w *localWriter) Write(p []byte) (int, error) {
	if w.done {
		return 0, io.ErrClosedPipe
	}
	return w.f.Write(p)
}

// Close syncs the temporary file and renames it into place.
func (w *localWriter) Close() error {
	if w.done {
		return w.err
	}
	w.done = true
	if err := w.f.Sync(); err != nil {
		w.err = errors.Join(err, w.discard())
		return w.err
	}
	if err := w.f.Close(); err != nil {
		_ = os.Remove(w.f.Name())
		w.err = err
		return err
	}
	w.err = os.Rename(w.f.Name(), w.dst)
	return w.err
}

func (w *localWriter) Abort() error {
	if w.done {
		return w.err
	}
	w.done = true
	w.err = w.discard()
	return w.err
}

func (w *localWriter) discard() error {
	_ = w.f.Close()
	return os.Remove(w.f.Name())
}

var _ Store = (*LocalStore)(nil)
