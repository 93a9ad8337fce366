package minio

import (
	"context"
	"errors"
	"io"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"

	"github.com/hupe1980/topomap/blobstore"
)

// snapshotContentType tags uploaded snapshot objects.
const snapshotContentType = "application/octet-stream"

// Store implements blobstore.Store on a MinIO bucket.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewStore returns a Store on bucket with every key below rootPrefix.
func NewStore(client *minio.Client, bucket, rootPrefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: rootPrefix}
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// Open implements blobstore.Store. GetObject is lazy, so the object is
// stat'ed through the returned handle to report a missing snapshot here
// rather than on the first read.
func (s *Store) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, s.mapErr(err)
	}
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, s.mapErr(err)
	}
	return obj, nil
}

// Create implements blobstore.Store. The object is uploaded while it is
// written and becomes visible when Close returns nil.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	key := s.key(name)
	pr, pw := io.Pipe()

	u := &upload{pw: pw, done: make(chan error, 1)}
	u.cleanup = func() error {
		return s.client.RemoveIncompleteUpload(context.WithoutCancel(ctx), s.bucket, key)
	}

	go func() {
		_, err := s.client.PutObject(ctx, s.bucket, key, pr, -1, minio.PutObjectOptions{
			ContentType: snapshotContentType,
		})
		_ = pr.CloseWithError(err)
		u.done <- err
	}()
	return u, nil
}

// Delete implements blobstore.Store.
func (s *Store) Delete(ctx context.Context, name string) error {
	err := s.client.RemoveObject(ctx, s.bucket, s.key(name), minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

// List implements blobstore.Store.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.key(prefix),
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		name := strings.TrimPrefix(strings.TrimPrefix(obj.Key, s.prefix), "/")
		if name != "" {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

func (s *Store) mapErr(err error) error {
	if isNotFound(err) {
		return blobstore.ErrNotFound
	}
	return err
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

// upload pipes writes into a background PutObject.
type upload struct {
	pw      *io.PipeWriter
	done    chan error
	cleanup func() error

	mu       sync.Mutex
	finished bool
	err      error
}

func (u *upload) Write(p []byte) (int, error) {
	return u.pw.Write(p)
}

// Close ends the body and waits for PutObject.
func (u *upload) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.finished {
		return u.err
	}
	u.finished = true
	_ = u.pw.Close()
	u.err = <-u.done
	return u.err
}

// Abort fails the body and removes any multipart parts already sent.
func (u *upload) Abort() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.finished {
		return nil
	}
	u.finished = true
	_ = u.pw.CloseWithError(blobstore.ErrAborted)
	if err := <-u.done; err != nil && !errors.Is(err, blobstore.ErrAborted) {
		return errors.Join(err, u.cleanup())
	}
	return u.cleanup()
}

var _ blobstore.Store = (*Store)(nil)
