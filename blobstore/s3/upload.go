package s3

import (
	"context"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hupe1980/topomap/blobstore"
)

// UploadConfig configures the S3 uploader.
type UploadConfig struct {
	// PartSize is the part size of multipart uploads. Snapshots smaller
	// than one part are sent with a single PutObject.
	// Default: 8MB
	PartSize int64

	// Concurrency is the number of concurrent part uploads.
	// Default: 5
	Concurrency int

	// EnableChecksum asks S3 to verify a CRC32-C checksum of every part.
	// Default: true
	EnableChecksum bool
}

// DefaultUploadConfig returns the default upload settings.
func DefaultUploadConfig() UploadConfig {
	return UploadConfig{
		PartSize:       8 * 1024 * 1024,
		Concurrency:    5,
		EnableChecksum: true,
	}
}

func newUploader(client Client, cfg UploadConfig) *manager.Uploader {
	return manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = cfg.PartSize
		u.Concurrency = cfg.Concurrency
		u.LeavePartsOnError = false
	})
}

// upload pipes writes into a background manager upload.
type upload struct {
	pw   *io.PipeWriter
	done chan error

	mu       sync.Mutex
	finished bool
	err      error
}

func newUpload(ctx context.Context, uploader *manager.Uploader, bucket, key string, checksum bool) *upload {
	pr, pw := io.Pipe()
	u := &upload{pw: pw, done: make(chan error, 1)}

	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   pr,
	}
	if checksum {
		input.ChecksumAlgorithm = types.ChecksumAlgorithmCrc32c
	}
	go func() {
		_, err := uploader.Upload(ctx, input)
		_ = pr.CloseWithError(err)
		u.done <- err
	}()
	return u
}

func (u *upload) Write(p []byte) (int, error) {
	return u.pw.Write(p)
}

// Close ends the body and waits for the upload to commit.
func (u *upload) Close() error {
	return u.finish(nil)
}

// Abort fails the body so the upload stops without creating the object.
func (u *upload) Abort() error {
	return u.finish(blobstore.ErrAborted)
}

func (u *upload) finish(cause error) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.finished {
		return u.err
	}
	u.finished = true

	_ = u.pw.CloseWithError(cause)
	err := <-u.done
	if cause == nil {
		u.err = err
	}
	return u.err
}
