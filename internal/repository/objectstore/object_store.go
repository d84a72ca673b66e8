// Package objectstore opens ratings files from local disk, S3 or GCS.
package objectstore

import (
	"context"
	"io"

	"github.com/schollz/progressbar/v3"
)

// ObjectRepository reads objects from one storage location
type ObjectRepository interface {
	Download(ctx context.Context, key string, quiet bool) (io.ReadCloser, error)
	GetBucketName() string
	GetStorageType() string
}

// RepositoryType represents the type of object storage
type RepositoryType string

const (
	LocalType RepositoryType = "file"
	S3Type    RepositoryType = "s3"
	GCSType   RepositoryType = "gcs"
)

type progressReaderCloser struct {
	io.Reader
	io.Closer
}

// withProgress wraps rc with a byte progress bar unless quiet is set. A
// negative size shows a spinner.
func withProgress(rc io.ReadCloser, size int64, description string, quiet bool) io.ReadCloser {
	if quiet {
		return rc
	}
	bar := progressbar.DefaultBytes(size, description)
	pbReader := progressbar.NewReader(rc, bar)
	return &progressReaderCloser{Reader: &pbReader, Closer: rc}
}
