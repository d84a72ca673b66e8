package objectstore

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"
)

// S3ObjectRepository manages S3 interactions for objects.
type S3ObjectRepository struct {
	client     manager.DownloadAPIClient
	bucketName string
}

// NewS3ObjectRepository initializes a new S3ObjectRepository.
func NewS3ObjectRepository(client manager.DownloadAPIClient, bucketName string) S3ObjectRepository {
	return S3ObjectRepository{
		client:     client,
		bucketName: bucketName,
	}
}

// GetBucketName returns the bucket name.
func (r *S3ObjectRepository) GetBucketName() string {
	return r.bucketName
}

// GetStorageType returns the object store type.
func (r *S3ObjectRepository) GetStorageType() string {
	return string(S3Type)
}

// Download fetches the object into a temporary file with the multipart
// downloader and returns a reader over it. Closing the reader removes the file.
func (r *S3ObjectRepository) Download(ctx context.Context, key string, quiet bool) (io.ReadCloser, error) {
	tmp, err := os.CreateTemp("", "ratepart-*.dat")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	cleanup := func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}

	var dst io.WriterAt = tmp
	var bar *progressbar.ProgressBar
	if !quiet {
		bar = progressbar.DefaultBytes(-1, "downloading")
		dst = &progressWriterAt{w: tmp, bar: bar}
	}

	log.Debugf("Downloading s3://%s/%s to %s", r.bucketName, key, tmp.Name())
	downloader := manager.NewDownloader(r.client)
	n, err := downloader.Download(ctx, dst, &s3.GetObjectInput{
		Bucket: aws.String(r.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to download s3://%s/%s: %w", r.bucketName, key, err)
	}
	if bar != nil {
		bar.Finish()
	}
	log.Debugf("Downloaded %d bytes from s3://%s/%s", n, r.bucketName, key)

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		cleanup()
		return nil, err
	}
	return &tempFile{File: tmp}, nil
}

// progressWriterAt counts bytes written by concurrent part downloads.
type progressWriterAt struct {
	w   io.WriterAt
	bar *progressbar.ProgressBar
}

func (p *progressWriterAt) WriteAt(b []byte, off int64) (int, error) {
	n, err := p.w.WriteAt(b, off)
	p.bar.Add(n)
	return n, err
}

// tempFile deletes itself on Close.
type tempFile struct {
	*os.File
}

func (t *tempFile) Close() error {
	err := t.File.Close()
	if rmErr := os.Remove(t.File.Name()); rmErr != nil && err == nil {
		err = rmErr
	}
	return err
}
