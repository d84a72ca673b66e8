package objectstore

import (
	"context"
	"fmt"
	"io"
	"os"
)

// LocalObjectRepository reads files from the local filesystem.
type LocalObjectRepository struct{}

func NewLocalObjectRepository() *LocalObjectRepository {
	return &LocalObjectRepository{}
}

// Download opens the file at path.
func (r *LocalObjectRepository) Download(_ context.Context, path string, quiet bool) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ratings file: %w", err)
	}

	var size int64 = -1
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}
	return withProgress(f, size, "loading", quiet), nil
}

func (r *LocalObjectRepository) GetBucketName() string {
	return ""
}

func (r *LocalObjectRepository) GetStorageType() string {
	return string(LocalType)
}
