package objectstore

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	log "github.com/sirupsen/logrus"

	"github.com/zzenonn/ratepart/internal/config"
)

// Location is a parsed ratings file address
type Location struct {
	Type   RepositoryType
	Bucket string
	Key    string
}

func (l Location) String() string {
	switch l.Type {
	case S3Type:
		return "s3://" + l.Bucket + "/" + l.Key
	case GCSType:
		return "gs://" + l.Bucket + "/" + l.Key
	default:
		return l.Key
	}
}

// ParseLocation parses a ratings file address.
// Formats: "s3://bucket/key", "gs://bucket/object", "file:///path" or a plain path.
func ParseLocation(raw string) (Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Location{}, fmt.Errorf("location cannot be empty")
	}

	if !strings.Contains(raw, "://") {
		return Location{Type: LocalType, Key: raw}, nil
	}

	parts := strings.SplitN(raw, "://", 2)
	scheme := strings.ToLower(strings.TrimSpace(parts[0]))
	rest := parts[1]

	var repoType RepositoryType
	switch scheme {
	case "file":
		if rest == "" {
			return Location{}, fmt.Errorf("file path cannot be empty: %s", raw)
		}
		return Location{Type: LocalType, Key: rest}, nil
	case "s3":
		repoType = S3Type
	case "gs":
		repoType = GCSType
	default:
		return Location{}, fmt.Errorf("unsupported scheme: %s", scheme)
	}

	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return Location{}, fmt.Errorf("bucket name cannot be empty: %s", raw)
	}
	if key == "" {
		return Location{}, fmt.Errorf("object key cannot be empty: %s", raw)
	}

	return Location{Type: repoType, Bucket: bucket, Key: key}, nil
}

// ObjectRepositoryFactory creates object repository instances. Cloud clients
// are only built when a location needs them, so local loads work without
// any cloud credentials.
type ObjectRepositoryFactory struct {
	loadAWSConfig func(ctx context.Context) (aws.Config, error)
	newGCSClient  func(ctx context.Context) (*storage.Client, error)

	gcsClient *storage.Client
}

// NewObjectRepositoryFactory creates a factory using the default credential chains.
func NewObjectRepositoryFactory() *ObjectRepositoryFactory {
	return &ObjectRepositoryFactory{
		loadAWSConfig: config.LoadAWSConfig,
		newGCSClient: func(ctx context.Context) (*storage.Client, error) {
			return storage.NewClient(ctx)
		},
	}
}

// CreateRepository creates a repository for the location's storage type
func (f *ObjectRepositoryFactory) CreateRepository(ctx context.Context, loc Location) (ObjectRepository, error) {
	switch loc.Type {
	case LocalType:
		return NewLocalObjectRepository(), nil
	case S3Type:
		cfg, err := f.loadAWSConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		repo := NewS3ObjectRepository(s3.NewFromConfig(cfg), loc.Bucket)
		return &repo, nil
	case GCSType:
		if f.gcsClient == nil {
			client, err := f.newGCSClient(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to create GCS client: %w", err)
			}
			f.gcsClient = client
		}
		repo := NewGCSObjectRepository(f.gcsClient, loc.Bucket)
		return &repo, nil
	default:
		return nil, fmt.Errorf("unsupported repository type: %s", loc.Type)
	}
}

// Open parses raw and returns a reader over the object it names.
func (f *ObjectRepositoryFactory) Open(ctx context.Context, raw string, quiet bool) (io.ReadCloser, error) {
	loc, err := ParseLocation(raw)
	if err != nil {
		return nil, err
	}
	repo, err := f.CreateRepository(ctx, loc)
	if err != nil {
		return nil, err
	}
	log.Debugf("Opening ratings file %s from %s", loc, repo.GetStorageType())
	return repo.Download(ctx, loc.Key, quiet)
}

// Close releases any cloud clients the factory created.
func (f *ObjectRepositoryFactory) Close() error {
	if f.gcsClient != nil {
		return f.gcsClient.Close()
	}
	return nil
}
