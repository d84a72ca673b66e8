package objectstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockS3Client struct {
	GetObjectFunc func(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

func (m *mockS3Client) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return m.GetObjectFunc(ctx, params, optFns...)
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Location
		wantErr bool
	}{
		{"plain path", "data/ratings.dat", Location{Type: LocalType, Key: "data/ratings.dat"}, false},
		{"file url", "file:///tmp/ratings.dat", Location{Type: LocalType, Key: "/tmp/ratings.dat"}, false},
		{"s3 url", "s3://movielens/ml-10m/ratings.dat", Location{Type: S3Type, Bucket: "movielens", Key: "ml-10m/ratings.dat"}, false},
		{"gcs url", "gs://movielens/ratings.dat", Location{Type: GCSType, Bucket: "movielens", Key: "ratings.dat"}, false},
		{"uppercase scheme", "S3://b/k", Location{Type: S3Type, Bucket: "b", Key: "k"}, false},
		{"empty", "  ", Location{}, true},
		{"missing key", "s3://movielens", Location{}, true},
		{"missing bucket", "gs:///ratings.dat", Location{}, true},
		{"unknown scheme", "ftp://host/ratings.dat", Location{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLocation(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocationString(t *testing.T) {
	assert.Equal(t, "s3://b/k/x", Location{Type: S3Type, Bucket: "b", Key: "k/x"}.String())
	assert.Equal(t, "gs://b/k", Location{Type: GCSType, Bucket: "b", Key: "k"}.String())
	assert.Equal(t, "ratings.dat", Location{Type: LocalType, Key: "ratings.dat"}.String())
}

func TestFactoryOpen_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratings.dat")
	require.NoError(t, os.WriteFile(path, []byte("1::10::4.5::0\n"), 0o644))

	f := NewObjectRepositoryFactory()
	defer f.Close()

	for _, quiet := range []bool{true, false} {
		rc, err := f.Open(context.Background(), path, quiet)
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		assert.Equal(t, "1::10::4.5::0\n", string(data))
	}
}

func TestFactoryOpen_MissingLocalFile(t *testing.T) {
	f := NewObjectRepositoryFactory()
	_, err := f.Open(context.Background(), filepath.Join(t.TempDir(), "nope.dat"), true)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFactoryCreateRepository_AWSConfigError(t *testing.T) {
	f := &ObjectRepositoryFactory{
		loadAWSConfig: func(context.Context) (aws.Config, error) {
			return aws.Config{}, errors.New("no credentials")
		},
	}
	_, err := f.CreateRepository(context.Background(), Location{Type: S3Type, Bucket: "b", Key: "k"})
	assert.ErrorContains(t, err, "no credentials")
}

func TestS3Download(t *testing.T) {
	body := "1::10::4.5::0\n2::20::3::0\n"
	var gotBucket, gotKey string

	client := &mockS3Client{
		GetObjectFunc: func(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
			gotBucket = aws.ToString(params.Bucket)
			gotKey = aws.ToString(params.Key)
			return &s3.GetObjectOutput{
				Body:          io.NopCloser(strings.NewReader(body)),
				ContentLength: aws.Int64(int64(len(body))),
			}, nil
		},
	}

	repo := NewS3ObjectRepository(client, "movielens")
	rc, err := repo.Download(context.Background(), "ratings.dat", true)
	require.NoError(t, err)

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, body, string(data))
	assert.Equal(t, "movielens", gotBucket)
	assert.Equal(t, "ratings.dat", gotKey)

	name := rc.(*tempFile).Name()
	require.NoError(t, rc.Close())
	_, err = os.Stat(name)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestS3Download_Error(t *testing.T) {
	client := &mockS3Client{
		GetObjectFunc: func(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
			return nil, errors.New("access denied")
		},
	}

	repo := NewS3ObjectRepository(client, "movielens")
	_, err := repo.Download(context.Background(), "ratings.dat", true)
	assert.ErrorContains(t, err, "access denied")
	assert.Equal(t, "s3", repo.GetStorageType())
	assert.Equal(t, "movielens", repo.GetBucketName())
}
