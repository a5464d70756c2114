package source

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Object fetches a delimited text object from S3-compatible storage.
type S3Object struct {
	client *minio.Client
	bucket string
	key    string
}

// NewS3Object constructs the source for endpoint/bucket/key.
func NewS3Object(endpoint, accessKey, secretKey, bucket, key string) (*S3Object, error) {
	useSSL := strings.HasPrefix(strings.ToLower(endpoint), "https")
	client, err := minio.New(sanitizeEndpoint(endpoint), &minio.Options{
		Creds:        credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure:       useSSL,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init object storage client: %w", err)
	}
	return &S3Object{client: client, bucket: bucket, key: key}, nil
}

// Open returns a reader over the object contents.
func (s *S3Object) Open(ctx context.Context) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// Surface missing objects before handing the reader out.
	if _, statErr := obj.Stat(); statErr != nil {
		return nil, statErr
	}
	return obj, nil
}

// sanitizeEndpoint removes schemes and paths to satisfy minio.New expectations.
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if idx := strings.IndexByte(raw, '/'); idx >= 0 {
		raw = raw[:idx]
	}
	return raw
}
