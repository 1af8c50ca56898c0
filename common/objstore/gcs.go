package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type GCSStore struct {
	client *storage.Client
	bucket string
}

var _ Store = &GCSStore{}

// NewGCS creates a Cloud Storage client using application default credentials. When an endpoint
// is configured (typically an emulator) authentication is disabled.
func NewGCS(ctx context.Context, cfg Config) (*GCSStore, error) {
	opts := []option.ClientOption{}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSStore{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

func (s *GCSStore) List(ctx context.Context, prefix string, delimiter string) ([]string, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{
		Prefix:    prefix,
		Delimiter: delimiter,
	})

	prefixes := []string{}
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list objects in bucket %s under %q failed: %w", s.bucket, prefix, err)
		}
		// Objects directly under the prefix are returned alongside the synthetic prefixes.
		if attrs.Prefix != "" {
			prefixes = append(prefixes, attrs.Prefix)
		}
	}
	return prefixes, nil
}

func (s *GCSStore) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, notFound(key, err)
		}
		return nil, fmt.Errorf("get object %s from bucket %s failed: %w", key, s.bucket, err)
	}
	defer r.Close()

	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read object %s from bucket %s failed: %w", key, s.bucket, err)
	}
	return body, nil
}

func (s *GCSStore) Put(ctx context.Context, key string, body []byte) error {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentTypeForKey(key)
	if _, err := w.Write(body); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object %s to bucket %s failed: %w", key, s.bucket, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("put object %s to bucket %s failed: %w", key, s.bucket, err)
	}
	return nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
