// Package objstore provides the minimal object storage contract used to discover, read and publish
// registry data along with the backends that implement it.
package objstore

import (
	"context"
	"fmt"
	"mime"
	"path"
	"strings"
)

const (
	BackendS3        = "s3"
	BackendGCS       = "gcs"
	BackendAzureBlob = "azblob"
	BackendFS        = "fs"
)

// Store is a flat key/value object store that emulates directories using key prefixes.
type Store interface {
	// List returns the immediate child prefixes under prefix, each ending with delimiter, in the
	// order the store returns them.
	List(ctx context.Context, prefix string, delimiter string) ([]string, error)
	// Get returns the full contents of key. Missing keys return an error wrapping ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put unconditionally overwrites key with body.
	Put(ctx context.Context, key string, body []byte) error
}

type Config struct {
	Backend string `mapstructure:"backend"`
	Bucket  string `mapstructure:"bucket"`
	Region  string `mapstructure:"region"`
	// Endpoint overrides the service endpoint, for example to use an S3 compatible store or a GCS
	// emulator.
	Endpoint        string `mapstructure:"endpoint"`
	PathStyle       bool   `mapstructure:"path-style"`
	AccessKeyID     string `mapstructure:"access-key-id"`
	SecretAccessKey string `mapstructure:"secret-access-key"`
	// AccountName and AccountKey are the shared key credentials of the azblob backend.
	AccountName string `mapstructure:"account-name"`
	AccountKey  string `mapstructure:"account-key"`
	// RootDir is the directory used as the bucket root by the fs backend.
	RootDir string `mapstructure:"root-dir"`
}

func (c Config) Validate() error {
	switch c.Backend {
	case BackendS3, BackendGCS:
		if c.Bucket == "" {
			return fmt.Errorf("a bucket is required for the %s backend", c.Backend)
		}
	case BackendAzureBlob:
		if c.Bucket == "" {
			return fmt.Errorf("a container is required for the %s backend (set the bucket)", c.Backend)
		}
		if c.Endpoint == "" && (c.AccountName == "" || c.AccountKey == "") {
			return fmt.Errorf("an account name and key are required for the %s backend", c.Backend)
		}
	case BackendFS:
		if c.RootDir == "" {
			return fmt.Errorf("a root directory is required for the %s backend", c.Backend)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}
	if c.AccessKeyID != "" && c.SecretAccessKey == "" {
		return fmt.Errorf("an access key ID was provided without a secret access key")
	}
	return nil
}

// New returns the Store for the configured backend. Stores that hold network clients also
// implement io.Closer.
func New(ctx context.Context, cfg Config) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case BackendS3:
		return NewS3(ctx, cfg)
	case BackendGCS:
		return NewGCS(ctx, cfg)
	case BackendAzureBlob:
		return NewAzureBlob(cfg)
	case BackendFS:
		return NewOSFS(cfg.RootDir), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
}

func contentTypeForKey(key string) string {
	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(key))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func notFound(key string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrNotFound, key, err)
}
