package objstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// FSStore maps object keys onto paths of an afero filesystem. Directories play the role of
// prefixes, so only "/" is supported as a delimiter.
type FSStore struct {
	fs afero.Fs
}

var _ Store = &FSStore{}

func NewFS(afs afero.Fs) *FSStore {
	return &FSStore{fs: afs}
}

// NewOSFS returns a store rooted at dir on the local filesystem.
func NewOSFS(dir string) *FSStore {
	return NewFS(afero.NewBasePathFs(afero.NewOsFs(), dir))
}

func keyToPath(key string) string {
	return path.Join("/", key)
}

func (s *FSStore) List(ctx context.Context, prefix string, delimiter string) ([]string, error) {
	if delimiter != "/" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDelimiter, delimiter)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir, partial := path.Split(prefix)
	entries, err := afero.ReadDir(s.fs, keyToPath(dir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list %q failed: %w", prefix, err)
	}

	// ReadDir sorts by name which matches the lexicographic order of object store listings.
	prefixes := []string{}
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), partial) {
			continue
		}
		prefixes = append(prefixes, dir+e.Name()+delimiter)
	}
	return prefixes, nil
}

func (s *FSStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := afero.ReadFile(s.fs, keyToPath(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(key, err)
		}
		return nil, fmt.Errorf("read %s failed: %w", key, err)
	}
	return body, nil
}

func (s *FSStore) Put(ctx context.Context, key string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := keyToPath(key)
	if err := s.fs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create parent directory for %s failed: %w", key, err)
	}
	// Readers must never see a partially written object, so the body is staged next to the key
	// and renamed over it.
	tmp, err := afero.TempFile(s.fs, path.Dir(p), "."+path.Base(p)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temporary file for %s failed: %w", key, err)
	}
	tmpName := tmp.Name()
	if err := writeAndClose(tmp, body); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("write %s failed: %w", key, err)
	}
	if err := s.fs.Chmod(tmpName, 0o644); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("set permissions of %s failed: %w", key, err)
	}
	if err := s.fs.Rename(tmpName, p); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("replace %s failed: %w", key, err)
	}
	return nil
}

func writeAndClose(f afero.File, body []byte) error {
	if _, err := f.Write(body); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
