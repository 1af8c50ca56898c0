package objstore

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSList(t *testing.T) {
	mfs := afero.NewMemMapFs()
	for _, p := range []string{
		"/apps/app3/master/manifest.json",
		"/apps/app2/master/manifest.json",
		"/apps/admin/master/manifest.json",
		"/apps/readme.txt",
		"/module-registry.json",
	} {
		require.NoError(t, afero.WriteFile(mfs, p, []byte("{}"), 0o644))
	}
	store := NewFS(mfs)

	tests := []struct {
		name     string
		prefix   string
		expected []string
	}{
		{
			name:     "RootPrefix",
			prefix:   "apps/",
			expected: []string{"apps/admin/", "apps/app2/", "apps/app3/"},
		},
		{
			name:     "PartialName",
			prefix:   "apps/app",
			expected: []string{"apps/app2/", "apps/app3/"},
		},
		{
			name:     "BucketRoot",
			prefix:   "",
			expected: []string{"apps/"},
		},
		{
			name:     "MissingDirectory",
			prefix:   "missing/",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefixes, err := store.List(context.Background(), tt.prefix, "/")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, prefixes)
		})
	}
}

func TestFSListRejectsOtherDelimiters(t *testing.T) {
	store := NewFS(afero.NewMemMapFs())
	_, err := store.List(context.Background(), "apps/", "|")
	assert.ErrorIs(t, err, ErrUnsupportedDelimiter)
}

func TestFSGetPut(t *testing.T) {
	store := NewFS(afero.NewMemMapFs())
	ctx := context.Background()

	_, err := store.Get(ctx, "apps/app2/master/manifest.json")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, "apps/app2/master/manifest.json", []byte(`{"mfe":{}}`)))
	body, err := store.Get(ctx, "apps/app2/master/manifest.json")
	require.NoError(t, err)
	assert.Equal(t, `{"mfe":{}}`, string(body))

	prefixes, err := store.List(ctx, "apps/", "/")
	require.NoError(t, err)
	assert.Equal(t, []string{"apps/app2/"}, prefixes)

	require.NoError(t, store.Put(ctx, "apps/app2/master/manifest.json", []byte(`{}`)))
	body, err = store.Get(ctx, "apps/app2/master/manifest.json")
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(body))
}

// fullDiskFs fails every write, as a filesystem without free space would.
type fullDiskFs struct {
	afero.Fs
}

func (f fullDiskFs) Create(name string) (afero.File, error) {
	return f.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o666)
}

func (f fullDiskFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	file, err := f.Fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return fullDiskFile{File: file}, nil
}

type fullDiskFile struct {
	afero.File
}

var errNoSpace = errors.New("no space left on device")

func (fullDiskFile) Write([]byte) (int, error) {
	return 0, errNoSpace
}

func (fullDiskFile) WriteString(string) (int, error) {
	return 0, errNoSpace
}

func TestFSPutFailureKeepsPreviousObject(t *testing.T) {
	mfs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mfs, "/module-registry.json", []byte(`[{"name":"old"}]`), 0o644))
	store := NewFS(fullDiskFs{Fs: mfs})

	err := store.Put(context.Background(), "module-registry.json", []byte(`[{"name":"new"}]`))
	assert.ErrorIs(t, err, errNoSpace)

	body, err := afero.ReadFile(mfs, "/module-registry.json")
	require.NoError(t, err)
	assert.Equal(t, `[{"name":"old"}]`, string(body))

	entries, err := afero.ReadDir(mfs, "/")
	require.NoError(t, err)
	require.Len(t, entries, 1, "the staged object should be removed")
	assert.Equal(t, "module-registry.json", entries[0].Name())
}

func TestFSPutReplacesAtomically(t *testing.T) {
	mfs := afero.NewMemMapFs()
	store := NewFS(mfs)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "module-registry.json", []byte(`[{"name":"old"}]`)))
	require.NoError(t, store.Put(ctx, "module-registry.json", []byte(`[{"name":"new"}]`)))

	body, err := store.Get(ctx, "module-registry.json")
	require.NoError(t, err)
	assert.Equal(t, `[{"name":"new"}]`, string(body))

	entries, err := afero.ReadDir(mfs, "/")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	info, err := mfs.Stat("/module-registry.json")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestFSCanceledContext(t *testing.T) {
	store := NewFS(afero.NewMemMapFs())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Get(ctx, "module-registry.json")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.Put(ctx, "module-registry.json", nil), context.Canceled)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
		invalid bool
	}{
		{name: "S3", cfg: Config{Backend: BackendS3, Bucket: "mfestorage"}},
		{name: "GCS", cfg: Config{Backend: BackendGCS, Bucket: "mfestorage"}},
		{name: "FS", cfg: Config{Backend: BackendFS, RootDir: "/srv/mfestorage"}},
		{name: "AzureBlob", cfg: Config{Backend: BackendAzureBlob, Bucket: "mfestorage", AccountName: "mfe", AccountKey: "a2V5"}},
		{name: "AzureBlobEmulator", cfg: Config{Backend: BackendAzureBlob, Bucket: "mfestorage", Endpoint: "http://127.0.0.1:10000"}},
		{name: "AzureBlobMissingKey", cfg: Config{Backend: BackendAzureBlob, Bucket: "mfestorage", AccountName: "mfe"}, invalid: true},
		{name: "S3MissingBucket", cfg: Config{Backend: BackendS3}, invalid: true},
		{name: "FSMissingRoot", cfg: Config{Backend: BackendFS}, invalid: true},
		{name: "UnknownBackend", cfg: Config{Backend: "ftp"}, invalid: true, wantErr: ErrUnknownBackend},
		{name: "KeyWithoutSecret", cfg: Config{Backend: BackendS3, Bucket: "b", AccessKeyID: "AKIA"}, invalid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if !tt.invalid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestContentTypeForKey(t *testing.T) {
	assert.Equal(t, "application/json", contentTypeForKey("module-registry.json"))
	assert.Equal(t, "application/octet-stream", contentTypeForKey("apps/app2/master/LICENSE"))
}
