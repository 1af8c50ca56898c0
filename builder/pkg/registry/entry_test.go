package registry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntry(t *testing.T) {
	tests := []struct {
		name     string
		cfg      func() Config
		expected string
	}{
		{
			name:     "Defaults",
			cfg:      DefaultConfig,
			expected: "https://mfestorage.s3.amazonaws.com/apps/app2/master/app2.a1b2.js",
		},
		{
			name: "TrailingSlashOnBaseURL",
			cfg: func() Config {
				c := DefaultConfig()
				c.BaseURL = "https://cdn.example.com/"
				return c
			},
			expected: "https://cdn.example.com/apps/app2/master/app2.a1b2.js",
		},
		{
			name: "OtherBranchAndRoot",
			cfg: func() Config {
				c := DefaultConfig()
				c.RootPrefix = "mfe/"
				c.Branch = "release"
				return c
			},
			expected: "https://mfestorage.s3.amazonaws.com/mfe/app2/release/app2.a1b2.js",
		},
	}

	m, err := ParseManifest([]byte(manifestJSON("app2", "App2Module", "app2.a1b2.js")))
	require.NoError(t, err)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEntry(tt.cfg(), m)
			assert.Equal(t, tt.expected, e.URL)
			assert.Equal(t, "app2", e.Name)
			assert.Equal(t, "App2Module", e.Module)
		})
	}
}

func TestMarshalDocument(t *testing.T) {
	b, err := MarshalDocument(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))

	b, err = MarshalDocument([]Entry{})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))

	// Characters that encoding/json escapes by default must be written as-is.
	b, err = MarshalDocument([]Entry{{
		Name:   "app&co",
		Paths:  json.RawMessage(`[ "/a<b>" ]`),
		URL:    "https://mfestorage.s3.amazonaws.com/apps/app&co/master/app&co.js",
		Module: "Module",
	}})
	require.NoError(t, err)
	assert.Equal(t, `[{"name":"app&co","paths":["/a<b>"],"url":"https://mfestorage.s3.amazonaws.com/apps/app&co/master/app&co.js","module":"Module"}]`, string(b))

	entries, err := UnmarshalDocument(b)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "app&co", entries[0].Name)
}

func TestUnmarshalDocumentInvalid(t *testing.T) {
	_, err := UnmarshalDocument([]byte(`{"name":"app2"}`))
	assert.Error(t, err)
}

func TestMarshalDocumentLineSeparators(t *testing.T) {
	entries := []Entry{{Name: "app2", Paths: json.RawMessage(`["/app2"]`), URL: "https://a/b.js", Module: "M\u2028\u2029"}}

	document, err := MarshalDocument(entries)
	require.NoError(t, err)
	assert.Equal(t, `[{"name":"app2","paths":["/app2"],"url":"https://a/b.js","module":"M\u2028\u2029"}]`, string(document))

	parsed, err := UnmarshalDocument(document)
	require.NoError(t, err)
	assert.Equal(t, "M\u2028\u2029", parsed[0].Module)
}
