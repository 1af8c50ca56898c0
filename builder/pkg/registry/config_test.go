package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{name: "Defaults", modify: func(*Config) {}},
		{name: "RootPrefixWithoutDelimiter", modify: func(c *Config) { c.RootPrefix = "apps" }, wantErr: true},
		{name: "EmptyDelimiter", modify: func(c *Config) { c.Delimiter = "" }, wantErr: true},
		{name: "EmptyBranch", modify: func(c *Config) { c.Branch = "" }, wantErr: true},
		{name: "RelativeBaseURL", modify: func(c *Config) { c.BaseURL = "mfestorage.s3.amazonaws.com" }, wantErr: true},
		{name: "InvalidExclude", modify: func(c *Config) { c.Exclude = []string{"app[2"} }, wantErr: true},
		{name: "NegativeConcurrency", modify: func(c *Config) { c.MaxConcurrentFetches = -1 }, wantErr: true},
		{name: "NegativeTimeout", modify: func(c *Config) { c.Timeout = -time.Second }, wantErr: true},
		{name: "BoundedRun", modify: func(c *Config) { c.MaxConcurrentFetches = 8; c.Timeout = time.Minute }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestManifestKey(t *testing.T) {
	assert.Equal(t, "apps/app2/master/manifest.json", DefaultConfig().ManifestKey("app2"))
}

func TestAssetURL(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "https://mfestorage.s3.amazonaws.com/apps/app2/master/app2.abc123.js", cfg.AssetURL("app2", "app2.abc123.js"))

	cfg.BaseURL = "https://cdn.example.com/"
	assert.Equal(t, "https://cdn.example.com/apps/app2/master/app2.js", cfg.AssetURL("app2", "app2.js"))
}

func TestAssetURLIgnoresStoreDelimiter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Delimiter = ":"
	cfg.RootPrefix = "apps:"
	assert.NoError(t, cfg.Validate())

	assert.Equal(t, "apps:app2:master:manifest.json", cfg.ManifestKey("app2"))
	assert.Equal(t, "https://mfestorage.s3.amazonaws.com/apps/app2/master/app2.js", cfg.AssetURL("app2", "app2.js"))
}
