package registry

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	doublestar "github.com/bmatcuk/doublestar/v4"
)

type Config struct {
	// RootPrefix is the prefix every application is published under (must end with Delimiter).
	RootPrefix   string `mapstructure:"root-prefix"`
	Delimiter    string `mapstructure:"delimiter"`
	Branch       string `mapstructure:"branch"`
	ManifestName string `mapstructure:"manifest-name"`
	RegistryKey  string `mapstructure:"registry-key"`
	// BaseURL is the public URL of the bucket that asset URLs are built from.
	BaseURL string `mapstructure:"base-url"`
	// Exclude drops discovered applications whose identifier matches any of these glob patterns.
	Exclude []string `mapstructure:"exclude"`
	// Filter is an optional expression entries must satisfy to be published.
	Filter string `mapstructure:"filter"`
	// MaxConcurrentFetches bounds in-flight manifest reads. Zero means no bound.
	MaxConcurrentFetches int `mapstructure:"max-concurrent-fetches"`
	// Timeout bounds a complete run. Zero means no timeout.
	Timeout time.Duration `mapstructure:"timeout"`
	DryRun  bool          `mapstructure:"dry-run"`
}

func DefaultConfig() Config {
	return Config{
		RootPrefix:   "apps/",
		Delimiter:    "/",
		Branch:       "master",
		ManifestName: "manifest.json",
		RegistryKey:  "module-registry.json",
		BaseURL:      "https://mfestorage.s3.amazonaws.com",
		Exclude:      []string{},
	}
}

func (c Config) Validate() error {
	if c.Delimiter == "" {
		return fmt.Errorf("delimiter must not be empty")
	}
	if c.RootPrefix == "" || !strings.HasSuffix(c.RootPrefix, c.Delimiter) {
		return fmt.Errorf("root prefix %q must end with the delimiter %q", c.RootPrefix, c.Delimiter)
	}
	if c.Branch == "" || c.ManifestName == "" || c.RegistryKey == "" {
		return fmt.Errorf("branch, manifest name and registry key must all be set")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base URL %q must be an absolute URL", c.BaseURL)
	}
	for _, pattern := range c.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}
	if c.MaxConcurrentFetches < 0 {
		return fmt.Errorf("max concurrent fetches must not be negative")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}

// ManifestKey returns the key of the manifest published for app on the configured branch.
func (c Config) ManifestKey(app string) string {
	return c.RootPrefix + app + c.Delimiter + c.Branch + c.Delimiter + c.ManifestName
}

// AssetURL returns the public URL of filename as deployed for app on the configured branch. Key
// segments are always joined with "/" in the URL, whatever delimiter the store uses.
func (c Config) AssetURL(app string, filename string) string {
	root := strings.TrimSuffix(c.RootPrefix, c.Delimiter)
	return strings.TrimRight(c.BaseURL, "/") + "/" + root + "/" + app + "/" + c.Branch + "/" + filename
}
