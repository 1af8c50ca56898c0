package config

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/mfestorage/registry-builder/builder/pkg/registry"
	"github.com/mfestorage/registry-builder/common/logger"
	"github.com/mfestorage/registry-builder/common/metrics"
	"github.com/mfestorage/registry-builder/common/objstore"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// This package handles the application configuration - the global flags, environment variable
// bindings and config file handling.

const (
	EnvVarPrefix = "REGISTRY_"
	CfgFileKey   = "cfg-file"
)

type AppConfig struct {
	Log       logger.Config   `mapstructure:"log"`
	Store     objstore.Config `mapstructure:"store"`
	Registry  registry.Config `mapstructure:"registry"`
	Metrics   metrics.Config  `mapstructure:"metrics"`
	Developer struct {
		DumpConfig bool `mapstructure:"dump-config"`
	} `mapstructure:"developer"`
}

func (c *AppConfig) Validate() error {
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("invalid store configuration: %w", err)
	}
	if err := c.Registry.Validate(); err != nil {
		return fmt.Errorf("invalid registry configuration: %w", err)
	}
	return nil
}

// Redacted returns a copy of the configuration that is safe to print, with credentials masked.
func (c AppConfig) Redacted() AppConfig {
	mask := func(s *string) {
		if *s != "" {
			*s = "<redacted>"
		}
	}
	mask(&c.Store.SecretAccessKey)
	mask(&c.Store.AccountKey)
	return c
}

// InitFlags defines all configuration flags. Defaults match the layout of the production
// mfestorage bucket.
func InitFlags(flags *pflag.FlagSet) {
	defaults := registry.DefaultConfig()

	flags.String(CfgFileKey, "", "The path to a TOML configuration file (can be omitted to set all configuration using flags and/or environment variables).")
	flags.String("log.type", logger.TypeStderr, "Where log messages should be sent ('stderr', 'stdout', 'logfile').")
	flags.String("log.file", "/var/log/registry-builder/registry-builder.log", "The path to the desired log file when log.type is 'logfile' (if needed the directory and all parent directories will be created).")
	flags.Int8("log.level", 3, "Adjust the logging level (0=Fatal, 1=Error, 2=Warn, 3=Info, 4+5=Debug).")
	flags.Int("log.max-size", 1000, "When log.type is 'logfile' the maximum size of the log.file in megabytes before it is rotated.")
	flags.Int("log.num-rotated-files", 5, "When log.type is 'logfile' the maximum number old log.file(s) to keep when log.max-size is reached and the log is rotated.")
	flags.Bool("log.developer", false, "Enable developer logging including stack traces and setting the equivalent of log.level=5 and log.type=stdout (all other log settings are ignored).")

	flags.String("store.backend", objstore.BackendS3, "The object store holding the applications ('s3', 'gcs', 'azblob', 'fs').")
	flags.String("store.bucket", "mfestorage", "The bucket applications are published to and the registry is written to.")
	flags.String("store.region", "us-east-1", "The region of the bucket (s3 only).")
	flags.String("store.endpoint", "", "Override the service endpoint, for example to use an S3 compatible store or an emulator (Azurite for azblob).")
	flags.Bool("store.path-style", false, "Address the bucket using path style requests (s3 only, typically required by S3 compatible stores).")
	flags.String("store.access-key-id", "", "Static access key ID (s3 only). When omitted the default AWS credential chain is used.")
	flags.String("store.secret-access-key", "", "Static secret access key belonging to store.access-key-id.")
	flags.String("store.account-name", "", "The storage account holding the container named by store.bucket (azblob only).")
	flags.String("store.account-key", "", "The shared key of store.account-name (azblob only).")
	flags.String("store.root-dir", "", "The directory used as the bucket root (fs only).")

	flags.String("registry.root-prefix", defaults.RootPrefix, "The prefix applications are published under. Each child prefix is treated as one application.")
	flags.String("registry.delimiter", defaults.Delimiter, "The delimiter separating key segments.")
	flags.String("registry.branch", defaults.Branch, "The branch whose manifest is published for each application.")
	flags.String("registry.manifest-name", defaults.ManifestName, "The name of the manifest each application publishes on its branch.")
	flags.String("registry.registry-key", defaults.RegistryKey, "The key the registry document is written to.")
	flags.String("registry.base-url", defaults.BaseURL, "The public URL of the bucket used to build asset URLs.")
	flags.StringSlice("registry.exclude", defaults.Exclude, "Glob patterns of applications to leave out of the registry.")
	flags.String("registry.filter", "", registry.FilterHelp)
	flags.Int("registry.max-concurrent-fetches", defaults.MaxConcurrentFetches, "The maximum number of manifests read at once (0 reads all manifests at once).")
	flags.Duration("registry.timeout", defaults.Timeout, "The maximum duration of a complete run (0 disables the timeout).")

	flags.String("metrics.pushgateway-url", "", "Push run metrics to this Prometheus Pushgateway after every run (disabled when empty).")
	flags.String("metrics.job", "registry-builder", "The job name metrics are grouped under on the Pushgateway.")

	flags.Bool("developer.dump-config", false, "Dump the full configuration and immediately exit.")
	flags.MarkHidden("developer.dump-config")
}

// BindFlags binds flags and their environment variables to v. Environment variables are the flag
// name in all capitals prefixed with EnvVarPrefix, replacing dots (.) with a double underscore
// (__) and hyphens (-) with an underscore (_).
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	v.SetEnvPrefix(strings.TrimSuffix(EnvVarPrefix, "_"))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__", "-", "_"))
	var bindErr error
	flags.VisitAll(func(flag *pflag.Flag) {
		if err := v.BindEnv(flag.Name); err != nil && bindErr == nil {
			bindErr = err
		}
		if err := v.BindPFlag(flag.Name, flag); err != nil && bindErr == nil {
			bindErr = err
		}
	})
	return bindErr
}

// Load merges configuration using the following precedence order (highest->lowest): (1) flags (2)
// environment variables (3) configuration file (4) defaults.
func Load(v *viper.Viper) (*AppConfig, error) {
	if cfgFile := v.GetString(CfgFileKey); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("unable to read configuration file %s: %w", cfgFile, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
