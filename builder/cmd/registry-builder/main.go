package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mfestorage/registry-builder/builder/internal/app"
	"github.com/mfestorage/registry-builder/builder/internal/cmd/apps"
	"github.com/mfestorage/registry-builder/builder/internal/cmd/run"
	"github.com/mfestorage/registry-builder/builder/internal/cmd/show"
	"github.com/mfestorage/registry-builder/builder/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Set by the build process using ldflags.
var (
	binaryName = "registry-builder"
	version    = "unknown"
	commit     = "unknown"
	buildTime  = "unknown"
)

const helpText = `
Configuration may be set using a mix of flags, environment variables, and values from a TOML configuration file.
Configuration will be merged using the following precedence order (highest->lowest): (1) flags (2) environment variables (3) configuration file (4) defaults.

To specify configuration using environment variables specify %sKEY=VALUE where KEY is the flag name in all capitals
replacing dots (.) with a double underscore (__) and hyphens (-) with an underscore (_).
Example:
	export %sSTORE__BUCKET=mfestorage
`

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfg *config.AppConfig

	root := &cobra.Command{
		Use:          binaryName,
		Short:        "Rebuild the micro-frontend module registry from application manifests",
		Long:         "Rebuild the micro-frontend module registry from the manifests applications publish to an object store.\n" + fmt.Sprintf(helpText, config.EnvVarPrefix, config.EnvVarPrefix),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			var err error
			if cfg, err = config.Load(v); err != nil {
				return err
			}
			if cfg.Developer.DumpConfig {
				fmt.Fprintf(cmd.OutOrStdout(), "Dumping AppConfig and exiting...\n\n%+v\n", cfg.Redacted())
				os.Exit(0)
			}
			return nil
		},
	}
	root.PersistentFlags().SortFlags = false
	config.InitFlags(root.PersistentFlags())
	if err := config.BindFlags(v, root.PersistentFlags()); err != nil {
		// Only possible when flag definitions are broken.
		panic(err)
	}

	newApp := app.Factory(func(ctx context.Context, modify ...func(*config.AppConfig)) (*app.App, error) {
		c := *cfg
		for _, m := range modify {
			m(&c)
		}
		return app.New(ctx, &c)
	})

	root.AddCommand(
		run.NewCmd(newApp),
		apps.NewCmd(newApp),
		show.NewCmd(newApp),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version then exit",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (commit: %s, built: %s)\n", binaryName, version, commit, buildTime)
		},
	}
}
