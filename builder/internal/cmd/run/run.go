package run

import (
	"encoding/json"
	"fmt"

	"github.com/dsnet/golib/unitconv"
	"github.com/mfestorage/registry-builder/builder/internal/app"
	"github.com/mfestorage/registry-builder/builder/internal/config"
	"github.com/mfestorage/registry-builder/builder/pkg/registry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type run_Config struct {
	DryRun bool
}

// Creates new "run" command
func NewCmd(newApp app.Factory) *cobra.Command {
	cfg := run_Config{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Rebuild and publish the module registry",
		Long: `Rebuild the module registry from the manifests of every application and publish it.

The registry is only written when the manifest of every application was read successfully, otherwise the
previously published registry is left untouched. On success the invocation response is printed as JSON.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), func(c *config.AppConfig) {
				c.Registry.DryRun = cfg.DryRun
			})
			if err != nil {
				return err
			}
			defer a.Close()
			// Metrics are pushed for failed runs as well.
			defer a.PushMetrics(cmd.Context())

			resp, err := registry.NewHandler(a.Builder).Handle(cmd.Context(), nil)
			if err != nil {
				return err
			}
			a.Log.Info("registry build summary",
				zap.Int("entries", countEntries(resp.Body)),
				zap.String("size", unitconv.FormatPrefix(float64(len(resp.Body)), unitconv.IEC, 1)+"B"),
				zap.Bool("dryRun", cfg.DryRun))

			out, err := json.Marshal(resp)
			if err != nil {
				return fmt.Errorf("unable to marshal response: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}

	cmd.Flags().BoolVar(&cfg.DryRun, "dry-run", false,
		"Build the registry and print it without writing it to the store.")
	return cmd
}

func countEntries(document string) int {
	entries, err := registry.UnmarshalDocument([]byte(document))
	if err != nil {
		return 0
	}
	return len(entries)
}
