package apps

import (
	"github.com/mfestorage/registry-builder/builder/internal/app"
	"github.com/mfestorage/registry-builder/builder/internal/cmdfmt"
	"github.com/spf13/cobra"
)

type apps_Config struct {
	Format string
}

// Creates new "apps" command
func NewCmd(newApp app.Factory) *cobra.Command {
	cfg := apps_Config{}

	cmd := &cobra.Command{
		Use:   "apps",
		Short: "List the applications that would be included in the registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			apps, err := a.Builder.Discover(cmd.Context())
			if err != nil {
				return err
			}
			p, err := cmdfmt.NewPrinter(cmd.OutOrStdout(), cfg.Format, "app", "manifest")
			if err != nil {
				return err
			}
			regCfg := a.Builder.Config()
			for _, name := range apps {
				p.AppendRow(name, regCfg.ManifestKey(name))
			}
			return p.Render()
		},
	}

	cmd.Flags().StringVar(&cfg.Format, "output", cmdfmt.FormatAuto, cmdfmt.FormatHelp)
	return cmd
}
