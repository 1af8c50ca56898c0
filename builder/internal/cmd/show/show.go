package show

import (
	"github.com/mfestorage/registry-builder/builder/internal/app"
	"github.com/mfestorage/registry-builder/builder/internal/cmdfmt"
	"github.com/spf13/cobra"
)

type show_Config struct {
	Format string
}

// Creates new "show" command
func NewCmd(newApp app.Factory) *cobra.Command {
	cfg := show_Config{}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the registry that is currently published",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.Builder.Current(cmd.Context())
			if err != nil {
				return err
			}
			p, err := cmdfmt.NewPrinter(cmd.OutOrStdout(), cfg.Format, "name", "paths", "url", "module")
			if err != nil {
				return err
			}
			for _, e := range entries {
				p.AppendRow(e.Name, e.Paths, e.URL, e.Module)
			}
			return p.Render()
		},
	}

	cmd.Flags().StringVar(&cfg.Format, "output", cmdfmt.FormatAuto, cmdfmt.FormatHelp)
	return cmd
}
