package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/queryset/internal/cli/version"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(app *App) *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"config": "skip"},
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			if short {
				v, err := info.Semver()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			}

			app.ui.Info("%s", info.String())
			return app.ui.Table([]string{"Field", "Value"}, info.Rows())
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "print only the semantic version")
	return cmd
}
