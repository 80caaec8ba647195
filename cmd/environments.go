package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/daobatch/internal/config"
)

func newEnvironmentsCmd() *cobra.Command {
	var settingsPath string

	cmd := &cobra.Command{
		Use:   "environments",
		Short: "List deployment targets and whether each is configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ENVIRONMENT\tSTATUS\tURL\tREPOSITORY")

			for _, env := range config.Environments {
				cfg, err := config.Load(env, settingsPath)
				if err != nil {
					fmt.Fprintf(w, "%s\tnot configured (%v)\t-\t-\n", env, err)
					continue
				}
				fmt.Fprintf(w, "%s\tready\t%s\t%d\n", env, cfg.ArchivesSpace.BaseURL, cfg.ArchivesSpace.Repository)
			}

			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&settingsPath, "config", "", "YAML settings file (default from DAOBATCH_CONFIG)")

	return cmd
}
