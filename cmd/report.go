package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/daobatch/internal/run"
)

func newReportCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "report <summary.yaml>",
		Short: "Print a saved run summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := run.LoadYAML(args[0])
			if err != nil {
				return err
			}
			return run.Render(cmd.OutOrStdout(), summary, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json, csv")

	return cmd
}
