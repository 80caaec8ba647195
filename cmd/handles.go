package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/daobatch/internal/config"
	"github.com/lehigh-university-libraries/daobatch/internal/handles"
	"github.com/lehigh-university-libraries/daobatch/internal/units"
)

func newHandlesCmd() *cobra.Command {
	var outputDir string
	var iiifBase string

	cmd := &cobra.Command{
		Use:   "handles <unit-record-file>",
		Short: "Write a Handle batch file for every unit record",
		Long: `Write a Handle.net batch file that mints <HANDLE_PREFIX>/<identifier> for every
unit record, each resolving to the unit's IIIF viewer page.

Requires HANDLE_PREFIX and HANDLE_PASSWORD; IIIF_BASE_URL overrides the viewer base.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadHandles()
			if err != nil {
				return err
			}
			if iiifBase != "" {
				cfg.IIIFBase = iiifBase
			}

			rows, err := units.ParseFile(args[0])
			if err != nil {
				return err
			}
			for _, a := range units.Anomalies(rows) {
				slog.Warn("Skipping row", "anomaly", a.String())
			}

			records := units.Records(rows)
			identifiers := make([]string, 0, len(records))
			for _, r := range records {
				identifiers = append(identifiers, r.Identifier)
			}

			path, err := handles.NewWriter(*cfg).WriteFile(outputDir, identifiers, time.Now())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✅ Wrote %d handles to: %s\n", len(identifiers), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&outputDir, "output-dir", handles.DefaultDir, "Directory for the batch file")
	cmd.Flags().StringVar(&iiifBase, "iiif-base", "", "IIIF viewer base URL (default from IIIF_BASE_URL)")

	return cmd
}
