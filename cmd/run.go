package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/daobatch/internal/run"
)

func newRunCmd() *cobra.Command {
	var dryRun bool
	var outputDir string
	var settingsPath string
	var format string

	cmd := &cobra.Command{
		Use:   "run <environment> <unit-record-file> <technical-metadata-file>",
		Short: "Create digital objects for every matched unit",
		Long: `Parse the unit records and the technical-metadata report, correlate them by
identifier and submit one digital object tree per matched unit.

<environment> is one of local, test or prod. Connection settings come from
ASPACE_<ENV>_URL, ASPACE_<ENV>_USERNAME, ASPACE_<ENV>_PASSWORD and
ASPACE_<ENV>_REPOSITORY, optionally defaulted by a YAML settings file.

Exit status is 0 when every identifier was created or skipped, 1 when some
identifiers failed and 2 when the run stopped early.`,
		Example: `  # Preview against the test server
  daobatch run test units.tsv report.json --dryrun

  # Live run, keeping the YAML summary and Parquet audit log
  daobatch run prod units.tsv report.json --output runs`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, runErr := run.NewController().Run(cmd.Context(), run.Options{
				Environment:  args[0],
				UnitFile:     args[1],
				ReportFile:   args[2],
				DryRun:       dryRun,
				SettingsPath: settingsPath,
			})

			if err := run.Render(cmd.OutOrStdout(), summary, format); err != nil {
				return fmt.Errorf("failed to print summary: %w", err)
			}

			if outputDir != "" {
				summaryPath, auditPath, err := summary.Save(outputDir)
				if err != nil {
					slog.Error("Failed to save run output", "err", err.Error())
					if runErr == nil {
						return &ExitError{Code: run.ExitFatal, Err: err}
					}
				} else if format == "text" {
					fmt.Fprintf(cmd.OutOrStdout(), "\n✅ Summary saved to: %s\n✅ Audit log saved to: %s\n", summaryPath, auditPath)
				}
			}

			return exitFor(summary, runErr)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dryrun", false, "Look up archival objects but create nothing")
	cmd.Flags().StringVar(&outputDir, "output", "", "Directory for the YAML summary and Parquet audit log")
	cmd.Flags().StringVar(&settingsPath, "config", "", "YAML settings file (default from DAOBATCH_CONFIG)")
	cmd.Flags().StringVar(&format, "format", "text", "Summary format: text, json, csv")

	return cmd
}
