package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/daobatch/internal/logging"
)

func NewRootCmd() *cobra.Command {
	var logLevel string
	var logFormat string

	cmd := &cobra.Command{
		Use:   "daobatch",
		Short: "Batch-create ArchivesSpace digital objects from a finding-aid export",
		Long: `daobatch correlates a tab-delimited export of archival units with the
technical-metadata report of their scanned files and creates one digital
object per unit, with one component per file, in ArchivesSpace.

Runs are idempotent: archival objects that already link a digital object are
skipped. Use --dryrun to preview a run without creating anything.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			if logLevel == "" {
				logLevel = os.Getenv("LOG_LEVEL")
			}
			if logFormat == "" {
				logFormat = os.Getenv("LOG_FORMAT")
			}
			logging.Setup(logLevel, logFormat)
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default from LOG_LEVEL, else info)")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json (default from LOG_FORMAT, else text)")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newReportCmd())
	cmd.AddCommand(newHandlesCmd())
	cmd.AddCommand(newEnvironmentsCmd())

	return cmd
}
