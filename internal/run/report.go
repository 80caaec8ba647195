package run

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/daobatch/internal/anomaly"
	"github.com/lehigh-university-libraries/daobatch/internal/submit"
)

// Formats accepted by Render
var Formats = []string{"text", "json", "csv"}

// Render writes the summary in the given format
func Render(w io.Writer, s *Summary, format string) error {
	switch format {
	case "text":
		return printTextReport(w, s)
	case "json":
		return printJSONReport(w, s)
	case "csv":
		return printCSVReport(w, s)
	default:
		return fmt.Errorf("unsupported format: %s (supported: %s)", format, strings.Join(Formats, ", "))
	}
}

func printTextReport(w io.Writer, s *Summary) error {
	mode := "live"
	if s.DryRun {
		mode = "dry run"
	}

	fmt.Fprintln(w, "========================================")
	fmt.Fprintln(w, "Digital Object Batch Summary")
	fmt.Fprintln(w, "========================================")
	fmt.Fprintf(w, "Run ID:      %s\n", s.RunID)
	fmt.Fprintf(w, "Environment: %s (%s)\n", s.Environment, mode)
	fmt.Fprintf(w, "Unit file:   %s\n", s.UnitFile)
	fmt.Fprintf(w, "Report file: %s\n", s.ReportFile)
	fmt.Fprintf(w, "Started:     %s\n", s.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Duration:    %s\n", s.Duration().Round(time.Millisecond))
	fmt.Fprintln(w)

	c := s.Counts
	fmt.Fprintln(w, "Inputs:")
	fmt.Fprintf(w, "  Unit records:    %d\n", c.UnitRecords)
	fmt.Fprintf(w, "  File records:    %d\n", c.FileRecords)
	fmt.Fprintf(w, "  Dropped rows:    %d\n", c.DroppedRows)
	fmt.Fprintln(w, "Correlation:")
	fmt.Fprintf(w, "  Matched:         %d\n", c.Matched)
	fmt.Fprintf(w, "  Unmatched units: %d\n", c.UnmatchedUnits)
	fmt.Fprintf(w, "  Unmatched files: %d\n", c.UnmatchedFiles)
	fmt.Fprintln(w, "Submission:")
	fmt.Fprintf(w, "  Created:         %d\n", c.Created)
	fmt.Fprintf(w, "  Skipped:         %d\n", c.Skipped)
	fmt.Fprintf(w, "  Failed:          %d\n", c.Failed)
	if c.NotAttempted > 0 {
		fmt.Fprintf(w, "  Not attempted:   %d\n", c.NotAttempted)
	}
	fmt.Fprintf(w, "  API calls:       %d\n", c.Calls)

	if len(s.Outcomes) > 0 {
		fmt.Fprintln(w, "\nOutcomes:")
		fmt.Fprintln(w, "========================================")
		for i, o := range s.Outcomes {
			fmt.Fprintf(w, "[%d] %s: %s\n", i+1, o.Identifier, describe(o))
		}
	}

	if len(s.UnmatchedUnits) > 0 {
		fmt.Fprintln(w, "\nUnits without files:")
		for _, id := range s.UnmatchedUnits {
			fmt.Fprintf(w, "  %s\n", id)
		}
	}
	if len(s.UnmatchedFiles) > 0 {
		fmt.Fprintln(w, "\nFiles without a unit record:")
		for _, id := range s.UnmatchedFiles {
			fmt.Fprintf(w, "  %s\n", id)
		}
	}

	if len(s.Anomalies) > 0 {
		counts := anomaly.CountByKind(s.Anomalies)
		fmt.Fprintf(w, "\nAnomalies (%d):\n", len(s.Anomalies))
		for _, kind := range anomaly.Kinds(counts) {
			fmt.Fprintf(w, "  %s: %d\n", kind, counts[kind])
		}
		for _, a := range s.Anomalies {
			fmt.Fprintf(w, "  %s\n", a)
		}
	}

	if s.FatalKind != "" {
		fmt.Fprintf(w, "\n❌ Run stopped (%s): %s\n", s.FatalKind, s.Fatal)
	}

	return nil
}

func describe(o submit.Outcome) string {
	switch o.Status {
	case submit.Created:
		if o.DryRun {
			return fmt.Sprintf("would create %d components", len(o.Components))
		}
		return fmt.Sprintf("created %s with %d components", o.DigitalObjectURI, len(o.Components))
	case submit.Skipped:
		return fmt.Sprintf("skipped (%s) %s", o.Reason, o.DigitalObjectURI)
	default:
		return fmt.Sprintf("failed (%s) %s", o.ErrorKind, o.Detail)
	}
}

func printJSONReport(w io.Writer, s *Summary) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(s)
}

func printCSVReport(w io.Writer, s *Summary) error {
	writer := csv.NewWriter(w)

	header := []string{"identifier", "status", "reason", "error_kind", "detail", "archival_object_uri", "digital_object_uri", "components", "calls", "dry_run"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, o := range s.Outcomes {
		row := []string{
			o.Identifier,
			string(o.Status),
			o.Reason,
			string(o.ErrorKind),
			o.Detail,
			o.ArchivalObjectURI,
			o.DigitalObjectURI,
			strconv.Itoa(len(o.Components)),
			strconv.Itoa(o.Calls),
			strconv.FormatBool(o.DryRun),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
