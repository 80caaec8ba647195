package run

import (
	"time"

	"github.com/samber/lo"

	"github.com/lehigh-university-libraries/daobatch/internal/anomaly"
	"github.com/lehigh-university-libraries/daobatch/internal/submit"
)

// FatalKind says why a run stopped early
type FatalKind string

const (
	FatalConfig      FatalKind = "config"
	FatalInput       FatalKind = "input"
	FatalInternal    FatalKind = "internal"
	FatalAuth        FatalKind = "auth"
	FatalUnavailable FatalKind = "unavailable"
	FatalInterrupted FatalKind = "interrupted"
)

// Exit codes of a run
const (
	ExitOK       = 0
	ExitFailures = 1
	ExitFatal    = 2
)

// Counts are the headline numbers of a run
type Counts struct {
	UnitRecords    int `json:"unit_records" yaml:"unit_records"`
	FileRecords    int `json:"file_records" yaml:"file_records"`
	DroppedRows    int `json:"dropped_rows" yaml:"dropped_rows"`
	Matched        int `json:"matched" yaml:"matched"`
	UnmatchedUnits int `json:"unmatched_units" yaml:"unmatched_units"`
	UnmatchedFiles int `json:"unmatched_files" yaml:"unmatched_files"`
	Created        int `json:"created" yaml:"created"`
	Skipped        int `json:"skipped" yaml:"skipped"`
	Failed         int `json:"failed" yaml:"failed"`
	NotAttempted   int `json:"not_attempted" yaml:"not_attempted"`
	Anomalies      int `json:"anomalies" yaml:"anomalies"`
	Calls          int `json:"calls" yaml:"calls"`
}

// Summary is the consolidated report of one run. It is produced even when
// the run stops on a fatal error.
type Summary struct {
	RunID          string            `json:"run_id" yaml:"run_id"`
	Environment    string            `json:"environment" yaml:"environment"`
	DryRun         bool              `json:"dry_run" yaml:"dry_run"`
	UnitFile       string            `json:"unit_file" yaml:"unit_file"`
	ReportFile     string            `json:"report_file" yaml:"report_file"`
	StartedAt      time.Time         `json:"started_at" yaml:"started_at"`
	FinishedAt     time.Time         `json:"finished_at" yaml:"finished_at"`
	Counts         Counts            `json:"counts" yaml:"counts"`
	Outcomes       []submit.Outcome  `json:"outcomes" yaml:"outcomes"`
	UnmatchedUnits []string          `json:"unmatched_units" yaml:"unmatched_units"`
	UnmatchedFiles []string          `json:"unmatched_files" yaml:"unmatched_files"`
	Anomalies      []anomaly.Anomaly `json:"anomalies" yaml:"anomalies"`
	Fatal          string            `json:"fatal,omitempty" yaml:"fatal,omitempty"`
	FatalKind      FatalKind         `json:"fatal_kind,omitempty" yaml:"fatal_kind,omitempty"`
}

// ExitCode is 0 for a clean run, 1 when some identifiers failed and 2 when
// the run stopped on a fatal error
func (s *Summary) ExitCode() int {
	switch {
	case s.FatalKind != "":
		return ExitFatal
	case s.Counts.Failed > 0:
		return ExitFailures
	default:
		return ExitOK
	}
}

// Duration is the wall time of the run
func (s *Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

func (s *Summary) fail(kind FatalKind, err error) {
	s.FatalKind = kind
	s.Fatal = err.Error()
}

// tally recomputes the outcome counts
func (s *Summary) tally() {
	byStatus := lo.CountValuesBy(s.Outcomes, func(o submit.Outcome) submit.Status { return o.Status })
	s.Counts.Created = byStatus[submit.Created]
	s.Counts.Skipped = byStatus[submit.Skipped]
	s.Counts.Failed = byStatus[submit.Failed]
	s.Counts.NotAttempted = max(s.Counts.Matched-len(s.Outcomes), 0)
	s.Counts.UnmatchedUnits = len(s.UnmatchedUnits)
	s.Counts.UnmatchedFiles = len(s.UnmatchedFiles)
	s.Counts.Anomalies = len(s.Anomalies)
	s.Counts.Calls = lo.SumBy(s.Outcomes, func(o submit.Outcome) int { return o.Calls })
}
