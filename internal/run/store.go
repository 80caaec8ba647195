package run

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"
)

// BaseName is the file stem shared by the saved summary and audit log
func (s *Summary) BaseName() string {
	return fmt.Sprintf("%s-%s", s.Environment, s.StartedAt.Format("20060102-150405"))
}

// Save writes the YAML summary and the Parquet audit log under dir and
// returns their paths
func (s *Summary) Save(dir string) (summaryPath, auditPath string, err error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create output directory: %w", err)
	}

	summaryPath = filepath.Join(dir, s.BaseName()+".yaml")
	if err := SaveYAML(summaryPath, s); err != nil {
		return "", "", err
	}

	auditPath = filepath.Join(dir, s.BaseName()+".parquet")
	if err := WriteAudit(auditPath, s); err != nil {
		return "", "", err
	}

	slog.Info("Saved run output", "summary", summaryPath, "audit", auditPath)
	return summaryPath, auditPath, nil
}

// SaveYAML writes the summary as YAML
func SaveYAML(path string, s *Summary) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}
	return nil
}

// LoadYAML reads a summary saved by SaveYAML
func LoadYAML(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read summary: %w", err)
	}

	var s Summary
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse summary %s: %w", path, err)
	}
	return &s, nil
}

// AuditRow is one line of the Parquet audit log. Every identifier of the
// run appears once: submitted ones with their outcome, unmatched ones with
// status unmatched_unit or unmatched_files.
type AuditRow struct {
	RunID             string `parquet:"run_id"`
	Environment       string `parquet:"environment"`
	DryRun            bool   `parquet:"dry_run"`
	RecordedAt        string `parquet:"recorded_at"`
	Identifier        string `parquet:"identifier"`
	Status            string `parquet:"status"`
	Reason            string `parquet:"reason,optional"`
	ErrorKind         string `parquet:"error_kind,optional"`
	Detail            string `parquet:"detail,optional"`
	ArchivalObjectURI string `parquet:"archival_object_uri,optional"`
	DigitalObjectURI  string `parquet:"digital_object_uri,optional"`
	Components        int64  `parquet:"components"`
	Calls             int64  `parquet:"calls"`
}

// AuditRows flattens the summary into audit log rows
func AuditRows(s *Summary) []AuditRow {
	recordedAt := s.FinishedAt.UTC().Format(time.RFC3339)
	base := AuditRow{
		RunID:       s.RunID,
		Environment: s.Environment,
		DryRun:      s.DryRun,
		RecordedAt:  recordedAt,
	}

	rows := make([]AuditRow, 0, len(s.Outcomes)+len(s.UnmatchedUnits)+len(s.UnmatchedFiles))
	for _, o := range s.Outcomes {
		row := base
		row.Identifier = o.Identifier
		row.Status = string(o.Status)
		row.Reason = o.Reason
		row.ErrorKind = string(o.ErrorKind)
		row.Detail = o.Detail
		row.ArchivalObjectURI = o.ArchivalObjectURI
		row.DigitalObjectURI = o.DigitalObjectURI
		row.Components = int64(len(o.Components))
		row.Calls = int64(o.Calls)
		rows = append(rows, row)
	}
	for _, id := range s.UnmatchedUnits {
		row := base
		row.Identifier = id
		row.Status = "unmatched_unit"
		rows = append(rows, row)
	}
	for _, id := range s.UnmatchedFiles {
		row := base
		row.Identifier = id
		row.Status = "unmatched_files"
		rows = append(rows, row)
	}
	return rows
}

// WriteAudit writes the audit log for s to path
func WriteAudit(path string, s *Summary) error {
	if err := parquet.WriteFile(path, AuditRows(s)); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
