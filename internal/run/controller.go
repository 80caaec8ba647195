// Package run drives one batch: parse both inputs, correlate, build every
// digital object spec, submit them in order and summarize what happened.
package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lehigh-university-libraries/daobatch/internal/anomaly"
	"github.com/lehigh-university-libraries/daobatch/internal/aspace"
	"github.com/lehigh-university-libraries/daobatch/internal/config"
	"github.com/lehigh-university-libraries/daobatch/internal/correlate"
	"github.com/lehigh-university-libraries/daobatch/internal/dao"
	"github.com/lehigh-university-libraries/daobatch/internal/submit"
	"github.com/lehigh-university-libraries/daobatch/internal/techmd"
	"github.com/lehigh-university-libraries/daobatch/internal/units"
)

const logoutTimeout = 10 * time.Second

// Options select the inputs and mode of one run
type Options struct {
	Environment  string
	UnitFile     string
	ReportFile   string
	DryRun       bool
	SettingsPath string
}

// Controller runs batches
type Controller struct {
	now func() time.Time
}

// NewController creates a run controller
func NewController() *Controller {
	return &Controller{now: time.Now}
}

// Run executes one batch. The summary is always returned; the error is set
// when the run stopped on a fatal condition, which the summary also records.
func (c *Controller) Run(ctx context.Context, opts Options) (*Summary, error) {
	summary := &Summary{
		RunID:          uuid.NewString(),
		Environment:    opts.Environment,
		DryRun:         opts.DryRun,
		UnitFile:       opts.UnitFile,
		ReportFile:     opts.ReportFile,
		StartedAt:      c.now(),
		Outcomes:       []submit.Outcome{},
		UnmatchedUnits: []string{},
		UnmatchedFiles: []string{},
		Anomalies:      []anomaly.Anomaly{},
	}

	err := c.run(ctx, opts, summary)
	summary.FinishedAt = c.now()
	summary.tally()

	slog.Info("Run finished",
		"run_id", summary.RunID,
		"created", summary.Counts.Created,
		"skipped", summary.Counts.Skipped,
		"failed", summary.Counts.Failed,
		"anomalies", summary.Counts.Anomalies,
		"duration", summary.Duration())

	return summary, err
}

func (c *Controller) run(ctx context.Context, opts Options, summary *Summary) error {
	env, err := config.ParseEnvironment(opts.Environment)
	if err != nil {
		summary.fail(FatalConfig, err)
		return err
	}
	cfg, err := config.Load(env, opts.SettingsPath)
	if err != nil {
		summary.fail(FatalConfig, err)
		return err
	}

	slog.Info("Starting run", "run_id", summary.RunID, "environment", env, "dry_run", opts.DryRun)

	specs, err := c.prepare(opts, cfg, summary)
	if err != nil {
		return err
	}

	if len(specs) == 0 {
		slog.Warn("No matched identifiers to submit")
		return nil
	}

	return c.submitAll(ctx, cfg, opts.DryRun, specs, summary)
}

// prepare parses, correlates and builds every spec before any network call
func (c *Controller) prepare(opts Options, cfg *config.Config, summary *Summary) ([]dao.DigitalObjectSpec, error) {
	rows, err := units.ParseFile(opts.UnitFile)
	if err != nil {
		summary.fail(FatalInput, err)
		return nil, err
	}
	records := units.Records(rows)
	summary.Anomalies = append(summary.Anomalies, units.Anomalies(rows)...)
	summary.Counts.UnitRecords = len(records)
	summary.Counts.DroppedRows = units.Dropped(rows)

	entries, err := techmd.NewLoader(opts.ReportFile).Load()
	if err != nil {
		summary.fail(FatalInput, err)
		return nil, err
	}
	groups, fileAnomalies := techmd.Group(entries, opts.ReportFile)
	summary.Anomalies = append(summary.Anomalies, fileAnomalies...)
	for _, id := range groups.Identifiers {
		summary.Counts.FileRecords += len(groups.Files[id])
	}

	slog.Info("Parsed inputs",
		"unit_records", len(records),
		"file_records", summary.Counts.FileRecords,
		"dropped_rows", summary.Counts.DroppedRows)

	partition := correlate.Correlate(records, groups)
	if err := partition.Validate(); err != nil {
		summary.fail(FatalInternal, err)
		return nil, err
	}
	summary.Anomalies = append(summary.Anomalies, partition.Anomalies()...)

	for _, m := range partition.UnmatchedUnits() {
		summary.UnmatchedUnits = append(summary.UnmatchedUnits, m.Identifier)
	}
	for _, m := range partition.UnmatchedFiles() {
		summary.UnmatchedFiles = append(summary.UnmatchedFiles, m.Identifier)
	}

	matched := partition.Matched()
	summary.Counts.Matched = len(matched)

	builder := dao.NewBuilder(cfg.Builder)
	specs := make([]dao.DigitalObjectSpec, 0, len(matched))
	for _, m := range matched {
		spec, err := builder.Build(*m.Unit, m.Files)
		if err != nil {
			summary.fail(FatalInternal, err)
			return nil, err
		}
		specs = append(specs, spec)
	}

	slog.Info("Correlated inputs",
		"matched", len(matched),
		"unmatched_units", len(summary.UnmatchedUnits),
		"unmatched_files", len(summary.UnmatchedFiles))

	return specs, nil
}

func (c *Controller) submitAll(ctx context.Context, cfg *config.Config, dryRun bool, specs []dao.DigitalObjectSpec, summary *Summary) error {
	client := aspace.NewClient(cfg.ArchivesSpace)

	session, err := client.Login(ctx)
	if err != nil {
		summary.fail(loginFailure(ctx, err), err)
		return err
	}
	defer func() {
		// the run context may already be cancelled
		logoutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), logoutTimeout)
		defer cancel()
		if err := session.Close(logoutCtx); err != nil {
			slog.Warn("Failed to close ArchivesSpace session", "err", err.Error())
		}
	}()

	submitter := submit.NewSubmitter(session, submit.Options{DryRun: dryRun, Calls: client.Calls})

	for i, spec := range specs {
		slog.Info("Processing record", "identifier", spec.Identifier, "progress", fmt.Sprintf("%d/%d", i+1, len(specs)))

		outcome, err := submitter.Submit(ctx, spec)
		summary.Outcomes = append(summary.Outcomes, outcome)
		if err != nil {
			kind := FatalAuth
			if ctx.Err() != nil {
				kind = FatalInterrupted
			}
			summary.fail(kind, err)
			return err
		}
	}

	return nil
}

func loginFailure(ctx context.Context, err error) FatalKind {
	switch {
	case ctx.Err() != nil:
		return FatalInterrupted
	case errors.Is(err, aspace.ErrUnauthorized):
		return FatalAuth
	default:
		return FatalUnavailable
	}
}
