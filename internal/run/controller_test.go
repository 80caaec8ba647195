package run

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lehigh-university-libraries/daobatch/internal/anomaly"
	"github.com/lehigh-university-libraries/daobatch/internal/aspace/aspacetest"
	"github.com/lehigh-university-libraries/daobatch/internal/submit"
)

const unitFixture = "MS2013_043_54063\tLetter from  A to B\tBox 3, Folder 2\t1920\r\n" +
	"MS2013_043_99999\tUndigitized\tBox 3, Folder 3\t1921\r\n" +
	"\tSeries heading\tBox 3\t1920/1925\r\n" +
	"BROKEN_1\tonly two\r\n"

const reportFixture = `{
  "MS2013_043_54063_0001.tif": {"format": "TIFF", "mimetype": "image/tiff", "size": 1024},
  "MS2013_043_54063_0002.tif": {"format": "TIFF", "mimetype": "image/tiff", "size": 2048},
  "MS2013_043_77777_0001.tif": {"format": "TIFF", "mimetype": "image/tiff"},
  "notes.txt": {}
}`

type harness struct {
	srv  *aspacetest.Server
	opts Options
}

func newHarness(t *testing.T, dryRun bool) *harness {
	t.Helper()
	dir := t.TempDir()

	srv := aspacetest.New(t)
	t.Setenv("ASPACE_TEST_URL", srv.URL)
	t.Setenv("ASPACE_TEST_USERNAME", aspacetest.Username)
	t.Setenv("ASPACE_TEST_PASSWORD", aspacetest.Password)
	t.Setenv("ASPACE_TEST_REPOSITORY", "2")
	for _, key := range []string{"DAOBATCH_CONFIG", "DAOBATCH_TIMEOUT", "DAOBATCH_RETRY_MAX", "DAOBATCH_OBJECT_TYPE", "DAOBATCH_FORMAT_NOTE", "HANDLE_PREFIX"} {
		t.Setenv(key, "")
	}

	settings := filepath.Join(dir, "settings.yaml")
	unitFile := filepath.Join(dir, "units.tsv")
	reportFile := filepath.Join(dir, "report.json")
	writeFile(t, settings, "timeout: 2s\nretry_max: 2\nretry_wait_min: 1ms\nretry_wait_max: 5ms\n")
	writeFile(t, unitFile, unitFixture)
	writeFile(t, reportFile, reportFixture)

	return &harness{
		srv: srv,
		opts: Options{
			Environment:  "test",
			UnitFile:     unitFile,
			ReportFile:   reportFile,
			DryRun:       dryRun,
			SettingsPath: settings,
		},
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestRunLive(t *testing.T) {
	h := newHarness(t, false)
	h.srv.AddArchivalObject("MS2013_043_54063", "Letter from A to B")

	summary, err := NewController().Run(context.Background(), h.opts)
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, ExitOK, summary.ExitCode())
	assert.Equal(t, 2, summary.Counts.UnitRecords)
	assert.Equal(t, 3, summary.Counts.FileRecords)
	assert.Equal(t, 1, summary.Counts.DroppedRows)
	assert.Equal(t, 1, summary.Counts.Matched)
	assert.Equal(t, 1, summary.Counts.Created)
	assert.Equal(t, []string{"MS2013_043_99999"}, summary.UnmatchedUnits)
	assert.Equal(t, []string{"MS2013_043_77777"}, summary.UnmatchedFiles)

	counts := anomaly.CountByKind(summary.Anomalies)
	assert.Equal(t, 1, counts[anomaly.MalformedRow])
	assert.Equal(t, 1, counts[anomaly.UnmappedFilename])
	assert.Equal(t, 1, counts[anomaly.UnmatchedUnit])
	assert.Equal(t, 1, counts[anomaly.UnmatchedFiles])

	require.Len(t, summary.Outcomes, 1)
	outcome := summary.Outcomes[0]
	assert.Equal(t, "MS2013_043_54063", outcome.Identifier)
	assert.Equal(t, submit.Created, outcome.Status)
	assert.Len(t, outcome.Components, 2)

	do, ok := h.srv.DigitalObject(outcome.DigitalObjectURI)
	require.True(t, ok)
	assert.Equal(t, "Letter from A to B", do["title"])

	assert.Equal(t, 1, h.srv.Logouts(), "session must be released")
}

func TestRunTwiceSkips(t *testing.T) {
	h := newHarness(t, false)
	h.srv.AddArchivalObject("MS2013_043_54063", "Letter from A to B")

	first, err := NewController().Run(context.Background(), h.opts)
	require.NoError(t, err)
	mutations := h.srv.Mutations()

	second, err := NewController().Run(context.Background(), h.opts)
	require.NoError(t, err)

	assert.Equal(t, 1, first.Counts.Created)
	assert.Equal(t, 0, second.Counts.Created)
	assert.Equal(t, 1, second.Counts.Skipped)
	assert.Equal(t, mutations, h.srv.Mutations())
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRunDryRunMatchesLive(t *testing.T) {
	h := newHarness(t, true)
	h.srv.AddArchivalObject("MS2013_043_54063", "Letter from A to B")

	dry, err := NewController().Run(context.Background(), h.opts)
	require.NoError(t, err)
	assert.Equal(t, 0, h.srv.Mutations())
	assert.Equal(t, 0, h.srv.DigitalObjectCount())
	require.Len(t, dry.Outcomes, 1)
	assert.True(t, dry.Outcomes[0].DryRun)

	h.opts.DryRun = false
	live, err := NewController().Run(context.Background(), h.opts)
	require.NoError(t, err)

	dryCounts, liveCounts := dry.Counts, live.Counts
	dryCounts.Calls, liveCounts.Calls = 0, 0
	assert.Equal(t, liveCounts, dryCounts)
	assert.Equal(t, live.Outcomes[0].Status, dry.Outcomes[0].Status)
	assert.Equal(t, live.UnmatchedUnits, dry.UnmatchedUnits)
	assert.Equal(t, live.UnmatchedFiles, dry.UnmatchedFiles)
	assert.Equal(t, live.Anomalies, dry.Anomalies)
}

func TestRunContinuesPastFailures(t *testing.T) {
	h := newHarness(t, false)
	writeFile(t, h.opts.UnitFile, "A_1\tFirst\tBox 1\t1920\r\nA_2\tSecond\tBox 1\t1920\r\n")
	writeFile(t, h.opts.ReportFile, `{"A_1_0001.tif": {}, "A_2_0001.tif": {}}`)
	h.srv.AddArchivalObject("A_2", "Second")

	summary, err := NewController().Run(context.Background(), h.opts)
	require.NoError(t, err)

	require.Len(t, summary.Outcomes, 2)
	assert.Equal(t, submit.Failed, summary.Outcomes[0].Status)
	assert.Equal(t, submit.NotFound, summary.Outcomes[0].ErrorKind)
	assert.Equal(t, submit.Created, summary.Outcomes[1].Status)
	assert.Equal(t, ExitFailures, summary.ExitCode())
}

func TestRunFatal(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, h *harness)
		kind  FatalKind
	}{
		{
			name:  "unknown environment",
			setup: func(_ *testing.T, h *harness) { h.opts.Environment = "staging" },
			kind:  FatalConfig,
		},
		{
			name:  "missing credentials",
			setup: func(_ *testing.T, h *harness) { h.opts.Environment = "prod" },
			kind:  FatalConfig,
		},
		{
			name:  "missing unit file",
			setup: func(t *testing.T, h *harness) { h.opts.UnitFile = filepath.Join(t.TempDir(), "missing.tsv") },
			kind:  FatalInput,
		},
		{
			name:  "unsupported report",
			setup: func(_ *testing.T, h *harness) { h.opts.ReportFile = strings.TrimSuffix(h.opts.ReportFile, ".json") + ".xml" },
			kind:  FatalInput,
		},
		{
			name: "rejected credentials",
			setup: func(t *testing.T, h *harness) {
				h.srv.AddArchivalObject("MS2013_043_54063", "Letter")
				t.Setenv("ASPACE_TEST_PASSWORD", "wrong")
			},
			kind: FatalAuth,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, false)
			t.Setenv("ASPACE_PROD_URL", "")
			tt.setup(t, h)

			summary, err := NewController().Run(context.Background(), h.opts)
			require.Error(t, err)
			require.NotNil(t, summary)
			assert.Equal(t, tt.kind, summary.FatalKind)
			assert.NotEmpty(t, summary.Fatal)
			assert.Equal(t, ExitFatal, summary.ExitCode())
			assert.Empty(t, summary.Outcomes)
			assert.Equal(t, 0, h.srv.Mutations())
		})
	}
}

func TestRunInterrupted(t *testing.T) {
	h := newHarness(t, false)
	h.srv.AddArchivalObject("MS2013_043_54063", "Letter")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := NewController().Run(ctx, h.opts)
	require.Error(t, err)
	assert.Equal(t, FatalInterrupted, summary.FatalKind)
	assert.Equal(t, 1, summary.Counts.NotAttempted)
	assert.Equal(t, 0, h.srv.Mutations())
}

func TestSaveAndLoad(t *testing.T) {
	h := newHarness(t, false)
	h.srv.AddArchivalObject("MS2013_043_54063", "Letter from A to B")

	summary, err := NewController().Run(context.Background(), h.opts)
	require.NoError(t, err)

	dir := t.TempDir()
	summaryPath, auditPath, err := summary.Save(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, summary.BaseName()+".yaml"), summaryPath)
	assert.True(t, strings.HasPrefix(filepath.Base(summaryPath), "test-"))

	loaded, err := LoadYAML(summaryPath)
	require.NoError(t, err)
	assert.Equal(t, summary.RunID, loaded.RunID)
	assert.Equal(t, summary.Counts, loaded.Counts)
	assert.Equal(t, summary.Outcomes, loaded.Outcomes)
	assert.True(t, summary.StartedAt.Equal(loaded.StartedAt))

	rows, err := parquet.ReadFile[AuditRow](auditPath)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "created", rows[0].Status)
	assert.Equal(t, int64(2), rows[0].Components)
	assert.Equal(t, "unmatched_unit", rows[1].Status)
	assert.Equal(t, "unmatched_files", rows[2].Status)
	assert.Equal(t, summary.RunID, rows[2].RunID)
}

func TestRender(t *testing.T) {
	h := newHarness(t, true)
	h.srv.AddArchivalObject("MS2013_043_54063", "Letter from A to B")

	summary, err := NewController().Run(context.Background(), h.opts)
	require.NoError(t, err)

	var text bytes.Buffer
	require.NoError(t, Render(&text, summary, "text"))
	assert.Contains(t, text.String(), "Digital Object Batch Summary")
	assert.Contains(t, text.String(), "test (dry run)")
	assert.Contains(t, text.String(), "MS2013_043_54063: would create 2 components")
	assert.Contains(t, text.String(), "malformed_row: 1")

	var js bytes.Buffer
	require.NoError(t, Render(&js, summary, "json"))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Equal(t, summary.RunID, decoded["run_id"])

	var csv bytes.Buffer
	require.NoError(t, Render(&csv, summary, "csv"))
	lines := strings.Split(strings.TrimSpace(csv.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "MS2013_043_54063,created,"))

	assert.Error(t, Render(&text, summary, "xml"))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name     string
		summary  Summary
		expected int
	}{
		{"clean", Summary{Counts: Counts{Created: 2, Skipped: 1}}, ExitOK},
		{"failures", Summary{Counts: Counts{Created: 1, Failed: 1}}, ExitFailures},
		{"fatal", Summary{FatalKind: FatalAuth, Counts: Counts{Failed: 1}}, ExitFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.summary.ExitCode(); got != tt.expected {
				t.Errorf("Expected exit code %d, got %d", tt.expected, got)
			}
		})
	}
}
