package correlate

import (
	"errors"
	"testing"

	"github.com/lehigh-university-libraries/daobatch/internal/anomaly"
	"github.com/lehigh-university-libraries/daobatch/internal/techmd"
	"github.com/lehigh-university-libraries/daobatch/internal/units"
)

func groupsFor(t *testing.T, filenames ...string) techmd.Groups {
	t.Helper()
	entries := make([]techmd.Entry, 0, len(filenames))
	for _, f := range filenames {
		entries = append(entries, techmd.Entry{Filename: f})
	}
	groups, anomalies := techmd.Group(entries, "report.json")
	if len(anomalies) != 0 {
		t.Fatalf("Unexpected fixture anomalies: %+v", anomalies)
	}
	return groups
}

func TestCorrelatePartitionsIdentifiers(t *testing.T) {
	records := []units.UnitRecord{
		{Identifier: "MS2013_043_54063", Title: "Letter from A to B", Line: 1},
		{Identifier: "MS2013_043_99999", Title: "Undigitized", Line: 2},
	}
	groups := groupsFor(t,
		"MS2013_043_54063_0001.tif",
		"MS2013_043_54063_0002.tif",
		"MS2013_043_77777_0001.tif",
	)

	p := Correlate(records, groups)

	if err := p.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if len(p.Results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(p.Results))
	}

	matched := p.Matched()
	if len(matched) != 1 || matched[0].Identifier != "MS2013_043_54063" || len(matched[0].Files) != 2 {
		t.Errorf("Unexpected matched results: %+v", matched)
	}

	unmatchedUnits := p.UnmatchedUnits()
	if len(unmatchedUnits) != 1 || unmatchedUnits[0].Identifier != "MS2013_043_99999" {
		t.Errorf("Unexpected unmatched units: %+v", unmatchedUnits)
	}
	if len(unmatchedUnits[0].Files) != 0 {
		t.Errorf("Expected no files on unmatched unit")
	}

	unmatchedFiles := p.UnmatchedFiles()
	if len(unmatchedFiles) != 1 || unmatchedFiles[0].Identifier != "MS2013_043_77777" || unmatchedFiles[0].Unit != nil {
		t.Errorf("Unexpected unmatched files: %+v", unmatchedFiles)
	}

	counts := anomaly.CountByKind(p.Anomalies())
	if counts[anomaly.UnmatchedUnit] != 1 || counts[anomaly.UnmatchedFiles] != 1 {
		t.Errorf("Unexpected anomaly counts: %v", counts)
	}
}

func TestCorrelateEveryIdentifierOnce(t *testing.T) {
	tests := []struct {
		name      string
		records   []units.UnitRecord
		filenames []string
	}{
		{name: "empty inputs"},
		{
			name:    "units only",
			records: []units.UnitRecord{{Identifier: "A_1"}, {Identifier: "A_2"}},
		},
		{
			name:      "files only",
			filenames: []string{"A_1_0001.tif", "A_2_0001.tif"},
		},
		{
			name:      "overlapping",
			records:   []units.UnitRecord{{Identifier: "A_1"}, {Identifier: "A_2"}, {Identifier: "A_3"}},
			filenames: []string{"A_2_0001.tif", "A_3_0001.tif", "A_4_0001.tif"},
		},
		{
			name:      "duplicate unit identifiers",
			records:   []units.UnitRecord{{Identifier: "A_1", Title: "first"}, {Identifier: "A_1", Title: "second"}},
			filenames: []string{"A_1_0001.tif"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups := groupsFor(t, tt.filenames...)
			p := Correlate(tt.records, groups)

			if err := p.Validate(); err != nil {
				t.Fatalf("Validate failed: %v", err)
			}

			universe := make(map[string]bool)
			for _, r := range tt.records {
				universe[r.Identifier] = true
			}
			for _, id := range groups.Identifiers {
				universe[id] = true
			}

			if len(p.Results) != len(universe) {
				t.Errorf("Expected %d results, got %d", len(universe), len(p.Results))
			}

			total := len(p.Matched()) + len(p.UnmatchedUnits()) + len(p.UnmatchedFiles())
			if total != len(universe) {
				t.Errorf("Expected variants to cover %d identifiers, got %d", len(universe), total)
			}
		})
	}
}

func TestCorrelateKeepsFirstDuplicateUnit(t *testing.T) {
	records := []units.UnitRecord{{Identifier: "A_1", Title: "first"}, {Identifier: "A_1", Title: "second"}}
	p := Correlate(records, groupsFor(t, "A_1_0001.tif"))

	matched := p.Matched()
	if len(matched) != 1 || matched[0].Unit.Title != "first" {
		t.Errorf("Expected the first record to be matched, got %+v", matched)
	}
}

func TestValidateDetectsBrokenPartition(t *testing.T) {
	tests := []struct {
		name      string
		partition Partition
	}{
		{
			name: "identifier twice",
			partition: Partition{Results: []Match{
				{Kind: UnmatchedUnit, Identifier: "A_1", Unit: &units.UnitRecord{Identifier: "A_1"}},
				{Kind: UnmatchedFiles, Identifier: "A_1", Files: []techmd.FileRecord{{Identifier: "A_1"}}},
			}},
		},
		{
			name: "matched without files",
			partition: Partition{Results: []Match{
				{Kind: Matched, Identifier: "A_1", Unit: &units.UnitRecord{Identifier: "A_1"}},
			}},
		},
		{
			name: "file under wrong identifier",
			partition: Partition{Results: []Match{
				{Kind: Matched, Identifier: "A_1", Unit: &units.UnitRecord{Identifier: "A_1"}, Files: []techmd.FileRecord{{Identifier: "A_2"}}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.partition.Validate()
			if !errors.Is(err, ErrInconsistent) {
				t.Errorf("Expected ErrInconsistent, got %v", err)
			}
		})
	}
}
