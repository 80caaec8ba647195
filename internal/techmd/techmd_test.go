package techmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/daobatch/internal/anomaly"
	"github.com/parquet-go/parquet-go"
)

func TestParseFilename(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		expected Name
		wantErr  bool
	}{
		{
			name:     "identifier with underscores",
			filename: "MS2013_043_54063_0001.tif",
			expected: Name{Identifier: "MS2013_043_54063", Sequence: 1, Extension: "tif"},
		},
		{
			name:     "uppercase extension",
			filename: "MS2013_043_54063_0012.JPG",
			expected: Name{Identifier: "MS2013_043_54063", Sequence: 12, Extension: "jpg"},
		},
		{
			name:     "directory is ignored",
			filename: "scans/box3/BC1986_020E_3940_0002.tif",
			expected: Name{Identifier: "BC1986_020E_3940", Sequence: 2, Extension: "tif"},
		},
		{
			name:     "windows path",
			filename: `D:\scans\BC1986_020E_3940_0003.tif`,
			expected: Name{Identifier: "BC1986_020E_3940", Sequence: 3, Extension: "tif"},
		},
		{name: "last numeric segment is the sequence", filename: "MS2013_043_54063.tif", expected: Name{Identifier: "MS2013_043", Sequence: 54063, Extension: "tif"}},
		{name: "no extension", filename: "MS2013_043_54063_0001", wantErr: true},
		{name: "non numeric sequence", filename: "MS2013_043_54063_front.tif", wantErr: true},
		{name: "empty", filename: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseFilename(tt.filename)
			if tt.wantErr {
				if !errors.Is(err, ErrUnmappedFilename) {
					t.Errorf("Expected ErrUnmappedFilename, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFilename failed: %v", err)
			}
			if result != tt.expected {
				t.Errorf("Expected %+v, got %+v", tt.expected, result)
			}
		})
	}
}

func TestDecodeJSONKeepsOrder(t *testing.T) {
	report := `{
  "MS1_7_0002.tif": {"format": "TIFF", "mimetype": "image/tiff", "size": 200},
  "MS1_7_0001.tif": {"format": "TIFF", "mimetype": "image/tiff", "checksum": "abc", "checksum_method": "md5", "size": 100, "width": 3000, "height": 4000},
  "MS1_7_0001.jpg": {"format": "JPEG", "mimetype": "image/jpeg", "size": 10}
}`

	entries, err := DecodeJSON(strings.NewReader(report))
	if err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}

	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}

	order := []string{"MS1_7_0002.tif", "MS1_7_0001.tif", "MS1_7_0001.jpg"}
	for i, want := range order {
		if entries[i].Filename != want {
			t.Errorf("Entry %d: expected %s, got %s", i, want, entries[i].Filename)
		}
	}

	attrs := entries[1].Attributes
	if attrs.Checksum != "abc" || attrs.ChecksumMethod != "md5" || attrs.SizeBytes != 100 || attrs.Width != 3000 || attrs.Height != 4000 {
		t.Errorf("Unexpected attributes: %+v", attrs)
	}
}

func TestDecodeJSONRejectsArray(t *testing.T) {
	if _, err := DecodeJSON(strings.NewReader(`[{"filename": "a_1.tif"}]`)); err == nil {
		t.Error("Expected error for array report, got nil")
	}
}

func TestGroupSortsBySequence(t *testing.T) {
	entries := []Entry{
		{Filename: "MS2013_043_54063_0002.tif"},
		{Filename: "MS2013_043_54064_0001.tif"},
		{Filename: "MS2013_043_54063_0001.tif"},
		{Filename: "MS2013_043_54063_0003.tif"},
	}

	groups, anomalies := Group(entries, "report.json")

	if len(anomalies) != 0 {
		t.Errorf("Expected no anomalies, got %+v", anomalies)
	}

	if groups.Len() != 2 {
		t.Fatalf("Expected 2 groups, got %d", groups.Len())
	}
	if groups.Identifiers[0] != "MS2013_043_54063" || groups.Identifiers[1] != "MS2013_043_54064" {
		t.Errorf("Expected first-seen identifier order, got %v", groups.Identifiers)
	}

	files := groups.Files["MS2013_043_54063"]
	for i, f := range files {
		if f.Sequence != i+1 {
			t.Errorf("Position %d: expected sequence %d, got %d", i, i+1, f.Sequence)
		}
	}
}

func TestGroupReportsAnomalies(t *testing.T) {
	entries := []Entry{
		{Filename: "MS1_5_0001.tif"},
		{Filename: "MS1_5_0001.jpg"},
		{Filename: "MS1_5_0004.tif"},
		{Filename: "notes.txt"},
	}

	groups, anomalies := Group(entries, "report.json")

	files := groups.Files["MS1_5"]
	if len(files) != 3 {
		t.Fatalf("Expected 3 files kept, got %d", len(files))
	}
	if files[0].Extension != "tif" || files[1].Extension != "jpg" {
		t.Errorf("Expected duplicates in report order, got %s then %s", files[0].Extension, files[1].Extension)
	}

	counts := anomaly.CountByKind(anomalies)
	if counts[anomaly.UnmappedFilename] != 1 {
		t.Errorf("Expected 1 unmapped filename, got %d", counts[anomaly.UnmappedFilename])
	}
	if counts[anomaly.DuplicateSequence] != 1 {
		t.Errorf("Expected 1 duplicate sequence, got %d", counts[anomaly.DuplicateSequence])
	}
	if counts[anomaly.SequenceGap] != 1 {
		t.Errorf("Expected 1 sequence gap, got %d", counts[anomaly.SequenceGap])
	}

	for _, a := range anomalies {
		if a.Kind == anomaly.SequenceGap && !strings.Contains(a.Detail, "2-3") {
			t.Errorf("Expected gap detail to name 2-3, got %q", a.Detail)
		}
	}
}

func TestLoaderJSON(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "report.json")

	if err := os.WriteFile(path, []byte(`{"MS1_1_0001.tif": {"format": "TIFF"}}`), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	entries, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Attributes.Format != "TIFF" {
		t.Errorf("Unexpected entries: %+v", entries)
	}
}

func TestLoaderParquet(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "report.parquet")

	rows := []parquetRow{
		{Filename: "MS1_1_0001.tif", Format: "TIFF", SizeBytes: 100, Width: 10, Height: 20},
		{Filename: "MS1_1_0002.tif", Format: "TIFF", SizeBytes: 200},
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		t.Fatalf("Failed to write parquet fixture: %v", err)
	}

	entries, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Attributes.Width != 10 || entries[0].Attributes.Height != 20 {
		t.Errorf("Unexpected dimensions: %+v", entries[0].Attributes)
	}
	if entries[1].Filename != "MS1_1_0002.tif" {
		t.Errorf("Expected row order kept, got %s", entries[1].Filename)
	}
}

func TestLoaderUnsupportedFormat(t *testing.T) {
	if _, err := NewLoader("report.csv").Load(); err == nil {
		t.Error("Expected error for unsupported format, got nil")
	}
}

func TestLoaderNonExistentFile(t *testing.T) {
	if _, err := NewLoader("/nonexistent/report.json").Load(); err == nil {
		t.Error("Expected error for non-existent file, got nil")
	}
}
