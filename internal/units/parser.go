package units

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lehigh-university-libraries/daobatch/internal/anomaly"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Column positions in the tab file produced by the EAD transforms
const (
	colIdentifier = iota
	colTitle
	colContainer
	colDate
	colLanguage
	colGenre
	colResourceType
	colRestriction
)

// Accepted column counts: basic export, enriched export, enriched export with a restriction statement
const (
	basicColumns      = 4
	enrichedColumns   = 7
	restrictedColumns = 8
)

// UnitRecord is one archival unit selected for digitization
type UnitRecord struct {
	Identifier   string `json:"identifier" yaml:"identifier"`
	Title        string `json:"title" yaml:"title"`
	Container    string `json:"container" yaml:"container"`
	DateNormal   string `json:"date_normal,omitempty" yaml:"date_normal,omitempty"`
	Language     string `json:"language,omitempty" yaml:"language,omitempty"`
	Genre        string `json:"genre,omitempty" yaml:"genre,omitempty"`
	ResourceType string `json:"resource_type,omitempty" yaml:"resource_type,omitempty"`
	Restriction  string `json:"restriction,omitempty" yaml:"restriction,omitempty"`

	// Line is the 1-based line number the record was read from
	Line int `json:"line" yaml:"line"`
}

// RowResult is the outcome of parsing one non-blank row.
// Exactly one of Record and Anomaly is set, unless the row was dropped.
type RowResult struct {
	Line    int
	Record  *UnitRecord
	Anomaly *anomaly.Anomaly
	Dropped bool
}

// ParseFile opens and parses a tab file from disk
func ParseFile(path string) ([]RowResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open unit record file: %w", err)
	}
	defer file.Close()

	return Parse(file, path)
}

// Parse reads tab-delimited unit records. Row-level problems are reported as
// anomalies in the results; only read errors are returned as errors.
func Parse(r io.Reader, source string) ([]RowResult, error) {
	// Exports saved from spreadsheet tools often carry a UTF-8 BOM
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	scanner := bufio.NewScanner(decoded)
	const maxCapacity = 1024 * 1024
	scanner.Buffer(make([]byte, 64*1024), maxCapacity)

	var results []RowResult
	seen := make(map[string]int)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		result := parseRow(line, lineNum, source)
		if result.Record != nil {
			if first, dup := seen[result.Record.Identifier]; dup {
				result = RowResult{
					Line: lineNum,
					Anomaly: &anomaly.Anomaly{
						Kind:       anomaly.DuplicateIdentifier,
						Source:     source,
						Line:       lineNum,
						Identifier: result.Record.Identifier,
						Detail:     fmt.Sprintf("identifier already used on line %d", first),
					},
				}
			} else {
				seen[result.Record.Identifier] = lineNum
			}
		}

		if result.Dropped {
			slog.Warn("Dropping row without identifier", "source", source, "line", lineNum)
		}
		results = append(results, result)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading unit record file: %w", err)
	}

	slog.Debug("Finished reading unit record file", "source", source, "rows", len(results), "lines", lineNum)

	return results, nil
}

func parseRow(line string, lineNum int, source string) RowResult {
	fields := strings.Split(line, "\t")

	switch len(fields) {
	case basicColumns, enrichedColumns, restrictedColumns:
	default:
		return RowResult{
			Line: lineNum,
			Anomaly: &anomaly.Anomaly{
				Kind:       anomaly.MalformedRow,
				Source:     source,
				Line:       lineNum,
				Identifier: strings.TrimSpace(fields[colIdentifier]),
				Detail: fmt.Sprintf("expected %d, %d or %d columns, got %d",
					basicColumns, enrichedColumns, restrictedColumns, len(fields)),
			},
		}
	}

	identifier := strings.TrimSpace(fields[colIdentifier])
	if identifier == "" {
		return RowResult{Line: lineNum, Dropped: true}
	}

	record := &UnitRecord{
		Identifier: identifier,
		Title:      CollapseWhitespace(fields[colTitle]),
		Container:  strings.TrimSpace(fields[colContainer]),
		DateNormal: strings.TrimSpace(fields[colDate]),
		Line:       lineNum,
	}

	if len(fields) >= enrichedColumns {
		record.Language = strings.TrimSpace(fields[colLanguage])
		record.Genre = strings.TrimSpace(fields[colGenre])
		record.ResourceType = strings.TrimSpace(fields[colResourceType])
	}
	if len(fields) == restrictedColumns {
		record.Restriction = strings.TrimSpace(fields[colRestriction])
	}

	return RowResult{Line: lineNum, Record: record}
}

// CollapseWhitespace replaces every run of whitespace with a single space
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Records returns the parsed records in file order
func Records(results []RowResult) []UnitRecord {
	records := make([]UnitRecord, 0, len(results))
	for _, r := range results {
		if r.Record != nil {
			records = append(records, *r.Record)
		}
	}
	return records
}

// Anomalies returns the row-level problems in file order
func Anomalies(results []RowResult) []anomaly.Anomaly {
	var anomalies []anomaly.Anomaly
	for _, r := range results {
		if r.Anomaly != nil {
			anomalies = append(anomalies, *r.Anomaly)
		}
	}
	return anomalies
}

// Dropped counts rows skipped because they had no identifier
func Dropped(results []RowResult) int {
	n := 0
	for _, r := range results {
		if r.Dropped {
			n++
		}
	}
	return n
}
