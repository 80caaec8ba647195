package techmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// Loader reads a technical-metadata report from disk
type Loader struct {
	reportPath string
}

// NewLoader creates a new report loader
func NewLoader(reportPath string) *Loader {
	return &Loader{
		reportPath: reportPath,
	}
}

// Load reads report entries (JSON or Parquet) in report order
func (l *Loader) Load() ([]Entry, error) {
	ext := strings.ToLower(filepath.Ext(l.reportPath))

	switch ext {
	case ".json":
		return l.loadJSON()
	case ".parquet":
		return l.loadParquet()
	default:
		return nil, fmt.Errorf("unsupported report format: %s (supported: .json, .parquet)", ext)
	}
}

func (l *Loader) loadJSON() ([]Entry, error) {
	slog.Debug("Opening JSON report", "path", l.reportPath)

	file, err := os.Open(l.reportPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open report file: %w", err)
	}
	defer file.Close()

	entries, err := DecodeJSON(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse report %s: %w", l.reportPath, err)
	}

	slog.Debug("Finished reading JSON report", "entries", len(entries))
	return entries, nil
}

func (l *Loader) loadParquet() ([]Entry, error) {
	slog.Debug("Opening Parquet report", "path", l.reportPath)

	rows, err := parquet.ReadFile[parquetRow](l.reportPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet report: %w", err)
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.entry())
	}

	slog.Debug("Finished reading Parquet report", "entries", len(entries))
	return entries, nil
}

// DecodeJSON reads a report object keyed by filename. Key order is kept so
// that files sharing a sequence number stay in the order the tool wrote them.
func DecodeJSON(r io.Reader) ([]Entry, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("report must be an object keyed by filename")
	}

	var entries []Entry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to read filename key: %w", err)
		}
		filename, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v where a filename was expected", tok)
		}

		var attrs Attributes
		if err := dec.Decode(&attrs); err != nil {
			return nil, fmt.Errorf("failed to decode attributes for %s: %w", filename, err)
		}

		entries = append(entries, Entry{Filename: filename, Attributes: attrs})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to read end of report: %w", err)
	}

	return entries, nil
}
