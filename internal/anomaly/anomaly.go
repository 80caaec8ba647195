// Package anomaly describes the non-fatal problems found while reading and
// correlating the input files. Anomalies never stop a run; they are collected
// and printed in the run summary.
package anomaly

import (
	"fmt"
	"sort"
)

// Kind categorizes an anomaly
type Kind string

const (
	MalformedRow        Kind = "malformed_row"
	DuplicateIdentifier Kind = "duplicate_identifier"
	UnmappedFilename    Kind = "unmapped_filename"
	DuplicateSequence   Kind = "duplicate_sequence"
	SequenceGap         Kind = "sequence_gap"
	UnmatchedUnit       Kind = "unmatched_unit"
	UnmatchedFiles      Kind = "unmatched_files"
)

// Anomaly is a single recorded problem with enough context to find it in the input
type Anomaly struct {
	Kind       Kind   `json:"kind" yaml:"kind"`
	Source     string `json:"source,omitempty" yaml:"source,omitempty"`
	Line       int    `json:"line,omitempty" yaml:"line,omitempty"`
	Identifier string `json:"identifier,omitempty" yaml:"identifier,omitempty"`
	Filename   string `json:"filename,omitempty" yaml:"filename,omitempty"`
	Detail     string `json:"detail" yaml:"detail"`
}

func (a Anomaly) String() string {
	loc := a.Source
	if a.Line > 0 {
		loc = fmt.Sprintf("%s:%d", a.Source, a.Line)
	}
	if a.Filename != "" {
		loc = a.Filename
	}

	switch {
	case loc != "" && a.Identifier != "":
		return fmt.Sprintf("[%s] %s (%s): %s", a.Kind, loc, a.Identifier, a.Detail)
	case loc != "":
		return fmt.Sprintf("[%s] %s: %s", a.Kind, loc, a.Detail)
	case a.Identifier != "":
		return fmt.Sprintf("[%s] %s: %s", a.Kind, a.Identifier, a.Detail)
	default:
		return fmt.Sprintf("[%s] %s", a.Kind, a.Detail)
	}
}

// CountByKind tallies anomalies per kind
func CountByKind(anomalies []Anomaly) map[Kind]int {
	counts := make(map[Kind]int)
	for _, a := range anomalies {
		counts[a.Kind]++
	}
	return counts
}

// Kinds returns the kinds present in counts, sorted for stable output
func Kinds(counts map[Kind]int) []Kind {
	kinds := make([]Kind, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
