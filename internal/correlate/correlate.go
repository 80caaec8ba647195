// Package correlate matches unit records to technical-metadata file groups by identifier.
package correlate

import (
	"errors"
	"fmt"

	"github.com/lehigh-university-libraries/daobatch/internal/anomaly"
	"github.com/lehigh-university-libraries/daobatch/internal/techmd"
	"github.com/lehigh-university-libraries/daobatch/internal/units"
	"github.com/samber/lo"
)

// ErrInconsistent marks a broken partition; it indicates a defect, not bad input
var ErrInconsistent = errors.New("internal consistency fault")

// Kind is the variant of a match result
type Kind string

const (
	Matched        Kind = "matched"
	UnmatchedUnit  Kind = "unmatched_unit"
	UnmatchedFiles Kind = "unmatched_files"
)

// Match is the correlation result for one identifier.
// Unit is nil for UnmatchedFiles; Files is empty for UnmatchedUnit.
type Match struct {
	Kind       Kind
	Identifier string
	Unit       *units.UnitRecord
	Files      []techmd.FileRecord
}

// Partition holds exactly one Match per identifier seen in either input
type Partition struct {
	Results []Match
}

// Correlate partitions the identifier universe. Units come first in file order,
// followed by file groups that no unit claims, in report order.
func Correlate(records []units.UnitRecord, groups techmd.Groups) Partition {
	p := Partition{Results: make([]Match, 0, len(records)+groups.Len())}
	claimed := make(map[string]bool, len(records))

	for i := range records {
		unit := records[i]
		if claimed[unit.Identifier] {
			// the record parser already reports duplicates; keep the first
			continue
		}
		claimed[unit.Identifier] = true

		files, ok := groups.Files[unit.Identifier]
		if !ok || len(files) == 0 {
			p.Results = append(p.Results, Match{Kind: UnmatchedUnit, Identifier: unit.Identifier, Unit: &unit})
			continue
		}

		p.Results = append(p.Results, Match{Kind: Matched, Identifier: unit.Identifier, Unit: &unit, Files: files})
	}

	for _, id := range groups.Identifiers {
		if claimed[id] {
			continue
		}
		claimed[id] = true
		p.Results = append(p.Results, Match{Kind: UnmatchedFiles, Identifier: id, Files: groups.Files[id]})
	}

	return p
}

func (p Partition) byKind(kind Kind) []Match {
	return lo.Filter(p.Results, func(m Match, _ int) bool { return m.Kind == kind })
}

// Matched returns the identifiers that have both a unit record and files
func (p Partition) Matched() []Match {
	return p.byKind(Matched)
}

// UnmatchedUnits returns unit records with no technical metadata
func (p Partition) UnmatchedUnits() []Match {
	return p.byKind(UnmatchedUnit)
}

// UnmatchedFiles returns file groups with no owning unit record
func (p Partition) UnmatchedFiles() []Match {
	return p.byKind(UnmatchedFiles)
}

// Anomalies reports every identifier excluded from submission
func (p Partition) Anomalies() []anomaly.Anomaly {
	var anomalies []anomaly.Anomaly
	for _, m := range p.Results {
		switch m.Kind {
		case UnmatchedUnit:
			anomalies = append(anomalies, anomaly.Anomaly{
				Kind:       anomaly.UnmatchedUnit,
				Line:       m.Unit.Line,
				Identifier: m.Identifier,
				Detail:     "no technical metadata found for unit",
			})
		case UnmatchedFiles:
			anomalies = append(anomalies, anomaly.Anomaly{
				Kind:       anomaly.UnmatchedFiles,
				Identifier: m.Identifier,
				Detail:     fmt.Sprintf("%d file(s) with no matching unit record", len(m.Files)),
			})
		}
	}
	return anomalies
}

// Validate checks the partition invariants before anything is submitted
func (p Partition) Validate() error {
	seen := make(map[string]bool, len(p.Results))
	for _, m := range p.Results {
		if seen[m.Identifier] {
			return fmt.Errorf("%w: identifier %s appears in more than one result", ErrInconsistent, m.Identifier)
		}
		seen[m.Identifier] = true

		switch m.Kind {
		case Matched:
			if m.Unit == nil || len(m.Files) == 0 {
				return fmt.Errorf("%w: matched identifier %s lacks a unit or files", ErrInconsistent, m.Identifier)
			}
			for _, f := range m.Files {
				if f.Identifier != m.Identifier {
					return fmt.Errorf("%w: file %s grouped under %s", ErrInconsistent, f.Filename, m.Identifier)
				}
			}
		case UnmatchedUnit:
			if m.Unit == nil || len(m.Files) != 0 {
				return fmt.Errorf("%w: unmatched unit %s is malformed", ErrInconsistent, m.Identifier)
			}
		case UnmatchedFiles:
			if m.Unit != nil || len(m.Files) == 0 {
				return fmt.Errorf("%w: unmatched file group %s is malformed", ErrInconsistent, m.Identifier)
			}
		default:
			return fmt.Errorf("%w: unknown match kind %q", ErrInconsistent, m.Kind)
		}
	}
	return nil
}
