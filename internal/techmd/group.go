package techmd

import (
	"fmt"
	"sort"

	"github.com/lehigh-university-libraries/daobatch/internal/anomaly"
	"github.com/samber/lo"
)

// Groups maps each identifier to its files, ordered by ascending sequence number
type Groups struct {
	// Identifiers in the order they first appear in the report
	Identifiers []string
	Files       map[string][]FileRecord
}

// Len returns the number of identifier groups
func (g Groups) Len() int {
	return len(g.Identifiers)
}

// Group interprets every entry's filename and groups the valid ones by identifier.
// Entries with unmapped filenames are excluded and reported. Sorting is stable,
// so files sharing a sequence number keep report order.
func Group(entries []Entry, source string) (Groups, []anomaly.Anomaly) {
	var anomalies []anomaly.Anomaly
	records := make([]FileRecord, 0, len(entries))

	for _, e := range entries {
		name, err := ParseFilename(e.Filename)
		if err != nil {
			anomalies = append(anomalies, anomaly.Anomaly{
				Kind:     anomaly.UnmappedFilename,
				Source:   source,
				Filename: e.Filename,
				Detail:   ErrUnmappedFilename.Error(),
			})
			continue
		}

		records = append(records, FileRecord{
			Identifier: name.Identifier,
			Sequence:   name.Sequence,
			Filename:   e.Filename,
			Extension:  name.Extension,
			Attributes: e.Attributes,
		})
	}

	groups := Groups{
		Identifiers: lo.Uniq(lo.Map(records, func(r FileRecord, _ int) string { return r.Identifier })),
		Files:       lo.GroupBy(records, func(r FileRecord) string { return r.Identifier }),
	}

	for _, id := range groups.Identifiers {
		files := groups.Files[id]
		sort.SliceStable(files, func(i, j int) bool { return files[i].Sequence < files[j].Sequence })
		anomalies = append(anomalies, sequenceAnomalies(id, files, source)...)
	}

	return groups, anomalies
}

// sequenceAnomalies reports duplicate sequence numbers and gaps in a sorted group.
// Sequences are expected to run 1, 2, 3, ...
func sequenceAnomalies(identifier string, files []FileRecord, source string) []anomaly.Anomaly {
	var anomalies []anomaly.Anomaly

	expected := 1
	for i, f := range files {
		if i > 0 && f.Sequence == files[i-1].Sequence {
			anomalies = append(anomalies, anomaly.Anomaly{
				Kind:       anomaly.DuplicateSequence,
				Source:     source,
				Identifier: identifier,
				Filename:   f.Filename,
				Detail:     fmt.Sprintf("sequence %d already used by %s; both files kept", f.Sequence, files[i-1].Filename),
			})
			continue
		}

		if f.Sequence > expected {
			missing := fmt.Sprintf("%d", expected)
			if f.Sequence-1 > expected {
				missing = fmt.Sprintf("%d-%d", expected, f.Sequence-1)
			}
			anomalies = append(anomalies, anomaly.Anomaly{
				Kind:       anomaly.SequenceGap,
				Source:     source,
				Identifier: identifier,
				Filename:   f.Filename,
				Detail:     fmt.Sprintf("missing sequence %s before %d", missing, f.Sequence),
			})
		}
		expected = f.Sequence + 1
	}

	return anomalies
}
