package domain

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
)

// SkippedRecord is an input row that was dropped during the merge.
type SkippedRecord struct {
	ID     NuclideID
	Reason error
}

// MergeResult holds the merged table and the rows that could not be used.
type MergeResult struct {
	Records []AtomicWeightRecord
	Skipped []SkippedRecord
}

// Merge joins measured masses with natural abundances into one atomic-weight
// table: one row per resolvable isotope in masses, plus one row per element in
// elements or referenced by a mass or abundance record. Element rows carry
// sum(isotope mass * abundance) over that element's isotopes. Output is sorted
// by ascending id.
//
// Ids without a registered name are skipped and reported in the result; they
// never abort the merge.
func Merge(codec *Codec, abundances Abundances, masses []MassRecord, elements []NuclideID, logger *slog.Logger) MergeResult {
	rows := make(map[NuclideID]*AtomicWeightRecord, len(masses)+len(elements))
	var skipped []SkippedRecord

	skip := func(id NuclideID, reason error) {
		logger.Warn("skipping record", "nuclide_id", int(id), "error", reason)
		skipped = append(skipped, SkippedRecord{ID: id, Reason: reason})
	}

	for _, m := range masses {
		if m.ID.IsElement() {
			skip(m.ID, fmt.Errorf("mass record for element id %d is not an isotope", m.ID))
			continue
		}
		name, err := codec.Decode(m.ID)
		if err != nil {
			skip(m.ID, err)
			continue
		}
		rows[m.ID] = &AtomicWeightRecord{
			Name:        name,
			ID:          m.ID,
			Mass:        m.Mass,
			Uncertainty: m.Uncertainty,
			Abundance:   abundances[m.ID],
		}
	}

	elementRow := func(id NuclideID) (*AtomicWeightRecord, error) {
		if row, ok := rows[id]; ok {
			return row, nil
		}
		name, err := codec.Decode(id)
		if err != nil {
			return nil, err
		}
		row := &AtomicWeightRecord{Name: name, ID: id}
		rows[id] = row
		return row, nil
	}

	for _, el := range elements {
		if _, err := elementRow(el.Element()); err != nil {
			skip(el, err)
		}
	}
	// Every element with a resolved isotope gets a row, listed or not.
	for _, id := range slices.Sorted(maps.Keys(rows)) {
		if !id.IsElement() {
			if _, err := elementRow(id.Element()); err != nil {
				skip(id.Element(), err)
			}
		}
	}

	// Weighted sums are accumulated per element first, in id order so the
	// floating-point result does not depend on map iteration.
	sums := make(map[NuclideID]float64)
	for _, id := range slices.Sorted(maps.Keys(abundances)) {
		if id.IsElement() {
			continue
		}
		el := codec.ElementOf(id)
		iso, ok := rows[id]
		if !ok {
			if _, seen := sums[el]; !seen {
				sums[el] = 0
			}
			continue
		}
		sums[el] += iso.Mass * abundances[id]
	}
	for _, el := range slices.Sorted(maps.Keys(sums)) {
		row, err := elementRow(el)
		if err != nil {
			skip(el, err)
			continue
		}
		row.Mass = sums[el]
		row.Uncertainty = 0
		row.Abundance = 0
	}

	out := make([]AtomicWeightRecord, 0, len(rows))
	for _, id := range slices.Sorted(maps.Keys(rows)) {
		out = append(out, *rows[id])
	}
	return MergeResult{Records: out, Skipped: skipped}
}
