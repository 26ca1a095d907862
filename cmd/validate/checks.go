package main

import (
	"fmt"
	"math"

	"github.com/couchcryptid/nuclide-data-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func validate(codec *domain.Codec, records []domain.AtomicWeightRecord, tolerance float64) []*phase {
	return []*phase{
		checkOrdering(records),
		checkNames(codec, records),
		checkElementRows(codec, records),
		checkAbundances(records),
		checkElementMasses(records, tolerance),
	}
}

// ── Phase 1: Ordering ──

func checkOrdering(records []domain.AtomicWeightRecord) *phase {
	p := &phase{name: "Phase 1: Ids strictly ascending"}
	for i := 1; i < len(records); i++ {
		if records[i].ID <= records[i-1].ID {
			p.errorf("row %d: id %d follows %d", i, records[i].ID, records[i-1].ID)
		}
	}
	return p
}

// ── Phase 2: Names ──

func checkNames(codec *domain.Codec, records []domain.AtomicWeightRecord) *phase {
	p := &phase{name: "Phase 2: Names round-trip through codec"}
	for _, r := range records {
		name, err := codec.Decode(r.ID)
		if err != nil {
			p.errorf("id %d: %v", r.ID, err)
			continue
		}
		if name != r.Name {
			p.errorf("id %d: stored name %q, codec name %q", r.ID, r.Name, name)
		}
		if len(r.Name) > 6 {
			p.errorf("id %d: name %q longer than 6 characters", r.ID, r.Name)
		}
		if id, err := codec.Encode(r.Name); err != nil || id != r.ID {
			p.errorf("name %q: encodes to %d (%v), want %d", r.Name, id, err, r.ID)
		}
	}
	return p
}

// ── Phase 3: Element rows ──

func checkElementRows(codec *domain.Codec, records []domain.AtomicWeightRecord) *phase {
	p := &phase{name: "Phase 3: One row per known element"}
	seen := map[domain.NuclideID]int{}
	for _, r := range records {
		if !r.ID.IsElement() {
			continue
		}
		seen[r.ID]++
		if r.Uncertainty != 0 || r.Abundance != 0 {
			p.errorf("element %s: uncertainty=%g abundance=%g, want 0", r.Name, r.Uncertainty, r.Abundance)
		}
	}
	for _, el := range codec.Elements() {
		if n := seen[el]; n != 1 {
			p.errorf("element %d: %d rows, want 1", el, n)
		}
	}
	return p
}

// ── Phase 4: Abundances ──

func checkAbundances(records []domain.AtomicWeightRecord) *phase {
	p := &phase{name: "Phase 4: Abundances within [0, 1]"}
	sums := map[domain.NuclideID]float64{}
	for _, r := range records {
		if r.Abundance < 0 || r.Abundance > 1 || math.IsNaN(r.Abundance) {
			p.errorf("%s: abundance %g out of range", r.Name, r.Abundance)
		}
		sums[r.ID.Element()] += r.Abundance
	}
	for el, sum := range sums {
		// KAERI percentages are rounded; allow a little slack.
		if sum > 1.001 {
			p.errorf("element %d: isotope abundances sum to %g", el, sum)
		}
	}
	return p
}

// ── Phase 5: Element masses ──

func checkElementMasses(records []domain.AtomicWeightRecord, tolerance float64) *phase {
	p := &phase{name: "Phase 5: Element mass = sum(mass * abundance)"}
	expected := map[domain.NuclideID]float64{}
	for _, r := range records {
		if !r.ID.IsElement() {
			expected[r.ID.Element()] += r.Mass * r.Abundance
		}
	}
	for _, r := range records {
		if !r.ID.IsElement() {
			continue
		}
		want := expected[r.ID]
		if diff := math.Abs(r.Mass - want); diff > tolerance*math.Max(1, math.Abs(want)) {
			p.errorf("element %s: mass %.10g, isotopes give %.10g", r.Name, r.Mass, want)
		}
	}
	return p
}
