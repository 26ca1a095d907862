// Package lookup answers atomic-mass and natural-abundance queries from a
// loaded atomic-weight table.
package lookup

import (
	"errors"
	"sync/atomic"

	"github.com/couchcryptid/nuclide-data-etl/internal/domain"
)

// ErrNotLoaded is returned by a Holder before any table has been stored.
var ErrNotLoaded = errors.New("atomic-weight table not loaded")

// Table is an immutable in-memory index over stored atomic-weight rows.
type Table struct {
	codec   *domain.Codec
	records map[domain.NuclideID]domain.AtomicWeightRecord
}

// NewTable indexes records by id. A later duplicate id replaces an earlier one.
func NewTable(codec *domain.Codec, records []domain.AtomicWeightRecord) *Table {
	idx := make(map[domain.NuclideID]domain.AtomicWeightRecord, len(records))
	for _, r := range records {
		idx[r.ID] = r
	}
	return &Table{codec: codec, records: idx}
}

// Len returns the number of indexed rows.
func (t *Table) Len() int { return len(t.records) }

// AtomicMass returns the stored mass of id. A metastable state without its
// own row uses its ground state; anything else unknown falls back to the mass
// number as a float.
func (t *Table) AtomicMass(id domain.NuclideID) float64 {
	if r, ok := t.find(id); ok {
		return r.Mass
	}
	return float64(id.A())
}

// NaturalAbundance returns the stored abundance of id, with the same
// ground-state fallback as AtomicMass, and 0 when nothing matches.
func (t *Table) NaturalAbundance(id domain.NuclideID) float64 {
	if r, ok := t.find(id); ok {
		return r.Abundance
	}
	return 0
}

func (t *Table) find(id domain.NuclideID) (domain.AtomicWeightRecord, bool) {
	if r, ok := t.records[id]; ok {
		return r, true
	}
	if id.M() != 0 {
		r, ok := t.records[id.GroundState()]
		return r, ok
	}
	return domain.AtomicWeightRecord{}, false
}

// Nuclide is the answer to a lookup by name.
type Nuclide struct {
	Name             string           `json:"name"`
	ID               domain.NuclideID `json:"nuclide_id"`
	AtomicMass       float64          `json:"atomic_mass"`
	NaturalAbundance float64          `json:"natural_abundance"`
}

// Resolve encodes name and returns its canonical name with mass and abundance.
// Unknown designators return an error matching domain.ErrUnknownNuclide.
func (t *Table) Resolve(name string) (Nuclide, error) {
	id, err := t.codec.Encode(name)
	if err != nil {
		return Nuclide{}, err
	}
	canonical, err := t.codec.Decode(id)
	if err != nil {
		return Nuclide{}, err
	}
	return Nuclide{
		Name:             canonical,
		ID:               id,
		AtomicMass:       t.AtomicMass(id),
		NaturalAbundance: t.NaturalAbundance(id),
	}, nil
}

// Holder publishes the current Table to concurrent readers.
type Holder struct {
	table atomic.Pointer[Table]
}

// Store replaces the current table.
func (h *Holder) Store(t *Table) { h.table.Store(t) }

// Load returns the current table or ErrNotLoaded.
func (h *Holder) Load() (*Table, error) {
	t := h.table.Load()
	if t == nil {
		return nil, ErrNotLoaded
	}
	return t, nil
}
