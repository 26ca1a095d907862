package domain

import "regexp"

var identifierRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ValidIdentifier reports whether name is safe to splice into SQL as an
// unquoted table or column name.
func ValidIdentifier(name string) bool { return identifierRe.MatchString(name) }

// Abundances maps an isotope id to its natural fractional abundance in [0,1].
// A map (not a multi-map) so duplicate source entries resolve before merging.
type Abundances map[NuclideID]float64

// MassRecord is one measured atomic mass, in unified atomic mass units.
type MassRecord struct {
	ID          NuclideID
	Mass        float64
	Uncertainty float64
}

// AtomicWeightRecord is one row of the derived table. Isotope rows carry the
// measured mass; element rows carry the abundance-weighted mass with zero
// uncertainty and abundance.
type AtomicWeightRecord struct {
	Name        string    `json:"name"`
	ID          NuclideID `json:"nuclide_id"`
	Mass        float64   `json:"mass"`
	Uncertainty float64   `json:"uncertainty"`
	Abundance   float64   `json:"abundance"`
}

// ColumnType is the storage class of a table column.
type ColumnType string

const (
	ColumnText    ColumnType = "text"
	ColumnInteger ColumnType = "integer"
	ColumnFloat   ColumnType = "float"
)

// Column describes one column of a stored table.
type Column struct {
	Name string
	Type ColumnType
	// Size caps text columns; zero means unbounded.
	Size int
}

// Schema is the ordered column list of a stored table.
type Schema []Column

// AtomicWeightSchema is the column layout of the atomic-weight table.
var AtomicWeightSchema = Schema{
	{Name: "name", Type: ColumnText, Size: 6},
	{Name: "nuclide_id", Type: ColumnInteger},
	{Name: "mass", Type: ColumnFloat},
	{Name: "uncertainty", Type: ColumnFloat},
	{Name: "abundance", Type: ColumnFloat},
}

// Values returns the record's fields in AtomicWeightSchema order.
func (r AtomicWeightRecord) Values() []any {
	return []any{r.Name, int64(r.ID), r.Mass, r.Uncertainty, r.Abundance}
}

// Names returns the column names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}
