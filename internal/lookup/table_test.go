package lookup

import (
	"sync"
	"testing"

	"github.com/couchcryptid/nuclide-data-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTable() *Table {
	codec := domain.NewCodec(domain.DefaultElements())
	return NewTable(codec, []domain.AtomicWeightRecord{
		{Name: "H", ID: 10000, Mass: 1.00794},
		{Name: "H1", ID: 10010, Mass: 1.0078250321, Abundance: 0.99985},
		{Name: "Am242", ID: 952420, Mass: 242.0595492},
		{Name: "Am242M", ID: 952421, Mass: 242.0596},
		{Name: "Tc99", ID: 430990, Mass: 98.9062547},
	})
}

func TestTable_AtomicMass(t *testing.T) {
	tbl := testTable()
	require.Equal(t, 5, tbl.Len())

	tests := []struct {
		name string
		id   domain.NuclideID
		want float64
	}{
		{"element row", 10000, 1.00794},
		{"isotope row", 10010, 1.0078250321},
		{"metastable with own row", 952421, 242.0596},
		{"metastable falls back to ground state", 430991, 98.9062547},
		{"unknown falls back to mass number", 922350, 235},
		{"unknown element", 920000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tbl.AtomicMass(tt.id), 1e-12)
		})
	}
}

func TestTable_NaturalAbundance(t *testing.T) {
	tbl := testTable()

	assert.InDelta(t, 0.99985, tbl.NaturalAbundance(10010), 1e-12)
	assert.Zero(t, tbl.NaturalAbundance(10000))
	assert.InDelta(t, 0.99985, tbl.NaturalAbundance(10011), 1e-12, "H1M uses H1")
	assert.Zero(t, tbl.NaturalAbundance(922350))
}

func TestTable_Resolve(t *testing.T) {
	tbl := testTable()

	got, err := tbl.Resolve("h-1")
	require.NoError(t, err)
	assert.Equal(t, Nuclide{Name: "H1", ID: 10010, AtomicMass: 1.0078250321, NaturalAbundance: 0.99985}, got)

	got, err = tbl.Resolve("hydrogen")
	require.NoError(t, err)
	assert.Equal(t, "H", got.Name)
	assert.Equal(t, 1.00794, got.AtomicMass)

	_, err = tbl.Resolve("Xx12")
	assert.ErrorIs(t, err, domain.ErrUnknownNuclide)
}

func TestHolder(t *testing.T) {
	var h Holder

	_, err := h.Load()
	require.ErrorIs(t, err, ErrNotLoaded)

	tbl := testTable()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got, err := h.Load(); err == nil {
				assert.Equal(t, 5, got.Len())
			}
		}()
	}
	h.Store(tbl)
	wg.Wait()

	got, err := h.Load()
	require.NoError(t, err)
	assert.Same(t, tbl, got)
}
