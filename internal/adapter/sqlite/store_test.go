package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/nuclide-data-etl/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "nuc_data.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRecords() []domain.AtomicWeightRecord {
	return []domain.AtomicWeightRecord{
		{Name: "H", ID: 10000, Mass: 1.00794},
		{Name: "H1", ID: 10010, Mass: 1.0078250321, Uncertainty: 1e-10, Abundance: 0.99985},
		{Name: "H2", ID: 10020, Mass: 2.014101778, Uncertainty: 4e-10, Abundance: 0.00015},
	}
}

func rowsOf(records []domain.AtomicWeightRecord) [][]any {
	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = r.Values()
	}
	return rows
}

func TestStore_CreateAndRead(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	exists, err := s.Exists(ctx, "atomic_weight")
	require.NoError(t, err)
	assert.False(t, exists)

	// Insert out of order; Records returns id order.
	recs := sampleRecords()
	rows := rowsOf([]domain.AtomicWeightRecord{recs[2], recs[0], recs[1]})
	require.NoError(t, s.Create(ctx, "atomic_weight", domain.AtomicWeightSchema, rows))

	exists, err = s.Exists(ctx, "atomic_weight")
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := s.Records(ctx, "atomic_weight")
	require.NoError(t, err)
	if diff := cmp.Diff(recs, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_CreateExistingTableFails(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	require.NoError(t, s.Create(ctx, "atomic_weight", domain.AtomicWeightSchema, rowsOf(sampleRecords())))
	err := s.Create(ctx, "atomic_weight", domain.AtomicWeightSchema, nil)
	require.Error(t, err)

	got, err := s.Records(ctx, "atomic_weight")
	require.NoError(t, err)
	assert.Len(t, got, 3, "existing table must be left untouched")
}

func TestStore_CreateIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	rows := rowsOf(sampleRecords())
	rows = append(rows, []any{"He"}) // short row fails mid-insert
	err := s.Create(ctx, "atomic_weight", domain.AtomicWeightSchema, rows)
	require.Error(t, err)

	exists, err := s.Exists(ctx, "atomic_weight")
	require.NoError(t, err)
	assert.False(t, exists, "failed create must not leave a partial table")
}

func TestStore_CreateCancelledContext(t *testing.T) {
	s := openTemp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Error(t, s.Create(ctx, "atomic_weight", domain.AtomicWeightSchema, rowsOf(sampleRecords())))

	exists, err := s.Exists(context.Background(), "atomic_weight")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_TableSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nuc_data.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, "atomic_weight", domain.AtomicWeightSchema, rowsOf(sampleRecords())))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	exists, err := s.Exists(ctx, "atomic_weight")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCreateTableSQL(t *testing.T) {
	ddl, err := createTableSQL("atomic_weight", domain.AtomicWeightSchema)
	require.NoError(t, err)
	assert.Equal(t,
		"CREATE TABLE atomic_weight (name VARCHAR(6), nuclide_id INTEGER, mass REAL, uncertainty REAL, abundance REAL)",
		ddl)

	_, err = createTableSQL("drop table;--", domain.AtomicWeightSchema)
	assert.Error(t, err)

	_, err = createTableSQL("t", domain.Schema{{Name: "x", Type: "blob"}})
	assert.Error(t, err)

	_, err = createTableSQL("t", nil)
	assert.Error(t, err)
}

func TestStore_RecordsInvalidTable(t *testing.T) {
	s := openTemp(t)
	_, err := s.Records(context.Background(), "Bad Name")
	assert.Error(t, err)

	_, err = s.Records(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrStoreAccess)
}
