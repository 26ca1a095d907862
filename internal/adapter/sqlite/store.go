// Package sqlite provides a TableStore backed by a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/nuclide-data-etl/internal/domain"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Store is a SQLite-backed pipeline.TableStore.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w: create dirs: %w", domain.ErrStoreAccess, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %w", domain.ErrStoreAccess, err)
	}
	// One writer; avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping sqlite %s: %w", domain.ErrStoreAccess, path, err)
	}
	return &Store{db: db}, nil
}

// Exists reports whether table is present.
func (s *Store) Exists(ctx context.Context, table string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query sqlite_master: %w", err)
	}
	return n > 0, nil
}

// Create creates table with schema and inserts rows in one transaction. It
// fails if the table already exists; on any error nothing is committed.
func (s *Store) Create(ctx context.Context, table string, schema domain.Schema, rows [][]any) (retErr error) {
	ddl, err := createTableSQL(table, schema)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(schema)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(schema.Names(), ", "), placeholders))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, row := range rows {
		if len(row) != len(schema) {
			return fmt.Errorf("row %d: got %d values, want %d", i, len(row), len(schema))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Records reads an atomic-weight table back in id order.
func (s *Store) Records(ctx context.Context, table string) ([]domain.AtomicWeightRecord, error) {
	if !domain.ValidIdentifier(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT name, nuclide_id, mass, uncertainty, abundance FROM %s ORDER BY nuclide_id", table))
	if err != nil {
		return nil, fmt.Errorf("%w: select %s: %w", domain.ErrStoreAccess, table, err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.AtomicWeightRecord
	for rows.Next() {
		var r domain.AtomicWeightRecord
		var id int64
		if err := rows.Scan(&r.Name, &id, &r.Mass, &r.Uncertainty, &r.Abundance); err != nil {
			return nil, fmt.Errorf("%w: scan: %w", domain.ErrStoreAccess, err)
		}
		r.ID = domain.NuclideID(id)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrStoreAccess, table, err)
	}
	return out, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

func createTableSQL(table string, schema domain.Schema) (string, error) {
	if !domain.ValidIdentifier(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	if len(schema) == 0 {
		return "", errors.New("empty schema")
	}
	cols := make([]string, len(schema))
	for i, c := range schema {
		if !domain.ValidIdentifier(c.Name) {
			return "", fmt.Errorf("invalid column name %q", c.Name)
		}
		typ, err := columnType(c)
		if err != nil {
			return "", err
		}
		cols[i] = c.Name + " " + typ
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(cols, ", ")), nil
}

func columnType(c domain.Column) (string, error) {
	switch c.Type {
	case domain.ColumnText:
		if c.Size > 0 {
			return fmt.Sprintf("VARCHAR(%d)", c.Size), nil
		}
		return "TEXT", nil
	case domain.ColumnInteger:
		return "INTEGER", nil
	case domain.ColumnFloat:
		return "REAL", nil
	default:
		return "", fmt.Errorf("column %s: unsupported type %q", c.Name, c.Type)
	}
}
