// Package postgres provides a TableStore backed by a PostgreSQL database.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/couchcryptid/nuclide-data-etl/internal/domain"
	"github.com/jackc/pgx/v5"
)

// Store is a Postgres-backed pipeline.TableStore holding one connection.
type Store struct {
	conn *pgx.Conn
}

// Open connects to the database at dsn.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: empty postgres dsn", domain.ErrStoreAccess)
	}
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: connect postgres: %w", domain.ErrStoreAccess, err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("%w: ping postgres: %w", domain.ErrStoreAccess, err)
	}
	return &Store{conn: conn}, nil
}

// Exists reports whether table resolves on the connection's search path.
func (s *Store) Exists(ctx context.Context, table string) (bool, error) {
	var exists bool
	if err := s.conn.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, table).Scan(&exists); err != nil {
		return false, fmt.Errorf("query to_regclass: %w", err)
	}
	return exists, nil
}

// Create creates table and bulk-loads rows with COPY inside one transaction.
// It fails if the table already exists; on any error nothing is committed.
func (s *Store) Create(ctx context.Context, table string, schema domain.Schema, rows [][]any) (retErr error) {
	ddl, err := createTableSQL(table, schema)
	if err != nil {
		return err
	}
	for i, row := range rows {
		if len(row) != len(schema) {
			return fmt.Errorf("row %d: got %d values, want %d", i, len(row), len(schema))
		}
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err := tx.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	n, err := tx.CopyFrom(ctx, pgx.Identifier{table}, schema.Names(), pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("copy into %s: %w", table, err)
	}
	if int(n) != len(rows) {
		return fmt.Errorf("copy into %s: wrote %d of %d rows", table, n, len(rows))
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Records reads an atomic-weight table back in id order.
func (s *Store) Records(ctx context.Context, table string) ([]domain.AtomicWeightRecord, error) {
	if !domain.ValidIdentifier(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	rows, err := s.conn.Query(ctx, fmt.Sprintf(
		"SELECT name, nuclide_id, mass, uncertainty, abundance FROM %s ORDER BY nuclide_id", table))
	if err != nil {
		return nil, fmt.Errorf("%w: select %s: %w", domain.ErrStoreAccess, table, err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.AtomicWeightRecord, error) {
		var r domain.AtomicWeightRecord
		var id int64
		err := row.Scan(&r.Name, &id, &r.Mass, &r.Uncertainty, &r.Abundance)
		r.ID = domain.NuclideID(id)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrStoreAccess, table, err)
	}
	return out, nil
}

// Close closes the connection.
func (s *Store) Close() error {
	return s.conn.Close(context.Background())
}

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
		var typ string
		switch c.Type {
		case domain.ColumnText:
			typ = "TEXT"
			if c.Size > 0 {
				typ = fmt.Sprintf("VARCHAR(%d)", c.Size)
			}
		case domain.ColumnInteger:
			typ = "BIGINT"
		case domain.ColumnFloat:
			typ = "DOUBLE PRECISION"
		default:
			return "", fmt.Errorf("column %s: unsupported type %q", c.Name, c.Type)
		}
		cols[i] = c.Name + " " + typ
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(cols, ", ")), nil
}
