// Command validate checks a built atomic-weight table for integrity: ids are
// sorted and unique, names round-trip through the codec, every known element
// has exactly one row, and element masses agree with their isotopes.
//
// Usage:
//
//	go run ./cmd/validate -db nuc_data.db -table atomic_weight
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/couchcryptid/nuclide-data-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/nuclide-data-etl/internal/domain"
)

func main() {
	dbPath := flag.String("db", "nuc_data.db", "path to the SQLite store")
	table := flag.String("table", "atomic_weight", "name of the atomic-weight table")
	tolerance := flag.Float64("tolerance", 1e-9, "allowed relative error for element masses")
	flag.Parse()

	if *dbPath == "" || *table == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(context.Background(), *dbPath, *table, *tolerance); code != 0 {
		os.Exit(code)
	}
}

func run(ctx context.Context, dbPath, table string, tolerance float64) int {
	fmt.Println("=== Atomic Weight Table Validation ===")
	fmt.Println()

	if _, err := os.Stat(dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	store, err := sqlite.Open(ctx, dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	defer store.Close()

	exists, err := store.Exists(ctx, table)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	if !exists {
		fmt.Fprintf(os.Stderr, "FATAL: table %q not found in %s\n", table, dbPath)
		return 1
	}

	records, err := store.Records(ctx, table)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	codec := domain.NewCodec(domain.DefaultElements())
	phases := validate(codec, records, tolerance)
	return report(phases, len(records))
}

func report(phases []*phase, rows int) int {
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d\n", rows)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}
