// Package seeders fills a freshly migrated database with the rows the
// application needs to be usable.
//
// Usage:
//
//	err := seeders.Run(ctx, db, os.Stdout, seeders.All(opts)...)
//
// Seeders are idempotent: running them twice leaves the same rows.
package seeders

import (
	"context"
	"fmt"
	"io"

	"gorm.io/gorm"
)

// SeederFunc inserts rows. It reports progress to out.
type SeederFunc func(ctx context.Context, db *gorm.DB, out io.Writer) error

// Seeder is a named SeederFunc.
type Seeder struct {
	Name string
	Run  SeederFunc
}

// All returns every seeder in execution order.
func All(admin SuperAdminOptions) []Seeder {
	return []Seeder{
		{Name: "superadmin", Run: SuperAdmin(admin)},
		{Name: "catalog", Run: Catalog},
	}
}

// Run executes seeders in order and stops on the first error.
func Run(ctx context.Context, db *gorm.DB, out io.Writer, list ...Seeder) error {
	if out == nil {
		out = io.Discard
	}
	if len(list) == 0 {
		fmt.Fprintln(out, "  (no seeders registered)")
		return nil
	}

	for _, s := range list {
		fmt.Fprintf(out, "  • Running seeder: %s … ", s.Name)
		if err := s.Run(ctx, db, out); err != nil {
			fmt.Fprintln(out, "FAILED")
			return fmt.Errorf("seeder %q: %w", s.Name, err)
		}
		fmt.Fprintln(out, "done")
	}
	return nil
}
