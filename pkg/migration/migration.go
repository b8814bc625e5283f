// Package migration runs and tracks schema migrations.
//
// Migrations are plain values listed in order (see database/migrations):
//
//	runner := migration.New(db, migrations.All(), os.Stdout)
//	runner.Run()       // stockroom migrate
//	runner.Rollback()  // stockroom migrate:rollback
//	runner.Reset()     // stockroom init-db --reset
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockroom/pkg/logger"
)

// HistoryTable is the tracking table name.
const HistoryTable = "stockroom_migrations"

// Migration is the interface every migration must implement.
type Migration interface {
	// Up applies the migration.
	Up(db *gorm.DB) error
	// Down reverses the migration.
	Down(db *gorm.DB) error
}

// Entry names one migration. Names are timestamp-prefixed so they sort in
// the order they must run.
type Entry struct {
	Name      string
	Migration Migration
}

// record is the GORM model stored in the tracking table.
type record struct {
	ID    uint      `gorm:"primaryKey;autoIncrement"`
	Name  string    `gorm:"uniqueIndex;size:255;not null"`
	Batch int       `gorm:"not null"`
	RunAt time.Time `gorm:"autoCreateTime"`
}

func (record) TableName() string { return HistoryTable }

// ErrNotRegistered is returned when history names a migration the binary
// does not know.
var ErrNotRegistered = errors.New("migration: not registered")

// Runner executes and tracks migrations.
type Runner struct {
	db      *gorm.DB
	entries []Entry
	out     io.Writer
}

// New creates a Runner. Progress lines go to out (nil discards them).
func New(db *gorm.DB, entries []Entry, out io.Writer) *Runner {
	sorted := append([]Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	if out == nil {
		out = io.Discard
	}
	return &Runner{db: db, entries: sorted, out: out}
}

// EnsureTable creates the tracking table if it does not exist.
func (r *Runner) EnsureTable() error {
	return r.db.AutoMigrate(&record{})
}

// HasHistory reports whether the tracking table exists.
func (r *Runner) HasHistory() bool {
	return r.db.Migrator().HasTable(HistoryTable)
}

func (r *Runner) ran() (map[string]record, error) {
	var rows []record
	if err := r.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]record, len(rows))
	for _, rec := range rows {
		out[rec.Name] = rec
	}
	return out, nil
}

// Pending returns the migrations that have not yet been run, in order.
func (r *Runner) Pending() ([]Entry, error) {
	ran, err := r.ran()
	if err != nil {
		return nil, err
	}
	var pending []Entry
	for _, e := range r.entries {
		if _, ok := ran[e.Name]; !ok {
			pending = append(pending, e)
		}
	}
	return pending, nil
}

// Run executes all pending migrations in a single batch and returns how
// many ran.
func (r *Runner) Run() (int, error) {
	if err := r.EnsureTable(); err != nil {
		return 0, fmt.Errorf("migration: ensure table: %w", err)
	}

	pending, err := r.Pending()
	if err != nil {
		return 0, fmt.Errorf("migration: fetch pending: %w", err)
	}
	if len(pending) == 0 {
		fmt.Fprintln(r.out, "Nothing to migrate.")
		return 0, nil
	}

	batch, err := r.lastBatch()
	if err != nil {
		return 0, err
	}
	batch++

	for i, e := range pending {
		logger.Info("migration: running", "name", e.Name)
		fmt.Fprintf(r.out, "  ▶ Migrating: %s\n", e.Name)

		if err := e.Migration.Up(r.db); err != nil {
			return i, fmt.Errorf("migration: %s up: %w", e.Name, err)
		}
		if err := r.db.Create(&record{Name: e.Name, Batch: batch}).Error; err != nil {
			return i, fmt.Errorf("migration: record %s: %w", e.Name, err)
		}
		fmt.Fprintf(r.out, "  ✅ Migrated:  %s\n", e.Name)
	}

	logger.Info("migration: done", "ran", len(pending), "batch", batch)
	return len(pending), nil
}

// Rollback reverses all migrations from the most recent batch.
func (r *Runner) Rollback() error {
	if err := r.EnsureTable(); err != nil {
		return fmt.Errorf("migration: ensure table: %w", err)
	}

	batch, err := r.lastBatch()
	if err != nil {
		return err
	}
	if batch == 0 {
		fmt.Fprintln(r.out, "Nothing to roll back.")
		return nil
	}

	var records []record
	if err := r.db.Where("batch = ?", batch).Order("id desc").Find(&records).Error; err != nil {
		return err
	}
	return r.down(records)
}

// Reset reverses every known migration, newest first, whether or not
// history records it, then empties the history. Down must tolerate
// missing tables.
func (r *Runner) Reset() error {
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		fmt.Fprintf(r.out, "  ◀ Dropping: %s\n", e.Name)
		if err := e.Migration.Down(r.db); err != nil {
			return fmt.Errorf("migration: %s down: %w", e.Name, err)
		}
	}
	if r.HasHistory() {
		if err := r.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&record{}).Error; err != nil {
			return fmt.Errorf("migration: clear history: %w", err)
		}
	}
	logger.Info("migration: reset", "migrations", len(r.entries))
	return nil
}

// DropHistory removes the tracking table. It reports false when there was
// nothing to drop.
func (r *Runner) DropHistory() (bool, error) {
	if !r.HasHistory() {
		return false, nil
	}
	if err := r.db.Migrator().DropTable(HistoryTable); err != nil {
		return false, fmt.Errorf("migration: drop %s: %w", HistoryTable, err)
	}
	return true, nil
}

func (r *Runner) down(records []record) error {
	known := make(map[string]Migration, len(r.entries))
	for _, e := range r.entries {
		known[e.Name] = e.Migration
	}

	for _, rec := range records {
		m, ok := known[rec.Name]
		if !ok {
			return fmt.Errorf("%w: cannot roll back %s", ErrNotRegistered, rec.Name)
		}

		fmt.Fprintf(r.out, "  ◀ Rolling back: %s\n", rec.Name)
		logger.Info("migration: rolling back", "name", rec.Name)

		if err := m.Down(r.db); err != nil {
			return fmt.Errorf("migration: %s down: %w", rec.Name, err)
		}
		if err := r.db.Delete(&record{}, rec.ID).Error; err != nil {
			return err
		}
		fmt.Fprintf(r.out, "  ✅ Rolled back:  %s\n", rec.Name)
	}
	return nil
}

// Status describes one migration for migrate:status.
type Status struct {
	Name  string
	Ran   bool
	Batch int
}

// Statuses lists every known migration with its run state.
func (r *Runner) Statuses() ([]Status, error) {
	if err := r.EnsureTable(); err != nil {
		return nil, err
	}
	ran, err := r.ran()
	if err != nil {
		return nil, err
	}
	out := make([]Status, 0, len(r.entries))
	for _, e := range r.entries {
		rec, ok := ran[e.Name]
		out = append(out, Status{Name: e.Name, Ran: ok, Batch: rec.Batch})
	}
	return out, nil
}

// PrintStatus writes the migrate:status table to out.
func (r *Runner) PrintStatus() error {
	statuses, err := r.Statuses()
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "%-60s  %-8s  %s\n", "Migration", "Status", "Batch")
	fmt.Fprintln(r.out, strings.Repeat("-", 80))
	for _, s := range statuses {
		if s.Ran {
			fmt.Fprintf(r.out, "%-60s  %-8s  %d\n", s.Name, "Ran", s.Batch)
		} else {
			fmt.Fprintf(r.out, "%-60s  %-8s  -\n", s.Name, "Pending")
		}
	}
	return nil
}

func (r *Runner) lastBatch() (int, error) {
	var batch sql.NullInt64
	if err := r.db.Model(&record{}).Select("MAX(batch)").Row().Scan(&batch); err != nil {
		return 0, fmt.Errorf("migration: last batch: %w", err)
	}
	return int(batch.Int64), nil
}
