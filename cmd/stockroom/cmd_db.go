package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockroom/config"
	"github.com/shashiranjanraj/stockroom/database/migrations"
	"github.com/shashiranjanraj/stockroom/database/seeders"
	"github.com/shashiranjanraj/stockroom/pkg/database"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/migration"
)

// withDB loads config, opens the database, runs fn and closes it again.
func withDB(fn func(db *gorm.DB) error) error {
	if err := config.Load(); err != nil {
		return err
	}
	logger.Init(config.IsProduction())
	db, err := database.Connect()
	if err != nil {
		return err
	}
	defer database.Close(db)
	return fn(db)
}

func runner(db *gorm.DB) *migration.Runner {
	return migration.New(db, migrations.All(), os.Stdout)
}

// stockroom migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			fmt.Println("Running migrations…")
			_, err := runner(db).Run()
			return err
		})
	},
}

// stockroom migrate:rollback
var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Rollback the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			fmt.Println("Rolling back last batch…")
			return runner(db).Rollback()
		})
	},
}

// stockroom migrate:status
var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			return runner(db).PrintStatus()
		})
	},
}

// stockroom seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Run all database seeders",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			fmt.Println("Running seeders…")
			return seeders.Run(cmd.Context(), db, os.Stdout, seeders.All(seeders.SuperAdminFromConfig())...)
		})
	},
}

var resetDB bool

// stockroom init-db [--reset]
var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Create every table and the initial SuperAdmin",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			r := runner(db)
			if resetDB {
				fmt.Println("Dropping all tables…")
				if err := r.Reset(); err != nil {
					return err
				}
			}
			if _, err := r.Run(); err != nil {
				return err
			}
			fmt.Println("Database tables created.")

			opts := seeders.SuperAdminFromConfig()
			created, err := seeders.SeedSuperAdmin(cmd.Context(), db, opts)
			if err != nil {
				return err
			}
			if created {
				fmt.Printf("SUCCESS: Initial SuperAdmin '%s' created.\n", opts.Username)
			} else {
				fmt.Println("INFO: SuperAdmin already exists. Skipping creation.")
			}
			return nil
		})
	},
}

// stockroom reset-migrations
var resetMigrationsCmd = &cobra.Command{
	Use:   "reset-migrations",
	Short: "Drop the migration history table",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			dropped, err := runner(db).DropHistory()
			if err != nil {
				return err
			}
			if dropped {
				fmt.Printf("SUCCESS: Dropped the '%s' table.\n", migration.HistoryTable)
			} else {
				fmt.Printf("INFO: '%s' table not found. Nothing to reset.\n", migration.HistoryTable)
			}
			return nil
		})
	},
}

func init() {
	initDBCmd.Flags().BoolVar(&resetDB, "reset", false, "drop every table before migrating")
}
