// Command stockroom serves the inventory web app and manages its database.
//
//	stockroom serve              start the HTTP server
//	stockroom init-db [--reset]  migrate and create the SuperAdmin
//	stockroom migrate            run pending migrations
//	stockroom seed               insert the SuperAdmin and starter catalog rows
//	stockroom route:list         print every route
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "stockroom",
	Short:         "Stockroom inventory and catalog manager",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Server
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)

	// Database
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(migrateRollbackCmd)
	rootCmd.AddCommand(migrateStatusCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(initDBCmd)
	rootCmd.AddCommand(resetMigrationsCmd)
}
