// Command jobmatch-admin runs maintenance tasks against the JobMatch database.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"JobMatch-backend/internal/config"
	"JobMatch-backend/internal/database"
)

var rootCmd = &cobra.Command{
	Use:   "jobmatch-admin",
	Short: "JobMatch maintenance tool",
	Long:  "Maintenance commands for the JobMatch backend: reset the database, create admins, rescore resumes and export shortlists.",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openDB loads the configuration and connects to the database.
func openDB() (*config.Config, *database.DBinstanceStruct, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	db, err := database.NewDBInstance(database.NewDBConfig(cfg.Database))
	if err != nil {
		return nil, nil, fmt.Errorf("database failed to initialize: %w", err)
	}
	return cfg, db, nil
}
