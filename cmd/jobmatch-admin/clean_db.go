package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var cleanDBCmd = &cobra.Command{
	Use:   "clean-db",
	Short: "Drop every table and migrate again",
	Long:  "Drops all tables in the public schema, then recreates the schema. This action is irreversible.",
	RunE:  runCleanDB,
}

var cleanDBYes bool

func init() {
	cleanDBCmd.Flags().BoolVarP(&cleanDBYes, "yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(cleanDBCmd)
}

func runCleanDB(cmd *cobra.Command, _ []string) error {
	if !cleanDBYes {
		fmt.Fprintln(cmd.OutOrStdout(), "WARNING: This command will DROP ALL TABLES in the 'public' schema of your database.")
		fmt.Fprint(cmd.OutOrStdout(), "This action is irreversible. Do you want to continue? (yes/no): ")

		input, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		if strings.TrimSpace(strings.ToLower(input)) != "yes" {
			fmt.Fprintln(cmd.OutOrStdout(), "Operation cancelled.")
			return nil
		}
	}

	_, db, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := db.DropAll(); err != nil {
		return fmt.Errorf("failed to execute drop command: %w", err)
	}
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "All tables dropped and schema recreated.")
	return nil
}
