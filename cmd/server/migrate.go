package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/garyjia/backoffice-approvals/pkg/database"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long: `Creates or updates the SQLite schema using the migrations embedded in the binary.
With --status only the applied versions are listed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			if dir := filepath.Dir(cfg.Database.Path); dir != "." {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("failed to create database directory: %w", err)
				}
			}

			db, err := database.New(database.Config{
				Path:         cfg.Database.Path,
				MaxOpenConns: 1,
				BusyTimeout:  cfg.Database.BusyTimeout,
			}, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			migrator := database.NewMigrator(db, logger)
			out := cmd.OutOrStdout()

			statusOnly, _ := cmd.Flags().GetBool("status")
			if !statusOnly {
				applied, err := migrator.Run()
				if err != nil {
					return fmt.Errorf("failed to run migrations: %w", err)
				}
				fmt.Fprintf(out, "applied %d migration(s)\n", applied)
			}

			versions, err := migrator.AppliedVersions()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "schema versions: %v\n", versions)
			return nil
		},
	}
	cmd.Flags().Bool("status", false, "List applied migrations without applying new ones")
	return cmd
}
