package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/garyjia/backoffice-approvals/internal/config"
	"github.com/garyjia/backoffice-approvals/pkg/utils"
)

const defaultEnvFile = ".env"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "backoffice",
		Short: "Hotel back-office approval engine",
		Long: `Routes Petty Cash, Cash Advance and Expense requests through the
department, division and cashier approval chain.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "Config file path (YAML); defaults and environment are used when empty")
	root.PersistentFlags().String("env-file", defaultEnvFile, "dotenv file loaded before configuration")

	root.AddCommand(newServeCmd(), newMigrateCmd(), newExportCmd())
	return root
}

// loadRuntime loads .env, configuration and the logger shared by every subcommand
func loadRuntime(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := loadEnvFile(envFile); err != nil {
		return nil, nil, err
	}

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger, nil
}

// loadEnvFile applies a dotenv file without overriding variables already set.
// A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := gotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
