package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/backoffice-approvals/internal/container"
	"github.com/garyjia/backoffice-approvals/internal/domain/entity"
	"github.com/garyjia/backoffice-approvals/internal/domain/workflow"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <module>",
		Short: "Archive a settlement register workbook",
		Long: `Writes the register of one module (petty-cash, cash-advance or expense)
as an xlsx workbook under the configured archive directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, status, err := parseExportArgs(args[0], stringFlag(cmd, "status"))
			if err != nil {
				return err
			}

			cfg, logger, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			path, err := archive(cmd.Context(), cfg.ToContainerConfig(), logger, module, status)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().String("status", "", "Only include requests in this status (PENDING, PAID, REJECTED)")
	return cmd
}

func parseExportArgs(rawModule, rawStatus string) (entity.Module, workflow.State, error) {
	module, ok := entity.ParseModule(rawModule)
	if !ok {
		return "", "", fmt.Errorf("unknown module %q", rawModule)
	}
	status := workflow.State(strings.ToUpper(strings.TrimSpace(rawStatus)))
	if status != "" && !status.IsValid() {
		return "", "", fmt.Errorf("unknown status %q", rawStatus)
	}
	return module, status, nil
}

func archive(ctx context.Context, cfg *container.Config, logger *zap.Logger, module entity.Module, status workflow.State) (string, error) {
	ctr, err := container.NewContainer(cfg, logger)
	if err != nil {
		return "", err
	}
	if err := ctr.Start(ctx); err != nil {
		return "", err
	}
	defer ctr.Close()

	rel, err := ctr.Services().Export.ArchiveRegister(ctx, module, status)
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg.Export.ArchiveDir, rel), nil
}

func stringFlag(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}
