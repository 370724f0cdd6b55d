package config

import (
	"github.com/garyjia/backoffice-approvals/internal/container"
)

// ToContainerConfig converts the file/env configuration into the container's configuration
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
			BusyTimeout:     c.Database.BusyTimeout,
			AutoMigrate:     c.Database.AutoMigrate,
		},
		Lark: container.LarkConfig{
			AppID:     c.Lark.AppID,
			AppSecret: c.Lark.AppSecret,
			BaseURL:   c.Lark.BaseURL,
		},
		Notification: container.NotificationConfig{
			Enabled: c.Notification.Enabled,
			Timeout: c.Notification.Timeout,
		},
		Approval: container.ApprovalConfig{
			CashierRole: c.Approval.CashierRole,
		},
		Export: container.ExportConfig{
			ArchiveDir:      c.Export.ArchiveDir,
			ArchiveInterval: c.Export.ArchiveInterval,
			ArchiveStatus:   c.Export.ArchiveStatus,
		},
		Server: container.ServerConfig{
			Host:            c.Server.Host,
			Port:            c.Server.Port,
			ReadTimeout:     c.Server.ReadTimeout,
			WriteTimeout:    c.Server.WriteTimeout,
			ShutdownTimeout: c.Server.ShutdownTimeout,
			MetricsEnabled:  c.Server.MetricsEnabled,
		},
	}
}
