// Package container wires the approval engine's dependencies and manages their lifecycle.
package container

import (
	"fmt"
	"time"

	"github.com/garyjia/backoffice-approvals/internal/domain/workflow"
)

// Config holds everything the container needs to build the object graph
type Config struct {
	Database     DatabaseConfig
	Lark         LarkConfig
	Notification NotificationConfig
	Approval     ApprovalConfig
	Export       ExportConfig
	Server       ServerConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	BusyTimeout     time.Duration

	// AutoMigrate applies embedded migrations on start
	AutoMigrate bool
}

// LarkConfig holds Lark API settings.
type LarkConfig struct {
	AppID     string
	AppSecret string
	BaseURL   string
}

// NotificationConfig controls requester notifications.
type NotificationConfig struct {
	Enabled bool

	// Timeout bounds a single delivery attempt
	Timeout time.Duration
}

// ApprovalConfig tunes the approver resolver.
type ApprovalConfig struct {
	// CashierRole is the role label identifying the settling cashier
	CashierRole string
}

// ExportConfig holds register export settings.
type ExportConfig struct {
	// ArchiveDir is where archived registers are written; empty disables archiving
	ArchiveDir string
	// ArchiveInterval schedules periodic register archives; zero disables the scheduler
	ArchiveInterval time.Duration
	// ArchiveStatus filters scheduled registers; empty archives every request
	ArchiveStatus string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MetricsEnabled  bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/backoffice.db",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			BusyTimeout:     5 * time.Second,
			AutoMigrate:     true,
		},
		Notification: NotificationConfig{
			Timeout: 15 * time.Second,
		},
		Approval: ApprovalConfig{
			CashierRole: "General Cashier",
		},
		Export: ExportConfig{
			ArchiveDir:    "exports",
			ArchiveStatus: "PAID",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MetricsEnabled:  true,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Approval.CashierRole == "" {
		return fmt.Errorf("approval.cashier_role is required")
	}
	if c.Notification.Enabled && (c.Lark.AppID == "" || c.Lark.AppSecret == "") {
		return fmt.Errorf("lark credentials are required when notifications are enabled")
	}
	if c.Export.ArchiveInterval < 0 {
		return fmt.Errorf("export.archive_interval must not be negative")
	}
	if c.Export.ArchiveInterval > 0 && c.Export.ArchiveDir == "" {
		return fmt.Errorf("export.archive_dir is required when the archive scheduler is enabled")
	}
	if c.Export.ArchiveStatus != "" && !workflow.State(c.Export.ArchiveStatus).IsValid() {
		return fmt.Errorf("export.archive_status %q is not a request status", c.Export.ArchiveStatus)
	}
	return nil
}
