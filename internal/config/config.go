package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Lark         LarkConfig         `mapstructure:"lark"`
	Notification NotificationConfig `mapstructure:"notification"`
	Approval     ApprovalConfig     `mapstructure:"approval"`
	Export       ExportConfig       `mapstructure:"export"`
	Logger       LoggerConfig       `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MetricsEnabled  bool          `mapstructure:"metrics_enabled"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	BusyTimeout     time.Duration `mapstructure:"busy_timeout"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// LarkConfig holds Lark API configuration
type LarkConfig struct {
	AppID     string `mapstructure:"app_id"`
	AppSecret string `mapstructure:"app_secret"`
	BaseURL   string `mapstructure:"base_url"`
}

// NotificationConfig controls requester notifications on settle/reject
type NotificationConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ApprovalConfig tunes the approver resolver
type ApprovalConfig struct {
	CashierRole string `mapstructure:"cashier_role"`
}

// ExportConfig holds settlement register export configuration
type ExportConfig struct {
	ArchiveDir      string        `mapstructure:"archive_dir"`
	ArchiveInterval time.Duration `mapstructure:"archive_interval"`
	ArchiveStatus   string        `mapstructure:"archive_status"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load reads configuration from configPath (optional) and the environment.
// Environment variables use the BACKOFFICE_ prefix, e.g. BACKOFFICE_SERVER_PORT.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("backoffice")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.metrics_enabled", true)

	v.SetDefault("database.path", "data/backoffice.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.busy_timeout", 5*time.Second)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("notification.enabled", false)
	v.SetDefault("notification.timeout", 15*time.Second)

	v.SetDefault("approval.cashier_role", "General Cashier")

	v.SetDefault("export.archive_dir", "exports")
	v.SetDefault("export.archive_interval", time.Duration(0))
	v.SetDefault("export.archive_status", "PAID")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars maps the unprefixed credential variables used in deployments
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string][]string{
		"lark.app_id":     {"BACKOFFICE_LARK_APP_ID", "LARK_APP_ID"},
		"lark.app_secret": {"BACKOFFICE_LARK_APP_SECRET", "LARK_APP_SECRET"},
		"lark.base_url":   {"BACKOFFICE_LARK_BASE_URL", "LARK_BASE_URL"},
		"database.path":   {"BACKOFFICE_DATABASE_PATH", "DATABASE_PATH"},
	}
	for key, envs := range bindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if strings.TrimSpace(c.Approval.CashierRole) == "" {
		return fmt.Errorf("approval.cashier_role is required")
	}

	if c.Notification.Enabled {
		if c.Lark.AppID == "" {
			return fmt.Errorf("lark.app_id is required when notifications are enabled")
		}
		if c.Lark.AppSecret == "" {
			return fmt.Errorf("lark.app_secret is required when notifications are enabled")
		}
	}

	if c.Export.ArchiveInterval < 0 {
		return fmt.Errorf("export.archive_interval must not be negative")
	}
	if c.Export.ArchiveInterval > 0 && c.Export.ArchiveDir == "" {
		return fmt.Errorf("export.archive_dir is required when archive_interval is set")
	}

	switch c.Logger.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logger.format must be json or console")
	}

	return nil
}
