package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "data/backoffice.db", cfg.Database.Path)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, "General Cashier", cfg.Approval.CashierRole)
	assert.False(t, cfg.Notification.Enabled)
	assert.Equal(t, "exports", cfg.Export.ArchiveDir)
	assert.Zero(t, cfg.Export.ArchiveInterval)
	assert.Equal(t, "PAID", cfg.Export.ArchiveStatus)
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  read_timeout: 5s
database:
  path: /var/lib/backoffice/approvals.db
approval:
  cashier_role: Chief Cashier
notification:
  enabled: true
lark:
  app_id: cli_file
logger:
  format: console
`)
	t.Setenv("LARK_APP_SECRET", "from-env")
	t.Setenv("BACKOFFICE_SERVER_PORT", "9191")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "/var/lib/backoffice/approvals.db", cfg.Database.Path)
	assert.Equal(t, "Chief Cashier", cfg.Approval.CashierRole)
	assert.Equal(t, "cli_file", cfg.Lark.AppID)
	assert.Equal(t, "from-env", cfg.Lark.AppSecret)
	assert.Equal(t, "console", cfg.Logger.Format)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Path: "x.db", MaxOpenConns: 1},
			Approval: ApprovalConfig{CashierRole: "General Cashier"},
			Logger:   LoggerConfig{Format: "json"},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"no database path", func(c *Config) { c.Database.Path = "" }},
		{"no connections", func(c *Config) { c.Database.MaxOpenConns = 0 }},
		{"blank cashier role", func(c *Config) { c.Approval.CashierRole = "  " }},
		{"notifications without lark credentials", func(c *Config) { c.Notification.Enabled = true }},
		{"unknown log format", func(c *Config) { c.Logger.Format = "xml" }},
		{"negative archive interval", func(c *Config) { c.Export.ArchiveInterval = -time.Second }},
		{"archive interval without dir", func(c *Config) {
			c.Export.ArchiveDir = ""
			c.Export.ArchiveInterval = time.Hour
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
