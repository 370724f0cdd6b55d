package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/backoffice-approvals/internal/domain/entity"
	"github.com/garyjia/backoffice-approvals/internal/domain/workflow"
)

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["migrate"])
	assert.True(t, names["export"])
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestParseExportArgs(t *testing.T) {
	module, status, err := parseExportArgs("petty-cash", "paid")
	require.NoError(t, err)
	assert.Equal(t, entity.ModulePettyCash, module)
	assert.Equal(t, workflow.StatePaid, status)

	_, status, err = parseExportArgs("EXPENSE", "")
	require.NoError(t, err)
	assert.Empty(t, status)

	_, _, err = parseExportArgs("payroll", "")
	assert.Error(t, err)
	_, _, err = parseExportArgs("expense", "approved")
	assert.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	assert.NoError(t, loadEnvFile(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("BACKOFFICE_TEST_ENV_VALUE=from-dotenv\n"), 0o644))
	t.Setenv("BACKOFFICE_TEST_ENV_VALUE", "")
	os.Unsetenv("BACKOFFICE_TEST_ENV_VALUE")

	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "from-dotenv", os.Getenv("BACKOFFICE_TEST_ENV_VALUE"))
}

func TestMigrateCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "data", "approvals.db")
	t.Setenv("BACKOFFICE_DATABASE_PATH", dbPath)
	t.Setenv("BACKOFFICE_LOGGER_OUTPUT_PATH", filepath.Join(t.TempDir(), "test.log"))

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"migrate", "--env-file", ""})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "applied 1 migration(s)")
	assert.Contains(t, out.String(), "schema versions: [1]")
	_, err := os.Stat(dbPath)
	assert.NoError(t, err)
}
