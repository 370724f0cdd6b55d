package database

import (
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "test.db"), MaxOpenConns: 4}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrator_EmbeddedSchema(t *testing.T) {
	db := openTestDB(t)
	m := NewMigrator(db, zap.NewNop())

	applied, err := m.Run()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, applied, 1)

	for _, table := range []string{"requests", "request_items", "request_history", "departments", "divisions", "users"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %s", table)
	}

	again, err := m.Run()
	require.NoError(t, err)
	assert.Equal(t, 0, again, "second run is a no-op")
}

func TestMigrator_OrdersByVersion(t *testing.T) {
	db := openTestDB(t)
	source := fstest.MapFS{
		"sql/002_add_note.sql": {Data: []byte("ALTER TABLE things ADD COLUMN note TEXT;")},
		"sql/001_things.sql":   {Data: []byte("CREATE TABLE things (id INTEGER PRIMARY KEY);")},
		"sql/README.md":        {Data: []byte("ignored")},
	}

	m := NewMigratorFS(db, source, "sql", zap.NewNop())
	applied, err := m.Run()
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	versions, err := m.AppliedVersions()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, versions)
}

func TestMigrator_FailedMigrationIsNotRecorded(t *testing.T) {
	db := openTestDB(t)
	source := fstest.MapFS{
		"sql/001_ok.sql":     {Data: []byte("CREATE TABLE ok (id INTEGER);")},
		"sql/002_broken.sql": {Data: []byte("CREATE TABLE broken (;")},
	}

	m := NewMigratorFS(db, source, "sql", zap.NewNop())
	applied, err := m.Run()
	require.Error(t, err)
	assert.Equal(t, 1, applied)

	versions, err := m.AppliedVersions()
	require.NoError(t, err)
	assert.Equal(t, []int{1}, versions)
}

func TestMigrator_RejectsBadFilenames(t *testing.T) {
	db := openTestDB(t)
	source := fstest.MapFS{"sql/init.sql": {Data: []byte("SELECT 1;")}}

	_, err := NewMigratorFS(db, source, "sql", zap.NewNop()).Run()
	assert.Error(t, err)
}
