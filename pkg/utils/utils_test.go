package utils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("dina@hotel.co.id"))
	assert.Error(t, ValidateEmail("dina@"))
	assert.Error(t, ValidateEmail(""))
}

func TestValidateCurrency(t *testing.T) {
	assert.NoError(t, ValidateCurrency("IDR"))
	assert.Error(t, ValidateCurrency("idr"))
	assert.Error(t, ValidateCurrency("RUPIAH"))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "line one\nline two", SanitizeString("  line one\x00\nline two\x1b "))
}

func TestFields(t *testing.T) {
	fields := Fields("id", 7, 42, "ignored", "error", errors.New("boom"), "dangling")
	require.Len(t, fields, 2)
	assert.Equal(t, "id", fields[0].Key)
	assert.Equal(t, "error", fields[1].Key)
	assert.Equal(t, zapcore.ErrorType, fields[1].Type)
}

func TestNewLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "server.log")
	logger, err := NewLogger(LoggerConfig{Level: "info", OutputPath: path, Format: "json"})
	require.NoError(t, err)

	NewKVLogger(logger).Info("Request approved", "id", 3)
	require.NoError(t, logger.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"msg":"Request approved"`)
	assert.Contains(t, string(raw), `"id":3`)
}
