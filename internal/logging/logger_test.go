package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgpkg "github.com/taoyao-code/monitorctl/internal/config"
)

func TestLogger_JSONLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(cfgpkg.LoggingConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept")
	require.NoError(t, logger.Sync())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "warn", entry["level"])
}

func TestLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monitorctl.log")
	logger, err := InitLogger(cfgpkg.LoggingConfig{
		Level:  "debug",
		Format: "console",
		Output: "none",
		File:   cfgpkg.LumberjackConfig{Filename: path, MaxSizeMB: 1},
	})
	require.NoError(t, err)

	logger.Debug("exchange")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "exchange")
}

func TestLogger_NoSinks(t *testing.T) {
	logger, err := InitLogger(cfgpkg.LoggingConfig{Output: "none"})
	require.NoError(t, err)
	assert.NotNil(t, logger)
}
