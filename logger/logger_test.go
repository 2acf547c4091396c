package logger

import (
	"os"
	"path/filepath"
	"testing"

	"tickdash/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(config.LogConfig{Level: "loud"})
	assert.Error(t, err)
}

// go test -v --run TestNewWritesFile
func TestNewWritesFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "logs", "tickdash.log")

	log, err := New(config.LogConfig{Level: "info", Format: "json", OutputFile: out})
	require.NoError(t, err)

	log.Info("hello")
	_ = log.Sync()

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}
