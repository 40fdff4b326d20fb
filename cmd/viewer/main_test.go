package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunReportsStartupErrors(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	logPath := filepath.Join(dir, "viewer.log")
	require.NoError(t, os.WriteFile(cfgPath, []byte("logging:\n  level: info\n  log_file: "+logPath+"\n"), 0644))

	// The demo lookup fails before any window is opened.
	var stderr bytes.Buffer
	code := run([]string{"-config", cfgPath, "-demo", "nope"}, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), `no demo "nope"`)

	// The deferred sync ran: the failure reached the log file.
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "failed to start viewer")
}

func TestRunRejectsBadConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("graphics:\n  width: -1\n"), 0644))

	var stderr bytes.Buffer
	assert.Equal(t, 1, run([]string{"-config", cfgPath, "-demo", "bunny"}, &stderr))
	assert.Contains(t, stderr.String(), "Config error")
}
