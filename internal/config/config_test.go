package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "leadgen.db", cfg.Store.Path)
	assert.Equal(t, "https://google.serper.dev", cfg.Serper.BaseURL)
	assert.Equal(t, "https://api.hunter.io/v2", cfg.Hunter.BaseURL)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 8, cfg.Retry.BreakerThreshold)
	assert.Equal(t, 50, cfg.Pipeline.MaxLeads)
	assert.Equal(t, 40, cfg.Pipeline.MinSyncScore)
	assert.True(t, cfg.Pipeline.HistoryEnabled)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	t.Setenv("LEADGEN_SERPER_KEY", "sk-test")
	t.Setenv("LEADGEN_PIPELINE_MAX_LEADS", "7")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.Serper.Key)
	assert.Equal(t, 7, cfg.Pipeline.MaxLeads)
}

func TestLoad_ConfigFile(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	yaml := []byte("pipeline:\n  max_leads: 25\n  skip_crm: true\nlog:\n  level: debug\n")
	require.NoError(t, os.WriteFile("config.yaml", yaml, 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Pipeline.MaxLeads)
	assert.True(t, cfg.Pipeline.SkipCRM)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestInitLogger_RejectsBadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "nope", Format: "console"})
	require.Error(t, err)
}
