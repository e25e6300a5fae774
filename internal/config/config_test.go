package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxifiscal/pkg/fiscal"
)

var envKeys = []string{
	"FISCAL_ENABLED", "FISCAL_HOST", "FISCAL_PORT", "FISCAL_REGISTRATION_NUMBER",
	"FISCAL_TIMEOUT", "FISCAL_CASHIER", "FISCAL_PAPER_WIDTH", "FISCAL_SHIFT_COOLDOWN",
	"FISCAL_SHIFT_INTERVAL", "LOG_LEVEL", "LOG_CONSOLE", "METRICS_ADDR", "PROFILES_PATH",
}

// clearEnv убирает переменные на время теста, godotenv не перезаписывает уже заданные
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.False(t, cfg.Enabled)
	assert.Equal(t, fiscal.DefaultHost, cfg.Host)
	assert.Equal(t, 4445, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 32, cfg.PaperWidth)
	assert.Equal(t, 20*time.Hour, cfg.ShiftCooldown)
	assert.Equal(t, 30*time.Minute, cfg.ShiftInterval)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromEnvFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"FISCAL_ENABLED=true\n"+
			"FISCAL_PORT=4446\n"+
			"FISCAL_REGISTRATION_NUMBER=0000000001012345\n"+
			"FISCAL_TIMEOUT=15000\n"+
			"FISCAL_SHIFT_INTERVAL=5m\n"+
			"FISCAL_CASHIER=Киоск 3\n",
	), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 4446, cfg.Port)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.ShiftInterval)
	assert.Equal(t, "Киоск 3", cfg.Cashier)

	fc := cfg.FiscalConfig()
	assert.Equal(t, "0000000001012345", fc.RegistrationNumber)
	assert.Equal(t, "Киоск 3", fc.CashierName)
	assert.Equal(t, 4446, fc.Port)
}

func TestEnvironmentWinsOverFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("FISCAL_PORT", "4447")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("FISCAL_PORT=4446\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4447, cfg.Port)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"FISCAL_PORT":        "70000",
		"FISCAL_TIMEOUT":     "soon",
		"FISCAL_PAPER_WIDTH": "8",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)

			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			assert.Error(t, err)
		})
	}
}
