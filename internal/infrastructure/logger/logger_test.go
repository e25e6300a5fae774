package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureOnceAndComponent(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "fiscalctl-test"})
	// повторная настройка игнорируется
	Configure(Config{Level: "error"})

	log := WithComponent("shiftkeeper")
	log.Debug().Int("shift", 3).Msg("shift is open")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "fiscalctl-test", entry["service"])
	assert.Equal(t, "shiftkeeper", entry["component"])
	assert.Equal(t, "debug", entry["level"])
	assert.EqualValues(t, 3, entry["shift"])
}
