package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", DebugLevel},
		{"DEBUG", DebugLevel},
		{" warn ", WarnLevel},
		{"error", ErrorLevel},
		{"info", InfoLevel},
		{"", InfoLevel},
		{"verbose", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestInitJSONWithScopedLoggers(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: DebugLevel, JSONOutput: true, Output: &buf})

	logger := WithServiceID(WithComponent("client"), "1a5", "1s42")
	logger.Info().Msg("Service became active")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "client", entry["component"])
	assert.Equal(t, "1a5", entry["project_id"])
	assert.Equal(t, "1s42", entry["service_id"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "Service became active", entry["message"])
}

func TestInitLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: WarnLevel, JSONOutput: true, Output: &buf})
	defer Init(Config{Level: InfoLevel, JSONOutput: true, Output: &bytes.Buffer{}})

	Logger.Info().Msg("dropped")
	assert.Zero(t, buf.Len())

	Logger.Warn().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestStackAndProjectLoggers(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: DebugLevel, JSONOutput: true, Output: &buf})
	defer Init(Config{Level: InfoLevel, JSONOutput: true, Output: &bytes.Buffer{}})

	logger := WithStackName(WithProjectID(WithComponent("client"), "1a5"), "frontend")
	logger.Debug().Msg("No service with exact name")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "1a5", entry["project_id"])
	assert.Equal(t, "frontend", entry["stack"])
	assert.Equal(t, "debug", entry["level"])
}
