package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithFormat_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithFormat(&buf, int(slog.LevelInfo), "json")

	l.Debug("hidden")
	l.Info("Auth service: user registered", "user_id", "abc")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "Auth service: user registered", line["msg"])
	assert.Equal(t, "abc", line["user_id"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNewWithFormat_Text(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithFormat(&buf, int(slog.LevelDebug), "text")

	l.Debug("connected", "database", "devconnector")
	assert.Contains(t, buf.String(), "msg=connected")
	assert.Contains(t, buf.String(), "database=devconnector")
}
