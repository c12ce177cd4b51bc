package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogBuffer_Captures(t *testing.T) {
	logger, buf := NewCaptureLogger()

	logger.Info("digest started", slog.String("run", "run1"))
	logger.Warn("fragment short", slog.Int("rows", 0))

	require.Equal(t, 2, buf.Len())
	assert.True(t, buf.HasMessage("digest started"))
	assert.True(t, buf.HasAttr("run", "run1"))
	assert.False(t, buf.HasMessage("never logged"))

	warns := buf.AtLevel(slog.LevelWarn)
	require.Len(t, warns, 1)
	assert.Equal(t, "fragment short", warns[0].Message)
}

func TestLogBuffer_WithAttrs(t *testing.T) {
	logger, buf := NewCaptureLogger()

	logger.With(slog.String("rig", "te38")).Info("normalized")

	entries := buf.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "te38", entries[0].Attrs["rig"])
}
