package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSlogAdapter(t *testing.T) {
	adapter := NewSlogAdapter(nil)
	assert.NotNil(t, adapter.Logger())

	logger := slog.Default()
	assert.Same(t, logger, NewSlogAdapter(logger).Logger())
}

func TestSlogAdapterLevels(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	adapter.Debug("debug message", "key", "value")
	adapter.Info("info message")
	adapter.Warn("warn message")
	adapter.Error("error message")

	out := buf.String()
	for _, msg := range []string{"debug message", "info message", "warn message", "error message"} {
		assert.Contains(t, out, msg)
	}
	assert.Contains(t, out, "key=value")
}

func TestDiscard(t *testing.T) {
	var _ Logger = Discard()
	Discard().Error("dropped")
}

func TestDefaultLogger(t *testing.T) {
	var _ Logger = DefaultLogger()
	assert.Same(t, slog.Default(), DefaultLogger().Logger())
}
