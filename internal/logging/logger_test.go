package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_RenamesErrorKey(t *testing.T) {
	var buf bytes.Buffer
	logger := New(slog.LevelInfo, WithOutput(&buf))

	logger.Error("save failed", "error", errors.New("disk full"))

	assert.Contains(t, buf.String(), `err="disk full"`)
	assert.NotContains(t, buf.String(), "error=")
}

func TestNew_Redaction(t *testing.T) {
	var buf bytes.Buffer
	logger := New(slog.LevelDebug, WithOutput(&buf), WithFormat("json"), WithRedaction(DefaultRedactPatterns...))

	logger.Info("field updated", "email", "jane@example.gov", "field", "city", "session_id", "s1")

	out := buf.String()
	assert.NotContains(t, out, "jane@example.gov")
	assert.Contains(t, out, `"email":"[REDACTED]"`)
	assert.Contains(t, out, `"field":"city"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}
