package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure(t *testing.T) {
	t.Cleanup(func() { Configure(Config{Level: InfoLevel, Pretty: true}) })

	t.Run("JSON_RespectsLevel", func(t *testing.T) {
		var buf bytes.Buffer
		Configure(Config{Level: WarnLevel, Output: &buf})

		Info().Msg("hidden")
		Warn().Str("entity", "student").Msg("shown")

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "warn", entry["level"])
		assert.Equal(t, "shown", entry["message"])
		assert.Equal(t, "student", entry["entity"])
	})

	t.Run("ConfigFromStrings", func(t *testing.T) {
		cfg := ConfigFromStrings(" DEBUG ", "text")
		assert.Equal(t, DebugLevel, cfg.Level)
		assert.True(t, cfg.Pretty)

		cfg = ConfigFromStrings("bogus", "json")
		assert.False(t, cfg.Pretty)
		assert.Equal(t, zerolog.InfoLevel, toZerologLevel(cfg.Level))
	})

	t.Run("FromContext_FallsBackToDefault", func(t *testing.T) {
		var buf bytes.Buffer
		Configure(Config{Level: InfoLevel, Output: &buf})

		FromContext(context.Background()).Info().Msg("fallback")
		assert.Contains(t, buf.String(), "fallback")

		var scoped bytes.Buffer
		l := zerolog.New(&scoped).With().Str("request_id", "abc").Logger()
		ctx := l.WithContext(context.Background())
		FromContext(ctx).Info().Msg("scoped")
		assert.Contains(t, scoped.String(), `"request_id":"abc"`)
	})
}
