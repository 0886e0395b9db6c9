package obs

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerFormatAndLevel(t *testing.T) {
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	var buf bytes.Buffer
	l := newLogger(&buf, "json", "WARN")
	l.Info().Msg("hidden")
	l.Warn().Str("line", "alu-mini").Msg("shown")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), `"line":"alu-mini"`)

	buf.Reset()
	l = newLogger(&buf, " Console ", "bogus")
	require.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
	l.Info().Msg("hello")
	require.Contains(t, buf.String(), "INF")
	require.NotContains(t, buf.String(), `"message"`)
}
