package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func newTestLogger(level string) (zerolog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(Config{Level: level, Output: &buf, NoColor: true}), &buf
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"DEBUG":   zerolog.DebugLevel,
		"info":    zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"warn":    zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNew_ModuleTag(t *testing.T) {
	root, buf := newTestLogger("info")

	logger := ForModule(root, "Feature", false)
	logger.Info().Str("path", "a.b").Msg("ready")

	assert.Equal(t, "INF [Feature] ready path=a.b\n", buf.String())
}

func TestNew_NoModule(t *testing.T) {
	root, buf := newTestLogger("info")

	root.Warn().Msg("plain")

	assert.Equal(t, "WRN plain\n", buf.String())
}

func TestNew_Level(t *testing.T) {
	root, buf := newTestLogger("warn")

	root.Info().Msg("hidden")
	root.Error().Msg("shown")

	assert.Equal(t, "ERR shown\n", buf.String())
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	root := New(Config{Output: &buf, JSON: true})

	logger := ForModule(root, "Feature", false)
	logger.Info().Msg("ready")

	assert.Equal(t, `{"level":"info","module":"Feature","message":"ready"}`+"\n", buf.String())
}

func TestForModule_DebugGate(t *testing.T) {
	root, buf := newTestLogger("debug")

	quiet := ForModule(root, "Quiet", false)
	quiet.Debug().Msg("dropped")
	loud := ForModule(root, "Loud", true)
	loud.Debug().Msg("kept")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Equal(t, "DBG [Loud] kept\n", out)
}

func TestForModule_DebugAboveRootLevel(t *testing.T) {
	root, buf := newTestLogger("info")

	logger := ForModule(root, "Loud", true)
	logger.Debug().Msg("kept")

	assert.True(t, strings.HasSuffix(buf.String(), "[Loud] kept\n"))
}

func TestForModule_DisabledRoot(t *testing.T) {
	root, buf := newTestLogger("off")

	logger := ForModule(root, "Loud", true)
	logger.Error().Msg("nothing")

	assert.Empty(t, buf.String())
}
