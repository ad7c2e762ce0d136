package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetOutput_RedirectsExistingLogger(t *testing.T) {
	log := Logger("test/redirect")

	buf := &bytes.Buffer{}
	SetOutput(buf)

	log.Info("after switch", "key", "value")

	out := buf.String()
	assert.Contains(t, out, "after switch")
	assert.Contains(t, out, "key=value")
	assert.Contains(t, out, "subsystem=test/redirect")

	t.Log("✅ 已创建的 Logger 跟随输出切换")
}

func TestLogger_Cached(t *testing.T) {
	a := Logger("test/cache")
	b := Logger("test/cache")
	assert.Same(t, a, b)
}

func TestSetLevel_AppliesToDerivedLoggers(t *testing.T) {
	buf := &bytes.Buffer{}
	SetOutput(buf)

	log := Logger("test/level").With("peer", "p1")
	SetLevel("test/level", slog.LevelError)

	log.Info("hidden")
	assert.NotContains(t, buf.String(), "hidden")

	SetLevel("test/level", slog.LevelDebug)
	log.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
	assert.Contains(t, buf.String(), "peer=p1")
}

func TestParseConfig(t *testing.T) {
	env := map[string]string{
		EnvLogLevel:  "core/swarm=debug, core/relay=warn, error",
		EnvLogFormat: "JSON",
	}
	cfg := parseConfig(func(k string) string { return env[k] })

	require.NotNil(t, cfg)
	assert.Equal(t, slog.LevelError, cfg.DefaultLevel)
	assert.Equal(t, slog.LevelDebug, cfg.LevelForSubsystem("core/swarm"))
	assert.Equal(t, slog.LevelWarn, cfg.LevelForSubsystem("core/relay"))
	assert.Equal(t, slog.LevelError, cfg.LevelForSubsystem("fabric"))
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.False(t, cfg.AddSource)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}
