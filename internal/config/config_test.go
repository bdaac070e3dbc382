package config

import (
	"bytes"
	"os"
	"testing"

	"github.com/caarlos0/env/v8"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := parse(env.Options{Prefix: envPrefix, Environment: map[string]string{}})
	require.NoError(t, err)

	assert.Equal(t, log.InfoLevel, cfg.LogLevel)
	assert.Equal(t, LogFormatText, cfg.LogFormat)
	assert.Equal(t, "ffmpeg", cfg.FFmpegPath)
}

func TestParseOverrides(t *testing.T) {
	cfg, err := parse(env.Options{Prefix: envPrefix, Environment: map[string]string{
		"FIREFLY_LOG_LEVEL":   "debug",
		"FIREFLY_LOG_FORMAT":  "json",
		"FIREFLY_FFMPEG_PATH": "/opt/ffmpeg/bin/ffmpeg",
	}})
	require.NoError(t, err)

	assert.Equal(t, log.DebugLevel, cfg.LogLevel)
	assert.Equal(t, LogFormatJSON, cfg.LogFormat)
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", cfg.FFmpegPath)
}

func TestParseRejectsUnknownFormat(t *testing.T) {
	_, err := parse(env.Options{Prefix: envPrefix, Environment: map[string]string{
		"FIREFLY_LOG_FORMAT": "xml",
	}})
	assert.Error(t, err)
}

func TestParseRejectsBadLevel(t *testing.T) {
	_, err := parse(env.Options{Prefix: envPrefix, Environment: map[string]string{
		"FIREFLY_LOG_LEVEL": "loud",
	}})
	assert.Error(t, err)
}

func TestSetupLoggerJSON(t *testing.T) {
	defer func() {
		log.SetFormatter(&log.TextFormatter{})
		log.SetOutput(os.Stderr)
		log.SetLevel(log.InfoLevel)
	}()

	var buf bytes.Buffer
	SetupLogger(Config{LogLevel: log.WarnLevel, LogFormat: LogFormatJSON}, &buf)

	log.Info("hidden")
	log.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
