package config

import (
	"fmt"
	"io"

	"github.com/caarlos0/env/v8"
	log "github.com/sirupsen/logrus"
)

const envPrefix = "FIREFLY_"

const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

type Config struct {
	LogLevel   log.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat  string    `env:"LOG_FORMAT" envDefault:"text"`
	FFmpegPath string    `env:"FFMPEG_PATH" envDefault:"ffmpeg"`
}

func FromEnv() (Config, error) {
	return parse(env.Options{Prefix: envPrefix})
}

func parse(opts env.Options) (Config, error) {
	cfg := Config{}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, err
	}
	switch cfg.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return Config{}, fmt.Errorf("unsupported log format %q (want %s or %s)", cfg.LogFormat, LogFormatText, LogFormatJSON)
	}
	return cfg, nil
}

// SetupLogger points the standard logrus logger at w using the configured level and format.
func SetupLogger(cfg Config, w io.Writer) {
	if cfg.LogFormat == LogFormatJSON {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	}
	log.SetOutput(w)
	log.SetLevel(cfg.LogLevel)
}
