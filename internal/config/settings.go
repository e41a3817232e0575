package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Settings are process-wide options read from the environment.
type Settings struct {
	DataDir   string `env:"STOCKFLOW_DATA" envDefault:".stockflow"`
	LogLevel  string `env:"STOCKFLOW_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"STOCKFLOW_LOG_FORMAT" envDefault:"text"`
}

func LoadSettings() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}
	return s, nil
}

// NewLogger builds a slog logger writing to w according to the settings.
func (s Settings) NewLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", s.LogLevel, err)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(s.LogFormat) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", s.LogFormat)
	}
}
