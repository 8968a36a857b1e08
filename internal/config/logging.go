// internal/config/logging.go
package config

import (
	"io"

	"github.com/apex/log"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"
)

// NewLogger returns a logger writing to w in the configured format and level.
func (c *Config) NewLogger(w io.Writer) *log.Logger {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}

	var handler log.Handler = text.New(w)
	if c.LogFormat == "json" {
		handler = json.New(w)
	}

	return &log.Logger{
		Handler: handler,
		Level:   level,
	}
}
