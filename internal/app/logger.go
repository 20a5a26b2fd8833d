package app

import (
	"strings"

	"github.com/lovpen/lovpen-server/pkg/logger"
)

// ConfigureLogging initialises the global logger from server settings,
// defaulting to info level and JSON output.
func ConfigureLogging(cfg ServerConfig) error {
	level := strings.TrimSpace(cfg.LogLevel)
	if level == "" {
		level = "info"
	}
	return logger.Init(logger.Options{Level: level, Format: strings.TrimSpace(cfg.LogFormat)})
}
