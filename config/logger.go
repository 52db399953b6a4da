package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger.
var Log = logrus.New()

// InitLogger configures Log from the application configuration.
func InitLogger(cfg *Config) *logrus.Logger {
	Log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		Log.Warnf("Invalid log level '%s', defaulting to 'info'. Error: %v", cfg.LogLevel, err)
		Log.SetLevel(logrus.InfoLevel)
	} else {
		Log.SetLevel(level)
	}

	if cfg.Environment == "production" || cfg.Environment == "staging" {
		Log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	Log.Debugf("Log level set to: %s", Log.GetLevel().String())
	return Log
}
