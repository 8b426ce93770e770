package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/noah-isme/heycoach-api/internal/config"
)

// New builds the process logger. Output always goes to stdout; when a log file is
// configured it is additionally written to a size-rotated file.
func New(cfg config.Config) zerolog.Logger {
	var writer io.Writer = os.Stdout
	if strings.TrimSpace(cfg.LogFile) != "" {
		writer = zerolog.MultiLevelWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		})
	}

	return zerolog.New(writer).
		Level(ParseLevel(cfg.LogLevel)).
		With().
		Timestamp().
		Str("service", cfg.AppName).
		Str("env", cfg.AppEnv).
		Logger()
}

// ParseLevel converts a textual level into a zerolog level, defaulting to info.
func ParseLevel(raw string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}
