package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

type SetupParams struct {
	LogFileName string
	LogLevel    string
	LogJSON     bool
}

// Setup installs the default slog logger. When a log file is given, output
// goes to both stdout and a size-rotated file.
func Setup(params SetupParams) *slog.Logger {
	var out io.Writer = os.Stdout
	if params.LogFileName != "" {
		if !strings.HasSuffix(params.LogFileName, ".log") {
			params.LogFileName += ".log"
		}
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:  params.LogFileName,
			MaxSize:   50, // megabytes
			LocalTime: false,
			Compress:  true,
		})
	}

	logger := slog.New(NewHandler(out, params.LogLevel, params.LogJSON))
	slog.SetDefault(logger)
	return logger
}

func NewHandler(out io.Writer, level string, json bool) slog.Handler {
	opts := &slog.HandlerOptions{Level: GetLevel(level)}
	if json {
		return slog.NewJSONHandler(out, opts)
	}
	return slog.NewTextHandler(out, opts)
}

func GetLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
