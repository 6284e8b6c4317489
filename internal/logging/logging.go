// Package logging arma el slog.Logger de cada comando: texto a stdout y a un archivo.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type Logger struct {
	*slog.Logger
	file *os.File
}

// New usa LOG_PATH (por defecto ./<service>.log) y LOG_LEVEL. Si el archivo
// no se puede abrir sigue sólo con stdout y lo reporta.
func New(service string) *Logger {
	level := ParseLevel(os.Getenv("LOG_LEVEL"))
	logPath := os.Getenv("LOG_PATH")
	if logPath == "" {
		logPath = service + ".log"
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		l := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})).With("service", service)
		l.Error("failed to open log file", "path", logPath, "err", err)
		return &Logger{Logger: l}
	}
	mw := io.MultiWriter(os.Stdout, f)
	l := slog.New(slog.NewTextHandler(mw, &slog.HandlerOptions{Level: level})).With("service", service)
	l.Info("logger initialized", "file", logPath, "level", level.String())
	return &Logger{Logger: l, file: f}
}

// Discard es para tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
