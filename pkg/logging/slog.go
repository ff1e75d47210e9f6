package logging

import (
	"log/slog"
	"os"
)

func New() *slog.Logger {
	return NewWithLevel(slog.LevelInfo)
}

func NewWithLevel(level slog.Level) *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(h)
}
