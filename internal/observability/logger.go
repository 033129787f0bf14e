// Package observability is the logging and metrics layer of the chat
// client. Every package logs through it, either via FromContext when a
// context is in hand or via the package-level helpers from event
// handlers and read loops, so all output shares one handler.
package observability

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

type contextKey string

const (
	roomIDKey contextKey = "room_id"
	userIDKey contextKey = "user_id"
)

// logger starts out usable so packages can log before InitLogger runs.
var logger = slog.New(slog.NewTextHandler(os.Stdout, nil))

// InitLogger replaces the package logger. format is "json" or "text";
// level is one of debug, info, warn, error (anything else means info).
// Debug level also records source positions.
func InitLogger(level, format string) {
	lvl := parseLevel(level)
	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// WithRoomID carries a room id for FromContext to attach.
func WithRoomID(ctx context.Context, roomID string) context.Context {
	return context.WithValue(ctx, roomIDKey, roomID)
}

// WithUserID carries a user id for FromContext to attach.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// FromContext returns the package logger with any room and user ids
// carried by ctx attached as attributes.
func FromContext(ctx context.Context) *slog.Logger {
	log := logger
	if roomID, ok := ctx.Value(roomIDKey).(string); ok && roomID != "" {
		log = log.With(slog.String("room_id", roomID))
	}
	if userID, ok := ctx.Value(userIDKey).(string); ok && userID != "" {
		log = log.With(slog.String("user_id", userID))
	}
	return log
}

func parseLevel(level string) slog.Level {
	switch level {
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

// Package-level helpers for code with no context in hand.

// Debug logs at debug level
func Debug(msg string, args ...any) {
	logger.Debug(msg, args...)
}

// Info logs at info level
func Info(msg string, args ...any) {
	logger.Info(msg, args...)
}

// Warn logs at warn level
func Warn(msg string, args ...any) {
	logger.Warn(msg, args...)
}

// Error logs at error level
func Error(msg string, args ...any) {
	logger.Error(msg, args...)
}
