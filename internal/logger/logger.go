// Package logger configures the application loggers.
//
// InitLogger returns the process-wide slog.Logger: a tint colour handler in
// dev, a plain JSON handler everywhere else.
//
// Request-scoped logging: the RequestLogging middleware stores a logger
// carrying the chi request ID in the request context. Handlers retrieve it
// with ContextRequestLogger and can attach extra attributes for the final
// request log line with ContextWithLogAttrs.
package logger

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/lmittmann/tint"
)

// LevelNone disables all log output (used by tests).
const LevelNone = slog.Level(128)

// ParseLogLevel converts a LOG_LEVEL string to a slog.Level.
// Unrecognized values fall back to info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "none":
		return LevelNone
	default:
		return slog.LevelInfo
	}
}

// InitLogger creates the application logger for the given level and environment.
func InitLogger(level slog.Level, environment string) *slog.Logger {
	var handler slog.Handler

	if environment == "dev" || environment == "test" {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

type contextKey int

const (
	requestLoggerKey contextKey = iota
	logAttrsKey
)

// logAttrs accumulates attributes added by handlers during a request.
// The final request log line emitted by RequestLogging includes them.
type logAttrs struct {
	mu    sync.Mutex
	attrs []slog.Attr
}

// ContextRequestLogger returns the request-scoped logger stored by the
// RequestLogging middleware. Falls back to slog.Default outside a request.
func ContextRequestLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(requestLoggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// ContextWithLogAttrs attaches attributes to the current request so they are
// included in the final request log line.
func ContextWithLogAttrs(ctx context.Context, attrs ...slog.Attr) {
	if la, ok := ctx.Value(logAttrsKey).(*logAttrs); ok {
		la.mu.Lock()
		la.attrs = append(la.attrs, attrs...)
		la.mu.Unlock()
	}
}

// RequestLogging is a chi middleware that stores a request-scoped logger in
// the context and logs one line per completed request.
func RequestLogging(appLogger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := middleware.GetReqID(r.Context())
			reqLogger := appLogger.With(slog.String("request_id", requestID))

			la := &logAttrs{}
			ctx := context.WithValue(r.Context(), requestLoggerKey, reqLogger)
			ctx = context.WithValue(ctx, logAttrsKey, la)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			la.mu.Lock()
			extra := la.attrs
			la.mu.Unlock()

			args := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("duration", time.Since(start)),
			}
			for _, attr := range extra {
				args = append(args, attr)
			}

			reqLogger.Info("request completed", args...)
		})
	}
}
