package logutil

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-Id"

type (
	key byte
)

var (
	loggerKey = key(1)
)

// WithLogger stores logger in ctx. It is also made visible to zerolog.Ctx.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(logger.WithContext(ctx), loggerKey, &logger)
}

// GetOrDefault returns the logger stored in ctx, or the global logger if
// none was stored. A stored logger is returned even when it is disabled.
func GetOrDefault(ctx context.Context) zerolog.Logger {
	v, ok := ctx.Value(loggerKey).(*zerolog.Logger)
	if !ok || v == nil {
		return log.Logger
	}
	return *v
}

// New builds the process logger. Pretty output is meant for terminals.
func New(level string, pretty bool) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}
	var out io.Writer = os.Stderr
	if pretty {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

// HTTPMiddleware attaches logger to every request, tags it with a request id
// and writes one access line per request.
func HTTPMiddleware(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		h := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
			hlog.FromRequest(r).Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("size", size).
				Dur("duration", duration).
				Msg("request")
		})(next)
		h = requestID(h)
		return hlog.NewHandler(logger)(storeRequestLogger(logger, h))
	}
}

// storeRequestLogger makes the per request logger of hlog.NewHandler, or
// logger itself when it is disabled, the one GetOrDefault returns.
func storeRequestLogger(logger zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := zerolog.Ctx(r.Context())
		if l.GetLevel() == zerolog.Disabled {
			l = &logger
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), loggerKey, l)))
	})
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("req_id", id)
		})
		next.ServeHTTP(w, r)
	})
}
