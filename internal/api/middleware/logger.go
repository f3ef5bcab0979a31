package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Phone numbers travel in customer routes; only the last four digits are logged.
var phoneInPath = regexp.MustCompile(`\d{7,}`)

type requestAudit struct {
	subject string
}

type auditKey struct{}

// recordSubject attaches the authenticated subject to the access log entry
// of the current request.
func recordSubject(ctx context.Context, subject string) {
	if audit, ok := ctx.Value(auditKey{}).(*requestAudit); ok {
		audit.subject = subject
	}
}

func maskPath(path string) string {
	return phoneInPath.ReplaceAllStringFunc(path, func(digits string) string {
		return strings.Repeat("*", len(digits)-4) + digits[len(digits)-4:]
	})
}

func accessLevel(status int, quiet bool) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	case quiet:
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// StructuredLogger writes one access log entry per request. Successful
// requests to quietPaths (health checks, scrapes) are logged at debug.
func StructuredLogger(logger *slog.Logger, quietPaths ...string) func(next http.Handler) http.Handler {
	quiet := make(map[string]bool, len(quietPaths))
	for _, p := range quietPaths {
		quiet[p] = true
	}

	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			audit := &requestAudit{}
			r = r.WithContext(context.WithValue(r.Context(), auditKey{}, audit))
			t1 := time.Now()
			defer func() {
				attrs := []any{
					"proto", r.Proto,
					"method", r.Method,
					"path", maskPath(r.URL.Path),
					"remote_addr", r.RemoteAddr,
					"user_agent", r.UserAgent(),
					"status", ww.Status(),
					"latency_ms", float64(time.Since(t1).Nanoseconds()) / 1000000.0,
					"bytes_written", ww.BytesWritten(),
					"request_id", middleware.GetReqID(r.Context()),
				}
				if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
					attrs = append(attrs, "route", rctx.RoutePattern())
				}
				if audit.subject != "" {
					attrs = append(attrs, "subject", audit.subject)
				}
				logger.Log(r.Context(), accessLevel(ww.Status(), quiet[r.URL.Path]), "Served request", attrs...)
			}()
			next.ServeHTTP(ww, r)
		}
		return http.HandlerFunc(fn)
	}
}
