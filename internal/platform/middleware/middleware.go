// Package middleware holds the request-scoped HTTP middleware applied in
// front of the gateway dispatcher.
package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"yapisite/pkg/platform/httputil"
	"yapisite/pkg/requestcontext"
)

const requestIDHeader = "X-Request-ID"

// RequestID reuses a well-formed incoming X-Request-ID or generates one, and
// echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(requestcontext.WithRequestID(r.Context(), id)))
	})
}

// RequestTime pins one "now" for the whole request.
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(requestcontext.WithTime(r.Context(), time.Now())))
	})
}

// ClientMetadata stores the client IP and User-Agent in the context.
// Forwarding headers are only honoured when trustProxy is set.
func ClientMetadata(trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithClientMetadata(r.Context(), ClientIPFromRequest(r, trustProxy), r.Header.Get("User-Agent"))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientIPFromRequest extracts the client IP, consulting X-Forwarded-For and
// X-Real-IP only behind a trusted proxy.
func ClientIPFromRequest(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			return strings.TrimSpace(first)
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

// Recovery turns a handler panic into a 500 with the JSON error envelope.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					ctx := r.Context()
					logger.ErrorContext(ctx, "panic recovered",
						"panic", rec,
						"stack", string(debug.Stack()),
						"path", r.URL.Path,
						"request_id", requestcontext.RequestID(ctx),
					)
					httputil.WriteJSONError(w, http.StatusInternalServerError, httputil.CodeInternal, "")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

// routing records what the dispatcher decided so the access log, which runs
// outside it, can report route class and locale.
type routing struct {
	class  string
	locale string
}

// Logger writes one access log line per request. Inner handlers report route
// class and locale through Annotate.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			info := &routing{}
			ctx := withRouting(r.Context(), info)

			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.Log(ctx, level, "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", rec.bytes,
				"duration_ms", time.Since(start).Milliseconds(),
				"route_class", info.class,
				"locale", info.locale,
				"client_ip", requestcontext.ClientIP(ctx),
				"request_id", requestcontext.RequestID(ctx),
			)
		})
	}
}
