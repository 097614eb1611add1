package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"tryon/internal/observability/tracing"
)

type responseWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// Logger writes one line per request and stores a request-scoped logger in
// the context so handlers log with the same request id.
func Logger(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			logCtx := l.With().Str("request_id", RequestIDFromContext(r.Context()))
			if traceID := tracing.TraceID(r.Context()); traceID != "" {
				logCtx = logCtx.Str("trace_id", traceID)
			}
			reqLogger := logCtx.Logger()

			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r.WithContext(reqLogger.WithContext(r.Context())))

			event := reqLogger.Info()
			switch {
			case rw.status >= http.StatusInternalServerError:
				event = reqLogger.Error()
			case rw.status >= http.StatusBadRequest:
				event = reqLogger.Warn()
			}
			if country := CountryFromContext(r.Context()); country != "" {
				event = event.Str("country", country)
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rw.status).
				Int("bytes", rw.bytes).
				Dur("duration", time.Since(start)).
				Str("locale", LocaleFromContext(r.Context())).
				Msg("http request")
		})
	}
}
