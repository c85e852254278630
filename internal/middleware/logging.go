package middleware

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

func LogRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			begin := time.Now()
			resp := newResponseWriter(w)

			next.ServeHTTP(resp, r)

			fields := log.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   resp.statusCode,
				"duration": time.Since(begin).String(),
				"ua":       r.Header.Get("User-Agent"),
			}
			if spanCtx := trace.SpanContextFromContext(r.Context()); spanCtx.HasTraceID() {
				fields["trace_id"] = spanCtx.TraceID().String()
			}

			log.WithFields(fields).Debug(" ====> request")
		})
	}
}
