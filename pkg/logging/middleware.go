package logging

import (
	"net/http"
	"strings"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
)

// RequestIDMiddleware adds a request ID to each HTTP request and logs request/response
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Generate or extract request ID
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := WithRequestID(r.Context(), requestID)
		r = r.WithContext(ctx)
		w.Header().Set("X-Request-ID", requestID)

		// SSE streams stay open for the page lifetime; log them at debug
		streaming := strings.HasPrefix(r.URL.Path, "/api/subscribe/")
		if streaming {
			DebugContext(ctx, "stream opened", "path", r.URL.Path, "remoteAddr", r.RemoteAddr)
		} else {
			DebugContext(ctx, "request started",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr,
			)
		}

		// httpsnoop keeps Flusher and friends intact on the wrapped writer
		m := httpsnoop.CaptureMetrics(next, w, r)

		switch {
		case m.Code >= 500:
			ErrorContext(ctx, "request failed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", m.Code,
				"durationMs", m.Duration.Milliseconds(),
			)
		case m.Code >= 400:
			WarnContext(ctx, "request rejected",
				"method", r.Method,
				"path", r.URL.Path,
				"status", m.Code,
				"durationMs", m.Duration.Milliseconds(),
			)
		case streaming:
			DebugContext(ctx, "stream closed", "path", r.URL.Path, "durationMs", m.Duration.Milliseconds())
		default:
			InfoContext(ctx, "request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", m.Code,
				"bytes", m.Written,
				"durationMs", m.Duration.Milliseconds(),
			)
		}
	})
}
