package middleware

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/NASA-AMMOS/aerie-gateway/pkg/constants"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/httpapi"
)

// LoggerOptions configures WithLogger. Request bodies are never logged:
// the gateway's mutating routes take multipart plan and dataset files.
type LoggerOptions struct {
	// LogErrorBodies logs the JSON body of responses with status >= 400,
	// cut to MaxBodyLength bytes.
	LogErrorBodies bool
	MaxBodyLength  int

	RequestIDHeader string
	RealIPHeader    string
	Repanic         bool
}

func DefaultLoggerOptions() LoggerOptions {
	return LoggerOptions{
		LogErrorBodies:  true,
		MaxBodyLength:   512,
		RequestIDHeader: "X-Request-ID",
		RealIPHeader:    "X-Real-IP",
	}
}

// statusRecorder keeps the status code and, for error responses, a copy of
// the body.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	keepBody    bool
	body        bytes.Buffer
}

func (w *statusRecorder) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.status = code
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if w.keepBody && w.status >= http.StatusBadRequest {
		w.body.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusRecorder) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := w.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, fmt.Errorf("underlying ResponseWriter does not implement http.Hijacker")
}

func realIP(r *http.Request, header string) string {
	if v := r.Header.Get(header); v != "" {
		return v
	}
	return r.RemoteAddr
}

func requestID(r *http.Request, header string) string {
	if v := r.Header.Get(header); v != "" {
		return v
	}
	return uuid.New().String()
}

func truncateBody(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var tracer = otel.Tracer("aerie-gateway-middleware")

// TracedMiddleware opens a span named after the middleware that follows it.
func TracedMiddleware(name string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.Start(r.Context(), "middleware."+name,
				trace.WithAttributes(attribute.String("middleware.name", name)))
			defer span.End()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// redactedHeaders carry credentials that must not reach the logs.
var redactedHeaders = map[string]struct{}{
	"Authorization": {},
	"Cookie":        {},
}

func formatHeaders(h http.Header) map[string]string {
	headers := make(map[string]string, len(h))
	for key, values := range h {
		if len(values) == 0 {
			continue
		}
		if _, ok := redactedHeaders[http.CanonicalHeaderKey(key)]; ok {
			headers[key] = "[redacted]"
			continue
		}
		headers[key] = values[0]
	}
	return headers
}

// callerFields names the caller by the identity headers forwarded upstream.
func callerFields(r *http.Request) logrus.Fields {
	fields := logrus.Fields{}
	if role := r.Header.Get("x-hasura-role"); role != "" {
		fields["hasura-role"] = role
	}
	if user := r.Header.Get("x-hasura-user-id"); user != "" {
		fields["hasura-user-id"] = user
	}
	return fields
}

// WithLogger puts a request-scoped logrus entry into the context, wraps the
// request in a span and turns handler panics into a JSON 500.
func WithLogger(logger *logrus.Logger, opts LoggerOptions) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			id := requestID(r, opts.RequestIDHeader)
			ip := realIP(r, opts.RealIPHeader)

			entry := logger.WithFields(logrus.Fields{
				"request-id": id,
				"path":       r.URL.Path,
				"method":     r.Method,
			}).WithFields(callerFields(r))

			entry.WithFields(logrus.Fields{
				"ip":              ip,
				"user-agent":      r.UserAgent(),
				"content-length":  r.ContentLength,
				"request-headers": formatHeaders(r.Header),
			}).Info("request started")

			propagator := propagation.TraceContext{}
			ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, "http.request", trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", r.URL.Path),
				attribute.String("http.request_id", id),
				attribute.String("net.peer.ip", ip),
			))
			defer span.End()
			propagator.Inject(ctx, propagation.HeaderCarrier(w.Header()))

			if sc := span.SpanContext(); sc.HasTraceID() {
				w.Header().Set("X-Trace-Id", sc.TraceID().String())
				entry = entry.WithField("trace-id", sc.TraceID().String())
			}
			w.Header().Set("X-Request-Id", id)
			ctx = context.WithValue(ctx, constants.LoggerKey, entry)

			rec := &statusRecorder{ResponseWriter: w, keepBody: opts.LogErrorBodies}

			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				entry.WithFields(logrus.Fields{
					"panic":    recovered,
					"stack":    string(debug.Stack()),
					"duration": time.Since(start),
				}).Error("panic recovered in request handler")
				if !rec.wroteHeader {
					_ = httpapi.WriteError(rec, http.StatusInternalServerError,
						"INTERNAL_SERVER_ERROR", "internal server error",
						map[string]string{"request_id": id})
				}
				if opts.Repanic {
					panic(recovered)
				}
			}()

			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.Status()
			duration := time.Since(start)
			span.SetAttributes(
				attribute.Int("http.status_code", status),
				attribute.Int64("http.request_duration_ms", duration.Milliseconds()),
			)
			done := entry.WithFields(logrus.Fields{
				"duration":     duration,
				"status-code":  status,
				"status-class": status / 100,
			})
			if rec.body.Len() > 0 && strings.Contains(rec.Header().Get("Content-Type"), "application/json") {
				done = done.WithField("response-body", truncateBody(rec.body.String(), opts.MaxBodyLength))
			}
			if status >= http.StatusInternalServerError {
				done.Warn("request failed")
				return
			}
			done.Info("request completed")
		})
	}
}
