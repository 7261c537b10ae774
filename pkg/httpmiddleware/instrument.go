package httpmiddleware

import (
	"net/http"
	"time"

	"github.com/go-faster/sdk/app"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// RouteFunc resolves a request to its route pattern (e.g. "/carts/{cartID}")
// so metrics are not exploded by path parameters. It may return "" when the
// request matched no route.
type RouteFunc func(*http.Request) string

// Instrument returns a middleware that records a request counter and a
// duration histogram through the application's meter, and annotates the
// active span with the matched route.
//
// It must run inside the router (after route matching) for the route pattern
// to be available.
func Instrument(name string, route RouteFunc, m *app.Telemetry) Middleware {
	meter := m.MeterProvider().Meter(name)

	requests, _ := meter.Int64Counter("http.server.request.count",
		metric.WithDescription("Number of HTTP requests received"),
	)
	duration, _ := meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("HTTP request handling duration"),
		metric.WithUnit("ms"),
	)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			pattern := route(r)
			if pattern == "" {
				pattern = "unmatched"
			}

			attrs := []attribute.KeyValue{
				attribute.String("http.request.method", r.Method),
				attribute.String("http.route", pattern),
				attribute.Int("http.response.status_code", status),
			}
			if span := trace.SpanFromContext(r.Context()); span.IsRecording() {
				span.SetAttributes(attrs...)
			}

			ctx := r.Context()
			requests.Add(ctx, 1, metric.WithAttributes(attrs...))
			duration.Record(ctx, float64(time.Since(start))/float64(time.Millisecond), metric.WithAttributes(attrs...))
		})
	}
}
