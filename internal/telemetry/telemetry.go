// Package telemetry wires optional OpenTelemetry tracing: an OTLP/HTTP
// exporter and a server span per request.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/tiered-events/app/internal/config"
)

const instrumentationName = "github.com/tiered-events/app/internal/telemetry"

// Setup registers a global tracer provider exporting to cfg.OTelEndpoint.
// Nothing is registered when tracing is disabled or no endpoint is set, and
// the returned shutdown is then a no-op. Spans carry the service name and
// the configured store backend.
func Setup(ctx context.Context, serviceName string, cfg config.Config) (func(context.Context) error, error) {
	if !cfg.OTelEnabled || cfg.OTelEndpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.OTelEndpoint))
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	// OTEL_RESOURCE_ATTRIBUTES may add deployment details on top.
	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithAttributes(serviceAttributes(serviceName, cfg.StoreDriver)...),
	)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("build trace resource: %w", err), exporter.Shutdown(ctx))
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp.Shutdown, nil
}

// serviceAttributes describes this process and the database it talks to.
func serviceAttributes(serviceName, driver string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(serviceName),
		attribute.String("store.driver", driver),
	}
	switch driver {
	case config.DriverSQLite:
		attrs = append(attrs, semconv.DBSystemSqlite)
	case config.DriverMongo:
		attrs = append(attrs, semconv.DBSystemMongoDB)
	}
	return attrs
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Middleware starts a server span for each request, continuing any trace
// context the client sent. With no provider registered the spans are
// no-ops.
func Middleware(next http.Handler) http.Handler {
	tracer := otel.Tracer(instrumentationName)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.URLPath(r.URL.Path),
			),
		)
		defer span.End()

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r.WithContext(ctx))

		span.SetAttributes(semconv.HTTPResponseStatusCode(sw.status))
		if sw.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(sw.status))
		}
	})
}
