package httpmiddleware

import (
	"github.com/go-faster/sdk/app"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Instrument wraps handlers with OpenTelemetry HTTP tracing and metrics using
// the application's telemetry providers.
func Instrument(operation string, m *app.Telemetry) Middleware {
	return otelhttp.NewMiddleware(operation,
		otelhttp.WithTracerProvider(m.TracerProvider()),
		otelhttp.WithMeterProvider(m.MeterProvider()),
	)
}
