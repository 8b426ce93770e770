package observability

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Tracer returns the named tracer for a service component.
func Tracer(component string) trace.Tracer {
	return otel.Tracer("github.com/noah-isme/heycoach-api/internal/service/" + component)
}
