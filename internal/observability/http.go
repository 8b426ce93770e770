package observability

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// scrapeConcurrency caps parallel scrapes so a stuck collector cannot pile up handlers.
const scrapeConcurrency = 2

// MetricsHandler serves the default registry, which also carries the AI generator
// collectors registered by pkg/ai. OpenMetrics is negotiated when the scraper asks for it.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer,
		promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
			EnableOpenMetrics:   true,
			MaxRequestsInFlight: scrapeConcurrency,
		}),
	))
}
