package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/sql-dojo/backend/internal/infrastructure"
)

const (
	// SandboxOutcomeKey is the context key for the result of a query or verify call
	SandboxOutcomeKey = "sandboxOutcome"

	OutcomeOK        = "ok"
	OutcomeSQLError  = "sql_error"
	OutcomeCorrect   = "correct"
	OutcomeIncorrect = "incorrect"
)

// SetSandboxOutcome tags the request with how participant SQL fared.
// SQL errors are answered with 200, so the status code alone cannot tell them apart.
func SetSandboxOutcome(c *gin.Context, outcome string) {
	c.Set(SandboxOutcomeKey, outcome)
}

// MetricsMiddleware records request count and latency per route. Requests
// that ran participant SQL also carry the sandbox outcome.
func MetricsMiddleware(metrics *infrastructure.TelemetryMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		attrs := []attribute.KeyValue{
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", c.Writer.Status()),
		}
		if outcome := c.GetString(SandboxOutcomeKey); outcome != "" {
			attrs = append(attrs, attribute.String("sandbox.outcome", outcome))
		}

		opt := metric.WithAttributes(attrs...)
		metrics.HTTPRequestDuration.Record(c.Request.Context(), time.Since(start).Seconds(), opt)
		metrics.HTTPRequestCount.Add(c.Request.Context(), 1, opt)
	}
}
