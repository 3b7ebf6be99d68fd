package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// resourceKeys maps the collection in a route to the span attribute for its :id
var resourceKeys = map[string]string{
	"problems":     "problem.id",
	"competitions": "competition.id",
}

// TracingMiddleware opens a server span per request, continuing any trace
// propagated by the caller
func TracingMiddleware(tracer trace.Tracer) gin.HandlerFunc {
	propagator := otel.GetTextMapPropagator()

	return func(c *gin.Context) {
		ctx := propagator.Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		route := c.FullPath()
		spanName := c.Request.Method + " " + route
		if route == "" {
			spanName = c.Request.Method + " " + c.Request.URL.Path
		}

		// The query string is left out: websocket clients pass their token there.
		ctx, span := tracer.Start(ctx, spanName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPMethod(c.Request.Method),
				semconv.HTTPURL(c.Request.URL.Path),
				semconv.UserAgentOriginal(c.Request.UserAgent()),
				attribute.String("http.client_ip", c.ClientIP()),
			),
		)
		defer span.End()

		if route != "" {
			span.SetAttributes(semconv.HTTPRoute(route))
		}
		if attr, ok := resourceAttribute(route, c.Param("id")); ok {
			span.SetAttributes(attr)
		}
		if requestID := GetRequestID(c); requestID != "" {
			span.SetAttributes(attribute.String("request.id", requestID))
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(semconv.HTTPStatusCode(status))
		if status >= 500 {
			span.SetStatus(codes.Error, "server error")
		}
		if len(c.Errors) > 0 {
			span.SetAttributes(attribute.String("error.message", c.Errors.String()))
		}
		if outcome := c.GetString(SandboxOutcomeKey); outcome != "" {
			span.SetAttributes(attribute.String("sandbox.outcome", outcome))
		}

		// Auth runs inside the route group, so the user is only known now.
		if user, ok := GetUser(c); ok {
			span.SetAttributes(
				attribute.String("user.id", user.ID.String()),
				attribute.Bool("user.admin", user.IsAdmin),
			)
		}
	}
}

// resourceAttribute names the :id parameter after the collection it follows,
// e.g. /api/problems/:id/verify tags problem.id
func resourceAttribute(route, id string) (attribute.KeyValue, bool) {
	if id == "" {
		return attribute.KeyValue{}, false
	}
	segments := strings.Split(strings.Trim(route, "/"), "/")
	for i := 1; i < len(segments); i++ {
		if segments[i] != ":id" {
			continue
		}
		if key, ok := resourceKeys[segments[i-1]]; ok {
			return attribute.String(key, id), true
		}
	}
	return attribute.KeyValue{}, false
}
