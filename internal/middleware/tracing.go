package middleware

import (
	"strings"

	"dailyprompt/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// untracedPrefixes are probe and scrape paths that would drown real traffic.
var untracedPrefixes = []string{"/health", "/metrics"}

// TracingMiddleware opens a server span per request. The span is renamed to
// the matched route template once routing is done, and carries the prompt
// id path parameter and the authenticated user when present.
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		for _, prefix := range untracedPrefixes {
			if strings.HasPrefix(path, prefix) {
				return c.Next()
			}
		}

		carrier := propagation.HeaderCarrier(c.GetReqHeaders())
		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), carrier)

		method := c.Method()
		ctx, span := observability.Tracer.Start(ctx, method+" "+path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", method),
				attribute.String("http.target", c.OriginalURL()),
				attribute.String("http.client_ip", c.IP()),
			),
		)
		defer span.End()

		sc := span.SpanContext()
		c.Locals(LocalTraceID, sc.TraceID().String())
		c.Locals(LocalSpanID, sc.SpanID().String())
		if rid, ok := c.Locals(LocalRequestID).(string); ok {
			span.SetAttributes(attribute.String("request.id", rid))
		}
		c.Set("X-Trace-ID", sc.TraceID().String())
		c.SetUserContext(ctx)

		err := c.Next()

		if route := c.Route(); route != nil && route.Path != "" && route.Path != "/" {
			span.SetName(method + " " + route.Path)
			span.SetAttributes(attribute.String("http.route", route.Path))
		}
		if id := c.Params("id"); id != "" {
			span.SetAttributes(attribute.String("dailyprompt.prompt_id", id))
		}
		if uid, ok := UserIDFromLocals(c); ok {
			span.SetAttributes(attribute.String("enduser.id", uid.String()))
		}

		status := c.Response().StatusCode()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if err != nil {
			span.RecordError(err)
		}
		if status >= fiber.StatusInternalServerError {
			span.SetStatus(codes.Error, "server error")
		}

		return err
	}
}
