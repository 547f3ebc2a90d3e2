// Package middleware provides the request-scoped middleware chain: structured
// logging, tracing, authentication context and rate limiting.
package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
)

// Logger is the global structured logger instance used throughout the application.
var Logger *slog.Logger

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	UserIDKey    contextKey = "user_id"
	TraceIDKey   contextKey = "trace_id"
)

// Fiber locals keys shared by the middleware chain and handlers.
const (
	LocalRequestID = "requestid"
	LocalUserID    = "userID"
	LocalTraceID   = "traceID"
	LocalSpanID    = "spanID"
)

const redacted = "[REDACTED]"

// maxLoggedBody caps the request body copied into a log record.
const maxLoggedBody = 4096

// ctxHandler is a slog.Handler that adds context values to the log record.
type ctxHandler struct {
	slog.Handler
}

// Handle adds context values to the record before passing it to the underlying handler.
func (h *ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	if rid, ok := ctx.Value(RequestIDKey).(string); ok {
		r.AddAttrs(slog.String("request_id", rid))
	}
	if uid, ok := ctx.Value(UserIDKey).(string); ok {
		r.AddAttrs(slog.String("user_id", uid))
	}
	if tid, ok := ctx.Value(TraceIDKey).(string); ok {
		r.AddAttrs(slog.String("trace_id", tid))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ctxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ctxHandler{h.Handler.WithAttrs(attrs)}
}

func (h *ctxHandler) WithGroup(name string) slog.Handler {
	return &ctxHandler{h.Handler.WithGroup(name)}
}

func init() {
	var handler slog.Handler
	level := slog.LevelInfo

	switch os.Getenv("APP_ENV") {
	case "production", "prod":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	case "test":
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	Logger = slog.New(&ctxHandler{handler})
}

// NewContextLogger wraps handler so records pick up request, user and trace ids.
func NewContextLogger(handler slog.Handler) *slog.Logger {
	return slog.New(&ctxHandler{handler})
}

// ContextMiddleware copies the request id and trace id from Fiber locals into the request context.
func ContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		if rid, ok := c.Locals(LocalRequestID).(string); ok {
			ctx = context.WithValue(ctx, RequestIDKey, rid)
		}
		if tid, ok := c.Locals(LocalTraceID).(string); ok {
			ctx = context.WithValue(ctx, TraceIDKey, tid)
		}

		c.SetUserContext(ctx)
		return c.Next()
	}
}

// StructuredLogger returns a Fiber middleware that logs every request with
// method, path, query and body. Password fields are redacted.
func StructuredLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		// Copy before c.Next(): fasthttp reuses the buffers.
		method := c.Method()
		path := c.Path()
		query := string(c.Request().URI().QueryString())
		body := redactBody(c.Body())

		err := c.Next()
		// Resolve the error now so the logged status is the one sent.
		if err != nil {
			if handlerErr := c.App().Config().ErrorHandler(c, err); handlerErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		fields := []any{
			slog.Int("status", c.Response().StatusCode()),
			slog.String("method", method),
			slog.String("path", path),
			slog.String("ip", c.IP()),
			slog.Duration("latency", time.Since(start)),
		}
		if query != "" {
			fields = append(fields, slog.String("query", query))
		}
		if body != "" {
			fields = append(fields, slog.String("body", body))
		}

		if err != nil {
			fields = append(fields, slog.String("error", err.Error()))
			Logger.WarnContext(c.UserContext(), "request failed", fields...)
		} else {
			Logger.InfoContext(c.UserContext(), "request processed", fields...)
		}

		return nil
	}
}

// redactBody renders a request body for logging with password values masked
// at any depth. Bodies that are not JSON are logged only by size.
func redactBody(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "<non-json body, " + strconv.Itoa(len(raw)) + " bytes>"
	}
	out, err := json.Marshal(redactValue(payload))
	if err != nil {
		return ""
	}
	return truncate(out, maxLoggedBody)
}

func redactValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, inner := range t {
			if strings.Contains(strings.ToLower(k), "password") {
				t[k] = redacted
				continue
			}
			t[k] = redactValue(inner)
		}
	case []any:
		for i := range t {
			t[i] = redactValue(t[i])
		}
	}
	return v
}

// truncate cuts b to at most limit bytes without splitting a UTF-8 sequence.
func truncate(b []byte, limit int) string {
	if len(b) <= limit {
		return string(b)
	}
	n := limit
	for n > 0 && !utf8.RuneStart(b[n]) {
		n--
	}
	return string(b[:n]) + "..."
}
