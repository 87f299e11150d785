package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/rsamf/gamma/internal/platform/ctxutil"
)

const (
	headerTraceID    = "X-Trace-Id"
	headerRequestID  = "X-Request-Id"
	headerDeliveryID = "X-GitHub-Delivery"
)

// AttachTraceContext stores trace, request and GitHub delivery ids on the
// request context and echoes the first two as response headers. A GitHub
// webhook carries no X-Request-Id, so its delivery id doubles as one.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		deliveryID := strings.TrimSpace(c.GetHeader(headerDeliveryID))
		reqID := firstNonEmpty(strings.TrimSpace(c.GetHeader(headerRequestID)), deliveryID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		traceID := traceIDFor(c)

		td := &ctxutil.TraceData{TraceID: traceID, RequestID: reqID, DeliveryID: deliveryID}
		c.Request = c.Request.WithContext(ctxutil.WithTraceData(c.Request.Context(), td))
		c.Set("trace_id", traceID)
		c.Set("request_id", reqID)
		c.Writer.Header().Set(headerTraceID, traceID)
		c.Writer.Header().Set(headerRequestID, reqID)
		c.Next()
	}
}

// traceIDFor prefers an explicit header, then the active otel span.
func traceIDFor(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(headerTraceID)); id != "" {
		return id
	}
	if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return uuid.NewString()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
