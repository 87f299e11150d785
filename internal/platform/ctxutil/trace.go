package ctxutil

import "context"

type traceDataKey struct{}

// TraceData carries per-request ids. DeliveryID is set for GitHub webhooks.
type TraceData struct {
	TraceID    string
	RequestID  string
	DeliveryID string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if ctx == nil {
		return nil
	}
	if td, ok := ctx.Value(traceDataKey{}).(*TraceData); ok {
		return td
	}
	return nil
}

// LogFields returns trace, request and delivery ids as logger key/values.
func LogFields(ctx context.Context) []interface{} {
	td := GetTraceData(ctx)
	if td == nil {
		return nil
	}
	var out []interface{}
	if td.TraceID != "" {
		out = append(out, "trace_id", td.TraceID)
	}
	if td.RequestID != "" {
		out = append(out, "request_id", td.RequestID)
	}
	if td.DeliveryID != "" {
		out = append(out, "delivery_id", td.DeliveryID)
	}
	return out
}
