package ctxutil

import "context"

type traceDataKey struct{}

// TraceData correlates one HTTP request across logs and spans. VisitID is set for routes that
// act on a lesson visit.
type TraceData struct {
	TraceID   string
	RequestID string
	VisitID   string
}

// LogFields returns the ids that are set as logger key/value pairs.
func (td *TraceData) LogFields() []any {
	if td == nil {
		return nil
	}
	var out []any
	for _, kv := range [][2]string{
		{"trace_id", td.TraceID},
		{"request_id", td.RequestID},
		{"visit_id", td.VisitID},
	} {
		if kv[1] != "" {
			out = append(out, kv[0], kv[1])
		}
	}
	return out
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	td, _ := ctx.Value(traceDataKey{}).(*TraceData)
	return td
}
