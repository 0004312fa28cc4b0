package monitor

import (
	"context"
	"time"
)

// AuditEntry 一次写类操作的记录
type AuditEntry struct {
	RequestID string
	Property  string
	Op        string
	Value     string
	Result    string
	Error     string
	At        time.Time
}

// Recorder 审计记录器（PostgreSQL 实现见 storage/gormrepo）
type Recorder interface {
	Record(ctx context.Context, e AuditEntry) error
}

type requestIDKey struct{}

// WithRequestID 在 ctx 中携带请求 ID
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID 取出请求 ID
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
