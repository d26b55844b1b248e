// Package contextx 提供了在 context.Context 中注入与提取请求级信息的工具函数。
// 使用私有类型作为 Key，避免跨包的 Key 冲突。
package contextx

import (
	"context"
)

type contextKey int

const (
	RequestIDKey contextKey = iota // 请求唯一标识 Key。
	IPKey                          // 客户端 IP Key。
	SolveIDKey                     // 求解记录编号 Key。
)

// KeyNames 映射 Key 到日志字段名。
var KeyNames = map[contextKey]string{
	RequestIDKey: "request_id",
	IPKey:        "client_ip",
	SolveIDKey:   "solve_id",
}

// WithRequestID 将请求 ID 注入到 Context 中。
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID 从 Context 中提取请求 ID。
func GetRequestID(ctx context.Context) string {
	if val, ok := ctx.Value(RequestIDKey).(string); ok {
		return val
	}
	return ""
}

// WithIP 将客户端 IP 地址注入到 Context 中。
func WithIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, IPKey, ip)
}

// GetIP 从 Context 中提取客户端 IP，若不存在则返回 "0.0.0.0"。
func GetIP(ctx context.Context) string {
	if val, ok := ctx.Value(IPKey).(string); ok {
		return val
	}
	return "0.0.0.0"
}

// WithSolveID 将求解编号注入到 Context 中。
func WithSolveID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, SolveIDKey, id)
}

// GetSolveID 从 Context 中提取求解编号。
func GetSolveID(ctx context.Context) string {
	if val, ok := ctx.Value(SolveIDKey).(string); ok {
		return val
	}
	return ""
}

// LogAttrs 返回 Context 中已存在的字段，可直接作为 slog 的键值参数。
func LogAttrs(ctx context.Context) []any {
	var attrs []any
	for _, key := range []contextKey{RequestIDKey, IPKey, SolveIDKey} {
		if val, ok := ctx.Value(key).(string); ok && val != "" {
			attrs = append(attrs, KeyNames[key], val)
		}
	}
	return attrs
}
