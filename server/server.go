// Package server 提供 HTTP 服务器与 WebSocket 连接的封装。
package server

import "context"

// Server 定义了可被 app 统一管理生命周期的服务器。
type Server interface {
	// Start 阻塞运行，直到 ctx 被取消或服务器出错。
	Start(ctx context.Context) error
	// Stop 优雅地停止服务器，等待进行中的请求完成。
	Stop(ctx context.Context) error
}
