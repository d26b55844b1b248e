package solve

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/simplex/logging"
	"github.com/wyfcoding/simplex/lp"
	"github.com/wyfcoding/simplex/response"
	"github.com/wyfcoding/simplex/server"
	"github.com/wyfcoding/simplex/xerrors"
)

// 流式消息类型。
const (
	MessageSnapshot = "snapshot"
	MessageResult   = "result"
	MessageError    = "error"
)

// StreamMessage 是 WebSocket 上传输的单条消息。
type StreamMessage struct {
	Type     string       `json:"type"`
	Snapshot *lp.Snapshot `json:"snapshot,omitempty"`
	Result   *Result      `json:"result,omitempty"`
	Error    *StreamError `json:"error,omitempty"`
}

// StreamError 与 HTTP 错误响应体字段一致。
type StreamError struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail string `json:"detail"`
}

// Handler 暴露求解服务的 HTTP 接口。
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler 创建 HTTP 处理器。
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register 在 r 上挂载 /v1/solve 路由组。
func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/v1/solve")
	g.POST("", h.Solve)
	g.POST("/report", h.Report)
	g.GET("/stream", h.Stream)
}

func bindRequest(c *gin.Context) (Request, bool) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, xerrors.Derive(xerrors.ErrInvalidInput, "invalid request body", err).WithDetail("%s", err.Error()))
		return req, false
	}
	return req, true
}

// Solve 处理 POST /v1/solve，返回 JSON 结果。
func (h *Handler) Solve(c *gin.Context) {
	req, ok := bindRequest(c)
	if !ok {
		return
	}

	res, err := h.svc.Solve(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// Report 处理 POST /v1/solve/report，成功时以纯文本返回渲染好的报告。
func (h *Handler) Report(c *gin.Context) {
	req, ok := bindRequest(c)
	if !ok {
		return
	}

	res, err := h.svc.Solve(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Text(c, res.Report)
}

// Stream 处理 GET /v1/solve/stream。客户端发送一条 Request 消息，
// 服务端逐个推送快照，最后推送 result 或 error 消息后关闭连接。
func (h *Handler) Stream(c *gin.Context) {
	conn, err := server.Upgrade(c.Writer, c.Request)
	if err != nil {
		h.logger.WarnContext(c.Request.Context(), "websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	var req Request
	if err := conn.ReadJSON(&req); err != nil {
		h.writeError(ctx, conn, xerrors.Derive(xerrors.ErrInvalidInput, "invalid stream request", err).WithDetail("%s", err.Error()))
		return
	}

	res, err := h.svc.Stream(ctx, req, func(s lp.Snapshot) {
		if werr := conn.WriteJSON(StreamMessage{Type: MessageSnapshot, Snapshot: &s}); werr != nil {
			h.logger.DebugContext(ctx, "stream client gone", "error", werr)
			cancel()
		}
	})
	if err != nil {
		h.writeError(ctx, conn, err)
		return
	}

	// 快照已逐条推送，结果消息中不再重复
	res.Snapshots = nil
	if err := conn.WriteJSON(StreamMessage{Type: MessageResult, Result: res}); err != nil {
		h.logger.DebugContext(ctx, "failed to write stream result", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, conn *server.WSConn, err error) {
	xe := xerrors.Normalize(err)
	msg := StreamMessage{Type: MessageError, Error: &StreamError{Code: xe.Code, Msg: xe.Message, Detail: xe.Detail}}
	if werr := conn.WriteJSON(msg); werr != nil {
		h.logger.DebugContext(ctx, "failed to write stream error", "error", werr)
	}
}
