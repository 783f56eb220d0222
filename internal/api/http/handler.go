// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	appsvc "ledger-agent/internal/app"
	"ledger-agent/internal/document"
	"ledger-agent/internal/orchestrator"
	"ledger-agent/internal/runtime/events"
	pkgerrors "ledger-agent/pkg/errors"
	"ledger-agent/pkg/metrics"
)

// Handler HTTP 处理器
type Handler struct {
	chat *appsvc.ChatService
	bus  *events.Bus
}

// NewHandler 创建 HTTP 处理器
func NewHandler(chat *appsvc.ChatService, bus *events.Bus) *Handler {
	return &Handler{chat: chat, bus: bus}
}

// HealthCheck 健康检查
// GET /api/health
func (h *Handler) HealthCheck(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]any{
		"status":    "ok",
		"service":   "ledger-agent",
		"timestamp": time.Now().Unix(),
	})
}

// CreateSession 创建空会话
// POST /api/sessions
func (h *Handler) CreateSession(c context.Context, ctx *app.RequestContext) {
	sess, err := h.chat.Sessions().Create(c)
	if err != nil {
		ctx.JSON(consts.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{
		"session_id": sess.ID,
		"created_at": sess.CreatedAt,
	})
}

// GetSession 查询会话历史与工具调用记录
// GET /api/sessions/:id
func (h *Handler) GetSession(c context.Context, ctx *app.RequestContext) {
	id := ctx.Param("id")
	sess, err := h.chat.Sessions().Get(c, id)
	if err != nil {
		ctx.JSON(consts.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if sess == nil {
		ctx.JSON(consts.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{
		"session_id": sess.ID,
		"created_at": sess.CreatedAt,
		"updated_at": sess.UpdatedAt,
		"run_active": sess.RunActive(),
		"messages":   sess.CopyMessages(),
		"tool_calls": sess.CopyToolCalls(),
		"documents":  h.chat.Documents().BySession(sess.ID),
	})
}

// SubmitMessage 提交消息并以 SSE 流式返回进度事件。
// 支持 JSON（纯文本）与 multipart（text 字段 + documents 文件）两种提交。
// 事件流以 run_terminated 结束。
// POST /api/sessions/:id/messages
func (h *Handler) SubmitMessage(c context.Context, ctx *app.RequestContext) {
	sessionID := ctx.Param("id")

	text, atts, err := parseSubmission(ctx)
	if err != nil {
		ctx.JSON(consts.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if text == "" && len(atts) == 0 {
		ctx.JSON(consts.StatusBadRequest, map[string]string{"error": "message text or documents required"})
		return
	}

	sub, err := h.chat.Submit(c, sessionID, text, atts)
	if err != nil {
		var unavailable *orchestrator.ClassificationUnavailable
		switch {
		case errors.Is(err, pkgerrors.ErrRunActive):
			ctx.JSON(consts.StatusConflict, map[string]string{"error": err.Error()})
		case errors.As(err, &unavailable):
			ctx.JSON(consts.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		default:
			ctx.JSON(consts.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return
	}
	sess := sub.Session

	// 先订阅、后启动：Run 的第一条事件之前订阅已就绪，
	// 终态 run_terminated 不会被丢
	eventsCh, unsubscribe := h.bus.Subscribe(sess.ID)
	h.chat.Start(sub)

	ctx.Header("X-Session-ID", sess.ID)
	ctx.SetContentType("text/event-stream; charset=utf-8")
	ctx.Header("Cache-Control", "no-cache")

	pr, pw := io.Pipe()
	go func() {
		defer pw.Close()
		defer unsubscribe()
		w := newSSEWriter(pw)
		if err := w.WriteEvent("session", map[string]any{"session_id": sess.ID}); err != nil {
			return
		}
		for ev := range eventsCh {
			if err := w.WriteEvent(string(ev.Kind), ev); err != nil {
				hlog.CtxWarnf(c, "SSE write failed for session %s: %v", sess.ID, err)
				return
			}
			if ev.Kind == events.KindRunTerminated {
				return
			}
		}
	}()
	ctx.SetBodyStream(pr, -1)
}

// CancelRun 请求取消会话上的在途 Run
// POST /api/sessions/:id/cancel
func (h *Handler) CancelRun(c context.Context, ctx *app.RequestContext) {
	id := ctx.Param("id")
	canceled, err := h.chat.Cancel(c, id)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			ctx.JSON(consts.StatusNotFound, map[string]string{"error": "session not found"})
			return
		}
		ctx.JSON(consts.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{
		"session_id": id,
		"canceled":   canceled,
	})
}

// GetDocument 查询单个文档记录
// GET /api/documents/:id
func (h *Handler) GetDocument(c context.Context, ctx *app.RequestContext) {
	id := ctx.Param("id")
	rec, ok := h.chat.Documents().Get(id)
	if !ok {
		ctx.JSON(consts.StatusNotFound, map[string]string{"error": "document not found"})
		return
	}
	ctx.JSON(consts.StatusOK, rec)
}

// SystemMetrics Prometheus 指标导出
// GET /api/system/metrics
func (h *Handler) SystemMetrics(c context.Context, ctx *app.RequestContext) {
	var buf []byte
	w := &sliceWriter{buf: &buf}
	if err := metrics.WritePrometheus(w); err != nil {
		ctx.JSON(consts.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	ctx.Data(consts.StatusOK, "text/plain; version=0.0.4; charset=utf-8", buf)
}

type sliceWriter struct{ buf *[]byte }

func (w *sliceWriter) Write(p []byte) (int, error) {
	*w.buf = append(*w.buf, p...)
	return len(p), nil
}

// parseSubmission 解析提交体：multipart 带文件，JSON 纯文本
func parseSubmission(ctx *app.RequestContext) (string, []document.Attachment, error) {
	if form, err := ctx.MultipartForm(); err == nil && form != nil {
		text := ""
		if vals := form.Value["text"]; len(vals) > 0 {
			text = vals[0]
		}
		var atts []document.Attachment
		for _, fh := range form.File["documents"] {
			data, mimeType, err := readUpload(fh)
			if err != nil {
				return "", nil, err
			}
			atts = append(atts, document.Attachment{
				Filename: fh.Filename,
				MIME:     mimeType,
				Data:     data,
			})
		}
		return text, atts, nil
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := ctx.BindJSON(&req); err != nil {
		return "", nil, errors.New("request body must be JSON with a text field or multipart form")
	}
	return req.Text, nil, nil
}

func readUpload(fh *multipart.FileHeader) ([]byte, string, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", err
	}
	mimeType := fh.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return data, mimeType, nil
}
