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

// Package http HTTP API：会话消息提交（SSE 流）、取消、文档与指标查询。
package http

import (
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/config"
	"github.com/hertz-contrib/jwt"

	"ledger-agent/internal/api/http/middleware"
)

// Router HTTP 路由器
type Router struct {
	handler *Handler
	mw      *middleware.Middleware
	jwtAuth *jwt.HertzJWTMiddleware
}

// NewRouter 创建路由器
func NewRouter(handler *Handler, mw *middleware.Middleware) *Router {
	return &Router{handler: handler, mw: mw}
}

// SetJWT 启用 JWT 认证
func (r *Router) SetJWT(auth *jwt.HertzJWTMiddleware) {
	r.jwtAuth = auth
}

// Build 创建 Hertz 服务并注册路由。
// SSE 长连接要求关闭响应体大小上限并启用流式。
func (r *Router) Build(addr string, opts ...config.Option) *server.Hertz {
	opts = append(opts,
		server.WithHostPorts(addr),
		server.WithStreamBody(true),
	)
	h := server.Default(opts...)

	api := h.Group("/api", r.mw.CORS(), r.mw.AccessLog())
	api.GET("/health", r.handler.HealthCheck)

	system := api.Group("/system")
	system.GET("/metrics", r.handler.SystemMetrics)

	protected := api.Group("/")
	if r.jwtAuth != nil {
		api.POST("/login", r.jwtAuth.LoginHandler)
		api.GET("/refresh_token", r.jwtAuth.RefreshHandler)
		protected.Use(r.jwtAuth.MiddlewareFunc())
	}

	sessions := protected.Group("/sessions")
	sessions.POST("", r.handler.CreateSession)
	sessions.GET("/:id", r.handler.GetSession)
	sessions.POST("/:id/messages", r.handler.SubmitMessage)
	sessions.POST("/:id/cancel", r.handler.CancelRun)

	documents := protected.Group("/documents")
	documents.GET("/:id", r.handler.GetDocument)

	return h
}
