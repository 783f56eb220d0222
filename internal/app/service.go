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

package app

import (
	"context"
	"encoding/json"
	"strings"

	"ledger-agent/internal/capability"
	"ledger-agent/internal/document"
	"ledger-agent/internal/orchestrator"
	"ledger-agent/internal/runtime/events"
	"ledger-agent/internal/runtime/session"
	pkgerrors "ledger-agent/pkg/errors"
	"ledger-agent/pkg/log"
)

// ChatService 消息提交入口：分类 -> 绑定角色 -> 启动 Run。
// Run 在后台执行，进度经事件总线推送；同一会话同时至多一个 Run。
type ChatService struct {
	sessions   *session.Manager
	supervisor *orchestrator.Supervisor
	controller *orchestrator.Controller
	pipeline   *document.Pipeline
	bus        *events.Bus
	logger     *log.Logger
}

// NewChatService 创建消息服务
func NewChatService(sessions *session.Manager, sup *orchestrator.Supervisor, ctrl *orchestrator.Controller,
	pipe *document.Pipeline, bus *events.Bus, logger *log.Logger) *ChatService {
	if logger == nil {
		logger, _ = log.NewLogger(nil)
	}
	return &ChatService{
		sessions:   sessions,
		supervisor: sup,
		controller: ctrl,
		pipeline:   pipe,
		bus:        bus,
		logger:     logger.Component("chat"),
	}
}

// Sessions 会话管理器
func (s *ChatService) Sessions() *session.Manager { return s.sessions }

// Documents 文档记录存储
func (s *ChatService) Documents() *document.Store { return s.pipeline.Store() }

// Submission 一次已受理、尚未启动的提交。调用方订阅好事件流后
// 必须调用 Start，否则会话闩锁不会释放。
type Submission struct {
	Session *session.Session

	role capability.RoleID
	recs []*document.Record
}

// Submit 受理一条用户消息（可带文档附件）：同步占用 Run 闩锁、
// 分类并写入历史，但不启动 Run。并发提交中后到者在此直接拿到
// ErrRunActive，历史不被污染。分类失败时闩锁释放、消息不写入历史、
// 会话不绑定角色，调用方可原样重试。
func (s *ChatService) Submit(ctx context.Context, sessionID, text string, atts []document.Attachment) (*Submission, error) {
	var sess *session.Session
	var err error
	if sessionID == "" {
		sess, err = s.sessions.Create(ctx)
	} else {
		sess, err = s.sessions.GetOrCreate(ctx, sessionID)
	}
	if err != nil {
		return nil, err
	}

	// 闩锁是并发提交的唯一裁决：取消函数由控制器启动时补挂
	if err := sess.TryBeginRun(nil); err != nil {
		return nil, err
	}

	recs, block := s.pipeline.Ingest(ctx, sess.ID, atts)
	fullMessage := text + block

	role, err := s.supervisor.Classify(ctx, sess, fullMessage)
	if err != nil {
		sess.EndRun()
		return nil, err
	}
	sess.BindRole(role)
	sess.AddMessage("user", fullMessage)
	for _, rec := range recs {
		sess.AttachDocument(rec.ID)
	}

	return &Submission{Session: sess, role: role, recs: recs}, nil
}

// Start 启动已受理提交的后台 Run。订阅必须发生在 Start 之前，
// 事件流才不会漏掉开头的 run_started。
func (s *ChatService) Start(sub *Submission) {
	go s.run(sub.Session, sub.role, sub.recs)
}

// Cancel 请求取消会话上的在途 Run；无在途 Run 时返回 false
func (s *ChatService) Cancel(ctx context.Context, sessionID string) (bool, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if sess == nil {
		return false, pkgerrors.ErrNotFound
	}
	return sess.CancelRun(orchestrator.CancelCause()), nil
}

// run 后台执行 Run，结束后结算文档阶段并持久化会话。
// 不继承请求 ctx：Run 生命周期由自身墙钟与用户取消管理。
func (s *ChatService) run(sess *session.Session, role capability.RoleID, recs []*document.Record) {
	before := len(sess.CopyToolCalls())
	result, err := s.controller.Run(context.Background(), sess, role)
	if err != nil {
		s.logger.Warn("Run 结束于终止态", "session", sess.ID, "error", err)
	}
	s.settleDocuments(sess, recs, before, err)
	if result != nil && result.SideEffect != "" {
		s.logger.Warn("Run 带副作用终止", "session", sess.ID, "side_effect", result.SideEffect)
	}
	if saveErr := s.sessions.Save(context.Background(), sess); saveErr != nil {
		s.logger.Error("会话持久化失败", "session", sess.ID, "error", saveErr)
	}
}

// settleDocuments 按 Run 产生的观察结算文档阶段：
// 成功的 create_* 观察按顺序对应到处于 AwaitingEntry 的记录。
func (s *ChatService) settleDocuments(sess *session.Session, recs []*document.Record, before int, runErr error) {
	if len(recs) == 0 {
		return
	}
	calls := sess.CopyToolCalls()
	if before < len(calls) {
		calls = calls[before:]
	} else {
		calls = nil
	}

	next := 0
	awaiting := func() *document.Record {
		for ; next < len(recs); next++ {
			if recs[next].CurrentStage() == document.StageAwaitingEntry {
				return recs[next]
			}
		}
		return nil
	}

	for _, call := range calls {
		if !strings.HasPrefix(call.Tool, "create_") || call.Err != "" {
			continue
		}
		rec := awaiting()
		if rec == nil {
			break
		}
		var out struct {
			Key string `json:"key"`
		}
		_ = json.Unmarshal([]byte(call.Output), &out)
		s.pipeline.MarkValidated(rec.ID)
		s.pipeline.MarkCommitted(rec.ID, out.Key)
	}

	if runErr != nil {
		for _, rec := range recs {
			if rec.CurrentStage() == document.StageAwaitingEntry {
				s.pipeline.MarkFailed(rec.ID, runErr.Error())
			}
		}
	}
}
