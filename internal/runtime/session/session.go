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

package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"ledger-agent/internal/capability"
	"ledger-agent/pkg/errors"
)

// Session 一次对话的唯一状态载体：历史、绑定角色、单 Run 闩锁。
// 闩锁保证同一 Session 任意时刻至多一个编排 Run 在执行。
type Session struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time

	Messages  []*Message       // 对话历史
	ToolCalls []ToolCallRecord // 工具调用记录
	Documents []string         // 本会话关联的文档记录 ID

	role capability.RoleID // 当前 Run 绑定的角色

	runActive bool
	cancelRun context.CancelCauseFunc

	mu sync.RWMutex
}

// New 创建新 Session（id 为空时自动分配）
func New(id string) *Session {
	now := time.Now()
	if id == "" {
		id = "session-" + uuid.New().String()
	}
	return &Session{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TryBeginRun 尝试占用 Run 闩锁。已有 Run 在执行时返回 ErrRunActive，
// 调用方必须把该错误原样返回给提交端。cancel 用于 CancelRun。
func (s *Session) TryBeginRun(cancel context.CancelCauseFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runActive {
		return errors.ErrRunActive
	}
	s.runActive = true
	s.cancelRun = cancel
	s.UpdatedAt = time.Now()
	return nil
}

// AttachCancel 为已占用但尚未登记取消函数的闩锁补登记。
// 提交端先以 TryBeginRun(nil) 同步占锁，控制器建好 Run 上下文后在此挂入
// 取消函数。闩锁未占用或已有取消函数时返回 false。
func (s *Session) AttachCancel(cancel context.CancelCauseFunc) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.runActive || s.cancelRun != nil {
		return false
	}
	s.cancelRun = cancel
	return true
}

// EndRun 释放 Run 闩锁；Run 的任何终态路径都必须走到这里
func (s *Session) EndRun() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runActive = false
	s.cancelRun = nil
	s.role = ""
	s.UpdatedAt = time.Now()
}

// RunActive 是否有 Run 在执行
func (s *Session) RunActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runActive
}

// CancelRun 请求取消当前 Run；无 Run 时为空操作，返回 false
func (s *Session) CancelRun(cause error) bool {
	s.mu.RLock()
	cancel := s.cancelRun
	s.mu.RUnlock()
	if cancel == nil {
		return false
	}
	cancel(cause)
	return true
}

// BindRole 绑定本次 Run 的工作者角色
func (s *Session) BindRole(role capability.RoleID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.role = role
	s.UpdatedAt = time.Now()
}

// BoundRole 当前绑定的角色；未绑定返回空串
func (s *Session) BoundRole() capability.RoleID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

// AddMessage 追加一条对话消息
func (s *Session) AddMessage(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UpdatedAt = time.Now()
	s.Messages = append(s.Messages, &Message{Role: role, Content: content, Timestamp: s.UpdatedAt})
}

// AddObservation 追加一次工具调用观察
func (s *Session) AddObservation(tool string, input map[string]any, output, errStr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UpdatedAt = time.Now()
	s.ToolCalls = append(s.ToolCalls, ToolCallRecord{
		Tool:   tool,
		Input:  input,
		Output: output,
		Err:    errStr,
		At:     s.UpdatedAt,
	})
}

// AttachDocument 记录关联的文档 ID
func (s *Session) AttachDocument(docID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UpdatedAt = time.Now()
	s.Documents = append(s.Documents, docID)
}

// CopyMessages 返回 Messages 的副本（推理输入只读使用）
func (s *Session) CopyMessages() []*Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.Messages) == 0 {
		return nil
	}
	out := make([]*Message, len(s.Messages))
	for i, m := range s.Messages {
		out[i] = &Message{Role: m.Role, Content: m.Content, Timestamp: m.Timestamp}
	}
	return out
}

// CopyToolCalls 返回 ToolCalls 的副本
func (s *Session) CopyToolCalls() []ToolCallRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.ToolCalls) == 0 {
		return nil
	}
	out := make([]ToolCallRecord, len(s.ToolCalls))
	copy(out, s.ToolCalls)
	return out
}

// Snapshot 可序列化的会话快照（持久化存储使用）
type Snapshot struct {
	ID        string            `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Messages  []*Message        `json:"messages,omitempty"`
	ToolCalls []ToolCallRecord  `json:"tool_calls,omitempty"`
	Documents []string          `json:"documents,omitempty"`
	Role      capability.RoleID `json:"role,omitempty"`
}

// Snapshot 导出快照。闩锁状态不持久化：进程重启后不存在在途 Run。
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		Role:      s.role,
	}
	snap.Messages = append(snap.Messages, s.Messages...)
	snap.ToolCalls = append(snap.ToolCalls, s.ToolCalls...)
	snap.Documents = append(snap.Documents, s.Documents...)
	return snap
}

// FromSnapshot 从快照重建 Session
func FromSnapshot(snap Snapshot) *Session {
	return &Session{
		ID:        snap.ID,
		CreatedAt: snap.CreatedAt,
		UpdatedAt: snap.UpdatedAt,
		Messages:  snap.Messages,
		ToolCalls: snap.ToolCalls,
		Documents: snap.Documents,
		role:      snap.Role,
	}
}
