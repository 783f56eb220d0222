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

// Package document 票据文档流水线：提取、字段匹配、入账。
// 入账一律经过编排控制器与校验防火墙，流水线自身不直写账本。
package document

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Stage 文档记录所处阶段
type Stage string

const (
	StageExtracting    Stage = "extracting"
	StageFieldsMatched Stage = "fields_matched"
	StageAwaitingEntry Stage = "awaiting_entry"
	StageValidated     Stage = "validated"
	StageCommitted     Stage = "committed"
	StageFailed        Stage = "failed"
)

// validTransitions 阶段迁移表；Failed 可自任意非终态进入
var validTransitions = map[Stage][]Stage{
	StageExtracting:    {StageFieldsMatched, StageFailed},
	StageFieldsMatched: {StageAwaitingEntry, StageFailed},
	StageAwaitingEntry: {StageValidated, StageFailed},
	StageValidated:     {StageCommitted, StageFailed},
}

// Record 单个文档的处理记录
type Record struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Filename  string    `json:"filename,omitempty"`
	Kind      Kind      `json:"kind"`
	Stage     Stage     `json:"stage"`
	Text      string    `json:"text,omitempty"`       // 提取出的全文
	Fields    Fields    `json:"fields"`               // 启发式匹配结果
	LedgerKey string    `json:"ledger_key,omitempty"` // 入账成功后的分录 key
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	mu sync.Mutex
}

// NewRecord 创建处于 Extracting 阶段的记录
func NewRecord(sessionID, filename string) *Record {
	now := time.Now()
	return &Record{
		ID:        "doc-" + uuid.New().String(),
		SessionID: sessionID,
		Filename:  filename,
		Kind:      KindUnknown,
		Stage:     StageExtracting,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Advance 迁移到下一阶段；非法迁移报错。终态不可再迁移。
func (r *Record) Advance(next Stage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Stage == StageCommitted || r.Stage == StageFailed {
		return fmt.Errorf("document %s: stage %s is terminal", r.ID, r.Stage)
	}
	if next == StageFailed {
		r.Stage = StageFailed
		r.UpdatedAt = time.Now()
		return nil
	}
	for _, allowed := range validTransitions[r.Stage] {
		if allowed == next {
			r.Stage = next
			r.UpdatedAt = time.Now()
			return nil
		}
	}
	return fmt.Errorf("document %s: illegal transition %s -> %s", r.ID, r.Stage, next)
}

// Fail 置为 Failed 并记录原因
func (r *Record) Fail(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Stage == StageCommitted {
		return
	}
	r.Stage = StageFailed
	r.Error = reason
	r.UpdatedAt = time.Now()
}

// CurrentStage 并发安全读取阶段
func (r *Record) CurrentStage() Stage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Stage
}

// Store 文档记录存储（内存实现）
type Store struct {
	mu   sync.RWMutex
	recs map[string]*Record
}

// NewStore 创建文档记录存储
func NewStore() *Store {
	return &Store{recs: make(map[string]*Record)}
}

// Put 保存记录
func (s *Store) Put(r *Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[r.ID] = r
}

// Get 按 ID 取记录
func (s *Store) Get(id string) (*Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.recs[id]
	return r, ok
}

// BySession 列出某会话的全部记录
func (s *Store) BySession(sessionID string) []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Record
	for _, r := range s.recs {
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	return out
}
