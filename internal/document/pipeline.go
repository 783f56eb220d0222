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

package document

import (
	"context"
	"fmt"
	"strings"

	"ledger-agent/internal/runtime/events"
	"ledger-agent/pkg/log"
	"ledger-agent/pkg/metrics"
)

// Attachment 一次消息附带的文档
type Attachment struct {
	Filename string
	MIME     string
	Data     []byte
}

// Pipeline 文档流水线：提取与字段匹配在提交路径同步完成，
// 入账由 entry 角色经编排控制器执行，流水线只跟踪阶段。
type Pipeline struct {
	extractor *Extractor
	store     *Store
	bus       *events.Bus
	logger    *log.Logger
}

// NewPipeline 创建文档流水线
func NewPipeline(ex *Extractor, store *Store, bus *events.Bus, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger, _ = log.NewLogger(nil)
	}
	return &Pipeline{extractor: ex, store: store, bus: bus, logger: logger.Component("document")}
}

// Store 暴露记录存储（HTTP 查询接口使用）
func (p *Pipeline) Store() *Store { return p.store }

// Ingest 处理全部附件：提取文本、分类、启发式字段匹配。
// 返回记录与拼入用户消息的 OCR 文本块。单个附件失败不影响其余，
// 对应记录进入 Failed。
func (p *Pipeline) Ingest(ctx context.Context, sessionID string, atts []Attachment) ([]*Record, string) {
	var recs []*Record
	var block strings.Builder

	for i, att := range atts {
		rec := NewRecord(sessionID, att.Filename)
		p.store.Put(rec)
		p.stage(rec, StageExtracting)

		text, err := p.extractor.Extract(ctx, att.Data, att.MIME)
		if err != nil {
			p.logger.Warn("文档提取失败", "document", rec.ID, "file", att.Filename, "error", err)
			rec.Fail(err.Error())
			p.stage(rec, StageFailed)
			recs = append(recs, rec)
			continue
		}

		rec.Text = text
		rec.Kind = Classify(text)
		rec.Fields = ExtractFields(text)
		if err := rec.Advance(StageFieldsMatched); err == nil {
			p.stage(rec, StageFieldsMatched)
		}
		if err := rec.Advance(StageAwaitingEntry); err == nil {
			p.stage(rec, StageAwaitingEntry)
		}
		recs = append(recs, rec)

		fmt.Fprintf(&block, "\n\n[Document %d OCR Text]\nFile: %s\nType: %s\n%s", i+1, att.Filename, rec.Kind, text)
	}

	return recs, block.String()
}

// MarkValidated 分录通过校验防火墙后调用
func (p *Pipeline) MarkValidated(recID string) {
	if rec, ok := p.store.Get(recID); ok {
		if err := rec.Advance(StageValidated); err == nil {
			p.stage(rec, StageValidated)
		}
	}
}

// MarkCommitted 分录写入账本成功后调用，保存账本 key
func (p *Pipeline) MarkCommitted(recID, ledgerKey string) {
	rec, ok := p.store.Get(recID)
	if !ok {
		return
	}
	if rec.CurrentStage() == StageAwaitingEntry {
		// 校验与写入同一提交周期完成时补推一步
		p.MarkValidated(recID)
	}
	if err := rec.Advance(StageCommitted); err == nil {
		rec.LedgerKey = ledgerKey
		p.stage(rec, StageCommitted)
	}
}

// MarkFailed 入账失败后调用
func (p *Pipeline) MarkFailed(recID, reason string) {
	if rec, ok := p.store.Get(recID); ok {
		rec.Fail(reason)
		p.stage(rec, StageFailed)
	}
}

func (p *Pipeline) stage(rec *Record, st Stage) {
	metrics.DocumentStageTotal.WithLabelValues(string(st)).Inc()
	if p.bus != nil {
		p.bus.Publish(rec.SessionID, events.KindDocumentStage, map[string]any{
			"document": rec.ID,
			"stage":    string(st),
		})
	}
}
