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

// Package events 进度事件流。发布端永不阻塞：消费者跟不上时
// 丢最旧事件，Run 的执行节奏不受订阅方影响。
package events

import (
	"time"
)

// Kind 事件类别
type Kind string

const (
	// KindRunStarted Run 开始（角色已绑定）
	KindRunStarted Kind = "run_started"
	// KindStateChanged 执行控制器状态迁移
	KindStateChanged Kind = "state_changed"
	// KindProposalDiscarded 多提案响应中被丢弃的提案
	KindProposalDiscarded Kind = "proposal_discarded"
	// KindValidationRejected 校验防火墙拒绝
	KindValidationRejected Kind = "validation_rejected"
	// KindCorrectionIssued 纠正提示已回喂推理服务
	KindCorrectionIssued Kind = "correction_issued"
	// KindToolStarted 工具调用开始
	KindToolStarted Kind = "tool_started"
	// KindToolCompleted 工具调用结束（含业务失败）
	KindToolCompleted Kind = "tool_completed"
	// KindDocumentStage 文档流水线阶段迁移
	KindDocumentStage Kind = "document_stage"
	// KindResponseReady 最终应答就绪
	KindResponseReady Kind = "response_ready"
	// KindRunTerminated Run 终止（Completed 或 Aborted），永远是最后一条
	KindRunTerminated Kind = "run_terminated"
)

// Event 单条进度事件
type Event struct {
	Seq       int64          `json:"seq"`
	SessionID string         `json:"session_id"`
	Kind      Kind           `json:"kind"`
	At        time.Time      `json:"at"`
	Payload   map[string]any `json:"payload,omitempty"`
}
