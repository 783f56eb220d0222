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

// Package orchestrator 顺序执行编排核心：监督分类、单提案状态机、
// 循环检测与工具调用器。任意时刻至多一个工具调用在途。
package orchestrator

import (
	"fmt"
	"time"
)

// State 执行控制器状态
type State string

const (
	StateReasoning          State = "reasoning"
	StateAwaitingValidation State = "awaiting_validation"
	StateExecuting          State = "executing"
	StateObserving          State = "observing"
	StateCompleted          State = "completed"
	StateAborted            State = "aborted"
)

// AbortReason Run 终止原因（终态事件携带）
type AbortReason string

const (
	// ReasonReasoningUnavailable 推理服务不可达或超时
	ReasonReasoningUnavailable AbortReason = "reasoning_unavailable"
	// ReasonValidationRejected 校验拒绝且纠正预算耗尽
	ReasonValidationRejected AbortReason = "validation_rejected"
	// ReasonLoopDetected 相同 (操作, 指纹) 超过阈值
	ReasonLoopDetected AbortReason = "loop_detected"
	// ReasonToolExecutionFailed 工具执行失败（传输/外部服务）
	ReasonToolExecutionFailed AbortReason = "tool_execution_failed"
	// ReasonToolExecutionTimeout 工具执行超时，结果未知
	ReasonToolExecutionTimeout AbortReason = "tool_execution_timeout"
	// ReasonRunBudgetExceeded 墙钟或提案数预算耗尽
	ReasonRunBudgetExceeded AbortReason = "run_budget_exceeded"
	// ReasonCanceled 用户取消
	ReasonCanceled AbortReason = "canceled"
)

// RunError Run 的终止错误：原因 + 底层错误
type RunError struct {
	Reason AbortReason
	Err    error
}

// Error 实现 error
func (e *RunError) Error() string {
	if e.Err == nil {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

// Unwrap 支持 errors.Is/As
func (e *RunError) Unwrap() error { return e.Err }

// Proposal 推理服务提出的单个工具调用
type Proposal struct {
	ID        string         `json:"id"`
	Operation string         `json:"operation"`
	Arguments map[string]any `json:"arguments"`
	Seq       int            `json:"seq"` // 在本 Run 中的序号，从 1 起
}

// RunResult Run 的终态产出
type RunResult struct {
	SessionID string
	Response  string // 终态为 Completed 时的应答文本
	State     State  // Completed 或 Aborted
	Proposals int    // 消耗的提案数
	Started   time.Time
	Finished  time.Time

	// SideEffect 取消或超时路径上已生效的写入说明；空表示无
	SideEffect string
}
