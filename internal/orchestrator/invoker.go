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

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ledger-agent/internal/tool"
	"ledger-agent/internal/tool/registry"
	"ledger-agent/pkg/metrics"
)

// InvokeErrKind 调用失败类别
type InvokeErrKind string

const (
	// InvokeUnknownOp 操作未注册
	InvokeUnknownOp InvokeErrKind = "unknown_operation"
	// InvokeFailed 执行失败（传输/外部服务）
	InvokeFailed InvokeErrKind = "execution_failed"
	// InvokeTimeout 超时。结果未知：外部副作用可能已发生。
	InvokeTimeout InvokeErrKind = "execution_timeout"
)

// InvokeError 类型化的调用失败
type InvokeError struct {
	Kind      InvokeErrKind
	Operation string
	Err       error
}

// Error 实现 error
func (e *InvokeError) Error() string {
	return fmt.Sprintf("invoke %s: %s: %v", e.Operation, e.Kind, e.Err)
}

// Unwrap 支持 errors.Is/As
func (e *InvokeError) Unwrap() error { return e.Err }

const defaultCallTimeout = 30 * time.Second

// Invoker 工具调用器：按名执行恰好一个操作，带单次调用超时。
// 串行由控制器保证，这里不做并发控制。
type Invoker struct {
	tools   *registry.Registry
	timeout time.Duration
}

// NewInvoker 创建调用器；timeout <= 0 时取默认 30s
func NewInvoker(tools *registry.Registry, timeout time.Duration) *Invoker {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &Invoker{tools: tools, timeout: timeout}
}

// Invoke 执行一个提案。返回的 InvokeError 区分未知操作、执行失败
// 与超时；业务层失败在 ToolResult.Err 中，不算 error。
func (inv *Invoker) Invoke(ctx context.Context, p Proposal) (tool.ToolResult, error) {
	t, ok := inv.tools.Get(p.Operation)
	if !ok {
		return tool.ToolResult{}, &InvokeError{
			Kind:      InvokeUnknownOp,
			Operation: p.Operation,
			Err:       fmt.Errorf("operation %q not registered", p.Operation),
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, inv.timeout)
	defer cancel()

	start := time.Now()
	res, err := t.Execute(callCtx, p.Arguments)
	metrics.ToolDuration.WithLabelValues(p.Operation).Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && callCtx.Err() != nil && ctx.Err() == nil {
			metrics.ToolTotal.WithLabelValues(p.Operation, "timeout").Inc()
			return tool.ToolResult{}, &InvokeError{Kind: InvokeTimeout, Operation: p.Operation, Err: err}
		}
		metrics.ToolTotal.WithLabelValues(p.Operation, "error").Inc()
		return tool.ToolResult{}, &InvokeError{Kind: InvokeFailed, Operation: p.Operation, Err: err}
	}
	metrics.ToolTotal.WithLabelValues(p.Operation, "ok").Inc()
	return res, nil
}

// Mutating 判断操作是否为写入类；未注册操作返回 false
func (inv *Invoker) Mutating(op string) bool {
	t, ok := inv.tools.Get(op)
	return ok && t.Mutating()
}

// Schema 取操作的参数 Schema
func (inv *Invoker) Schema(op string) (tool.Schema, bool) {
	t, ok := inv.tools.Get(op)
	if !ok {
		return tool.Schema{}, false
	}
	return t.Schema(), true
}
