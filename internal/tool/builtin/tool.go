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

// Package builtin 账本内置工具集。全部工具遵循同一约定：
// 业务失败写进 ToolResult.Err 回喂给推理服务，error 返回值
// 只承载传输与外部服务故障。
package builtin

import (
	"context"
	"encoding/json"

	"ledger-agent/internal/tool"
)

// ledgerTool 内置工具的公共骨架，避免每个工具重复四个样板方法
type ledgerTool struct {
	name     string
	desc     string
	schema   tool.Schema
	mutating bool
	fn       func(ctx context.Context, input map[string]any) (tool.ToolResult, error)
}

// Name 实现 tool.Tool
func (t *ledgerTool) Name() string { return t.name }

// Description 实现 tool.Tool
func (t *ledgerTool) Description() string { return t.desc }

// Schema 实现 tool.Tool
func (t *ledgerTool) Schema() tool.Schema { return t.schema }

// Mutating 实现 tool.Tool
func (t *ledgerTool) Mutating() bool { return t.mutating }

// Execute 实现 tool.Tool
func (t *ledgerTool) Execute(ctx context.Context, input map[string]any) (tool.ToolResult, error) {
	return t.fn(ctx, input)
}

// jsonResult 将任意值编码为 JSON 结果
func jsonResult(v any) tool.ToolResult {
	raw, err := json.Marshal(v)
	if err != nil {
		return tool.ToolResult{Err: err.Error()}
	}
	return tool.ToolResult{Content: string(raw)}
}

// strArg 取字符串参数
func strArg(input map[string]any, name string) string {
	s, _ := input[name].(string)
	return s
}

// numArg 取数值参数（JSON 反序列化后为 float64）
func numArg(input map[string]any, name string) float64 {
	switch n := input[name].(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	}
	return 0
}

// intArg 取整数参数
func intArg(input map[string]any, name string) int {
	return int(numArg(input, name))
}
