package tool

import (
	"context"
)

// Schema 表示工具的 JSON Schema（供 LLM function-calling 使用）
type Schema struct {
	Type        string                    `json:"type,omitempty"`
	Description string                    `json:"description,omitempty"`
	Properties  map[string]SchemaProperty `json:"properties,omitempty"`
	Required    []string                  `json:"required,omitempty"`
}

// SchemaProperty 表示 Schema 中单个属性的描述
type SchemaProperty struct {
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

// ToolResult 工具执行结果；Err 为业务层失败（可回喂给推理服务），
// Execute 的 error 返回值保留给传输/外部服务故障
type ToolResult struct {
	Content string `json:"content"`
	Err     string `json:"error,omitempty"`
}

// Tool 编排级工具接口；Mutating 区分只读查询与账本写入，
// 写入类操作必须先通过校验防火墙
type Tool interface {
	Name() string
	Description() string
	Schema() Schema
	Mutating() bool
	Execute(ctx context.Context, input map[string]any) (ToolResult, error)
}
