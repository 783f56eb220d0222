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

package llm

import (
	"context"
	"errors"

	"github.com/cloudwego/eino/schema"
)

// ErrUnavailable 推理服务不可达或持续失败。编排层据此产出
// ReasoningUnavailable 终止原因，监督分类失败时则原样上抛。
var ErrUnavailable = errors.New("llm: reasoning service unavailable")

// Client 推理服务客户端。消息与工具描述直接用 eino schema 类型，
// 上层不再做一次转换。
type Client interface {
	// Chat 纯文本对话（监督分类、直接应答）
	Chat(ctx context.Context, messages []*schema.Message) (*schema.Message, error)
	// ChatWithTools 带工具的对话，返回的消息可能携带 ToolCalls
	ChatWithTools(ctx context.Context, messages []*schema.Message, tools []*schema.ToolInfo) (*schema.Message, error)
	// Model 模型名称
	Model() string
	// Provider 提供商名称
	Provider() string
}

// Config 推理客户端配置
type Config struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// NewClient 创建推理客户端。qwen / lmstudio / ollama 均为
// OpenAI 兼容端点，走同一实现，仅 BaseURL 不同。
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	switch cfg.Provider {
	case "", "openai", "qwen", "lmstudio", "ollama":
		return NewEinoClient(ctx, cfg)
	default:
		return NewEinoClient(ctx, cfg)
	}
}
