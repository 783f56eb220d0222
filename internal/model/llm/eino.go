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
	"fmt"
	"os"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// EinoClient 基于 eino ChatModel 的推理客户端（OpenAI 兼容端点）
type EinoClient struct {
	provider string
	model    string
	cm       model.ToolCallingChatModel
}

// NewEinoClient 创建 eino 推理客户端；BaseURL 为空时取 OPENAI_BASE_URL
func NewEinoClient(ctx context.Context, cfg Config) (*EinoClient, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = os.Getenv("OPENAI_BASE_URL")
	}
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		Model:   cfg.Model,
		APIKey:  cfg.APIKey,
		BaseURL: baseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 ChatModel failed: %w", err)
	}
	provider := cfg.Provider
	if provider == "" {
		provider = "openai"
	}
	return &EinoClient{provider: provider, model: cfg.Model, cm: cm}, nil
}

// Chat 纯文本对话
func (c *EinoClient) Chat(ctx context.Context, messages []*schema.Message) (*schema.Message, error) {
	out, err := c.cm.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return out, nil
}

// ChatWithTools 带工具的对话；tools 为空时退化为 Chat
func (c *EinoClient) ChatWithTools(ctx context.Context, messages []*schema.Message, tools []*schema.ToolInfo) (*schema.Message, error) {
	if len(tools) == 0 {
		return c.Chat(ctx, messages)
	}
	cm, err := c.cm.WithTools(tools)
	if err != nil {
		return nil, fmt.Errorf("绑定工具failed: %w", err)
	}
	out, err := cm.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return out, nil
}

// Model 模型名称
func (c *EinoClient) Model() string { return c.model }

// Provider 提供商名称
func (c *EinoClient) Provider() string { return c.provider }
