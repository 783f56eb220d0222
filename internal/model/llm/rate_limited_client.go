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
	"time"

	"github.com/cloudwego/eino/schema"

	"ledger-agent/pkg/metrics"
)

// RateLimitedClient 包装任意 Client，在真实调用前后执行限流控制，
// 并把响应携带的 usage 记入限流器与指标。
type RateLimitedClient struct {
	inner       Client
	rateLimiter *RateLimiter
}

// NewRateLimitedClient 创建带限流的推理客户端。rateLimiter 为 nil 时退化为直接调用。
func NewRateLimitedClient(inner Client, rateLimiter *RateLimiter) *RateLimitedClient {
	return &RateLimitedClient{inner: inner, rateLimiter: rateLimiter}
}

// Chat 实现 Client.Chat
func (c *RateLimitedClient) Chat(ctx context.Context, messages []*schema.Message) (*schema.Message, error) {
	return c.call(ctx, messages, nil)
}

// ChatWithTools 实现 Client.ChatWithTools
func (c *RateLimitedClient) ChatWithTools(ctx context.Context, messages []*schema.Message, tools []*schema.ToolInfo) (*schema.Message, error) {
	return c.call(ctx, messages, tools)
}

func (c *RateLimitedClient) call(ctx context.Context, messages []*schema.Message, tools []*schema.ToolInfo) (*schema.Message, error) {
	if c.rateLimiter != nil {
		estimated := estimateTokens(messages)
		start := time.Now()
		if err := c.rateLimiter.Wait(ctx, estimated); err != nil {
			return nil, err
		}
		if waited := time.Since(start); waited > 100*time.Millisecond {
			metrics.RateLimitWaitSeconds.WithLabelValues("llm").Observe(waited.Seconds())
		}
		defer c.rateLimiter.Release()
	}

	out, err := c.inner.ChatWithTools(ctx, messages, tools)
	if err != nil {
		return nil, err
	}
	c.recordUsage(out)
	return out, nil
}

// recordUsage 从响应 meta 中取真实 token 用量
func (c *RateLimitedClient) recordUsage(msg *schema.Message) {
	if msg == nil || msg.ResponseMeta == nil || msg.ResponseMeta.Usage == nil {
		return
	}
	u := msg.ResponseMeta.Usage
	metrics.LLMTokensTotal.WithLabelValues("input").Add(float64(u.PromptTokens))
	metrics.LLMTokensTotal.WithLabelValues("output").Add(float64(u.CompletionTokens))
	if c.rateLimiter != nil {
		c.rateLimiter.RecordTokenUsage(u.TotalTokens)
	}
}

// Model 返回底层 Client 的模型名称
func (c *RateLimitedClient) Model() string { return c.inner.Model() }

// Provider 返回底层 Client 的提供商名称
func (c *RateLimitedClient) Provider() string { return c.inner.Provider() }

// estimateTokens 粗略估算请求 token 数（4 字符 ≈ 1 token）
func estimateTokens(msgs []*schema.Message) int {
	total := 0
	for _, m := range msgs {
		total += len(m.Content)
	}
	estimated := total / 4
	if estimated < 1 {
		estimated = 1
	}
	return estimated
}
