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
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LimitConfig 推理服务限流配置
type LimitConfig struct {
	TokensPerMinute   int     `yaml:"tokens_per_minute"`   // 每分钟 token 配额
	RequestsPerMinute float64 `yaml:"requests_per_minute"` // 每分钟请求数
	MaxConcurrent     int     `yaml:"max_concurrent"`      // 最大并发请求数
}

// RateLimiter 推理服务限流器：token budget + RPS + 并发三重控制。
// 本服务只面向单一推理端点，不按 provider 分片。
type RateLimiter struct {
	requestLimiter *rate.Limiter
	tokenLimiter   *rate.Limiter
	semaphore      chan struct{}
	config         LimitConfig

	mu               sync.Mutex
	tokensUsedMinute int
	minuteStart      time.Time
}

// NewRateLimiter 创建限流器；零值配置项表示该维度不限流
func NewRateLimiter(config LimitConfig) *RateLimiter {
	l := &RateLimiter{config: config, minuteStart: time.Now()}

	if config.RequestsPerMinute > 0 {
		rps := config.RequestsPerMinute / 60.0
		burst := int(rps * 2) // burst = 2 秒的配额
		if burst < 1 {
			burst = 1
		}
		l.requestLimiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	if config.TokensPerMinute > 0 {
		tps := float64(config.TokensPerMinute) / 60.0
		burst := config.TokensPerMinute / 60 * 2
		if burst < 1 {
			burst = 1
		}
		l.tokenLimiter = rate.NewLimiter(rate.Limit(tps), burst)
	}
	if config.MaxConcurrent > 0 {
		l.semaphore = make(chan struct{}, config.MaxConcurrent)
	}
	return l
}

// Wait 阻塞直到取得执行许可；ctx 取消时返回其错误
func (l *RateLimiter) Wait(ctx context.Context, estimatedTokens int) error {
	if l.requestLimiter != nil {
		if err := l.requestLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("request rate limit wait failed: %w", err)
		}
	}
	if l.tokenLimiter != nil && estimatedTokens > 0 {
		if err := l.tokenLimiter.WaitN(ctx, estimatedTokens); err != nil {
			return fmt.Errorf("token budget wait failed: %w", err)
		}
	}
	if l.semaphore != nil {
		select {
		case l.semaphore <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	l.recordTokens(estimatedTokens)
	return nil
}

// Release 释放并发 slot（推理调用完成后调用）
func (l *RateLimiter) Release() {
	if l.semaphore == nil {
		return
	}
	select {
	case <-l.semaphore:
	default:
	}
}

// RecordTokenUsage 记录实际使用的 tokens
func (l *RateLimiter) RecordTokenUsage(actualTokens int) {
	l.recordTokens(actualTokens)
}

func (l *RateLimiter) recordTokens(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	if now.Sub(l.minuteStart) > time.Minute {
		l.tokensUsedMinute = n
		l.minuteStart = now
	} else {
		l.tokensUsedMinute += n
	}
}

// Stats 返回当前分钟的用量统计
func (l *RateLimiter) Stats() map[string]interface{} {
	l.mu.Lock()
	tokensUsed := l.tokensUsedMinute
	l.mu.Unlock()
	return map[string]interface{}{
		"requests_per_minute": l.config.RequestsPerMinute,
		"tokens_per_minute":   l.config.TokensPerMinute,
		"max_concurrent":      l.config.MaxConcurrent,
		"tokens_used_minute":  tokensUsed,
	}
}
