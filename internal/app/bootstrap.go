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

// Package app 应用装配：配置 -> 依赖 -> 服务，供 cmd/api 调用。
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ledger-agent/internal/capability"
	"ledger-agent/internal/document"
	"ledger-agent/internal/ledger"
	"ledger-agent/internal/model/llm"
	"ledger-agent/internal/model/vision"
	"ledger-agent/internal/orchestrator"
	"ledger-agent/internal/runtime/events"
	"ledger-agent/internal/runtime/session"
	"ledger-agent/internal/tool/builtin"
	"ledger-agent/internal/tool/registry"
	"ledger-agent/pkg/config"
	"ledger-agent/pkg/log"
	"ledger-agent/pkg/secrets"
)

// Bootstrap 统一初始化：账本客户端、模型、能力表、编排器、会话与文档流水线
type Bootstrap struct {
	Config     *config.Config
	Logger     *log.Logger
	Secrets    secrets.Store
	Ledger     *ledger.Client
	LLM        llm.Client
	Bus        *events.Bus
	Sessions   *session.Manager
	Supervisor *orchestrator.Supervisor
	Controller *orchestrator.Controller
	Pipeline   *document.Pipeline
	Chat       *ChatService

	pgStore *session.PGStore
	rdb     *redis.Client
}

// NewBootstrap 根据配置创建 Bootstrap
func NewBootstrap(cfg *config.Config) (*Bootstrap, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置为空")
	}

	logCfg := &log.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File}
	logger, err := log.NewLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("初始化日志failed: %w", err)
	}
	log.SetDefault(logger)

	secretStore, err := secrets.NewStore(cfg.Secrets)
	if err != nil {
		return nil, fmt.Errorf("初始化密钥存储failed: %w", err)
	}

	b := &Bootstrap{Config: cfg, Logger: logger, Secrets: secretStore}

	// 账本主数据缓存：type=redis 时启用，其余直连
	var cache *ledger.Cache
	if cfg.Cache.Type == "redis" && cfg.Cache.Addr != "" {
		b.rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		cache = ledger.NewCache(b.rdb, config.ParseDuration(cfg.Cache.TTL, 5*time.Minute))
	}

	ledgerKey := cfg.Ledger.APIKey
	if cfg.Ledger.APIKeySecret != "" {
		if v, err := secretStore.Get(context.Background(), cfg.Ledger.APIKeySecret); err == nil && v != "" {
			ledgerKey = v
		} else if err != nil {
			logger.Warn("读取账本 API 密钥失败，回退配置值", "key", cfg.Ledger.APIKeySecret, "error", err)
		}
	}
	b.Ledger, err = ledger.NewClient(ledger.Config{
		BaseURL: cfg.Ledger.BaseURL,
		APIKey:  ledgerKey,
		Timeout: config.ParseDuration(cfg.Ledger.Timeout, 20*time.Second),
	}, cache)
	if err != nil {
		return nil, fmt.Errorf("初始化账本客户端failed: %w", err)
	}

	// 工具与能力表：注册失败即启动失败，不留未知操作
	toolReg := registry.New()
	builtin.RegisterBuiltin(toolReg, b.Ledger, builtin.ContextInfo{
		CompanyName: cfg.Company.Name,
		Timezone:    cfg.Company.Timezone,
		YearEndDay:  cfg.Company.YearEndDay,
		YearEndMon:  cfg.Company.YearEndMonth,
	})
	caps, err := capability.Build(toolReg)
	if err != nil {
		return nil, fmt.Errorf("构建能力表failed: %w", err)
	}

	llmClient, err := llm.NewClient(context.Background(), llm.Config{
		Provider: cfg.Model.LLM.Provider,
		Model:    cfg.Model.LLM.Model,
		APIKey:   cfg.Model.LLM.APIKey,
		BaseURL:  cfg.Model.LLM.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化推理客户端failed: %w", err)
	}
	if rl := cfg.RateLimits.LLM; rl.TokensPerMinute > 0 || rl.RequestsPerMinute > 0 || rl.MaxConcurrent > 0 {
		limiter := llm.NewRateLimiter(llm.LimitConfig{
			TokensPerMinute:   rl.TokensPerMinute,
			RequestsPerMinute: rl.RequestsPerMinute,
			MaxConcurrent:     rl.MaxConcurrent,
		})
		llmClient = llm.NewRateLimitedClient(llmClient, limiter)
	}
	b.LLM = llmClient

	var visionClient vision.Client
	if cfg.Model.Vision.Model != "" {
		visionClient, err = vision.NewOpenAIClient(vision.Config{
			Model:   cfg.Model.Vision.Model,
			APIKey:  cfg.Model.Vision.APIKey,
			BaseURL: cfg.Model.Vision.BaseURL,
			Timeout: config.ParseDuration(cfg.Model.Vision.Timeout, 2*time.Minute),
		})
		if err != nil {
			return nil, fmt.Errorf("初始化视觉客户端failed: %w", err)
		}
	}

	b.Bus = events.NewBus(cfg.Orchestrator.EventBuffer)

	var store session.SessionStore
	if cfg.SessionStore.Type == "postgres" && cfg.SessionStore.DSN != "" {
		pg, err := session.NewPGStore(context.Background(), cfg.SessionStore.DSN)
		if err != nil {
			return nil, fmt.Errorf("初始化会话存储(postgres)failed: %w", err)
		}
		b.pgStore = pg
		store = pg
		logger.Info("会话存储使用 PostgreSQL 后端")
	} else {
		store = session.NewMemoryStore()
	}
	b.Sessions = session.NewManager(store)

	invoker := orchestrator.NewInvoker(toolReg, config.ParseDuration(cfg.Orchestrator.CallTimeout, 30*time.Second))
	b.Controller = orchestrator.NewController(llmClient, caps, invoker, b.Bus, orchestrator.Config{
		MaxProposals:         cfg.Orchestrator.MaxProposals,
		MaxValidationRetries: cfg.Orchestrator.MaxValidationRetries,
		LoopThreshold:        cfg.Orchestrator.LoopThreshold,
		RunTimeout:           config.ParseDuration(cfg.Orchestrator.RunTimeout, 2*time.Minute),
		ReasoningTimeout:     config.ParseDuration(cfg.Orchestrator.ReasoningTimeout, time.Minute),
	}, logger)
	b.Supervisor = orchestrator.NewSupervisor(llmClient, cfg.Company.Name, logger)

	extractor := document.NewExtractor(visionClient)
	b.Pipeline = document.NewPipeline(extractor, document.NewStore(), b.Bus, logger)

	b.Chat = NewChatService(b.Sessions, b.Supervisor, b.Controller, b.Pipeline, b.Bus, logger)
	return b, nil
}

// Close 释放外部连接
func (b *Bootstrap) Close() {
	if b.pgStore != nil {
		b.pgStore.Close()
	}
	if b.rdb != nil {
		_ = b.rdb.Close()
	}
}
