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

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"ledger-agent/pkg/log"
	"ledger-agent/pkg/secrets"
)

// Config 应用配置结构体
type Config struct {
	API          APIConfig          `mapstructure:"api"`
	Company      CompanyConfig      `mapstructure:"company"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Ledger       LedgerConfig       `mapstructure:"ledger"`
	Model        ModelConfig        `mapstructure:"model"`
	SessionStore SessionStoreConfig `mapstructure:"session_store"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Secrets      secrets.Config     `mapstructure:"secrets"`
	Log          log.Config         `mapstructure:"log"`
	Monitoring   MonitoringConfig   `mapstructure:"monitoring"`
	RateLimits   RateLimitsConfig   `mapstructure:"rate_limits"`
}

// APIConfig API 服务配置
type APIConfig struct {
	Port       int              `mapstructure:"port"`
	Host       string           `mapstructure:"host"`
	Middleware MiddlewareConfig `mapstructure:"middleware"`
}

// MiddlewareConfig API 中间件配置
type MiddlewareConfig struct {
	Auth          bool   `mapstructure:"auth"`
	JWTKey        string `mapstructure:"jwt_key"`
	JWTTimeout    string `mapstructure:"jwt_timeout"`
	JWTMaxRefresh string `mapstructure:"jwt_max_refresh"`
}

// CompanyConfig 记账主体信息，注入 get_current_context 与监督分类提示词
type CompanyConfig struct {
	Name         string `mapstructure:"name"`
	Timezone     string `mapstructure:"timezone"`
	YearEndDay   int    `mapstructure:"year_end_day"`
	YearEndMonth int    `mapstructure:"year_end_month"`
}

// OrchestratorConfig 编排核心配置：单 Run 步数/时长上限、校验重试预算、循环阈值
type OrchestratorConfig struct {
	MaxProposals         int    `mapstructure:"max_proposals"`          // 单 Run 工具提案上限，<=0 默认 16
	MaxValidationRetries int    `mapstructure:"max_validation_retries"` // 校验失败回喂重试预算，<=0 默认 3
	LoopThreshold        int    `mapstructure:"loop_threshold"`         // 相同 (op, fingerprint) 重复阈值，<=0 默认 2
	RunTimeout           string `mapstructure:"run_timeout"`            // 单 Run 墙钟上限，如 "2m"
	CallTimeout          string `mapstructure:"call_timeout"`           // 单次工具调用超时，如 "30s"
	ReasoningTimeout     string `mapstructure:"reasoning_timeout"`      // 单次推理调用超时，如 "60s"
	EventBuffer          int    `mapstructure:"event_buffer"`           // 每 Session 事件环缓冲大小，<=0 默认 64
}

// LedgerConfig 外部账本服务（Manager.io 风格 REST API）配置
type LedgerConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	APIKey       string `mapstructure:"api_key"`        // 明文或 ${ENV}；也可用 api_key_secret
	APIKeySecret string `mapstructure:"api_key_secret"` // secrets.Store 中的键名，优先于 api_key
	Timeout      string `mapstructure:"timeout"`        // 如 "20s"
}

// ModelConfig 模型配置（推理 + 视觉 OCR）
type ModelConfig struct {
	LLM    LLMConfig    `mapstructure:"llm"`
	Vision VisionConfig `mapstructure:"vision"`
}

// LLMConfig 推理服务配置（OpenAI 兼容端点）
type LLMConfig struct {
	Provider string `mapstructure:"provider"` // openai | qwen | lmstudio | ollama
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
}

// VisionConfig 视觉 OCR 模型配置
type VisionConfig struct {
	Model   string `mapstructure:"model"`
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Timeout string `mapstructure:"timeout"`
}

// SessionStoreConfig Session 存储配置
type SessionStoreConfig struct {
	Type string `mapstructure:"type"` // memory | postgres
	DSN  string `mapstructure:"dsn"`  // Postgres 连接串，type=postgres 时必填
}

// CacheConfig 账本主数据缓存配置（redis 可选）
type CacheConfig struct {
	Type     string `mapstructure:"type"` // none | redis
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTL      string `mapstructure:"ttl"` // 如 "5m"
}

// MonitoringConfig 指标与链路追踪配置
type MonitoringConfig struct {
	Metrics bool          `mapstructure:"metrics"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// TracingConfig 链路追踪配置
type TracingConfig struct {
	Enable         bool   `mapstructure:"enable"`
	ServiceName    string `mapstructure:"service_name"`
	ExportEndpoint string `mapstructure:"export_endpoint"`
	Insecure       bool   `mapstructure:"insecure"`
}

// RateLimitsConfig 限流配置（推理服务）
type RateLimitsConfig struct {
	LLM LLMRateLimitConfig `mapstructure:"llm"`
}

// LLMRateLimitConfig 推理服务限流配置
type LLMRateLimitConfig struct {
	TokensPerMinute   int     `mapstructure:"tokens_per_minute"`
	RequestsPerMinute float64 `mapstructure:"requests_per_minute"`
	MaxConcurrent     int     `mapstructure:"max_concurrent"`
}

// LoadConfig 从指定路径加载配置
func LoadConfig(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("无法读取配置文件: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("无法解析配置文件: %w", err)
	}

	replaceEnvVars(&config)
	return &config, nil
}

// LoadAPIConfig 加载 API 配置（configs/api.yaml）
func LoadAPIConfig() (*Config, error) {
	return LoadConfig("configs/api.yaml")
}

// replaceEnvVars 替换配置中 ${ENV} 形式的敏感值
func replaceEnvVars(config *Config) {
	config.Ledger.APIKey = expandEnv(config.Ledger.APIKey)
	config.Model.LLM.APIKey = expandEnv(config.Model.LLM.APIKey)
	config.Model.Vision.APIKey = expandEnv(config.Model.Vision.APIKey)
	config.API.Middleware.JWTKey = expandEnv(config.API.Middleware.JWTKey)
	config.SessionStore.DSN = expandEnv(config.SessionStore.DSN)
	config.Cache.Password = expandEnv(config.Cache.Password)
}

func expandEnv(v string) string {
	if strings.HasPrefix(v, "${") && strings.HasSuffix(v, "}") {
		if val := os.Getenv(strings.TrimSuffix(strings.TrimPrefix(v, "${"), "}")); val != "" {
			return val
		}
	}
	return v
}

// ParseDuration 解析时长字符串，无效或空时返回 defaultVal
func ParseDuration(s string, defaultVal time.Duration) time.Duration {
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}
