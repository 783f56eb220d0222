// Copyright 2026 fanjia1024
// Environment variable backed secret store

package secrets

import (
	"context"
	"fmt"
	"os"
)

// envStore 从进程环境变量解析 secret。部署时账本 API Key、
// 推理服务 Key、JWT 签名密钥等以 LEDGER_API_KEY 这类变量名注入，
// key 即变量名，原样查找不做转换。
type envStore struct{}

// NewEnvStore 创建环境变量 secret store（默认 provider）
func NewEnvStore() Store {
	return &envStore{}
}

func (e *envStore) Get(ctx context.Context, key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("environment variable not set: %s", key)
	}
	return value, nil
}

// Set 写回当前进程环境。只影响本进程，重启后丢失。
func (e *envStore) Set(ctx context.Context, key string, value string) error {
	return os.Setenv(key, value)
}

func (e *envStore) Delete(ctx context.Context, key string) error {
	return os.Unsetenv(key)
}
