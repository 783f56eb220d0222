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

package ledger

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"ledger-agent/pkg/log"
)

const cacheKeyPrefix = "ledger:master:"

// Cache 账本主数据缓存（Redis）。缓存失效不影响正确性：
// 读不到就回源，写入后整体作废。
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCache 创建主数据缓存；ttl <= 0 时默认 5 分钟
func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

// get 读取缓存并反序列化到 out；未命中返回 false
func (c *Cache) get(ctx context.Context, key string, out any) bool {
	data, err := c.rdb.Get(ctx, cacheKeyPrefix+key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false
	}
	return true
}

// set 写入缓存；失败仅记日志，不向上传播
func (c *Cache) set(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKeyPrefix+key, data, c.ttl).Err(); err != nil {
		log.Warn("ledger 缓存写入失败", "key", key, "error", err)
	}
}

// Invalidate 作废所有主数据缓存（账本写入之后调用）
func (c *Cache) Invalidate(ctx context.Context) {
	keys := []string{"accounts", "suppliers", "customers", "employees", "bank_accounts", "tax_codes"}
	for i, k := range keys {
		keys[i] = cacheKeyPrefix + k
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Warn("ledger 缓存作废失败", "error", err)
	}
}

// cached 通用读穿透：命中直接返回，否则执行 load 并回填。
// cache 为 nil 时退化为直接 load。
func cached(ctx context.Context, c *Cache, key string, out any, load func() error) error {
	if c != nil && c.get(ctx, key, out) {
		return nil
	}
	if err := load(); err != nil {
		return err
	}
	if c != nil {
		c.set(ctx, key, out)
	}
	return nil
}
