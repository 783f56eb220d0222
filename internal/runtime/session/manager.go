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

package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// SessionManager 管理 Session 生命周期
type SessionManager interface {
	Create(ctx context.Context) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	GetOrCreate(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
}

// Manager 基于 SessionStore 的实现。live 缓存保证同一 ID 在进程内
// 始终拿到同一个 *Session：Run 闩锁依赖对象同一性，持久化存储
// 每次 Get 都会重建对象，不能直接当真相源。
type Manager struct {
	store SessionStore
	mu    sync.Mutex
	live  map[string]*Session
}

// NewManager 创建 SessionManager
func NewManager(store SessionStore) *Manager {
	return &Manager{store: store, live: make(map[string]*Session)}
}

// Create 创建新 Session
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	s := New("session-" + uuid.New().String())
	m.mu.Lock()
	m.live[s.ID] = s
	m.mu.Unlock()
	if err := m.store.Put(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Get 按 ID 获取 Session；进程内已有实例时优先返回它
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	if s, ok := m.live[id]; ok {
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	s, err := m.store.Get(ctx, id)
	if err != nil || s == nil {
		return s, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// 二次检查：并发 Get 只保留一个实例
	if exist, ok := m.live[id]; ok {
		return exist, nil
	}
	m.live[id] = s
	return s, nil
}

// GetOrCreate 若 id 为空则 Create，否则 Get；未命中时用该 id 新建
func (m *Manager) GetOrCreate(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return m.Create(ctx)
	}
	s, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s != nil {
		return s, nil
	}

	m.mu.Lock()
	if exist, ok := m.live[id]; ok {
		m.mu.Unlock()
		return exist, nil
	}
	s = New(id)
	m.live[id] = s
	m.mu.Unlock()

	if err := m.store.Put(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Save 持久化 Session
func (m *Manager) Save(ctx context.Context, s *Session) error {
	if s == nil {
		return nil
	}
	return m.store.Put(ctx, s)
}
