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

package events

import (
	"sync"
	"time"
)

const defaultBufferSize = 64

// Bus 按 Session 分发进度事件。每个订阅者有独立缓冲，
// 满了丢最旧，FIFO 顺序保持。
type Bus struct {
	mu       sync.Mutex
	size     int
	seq      int64
	sessions map[string][]*subscriber
}

type subscriber struct {
	sessionID string
	ch        chan Event
}

// NewBus 创建事件总线；bufferSize <= 0 时取默认 64
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Bus{
		size:     bufferSize,
		sessions: make(map[string][]*subscriber),
	}
}

// Publish 发布事件，永不阻塞。无订阅者时事件直接丢弃。
// 发送在锁内进行：drop-oldest 保证不会阻塞，且避免与退订关闭通道竞争。
func (b *Bus) Publish(sessionID string, kind Kind, payload map[string]any) Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	ev := Event{
		Seq:       b.seq,
		SessionID: sessionID,
		Kind:      kind,
		At:        time.Now(),
		Payload:   payload,
	}
	for _, sub := range b.sessions[sessionID] {
		for {
			select {
			case sub.ch <- ev:
			default:
				// 缓冲满：丢最旧后重试
				select {
				case <-sub.ch:
				default:
				}
				continue
			}
			break
		}
	}
	return ev
}

// Subscribe 订阅某 Session 的事件流；返回只读通道与退订函数。
// 退订后通道关闭。
func (b *Bus) Subscribe(sessionID string) (<-chan Event, func()) {
	sub := &subscriber{
		sessionID: sessionID,
		ch:        make(chan Event, b.size),
	}
	b.mu.Lock()
	b.sessions[sessionID] = append(b.sessions[sessionID], sub)
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			subs := b.sessions[sessionID]
			for i, s := range subs {
				if s == sub {
					b.sessions[sessionID] = append(subs[:i], subs[i+1:]...)
					break
				}
			}
			if len(b.sessions[sessionID]) == 0 {
				delete(b.sessions, sessionID)
			}
			close(sub.ch)
			b.mu.Unlock()
		})
	}
	return sub.ch, cancel
}
