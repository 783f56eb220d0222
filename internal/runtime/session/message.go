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
	"time"

	"github.com/cloudwego/eino/schema"
)

// Message 对话消息（与 schema.Message 语义对齐，带时间戳）
type Message struct {
	Role      string    `json:"role"` // system, user, assistant, tool
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ToSchema 转为 eino 消息
func (m *Message) ToSchema() *schema.Message {
	return &schema.Message{Role: schema.RoleType(m.Role), Content: m.Content}
}

// MessagesToSchema 将 []*Message 转为推理输入
func MessagesToSchema(list []*Message) []*schema.Message {
	if len(list) == 0 {
		return nil
	}
	out := make([]*schema.Message, len(list))
	for i, m := range list {
		out[i] = m.ToSchema()
	}
	return out
}
