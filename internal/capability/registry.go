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

package capability

import (
	"fmt"

	"ledger-agent/internal/tool"
	"ledger-agent/internal/tool/registry"
)

// OperationSpec 单个可调用操作的能力描述
type OperationSpec struct {
	Name        string
	Description string
	Schema      tool.Schema
	Mutating    bool
}

// Role 角色能力：前导提示与可用操作集
type Role struct {
	ID         RoleID
	Preamble   string
	Operations []OperationSpec
}

// Registry 角色能力表。进程启动时由工具注册表构建一次，此后只读。
type Registry struct {
	roles map[RoleID]*Role
	byOp  map[string]OperationSpec
}

// Build 由工具注册表构建能力表。roleOperations 引用了未注册的工具名时
// 返回错误，宁可启动失败也不让角色带着残缺能力上线。
func Build(tools *registry.Registry) (*Registry, error) {
	r := &Registry{
		roles: make(map[RoleID]*Role, len(AllRoles)),
		byOp:  make(map[string]OperationSpec),
	}
	for _, id := range AllRoles {
		names, ok := roleOperations[id]
		if !ok {
			return nil, fmt.Errorf("capability: 角色 %s 缺少操作绑定", id)
		}
		role := &Role{ID: id, Preamble: rolePreambles[id]}
		for _, name := range names {
			t, ok := tools.Get(name)
			if !ok {
				return nil, fmt.Errorf("capability: 角色 %s 引用未注册工具 %s", id, name)
			}
			spec := OperationSpec{
				Name:        t.Name(),
				Description: t.Description(),
				Schema:      t.Schema(),
				Mutating:    t.Mutating(),
			}
			role.Operations = append(role.Operations, spec)
			r.byOp[name] = spec
		}
		r.roles[id] = role
	}
	return r, nil
}

// Role 按角色取能力；角色不在闭集内返回 false
func (r *Registry) Role(id RoleID) (*Role, bool) {
	role, ok := r.roles[id]
	return role, ok
}

// Operation 按名称取操作描述（跨角色汇总视图）
func (r *Registry) Operation(name string) (OperationSpec, bool) {
	spec, ok := r.byOp[name]
	return spec, ok
}

// Allowed 判断角色是否可调用指定操作
func (r *Registry) Allowed(id RoleID, op string) bool {
	role, ok := r.roles[id]
	if !ok {
		return false
	}
	for _, spec := range role.Operations {
		if spec.Name == op {
			return true
		}
	}
	return false
}
