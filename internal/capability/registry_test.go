// Copyright 2026 fanjia1024
// Tests for the role capability registry

package capability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger-agent/internal/tool"
	"ledger-agent/internal/tool/registry"
)

type stubTool struct {
	name     string
	mutating bool
}

func (t *stubTool) Name() string        { return t.name }
func (t *stubTool) Description() string { return "stub " + t.name }
func (t *stubTool) Schema() tool.Schema { return tool.Schema{Type: "object"} }
func (t *stubTool) Mutating() bool      { return t.mutating }
func (t *stubTool) Execute(ctx context.Context, input map[string]any) (tool.ToolResult, error) {
	return tool.ToolResult{Content: "{}"}, nil
}

// fullRegistry 注册 roleOperations 引用的全部工具名
func fullRegistry() *registry.Registry {
	reg := registry.New()
	seen := map[string]bool{}
	for _, names := range roleOperations {
		for _, name := range names {
			if seen[name] {
				continue
			}
			seen[name] = true
			mutating := false
			switch name {
			case "create_expense_claim", "create_purchase_invoice", "create_sales_invoice",
				"create_payment", "create_receipt", "create_journal_entry",
				"amend_entry", "delete_entry":
				mutating = true
			}
			reg.Register(&stubTool{name: name, mutating: mutating})
		}
	}
	return reg
}

func TestBuild_AllRolesPresent(t *testing.T) {
	caps, err := Build(fullRegistry())
	require.NoError(t, err)

	for _, id := range AllRoles {
		role, ok := caps.Role(id)
		require.True(t, ok, "role %s", id)
		assert.Equal(t, id, role.ID)
		assert.Len(t, role.Operations, len(roleOperations[id]))
	}

	// 对话角色无工具但有前导提示
	conv, _ := caps.Role(RoleConversational)
	assert.Empty(t, conv.Operations)
	assert.NotEmpty(t, conv.Preamble)
}

func TestBuild_FailsOnUnregisteredTool(t *testing.T) {
	reg := registry.New()
	reg.Register(&stubTool{name: "get_current_context"})
	// 其余工具缺失，构建必须失败
	_, err := Build(reg)
	require.Error(t, err)
}

func TestRegistry_Allowed(t *testing.T) {
	caps, err := Build(fullRegistry())
	require.NoError(t, err)

	assert.True(t, caps.Allowed(RoleEntry, "create_payment"))
	assert.True(t, caps.Allowed(RoleData, "get_suppliers"))
	// 查询角色不能写账本
	assert.False(t, caps.Allowed(RoleData, "create_payment"))
	assert.False(t, caps.Allowed(RoleConversational, "get_current_context"))
	assert.False(t, caps.Allowed(RoleID("unknown"), "get_current_context"))
}

func TestRegistry_OperationMutatingFlag(t *testing.T) {
	caps, err := Build(fullRegistry())
	require.NoError(t, err)

	spec, ok := caps.Operation("delete_entry")
	require.True(t, ok)
	assert.True(t, spec.Mutating)

	spec, ok = caps.Operation("get_bank_accounts")
	require.True(t, ok)
	assert.False(t, spec.Mutating)

	_, ok = caps.Operation("no_such_op")
	assert.False(t, ok)
}

func TestRoleID_Valid(t *testing.T) {
	for _, id := range AllRoles {
		assert.True(t, id.Valid(), "role %s", id)
	}
	assert.False(t, RoleID("forensics").Valid())
	assert.False(t, RoleID("").Valid())
}
