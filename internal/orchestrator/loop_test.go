// Copyright 2026 fanjia1024
// Tests for the loop detector

package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopDetector_TerminatesBeyondThreshold(t *testing.T) {
	d := NewLoopDetector(2)
	args := map[string]any{"query": "coffee shop"}

	assert.Equal(t, VerdictContinue, d.Observe("search_supplier", args))
	assert.Equal(t, VerdictContinue, d.Observe("search_supplier", args))
	// 第三次相同提案：严格大于阈值
	assert.Equal(t, VerdictTerminate, d.Observe("search_supplier", args))
}

func TestLoopDetector_DifferentArgsAreDifferentFingerprints(t *testing.T) {
	d := NewLoopDetector(2)
	for i := 0; i < 5; i++ {
		v := d.Observe("search_supplier", map[string]any{"query": "shop", "page": i})
		assert.Equal(t, VerdictContinue, v)
	}
}

func TestLoopDetector_DifferentOpsSameArgs(t *testing.T) {
	d := NewLoopDetector(2)
	args := map[string]any{"query": "acme"}
	d.Observe("search_supplier", args)
	d.Observe("search_supplier", args)
	// 不同操作不共享计数
	assert.Equal(t, VerdictContinue, d.Observe("search_customer", args))
}

func TestFingerprint_KeyOrderInvariant(t *testing.T) {
	a := Fingerprint(map[string]any{"amount": 10.0, "date": "2026-01-02", "payee": "cafe"})
	b := Fingerprint(map[string]any{"payee": "cafe", "date": "2026-01-02", "amount": 10.0})
	assert.Equal(t, a, b)
}

func TestFingerprint_NestedStructures(t *testing.T) {
	a := Fingerprint(map[string]any{
		"lines": []any{map[string]any{"account": "x", "amount": 1.0}},
		"meta":  map[string]any{"b": 2.0, "a": 1.0},
	})
	b := Fingerprint(map[string]any{
		"meta":  map[string]any{"a": 1.0, "b": 2.0},
		"lines": []any{map[string]any{"amount": 1.0, "account": "x"}},
	})
	require.Equal(t, a, b)

	// 数组顺序有语义，不可归一
	c := Fingerprint(map[string]any{"lines": []any{"a", "b"}})
	d := Fingerprint(map[string]any{"lines": []any{"b", "a"}})
	assert.NotEqual(t, c, d)
}

func TestLoopDetector_DefaultThreshold(t *testing.T) {
	d := NewLoopDetector(0)
	args := map[string]any{}
	assert.Equal(t, VerdictContinue, d.Observe("get_bank_accounts", args))
	assert.Equal(t, VerdictContinue, d.Observe("get_bank_accounts", args))
	assert.Equal(t, VerdictTerminate, d.Observe("get_bank_accounts", args))
}
