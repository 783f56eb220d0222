// Copyright 2026 fanjia1024
// Tests for the validation firewall

package firewall

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger-agent/internal/tool"
)

func claimSchema() tool.Schema {
	return tool.Schema{
		Type: "object",
		Properties: map[string]tool.SchemaProperty{
			"payer_key":   {Type: "string"},
			"account_key": {Type: "string"},
			"date":        {Type: "string"},
			"description": {Type: "string"},
			"amount":      {Type: "number"},
		},
		Required: []string{"payer_key", "account_key", "date", "amount"},
	}
}

func validClaimArgs() map[string]any {
	return map[string]any{
		"payer_key":   "a3f8b2c1-9d4e-4f6a-8b2c-1d9e4f6a8b2c",
		"account_key": "7c2e9f41-6a8b-4d3c-9e1f-2a7b8c4d5e6f",
		"date":        "2026-03-14",
		"description": "taxi to client meeting",
		"amount":      42.5,
	}
}

func TestValidate_AcceptsWellFormedArgs(t *testing.T) {
	res := Validate("create_expense_claim", claimSchema(), validClaimArgs())
	require.True(t, res.OK, "violations: %+v", res.Violations)
	assert.Empty(t, res.Feedback())
}

func TestValidate_MissingRequiredField(t *testing.T) {
	args := validClaimArgs()
	delete(args, "payer_key")
	res := Validate("create_expense_claim", claimSchema(), args)
	require.False(t, res.OK)
	require.Len(t, res.Violations, 1)
	assert.Equal(t, "payer_key", res.Violations[0].Field)
	assert.Equal(t, KindMissing, res.Violations[0].Kind)
}

func TestValidate_AmountMustBeStrictlyPositive(t *testing.T) {
	for _, amount := range []float64{0, -10} {
		args := validClaimArgs()
		args["amount"] = amount
		res := Validate("create_expense_claim", claimSchema(), args)
		require.False(t, res.OK, "amount %v must be rejected", amount)
		assert.Equal(t, KindRange, res.Violations[0].Kind)
	}
}

func TestValidate_DateFormat(t *testing.T) {
	for _, bad := range []string{"14/03/2026", "2026-3-4", "March 14", "tomorrow"} {
		args := validClaimArgs()
		args["date"] = bad
		res := Validate("create_expense_claim", claimSchema(), args)
		require.False(t, res.OK, "date %q must be rejected", bad)
		assert.Equal(t, KindFormat, res.Violations[0].Kind)
	}
}

func TestValidate_RejectsFabricatedKeys(t *testing.T) {
	cases := []struct {
		name string
		key  string
		kind ViolationKind
	}{
		{"angle bracket placeholder", "<account_key>", KindPlaceholder},
		{"xxx placeholder", "xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx", KindPlaceholder},
		{"your- placeholder", "your-account-key", KindPlaceholder},
		{"uuid-here", "put-the-uuid-here", KindPlaceholder},
		{"not a uuid", "office-supplies", KindFormat},
		{"nil uuid", "00000000-0000-0000-0000-000000000000", KindPlaceholder},
		{"documentation example", "123e4567-e89b-12d3-a456-426614174000", KindPlaceholder},
		{"repeated digit", "11111111-1111-1111-1111-111111111111", KindPlaceholder},
		{"sequential", "12345678-1234-1234-1234-123456789012", KindPlaceholder},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			args := validClaimArgs()
			args["account_key"] = tc.key
			res := Validate("create_expense_claim", claimSchema(), args)
			require.False(t, res.OK, "key %q must be rejected", tc.key)
			assert.Equal(t, "account_key", res.Violations[0].Field)
			assert.Equal(t, tc.kind, res.Violations[0].Kind)
		})
	}
}

func TestValidate_KeyFieldNames(t *testing.T) {
	schema := tool.Schema{
		Type: "object",
		Properties: map[string]tool.SchemaProperty{
			"debit_account":  {Type: "string"},
			"credit_account": {Type: "string"},
		},
	}
	res := Validate("create_journal_entry", schema, map[string]any{
		"debit_account":  "office expense",
		"credit_account": "a3f8b2c1-9d4e-4f6a-8b2c-1d9e4f6a8b2c",
	})
	require.False(t, res.OK)
	require.Len(t, res.Violations, 1)
	assert.Equal(t, "debit_account", res.Violations[0].Field)
}

func TestValidate_TypeMismatch(t *testing.T) {
	args := validClaimArgs()
	args["amount"] = "forty-two"
	res := Validate("create_expense_claim", claimSchema(), args)
	require.False(t, res.OK)
	assert.Equal(t, KindType, res.Violations[0].Kind)
}

// 同一输入必须得到同一结论，纠正回喂才可信
func TestValidate_Idempotent(t *testing.T) {
	args := validClaimArgs()
	args["account_key"] = "<key>"
	args["date"] = "not-a-date"
	args["amount"] = -5.0
	first := Validate("create_expense_claim", claimSchema(), args)
	require.False(t, first.OK)
	require.Len(t, first.Violations, 3)
	for i := 0; i < 50; i++ {
		again := Validate("create_expense_claim", claimSchema(), args)
		assert.Equal(t, first, again, "iteration %d", i)
	}
}

// 多条违规的顺序必须稳定（按字段名）
func TestValidate_ViolationOrderDeterministic(t *testing.T) {
	args := validClaimArgs()
	args["date"] = "14/03/2026"
	args["amount"] = -1.0
	for i := 0; i < 50; i++ {
		res := Validate("create_expense_claim", claimSchema(), args)
		require.Len(t, res.Violations, 2, "iteration %d", i)
		assert.Equal(t, "amount", res.Violations[0].Field, "iteration %d", i)
		assert.Equal(t, "date", res.Violations[1].Field, "iteration %d", i)
	}
}

func TestFeedback_ListsEveryViolation(t *testing.T) {
	args := validClaimArgs()
	args["date"] = "not-a-date"
	args["amount"] = -1.0
	res := Validate("create_expense_claim", claimSchema(), args)
	require.False(t, res.OK)
	fb := res.Feedback()
	assert.Contains(t, fb, "date")
	assert.Contains(t, fb, "amount")
	assert.Contains(t, fb, "rejected by validation")
}

func TestValidate_UnknownFieldsIgnored(t *testing.T) {
	args := validClaimArgs()
	args["note_to_self"] = "<placeholder>"
	res := Validate("create_expense_claim", claimSchema(), args)
	assert.True(t, res.OK)
}
