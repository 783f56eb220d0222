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

package builtin

import (
	"context"
	"errors"
	"fmt"

	"ledger-agent/internal/ledger"
	"ledger-agent/internal/tool"
)

// createResult 统一处理写入结果：服务端拒绝与实体缺失回喂模型，
// 暂时性故障上抛给调用器
func createResult(res ledger.CreateResult, err error, kind string) (tool.ToolResult, error) {
	if err != nil {
		if errors.Is(err, ledger.ErrUnavailable) {
			return tool.ToolResult{}, err
		}
		return tool.ToolResult{Err: err.Error()}, nil
	}
	return jsonResult(map[string]any{
		"success": true,
		"type":    kind,
		"key":     res.Key,
	}), nil
}

// entryTypes 可修改/删除的分录表单路径段
var entryTypes = map[string]string{
	"expense_claim":    "expense-claim-form",
	"purchase_invoice": "purchase-invoice-form",
	"sales_invoice":    "sales-invoice-form",
	"payment":          "payment-form",
	"receipt":          "receipt-form",
	"journal_entry":    "journal-entry-form",
}

// NewCreateExpenseClaimTool 创建 create_expense_claim 工具
func NewCreateExpenseClaimTool(lc *ledger.Client) tool.Tool {
	return &ledgerTool{
		name: "create_expense_claim",
		desc: "Create an expense claim for money an employee or director paid personally. " +
			"Use search_employee for payer_key and search_account for account_key first.",
		schema: tool.Schema{
			Type: "object",
			Properties: map[string]tool.SchemaProperty{
				"payer_key":   {Type: "string", Description: "Employee/director UUID key from search_employee"},
				"date":        {Type: "string", Description: "Claim date YYYY-MM-DD"},
				"description": {Type: "string", Description: "What the expense was for"},
				"account_key": {Type: "string", Description: "Expense account UUID key from search_account"},
				"amount":      {Type: "number", Description: "Amount paid, strictly positive"},
				"payee":       {Type: "string", Description: "Who was paid (shop/vendor name, optional)"},
			},
			Required: []string{"payer_key", "date", "description", "account_key", "amount"},
		},
		mutating: true,
		fn: func(ctx context.Context, input map[string]any) (tool.ToolResult, error) {
			res, err := lc.CreateExpenseClaim(ctx, ledger.ExpenseClaim{
				Date:        strArg(input, "date"),
				PaidBy:      strArg(input, "payer_key"),
				Payee:       strArg(input, "payee"),
				Description: strArg(input, "description"),
				Lines: []ledger.EntryLine{{
					Account:     strArg(input, "account_key"),
					Description: strArg(input, "description"),
					UnitPrice:   numArg(input, "amount"),
				}},
			})
			return createResult(res, err, "expense_claim")
		},
	}
}

// NewCreatePurchaseInvoiceTool 创建 create_purchase_invoice 工具
func NewCreatePurchaseInvoiceTool(lc *ledger.Client) tool.Tool {
	return &ledgerTool{
		name: "create_purchase_invoice",
		desc: "Create a purchase invoice from a supplier. " +
			"Use search_supplier for supplier_key and search_account for account_key first.",
		schema: tool.Schema{
			Type: "object",
			Properties: map[string]tool.SchemaProperty{
				"supplier_key": {Type: "string", Description: "Supplier UUID key from search_supplier"},
				"date":         {Type: "string", Description: "Invoice date YYYY-MM-DD"},
				"reference":    {Type: "string", Description: "Supplier's invoice number (optional)"},
				"description":  {Type: "string", Description: "What was purchased"},
				"account_key":  {Type: "string", Description: "Expense/asset account UUID key from search_account"},
				"amount":       {Type: "number", Description: "Invoice amount, strictly positive"},
			},
			Required: []string{"supplier_key", "date", "description", "account_key", "amount"},
		},
		mutating: true,
		fn: func(ctx context.Context, input map[string]any) (tool.ToolResult, error) {
			res, err := lc.CreatePurchaseInvoice(ctx, ledger.PurchaseInvoice{
				Date:        strArg(input, "date"),
				Supplier:    strArg(input, "supplier_key"),
				Reference:   strArg(input, "reference"),
				Description: strArg(input, "description"),
				Lines: []ledger.EntryLine{{
					Account:     strArg(input, "account_key"),
					Description: strArg(input, "description"),
					UnitPrice:   numArg(input, "amount"),
				}},
			})
			return createResult(res, err, "purchase_invoice")
		},
	}
}

// NewCreateSalesInvoiceTool 创建 create_sales_invoice 工具
func NewCreateSalesInvoiceTool(lc *ledger.Client) tool.Tool {
	return &ledgerTool{
		name: "create_sales_invoice",
		desc: "Create a sales invoice to a customer. " +
			"Use search_customer for customer_key and search_account for account_key first.",
		schema: tool.Schema{
			Type: "object",
			Properties: map[string]tool.SchemaProperty{
				"customer_key": {Type: "string", Description: "Customer UUID key from search_customer"},
				"date":         {Type: "string", Description: "Invoice date YYYY-MM-DD"},
				"reference":    {Type: "string", Description: "Invoice reference (optional)"},
				"description":  {Type: "string", Description: "What was sold"},
				"account_key":  {Type: "string", Description: "Income account UUID key from search_account"},
				"amount":       {Type: "number", Description: "Invoice amount, strictly positive"},
			},
			Required: []string{"customer_key", "date", "description", "account_key", "amount"},
		},
		mutating: true,
		fn: func(ctx context.Context, input map[string]any) (tool.ToolResult, error) {
			res, err := lc.CreateSalesInvoice(ctx, ledger.SalesInvoice{
				Date:        strArg(input, "date"),
				Customer:    strArg(input, "customer_key"),
				Reference:   strArg(input, "reference"),
				Description: strArg(input, "description"),
				Lines: []ledger.EntryLine{{
					Account:     strArg(input, "account_key"),
					Description: strArg(input, "description"),
					UnitPrice:   numArg(input, "amount"),
				}},
			})
			return createResult(res, err, "sales_invoice")
		},
	}
}

// NewCreatePaymentTool 创建 create_payment 工具
func NewCreatePaymentTool(lc *ledger.Client) tool.Tool {
	return &ledgerTool{
		name: "create_payment",
		desc: "Record money paid out of a bank or cash account. " +
			"Use get_bank_accounts for bank_account_key and search_account for account_key first.",
		schema: tool.Schema{
			Type: "object",
			Properties: map[string]tool.SchemaProperty{
				"bank_account_key": {Type: "string", Description: "Bank/cash account UUID key from get_bank_accounts"},
				"date":             {Type: "string", Description: "Payment date YYYY-MM-DD"},
				"payee":            {Type: "string", Description: "Who was paid (optional)"},
				"description":      {Type: "string", Description: "What the payment was for"},
				"account_key":      {Type: "string", Description: "Expense/liability account UUID key from search_account"},
				"amount":           {Type: "number", Description: "Amount paid, strictly positive"},
			},
			Required: []string{"bank_account_key", "date", "description", "account_key", "amount"},
		},
		mutating: true,
		fn: func(ctx context.Context, input map[string]any) (tool.ToolResult, error) {
			res, err := lc.CreatePayment(ctx, ledger.Payment{
				Date:        strArg(input, "date"),
				PaidFrom:    strArg(input, "bank_account_key"),
				Payee:       strArg(input, "payee"),
				Description: strArg(input, "description"),
				Lines: []ledger.EntryLine{{
					Account:     strArg(input, "account_key"),
					Description: strArg(input, "description"),
					UnitPrice:   numArg(input, "amount"),
				}},
			})
			return createResult(res, err, "payment")
		},
	}
}

// NewCreateReceiptTool 创建 create_receipt 工具
func NewCreateReceiptTool(lc *ledger.Client) tool.Tool {
	return &ledgerTool{
		name: "create_receipt",
		desc: "Record money received into a bank or cash account. " +
			"Use get_bank_accounts for bank_account_key and search_account for account_key first.",
		schema: tool.Schema{
			Type: "object",
			Properties: map[string]tool.SchemaProperty{
				"bank_account_key": {Type: "string", Description: "Bank/cash account UUID key from get_bank_accounts"},
				"date":             {Type: "string", Description: "Receipt date YYYY-MM-DD"},
				"payer":            {Type: "string", Description: "Who paid us (optional)"},
				"description":      {Type: "string", Description: "What the money was for"},
				"account_key":      {Type: "string", Description: "Income account UUID key from search_account"},
				"amount":           {Type: "number", Description: "Amount received, strictly positive"},
			},
			Required: []string{"bank_account_key", "date", "description", "account_key", "amount"},
		},
		mutating: true,
		fn: func(ctx context.Context, input map[string]any) (tool.ToolResult, error) {
			res, err := lc.CreateReceipt(ctx, ledger.Receipt{
				Date:        strArg(input, "date"),
				PaidInto:    strArg(input, "bank_account_key"),
				Payer:       strArg(input, "payer"),
				Description: strArg(input, "description"),
				Lines: []ledger.EntryLine{{
					Account:     strArg(input, "account_key"),
					Description: strArg(input, "description"),
					UnitPrice:   numArg(input, "amount"),
				}},
			})
			return createResult(res, err, "receipt")
		},
	}
}

// NewCreateJournalEntryTool 创建 create_journal_entry 工具
func NewCreateJournalEntryTool(lc *ledger.Client) tool.Tool {
	return &ledgerTool{
		name: "create_journal_entry",
		desc: "Create a simple journal entry debiting one account and crediting another. " +
			"Use search_account for both UUID keys first.",
		schema: tool.Schema{
			Type: "object",
			Properties: map[string]tool.SchemaProperty{
				"date":           {Type: "string", Description: "Entry date YYYY-MM-DD"},
				"narration":      {Type: "string", Description: "Why this entry is being made"},
				"debit_account":  {Type: "string", Description: "Account to debit, UUID key from search_account"},
				"credit_account": {Type: "string", Description: "Account to credit, UUID key from search_account"},
				"amount":         {Type: "number", Description: "Amount, strictly positive"},
			},
			Required: []string{"date", "debit_account", "credit_account", "amount"},
		},
		mutating: true,
		fn: func(ctx context.Context, input map[string]any) (tool.ToolResult, error) {
			res, err := lc.CreateJournalEntry(ctx, ledger.JournalEntry{
				Date:          strArg(input, "date"),
				Narration:     strArg(input, "narration"),
				DebitAccount:  strArg(input, "debit_account"),
				CreditAccount: strArg(input, "credit_account"),
				Amount:        numArg(input, "amount"),
			})
			return createResult(res, err, "journal_entry")
		},
	}
}

// NewAmendEntryTool 创建 amend_entry 工具
func NewAmendEntryTool(lc *ledger.Client) tool.Tool {
	return &ledgerTool{
		name: "amend_entry",
		desc: "Amend fields of an existing ledger entry identified by its type and key.",
		schema: tool.Schema{
			Type: "object",
			Properties: map[string]tool.SchemaProperty{
				"entry_type": {Type: "string",
					Description: "expense_claim | purchase_invoice | sales_invoice | payment | receipt | journal_entry"},
				"entry_key": {Type: "string", Description: "UUID key of the entry to amend"},
				"updates":   {Type: "object", Description: "Field name to new value map"},
			},
			Required: []string{"entry_type", "entry_key", "updates"},
		},
		mutating: true,
		fn: func(ctx context.Context, input map[string]any) (tool.ToolResult, error) {
			form, ok := entryTypes[strArg(input, "entry_type")]
			if !ok {
				return tool.ToolResult{Err: fmt.Sprintf("unknown entry_type %q", strArg(input, "entry_type"))}, nil
			}
			updates, _ := input["updates"].(map[string]any)
			if len(updates) == 0 {
				return tool.ToolResult{Err: "updates must be a non-empty object"}, nil
			}
			err := lc.UpdateEntry(ctx, form, strArg(input, "entry_key"), updates)
			return createResult(ledger.CreateResult{Key: strArg(input, "entry_key")}, err, "amend")
		},
	}
}

// NewDeleteEntryTool 创建 delete_entry 工具
func NewDeleteEntryTool(lc *ledger.Client) tool.Tool {
	return &ledgerTool{
		name: "delete_entry",
		desc: "Delete an existing ledger entry identified by its type and key.",
		schema: tool.Schema{
			Type: "object",
			Properties: map[string]tool.SchemaProperty{
				"entry_type": {Type: "string",
					Description: "expense_claim | purchase_invoice | sales_invoice | payment | receipt | journal_entry"},
				"entry_key": {Type: "string", Description: "UUID key of the entry to delete"},
			},
			Required: []string{"entry_type", "entry_key"},
		},
		mutating: true,
		fn: func(ctx context.Context, input map[string]any) (tool.ToolResult, error) {
			form, ok := entryTypes[strArg(input, "entry_type")]
			if !ok {
				return tool.ToolResult{Err: fmt.Sprintf("unknown entry_type %q", strArg(input, "entry_type"))}, nil
			}
			err := lc.DeleteEntry(ctx, form, strArg(input, "entry_key"))
			return createResult(ledger.CreateResult{Key: strArg(input, "entry_key")}, err, "delete")
		},
	}
}
