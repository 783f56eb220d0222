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
	"fmt"

	"ledger-agent/internal/ledger"
	"ledger-agent/internal/tool"
)

// NewRecentTransactionsTool 创建 get_recent_transactions 工具
func NewRecentTransactionsTool(lc *ledger.Client) tool.Tool {
	return &ledgerTool{
		name: "get_recent_transactions",
		desc: "List recent ledger transactions of one type: payments, receipts, " +
			"expense_claims, purchase_invoices or sales_invoices.",
		schema: tool.Schema{
			Type: "object",
			Properties: map[string]tool.SchemaProperty{
				"type": {Type: "string",
					Description: "payments | receipts | expense_claims | purchase_invoices | sales_invoices"},
				"limit": {Type: "integer", Description: "Max rows to return, default 30"},
			},
			Required: []string{"type"},
		},
		fn: func(ctx context.Context, input map[string]any) (tool.ToolResult, error) {
			kind := strArg(input, "type")
			limit := intArg(input, "limit")
			var (
				txs []ledger.Transaction
				err error
			)
			switch kind {
			case "payments":
				txs, err = lc.Payments(ctx, limit)
			case "receipts":
				txs, err = lc.Receipts(ctx, limit)
			case "expense_claims":
				txs, err = lc.ExpenseClaims(ctx, limit)
			case "purchase_invoices":
				txs, err = lc.PurchaseInvoices(ctx, limit)
			case "sales_invoices":
				txs, err = lc.SalesInvoices(ctx, limit)
			default:
				return tool.ToolResult{Err: fmt.Sprintf("unknown transaction type %q", kind)}, nil
			}
			return listResult(txs, err)
		},
	}
}
