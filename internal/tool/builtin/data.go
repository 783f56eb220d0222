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

	"ledger-agent/internal/ledger"
	"ledger-agent/internal/tool"
)

var emptySchema = tool.Schema{Type: "object", Properties: map[string]tool.SchemaProperty{}}

// listResult 统一处理主数据查询的结果与失败
func listResult[T any](items []T, err error) (tool.ToolResult, error) {
	if err != nil {
		if errors.Is(err, ledger.ErrUnavailable) {
			return tool.ToolResult{}, err
		}
		return tool.ToolResult{Err: err.Error()}, nil
	}
	return jsonResult(items), nil
}

// NewChartOfAccountsTool 创建 get_chart_of_accounts 工具
func NewChartOfAccountsTool(lc *ledger.Client) tool.Tool {
	return &ledgerTool{
		name:   "get_chart_of_accounts",
		desc:   "List the chart of accounts: every account's key, name and code.",
		schema: emptySchema,
		fn: func(ctx context.Context, input map[string]any) (tool.ToolResult, error) {
			return listResult(lc.ChartOfAccounts(ctx))
		},
	}
}

// NewSuppliersTool 创建 get_suppliers 工具
func NewSuppliersTool(lc *ledger.Client) tool.Tool {
	return &ledgerTool{
		name:   "get_suppliers",
		desc:   "List all suppliers with their keys and names.",
		schema: emptySchema,
		fn: func(ctx context.Context, input map[string]any) (tool.ToolResult, error) {
			return listResult(lc.Suppliers(ctx))
		},
	}
}

// NewCustomersTool 创建 get_customers 工具
func NewCustomersTool(lc *ledger.Client) tool.Tool {
	return &ledgerTool{
		name:   "get_customers",
		desc:   "List all customers with their keys and names.",
		schema: emptySchema,
		fn: func(ctx context.Context, input map[string]any) (tool.ToolResult, error) {
			return listResult(lc.Customers(ctx))
		},
	}
}

// NewEmployeesTool 创建 get_employees 工具
func NewEmployeesTool(lc *ledger.Client) tool.Tool {
	return &ledgerTool{
		name:   "get_employees",
		desc:   "List all employees and directors with their keys and names.",
		schema: emptySchema,
		fn: func(ctx context.Context, input map[string]any) (tool.ToolResult, error) {
			return listResult(lc.Employees(ctx))
		},
	}
}

// NewBankAccountsTool 创建 get_bank_accounts 工具
func NewBankAccountsTool(lc *ledger.Client) tool.Tool {
	return &ledgerTool{
		name:   "get_bank_accounts",
		desc:   "List all bank and cash accounts with their keys, names and currencies.",
		schema: emptySchema,
		fn: func(ctx context.Context, input map[string]any) (tool.ToolResult, error) {
			return listResult(lc.BankAccounts(ctx))
		},
	}
}

// NewTaxCodesTool 创建 get_tax_codes 工具
func NewTaxCodesTool(lc *ledger.Client) tool.Tool {
	return &ledgerTool{
		name:   "get_tax_codes",
		desc:   "List all tax codes with their keys, names and rates.",
		schema: emptySchema,
		fn: func(ctx context.Context, input map[string]any) (tool.ToolResult, error) {
			return listResult(lc.TaxCodes(ctx))
		},
	}
}
