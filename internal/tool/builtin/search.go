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

// searchSchema 搜索类工具共享的参数形态
func searchSchema(argDesc string) tool.Schema {
	return tool.Schema{
		Type: "object",
		Properties: map[string]tool.SchemaProperty{
			"query": {Type: "string", Description: argDesc},
		},
		Required: []string{"query"},
	}
}

// searchResult 返回按匹配度排序的完整候选列表。照单全收交给模型选择，
// UUID 必须取自这里的 key 字段。
func searchResult(query, entity string, items []namedItem, err error) (tool.ToolResult, error) {
	if err != nil {
		if errors.Is(err, ledger.ErrUnavailable) {
			return tool.ToolResult{}, err
		}
		return tool.ToolResult{Err: err.Error()}, nil
	}
	return jsonResult(map[string]any{
		"looking_for": query,
		"instruction": "Select the matching " + entity + " and use its 'key' UUID. Never invent a key.",
		"candidates":  rankMatches(query, items),
	}), nil
}

func contactsToItems(cs []ledger.Contact) []namedItem {
	items := make([]namedItem, 0, len(cs))
	for _, c := range cs {
		items = append(items, namedItem{Key: c.Key, Name: c.Name})
	}
	return items
}

// NewSearchEmployeeTool 创建 search_employee 工具
func NewSearchEmployeeTool(lc *ledger.Client) tool.Tool {
	return &ledgerTool{
		name: "search_employee",
		desc: "Find the employee or director who paid, to use as the expense claim payer. " +
			"Returns all employees ranked by match; pick one and use its key UUID.",
		schema: searchSchema("Who you're looking for, e.g. a name or the word director"),
		fn: func(ctx context.Context, input map[string]any) (tool.ToolResult, error) {
			q := strArg(input, "query")
			es, err := lc.Employees(ctx)
			return searchResult(q, "employee", contactsToItems(es), err)
		},
	}
}

// NewSearchSupplierTool 创建 search_supplier 工具
func NewSearchSupplierTool(lc *ledger.Client) tool.Tool {
	return &ledgerTool{
		name: "search_supplier",
		desc: "Find a supplier by name. Returns all suppliers ranked by match; " +
			"pick one and use its key UUID.",
		schema: searchSchema("Supplier or vendor name"),
		fn: func(ctx context.Context, input map[string]any) (tool.ToolResult, error) {
			q := strArg(input, "query")
			ss, err := lc.Suppliers(ctx)
			return searchResult(q, "supplier", contactsToItems(ss), err)
		},
	}
}

// NewSearchCustomerTool 创建 search_customer 工具
func NewSearchCustomerTool(lc *ledger.Client) tool.Tool {
	return &ledgerTool{
		name: "search_customer",
		desc: "Find a customer by name. Returns all customers ranked by match; " +
			"pick one and use its key UUID.",
		schema: searchSchema("Customer name"),
		fn: func(ctx context.Context, input map[string]any) (tool.ToolResult, error) {
			q := strArg(input, "query")
			cs, err := lc.Customers(ctx)
			return searchResult(q, "customer", contactsToItems(cs), err)
		},
	}
}

// NewSearchAccountTool 创建 search_account 工具
func NewSearchAccountTool(lc *ledger.Client) tool.Tool {
	return &ledgerTool{
		name: "search_account",
		desc: "Find the right ledger account for a transaction, e.g. audit fee, " +
			"transportation, office supplies. Returns the chart of accounts ranked by match; " +
			"pick one and use its key UUID.",
		schema: searchSchema("What the money was for"),
		fn: func(ctx context.Context, input map[string]any) (tool.ToolResult, error) {
			q := strArg(input, "query")
			accounts, err := lc.ChartOfAccounts(ctx)
			items := make([]namedItem, 0, len(accounts))
			for _, a := range accounts {
				items = append(items, namedItem{Key: a.Key, Name: a.Name, Code: a.Code})
			}
			return searchResult(q, "account", items, err)
		},
	}
}
