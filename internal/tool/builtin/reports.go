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

func reportResult(r ledger.Report, err error) (tool.ToolResult, error) {
	if err != nil {
		if errors.Is(err, ledger.ErrUnavailable) {
			return tool.ToolResult{}, err
		}
		return tool.ToolResult{Err: err.Error()}, nil
	}
	return jsonResult(r), nil
}

// NewBalanceSheetTool 创建 get_balance_sheet 工具
func NewBalanceSheetTool(lc *ledger.Client) tool.Tool {
	return &ledgerTool{
		name: "get_balance_sheet",
		desc: "Fetch the balance sheet as of a date.",
		schema: tool.Schema{
			Type: "object",
			Properties: map[string]tool.SchemaProperty{
				"date": {Type: "string", Description: "As-of date YYYY-MM-DD; empty for today"},
			},
		},
		fn: func(ctx context.Context, input map[string]any) (tool.ToolResult, error) {
			return reportResult(lc.BalanceSheet(ctx, strArg(input, "date")))
		},
	}
}

// NewProfitAndLossTool 创建 get_profit_and_loss 工具
func NewProfitAndLossTool(lc *ledger.Client) tool.Tool {
	return &ledgerTool{
		name: "get_profit_and_loss",
		desc: "Fetch the profit and loss statement for a period.",
		schema: tool.Schema{
			Type: "object",
			Properties: map[string]tool.SchemaProperty{
				"from_date": {Type: "string", Description: "Period start YYYY-MM-DD"},
				"to_date":   {Type: "string", Description: "Period end YYYY-MM-DD"},
			},
		},
		fn: func(ctx context.Context, input map[string]any) (tool.ToolResult, error) {
			return reportResult(lc.ProfitAndLoss(ctx, strArg(input, "from_date"), strArg(input, "to_date")))
		},
	}
}

// NewTrialBalanceTool 创建 get_trial_balance 工具
func NewTrialBalanceTool(lc *ledger.Client) tool.Tool {
	return &ledgerTool{
		name: "get_trial_balance",
		desc: "Fetch the trial balance as of a date.",
		schema: tool.Schema{
			Type: "object",
			Properties: map[string]tool.SchemaProperty{
				"date": {Type: "string", Description: "As-of date YYYY-MM-DD; empty for today"},
			},
		},
		fn: func(ctx context.Context, input map[string]any) (tool.ToolResult, error) {
			return reportResult(lc.TrialBalance(ctx, strArg(input, "date")))
		},
	}
}
