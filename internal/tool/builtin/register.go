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
	"ledger-agent/internal/ledger"
	"ledger-agent/internal/tool"
	"ledger-agent/internal/tool/registry"
)

// RegisterBuiltin 将全部内置工具注册到注册表
func RegisterBuiltin(reg *registry.Registry, lc *ledger.Client, info ContextInfo) {
	if reg == nil || lc == nil {
		return
	}
	// 上下文
	reg.Register(NewCurrentContextTool(info))

	// 主数据
	reg.Register(NewChartOfAccountsTool(lc))
	reg.Register(NewSuppliersTool(lc))
	reg.Register(NewCustomersTool(lc))
	reg.Register(NewEmployeesTool(lc))
	reg.Register(NewBankAccountsTool(lc))
	reg.Register(NewTaxCodesTool(lc))

	// 交易与报表
	reg.Register(NewRecentTransactionsTool(lc))
	reg.Register(NewBalanceSheetTool(lc))
	reg.Register(NewProfitAndLossTool(lc))
	reg.Register(NewTrialBalanceTool(lc))

	// 搜索（写入前取 UUID）
	reg.Register(NewSearchEmployeeTool(lc))
	reg.Register(NewSearchSupplierTool(lc))
	reg.Register(NewSearchCustomerTool(lc))
	reg.Register(NewSearchAccountTool(lc))

	// 文档
	reg.Register(NewClassifyDocumentTool())
	reg.Register(NewExtractDocumentFieldsTool())

	// 写入
	reg.Register(NewCreateExpenseClaimTool(lc))
	reg.Register(NewCreatePurchaseInvoiceTool(lc))
	reg.Register(NewCreateSalesInvoiceTool(lc))
	reg.Register(NewCreatePaymentTool(lc))
	reg.Register(NewCreateReceiptTool(lc))
	reg.Register(NewCreateJournalEntryTool(lc))
	reg.Register(NewAmendEntryTool(lc))
	reg.Register(NewDeleteEntryTool(lc))
}

// RegisterTools 仅注册给定工具（测试或最小装配用）
func RegisterTools(reg *registry.Registry, tools ...tool.Tool) {
	if reg == nil {
		return
	}
	for _, t := range tools {
		reg.Register(t)
	}
}
