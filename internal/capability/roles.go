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

// RoleID 工作者角色标识。闭集：新增角色必须同时更新 roleOperations
// 与 AllRoles，编排层按此表做穷尽匹配。
type RoleID string

const (
	// RoleConversational 直接对话，不触达账本，无工具
	RoleConversational RoleID = "conversational"
	// RoleData 主数据与历史数据查询
	RoleData RoleID = "data"
	// RoleReport 财务报表查询
	RoleReport RoleID = "report"
	// RoleTransaction 交易流水查询
	RoleTransaction RoleID = "transaction"
	// RoleDocument 票据文档解析与字段匹配
	RoleDocument RoleID = "document"
	// RoleEntry 账本写入（记账分录）
	RoleEntry RoleID = "entry"
)

// AllRoles 全部角色，顺序固定
var AllRoles = []RoleID{
	RoleConversational,
	RoleData,
	RoleReport,
	RoleTransaction,
	RoleDocument,
	RoleEntry,
}

// Valid 判断 id 是否属于角色闭集
func (id RoleID) Valid() bool {
	switch id {
	case RoleConversational, RoleData, RoleReport, RoleTransaction, RoleDocument, RoleEntry:
		return true
	}
	return false
}

// roleOperations 角色到工具名的静态绑定。工具名必须与 builtin 注册名一致，
// 注册表构建时校验，缺失即启动失败。
var roleOperations = map[RoleID][]string{
	RoleConversational: {},
	RoleData: {
		"get_chart_of_accounts",
		"get_suppliers",
		"get_customers",
		"get_employees",
		"get_bank_accounts",
		"get_tax_codes",
		"get_recent_transactions",
		"get_current_context",
	},
	RoleReport: {
		"get_balance_sheet",
		"get_profit_and_loss",
		"get_trial_balance",
		"get_current_context",
	},
	RoleTransaction: {
		"get_recent_transactions",
		"get_bank_accounts",
		"get_current_context",
	},
	RoleDocument: {
		"classify_document",
		"extract_document_fields",
		"search_supplier",
		"search_account",
	},
	RoleEntry: {
		"search_employee",
		"search_account",
		"search_supplier",
		"search_customer",
		"get_bank_accounts",
		"get_current_context",
		"create_expense_claim",
		"create_purchase_invoice",
		"create_sales_invoice",
		"create_payment",
		"create_receipt",
		"create_journal_entry",
		"amend_entry",
		"delete_entry",
	},
}

// rolePreambles 各角色的推理前导提示。保持短句直给，
// entry 角色强调先查 UUID 再写入。
var rolePreambles = map[RoleID]string{
	RoleConversational: "You are a bookkeeping assistant. Answer the user's question directly. " +
		"You have no ledger access in this role; if the question needs ledger data, say so.",

	RoleData: "You are a bookkeeping data assistant. Use the provided tools to look up " +
		"accounts, contacts and recent activity, then answer concisely with the facts you found.",

	RoleReport: "You are a financial reporting assistant. Use the report tools to fetch the " +
		"requested statement, then summarise the figures that answer the question. " +
		"Call get_current_context first when the question uses relative dates.",

	RoleTransaction: "You are a transaction lookup assistant. Use the tools to list recent " +
		"payments, receipts and invoices and answer the user's question about them.",

	RoleDocument: "You are a document processing assistant. Classify the document, extract " +
		"its fields, and match the vendor and expense account against the ledger master data.",

	RoleEntry: "You are a bookkeeping entry assistant. You create real ledger entries. " +
		"RULES: every *_key argument must be a real UUID obtained from a search tool in this " +
		"conversation. Call search_employee / search_account / search_supplier / search_customer " +
		"FIRST; never guess or fabricate a key. Amounts are positive numbers, dates are YYYY-MM-DD. " +
		"Create exactly one entry per user request, then report the new entry's key.",
}
