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

package ledger

import "errors"

// 账本服务的类型化失败：调用方（Tool Invoker / 编排器）据此区分可恢复与不可恢复
var (
	// ErrRejected 服务端校验拒绝（payload 不合规）
	ErrRejected = errors.New("ledger: rejected by server")
	// ErrEntityNotFound 引用的实体（账户/供应商/员工）不存在
	ErrEntityNotFound = errors.New("ledger: referenced entity not found")
	// ErrUnavailable 暂时不可用（5xx、连接失败）
	ErrUnavailable = errors.New("ledger: transient unavailable")
)

// Account 科目表条目
type Account struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

// Contact 供应商/客户/员工的通用形态
type Contact struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// BankAccount 银行/现金账户
type BankAccount struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Currency string `json:"currency,omitempty"`
}

// TaxCode 税码
type TaxCode struct {
	Key  string  `json:"key"`
	Name string  `json:"name"`
	Rate float64 `json:"rate,omitempty"`
}

// Transaction 交易列表条目（payments/receipts/invoices 的统一只读视图）
type Transaction struct {
	Key         string  `json:"key"`
	Type        string  `json:"type"`
	Date        string  `json:"date"`
	Description string  `json:"description,omitempty"`
	Contact     string  `json:"contact,omitempty"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency,omitempty"`
}

// EntryLine 凭证行：借/贷一侧的科目与金额
type EntryLine struct {
	Account     string  `json:"account"`
	Description string  `json:"description,omitempty"`
	Qty         float64 `json:"qty,omitempty"`
	UnitPrice   float64 `json:"unit_price"`
}

// ExpenseClaim 员工垫付报销单
type ExpenseClaim struct {
	Date        string      `json:"date"`
	PaidBy      string      `json:"paid_by"` // 员工/董事 key
	Payee       string      `json:"payee,omitempty"`
	Description string      `json:"description,omitempty"`
	Lines       []EntryLine `json:"lines"`
}

// PurchaseInvoice 采购发票
type PurchaseInvoice struct {
	Date        string      `json:"date"`
	Supplier    string      `json:"supplier"` // 供应商 key
	Reference   string      `json:"reference,omitempty"`
	Description string      `json:"description,omitempty"`
	Lines       []EntryLine `json:"lines"`
}

// SalesInvoice 销售发票
type SalesInvoice struct {
	Date        string      `json:"date"`
	Customer    string      `json:"customer"` // 客户 key
	Reference   string      `json:"reference,omitempty"`
	Description string      `json:"description,omitempty"`
	Lines       []EntryLine `json:"lines"`
}

// Payment 付款（银行/现金流出）
type Payment struct {
	Date        string      `json:"date"`
	PaidFrom    string      `json:"paid_from"` // 银行账户 key
	Payee       string      `json:"payee,omitempty"`
	Description string      `json:"description,omitempty"`
	Lines       []EntryLine `json:"lines"`
}

// Receipt 收款（银行/现金流入）
type Receipt struct {
	Date        string      `json:"date"`
	PaidInto    string      `json:"paid_into"` // 银行账户 key
	Payer       string      `json:"payer,omitempty"`
	Description string      `json:"description,omitempty"`
	Lines       []EntryLine `json:"lines"`
}

// JournalEntry 简式日记账分录：单借单贷
type JournalEntry struct {
	Date          string  `json:"date"`
	Narration     string  `json:"narration,omitempty"`
	DebitAccount  string  `json:"debit_account"`
	CreditAccount string  `json:"credit_account"`
	Amount        float64 `json:"amount"`
}

// CreateResult 写入成功后账本分配的标识
type CreateResult struct {
	Key string `json:"key"`
}

// Report 报表的通用返回（结构由账本服务定义，原样透传）
type Report map[string]any
