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

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"ledger-agent/pkg/errors"
)

// Client 账本服务（Manager.io 风格 REST API）客户端。
// 只读主数据经过可选缓存；写入永不缓存、永不自动重试（盲重试有重复入账风险）。
type Client struct {
	rc    *resty.Client
	cache *Cache
}

// Config 客户端配置
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NewClient 创建账本客户端；cache 可为 nil 表示不缓存
func NewClient(cfg Config, cache *Cache) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.Wrap(errors.ErrInvalidArg, "ledger base_url 不能为空")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	rc := resty.New()
	rc.SetBaseURL(cfg.BaseURL)
	rc.SetTimeout(timeout)
	rc.SetHeader("X-API-KEY", cfg.APIKey)
	rc.SetHeader("Accept", "application/json")

	return &Client{rc: rc, cache: cache}, nil
}

// get 发送 GET 请求并解析到 out
func (c *Client) get(ctx context.Context, path string, params map[string]string, out any) error {
	req := c.rc.R().SetContext(ctx)
	if params != nil {
		req.SetQueryParams(params)
	}
	if out != nil {
		req.SetResult(out)
	}
	resp, err := req.Get(path)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %v", ErrUnavailable, path, err)
	}
	return c.checkStatus(resp, path)
}

// post 发送 POST 请求；写入接口统一经此进入
func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	req := c.rc.R().SetContext(ctx).SetHeader("Content-Type", "application/json").SetBody(body)
	if out != nil {
		req.SetResult(out)
	}
	resp, err := req.Post(path)
	if err != nil {
		return fmt.Errorf("%w: POST %s: %v", ErrUnavailable, path, err)
	}
	return c.checkStatus(resp, path)
}

// checkStatus 将 HTTP 状态映射到类型化失败
func (c *Client) checkStatus(resp *resty.Response, path string) error {
	code := resp.StatusCode()
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrEntityNotFound, path)
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s: %s", ErrRejected, path, resp.String())
	case code >= 500:
		return fmt.Errorf("%w: %s: status %d", ErrUnavailable, path, code)
	default:
		return fmt.Errorf("ledger: %s: unexpected status %d: %s", path, code, resp.String())
	}
}

// ---- 主数据（只读，走缓存） ----

// ChartOfAccounts 科目表
func (c *Client) ChartOfAccounts(ctx context.Context) ([]Account, error) {
	var out []Account
	err := cached(ctx, c.cache, "accounts", &out, func() error {
		var wire struct {
			ChartOfAccounts []Account `json:"chartOfAccounts"`
		}
		if err := c.get(ctx, "/chart-of-accounts", nil, &wire); err != nil {
			return err
		}
		out = wire.ChartOfAccounts
		return nil
	})
	return out, err
}

// Suppliers 供应商列表
func (c *Client) Suppliers(ctx context.Context) ([]Contact, error) {
	var out []Contact
	err := cached(ctx, c.cache, "suppliers", &out, func() error {
		var wire struct {
			Suppliers []Contact `json:"suppliers"`
		}
		if err := c.get(ctx, "/suppliers", nil, &wire); err != nil {
			return err
		}
		out = wire.Suppliers
		return nil
	})
	return out, err
}

// Customers 客户列表
func (c *Client) Customers(ctx context.Context) ([]Contact, error) {
	var out []Contact
	err := cached(ctx, c.cache, "customers", &out, func() error {
		var wire struct {
			Customers []Contact `json:"customers"`
		}
		if err := c.get(ctx, "/customers", nil, &wire); err != nil {
			return err
		}
		out = wire.Customers
		return nil
	})
	return out, err
}

// Employees 员工（报销单付款人）
func (c *Client) Employees(ctx context.Context) ([]Contact, error) {
	var out []Contact
	err := cached(ctx, c.cache, "employees", &out, func() error {
		var wire struct {
			Employees []Contact `json:"employees"`
		}
		if err := c.get(ctx, "/employees", nil, &wire); err != nil {
			return err
		}
		out = wire.Employees
		return nil
	})
	return out, err
}

// BankAccounts 银行与现金账户
func (c *Client) BankAccounts(ctx context.Context) ([]BankAccount, error) {
	var out []BankAccount
	err := cached(ctx, c.cache, "bank_accounts", &out, func() error {
		var wire struct {
			BankAndCashAccounts []BankAccount `json:"bankAndCashAccounts"`
		}
		if err := c.get(ctx, "/bank-and-cash-accounts", nil, &wire); err != nil {
			return err
		}
		out = wire.BankAndCashAccounts
		return nil
	})
	return out, err
}

// TaxCodes 税码
func (c *Client) TaxCodes(ctx context.Context) ([]TaxCode, error) {
	var out []TaxCode
	err := cached(ctx, c.cache, "tax_codes", &out, func() error {
		var wire struct {
			TaxCodes []TaxCode `json:"taxCodes"`
		}
		if err := c.get(ctx, "/tax-codes", nil, &wire); err != nil {
			return err
		}
		out = wire.TaxCodes
		return nil
	})
	return out, err
}

// ---- 交易列表（只读，不缓存：随写入变化） ----

func (c *Client) listTransactions(ctx context.Context, path string, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 30
	}
	var wire struct {
		Transactions []Transaction `json:"transactions"`
	}
	if err := c.get(ctx, path, map[string]string{"pageSize": fmt.Sprintf("%d", limit)}, &wire); err != nil {
		return nil, err
	}
	return wire.Transactions, nil
}

// Payments 付款列表
func (c *Client) Payments(ctx context.Context, limit int) ([]Transaction, error) {
	return c.listTransactions(ctx, "/payments", limit)
}

// Receipts 收款列表
func (c *Client) Receipts(ctx context.Context, limit int) ([]Transaction, error) {
	return c.listTransactions(ctx, "/receipts", limit)
}

// ExpenseClaims 报销单列表
func (c *Client) ExpenseClaims(ctx context.Context, limit int) ([]Transaction, error) {
	return c.listTransactions(ctx, "/expense-claims", limit)
}

// PurchaseInvoices 采购发票列表
func (c *Client) PurchaseInvoices(ctx context.Context, limit int) ([]Transaction, error) {
	return c.listTransactions(ctx, "/purchase-invoices", limit)
}

// SalesInvoices 销售发票列表
func (c *Client) SalesInvoices(ctx context.Context, limit int) ([]Transaction, error) {
	return c.listTransactions(ctx, "/sales-invoices", limit)
}

// ---- 报表（只读） ----

// BalanceSheet 资产负债表；asOf 为空时取服务端默认
func (c *Client) BalanceSheet(ctx context.Context, asOf string) (Report, error) {
	params := map[string]string{}
	if asOf != "" {
		params["date"] = asOf
	}
	var out Report
	if err := c.get(ctx, "/balance-sheet", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ProfitAndLoss 利润表
func (c *Client) ProfitAndLoss(ctx context.Context, from, to string) (Report, error) {
	params := map[string]string{}
	if from != "" {
		params["fromDate"] = from
	}
	if to != "" {
		params["toDate"] = to
	}
	var out Report
	if err := c.get(ctx, "/profit-and-loss-statement", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TrialBalance 试算平衡表
func (c *Client) TrialBalance(ctx context.Context, asOf string) (Report, error) {
	params := map[string]string{}
	if asOf != "" {
		params["date"] = asOf
	}
	var out Report
	if err := c.get(ctx, "/trial-balance", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ---- 写入（mutating；上层必须先过校验防火墙） ----

func (c *Client) create(ctx context.Context, path string, body any) (CreateResult, error) {
	var out CreateResult
	if err := c.post(ctx, path, body, &out); err != nil {
		return CreateResult{}, err
	}
	c.invalidate(ctx)
	return out, nil
}

// CreateExpenseClaim 创建报销单
func (c *Client) CreateExpenseClaim(ctx context.Context, data ExpenseClaim) (CreateResult, error) {
	return c.create(ctx, "/expense-claim-form", data)
}

// CreatePurchaseInvoice 创建采购发票
func (c *Client) CreatePurchaseInvoice(ctx context.Context, data PurchaseInvoice) (CreateResult, error) {
	return c.create(ctx, "/purchase-invoice-form", data)
}

// CreateSalesInvoice 创建销售发票
func (c *Client) CreateSalesInvoice(ctx context.Context, data SalesInvoice) (CreateResult, error) {
	return c.create(ctx, "/sales-invoice-form", data)
}

// CreatePayment 创建付款
func (c *Client) CreatePayment(ctx context.Context, data Payment) (CreateResult, error) {
	return c.create(ctx, "/payment-form", data)
}

// CreateReceipt 创建收款
func (c *Client) CreateReceipt(ctx context.Context, data Receipt) (CreateResult, error) {
	return c.create(ctx, "/receipt-form", data)
}

// CreateJournalEntry 创建日记账分录
func (c *Client) CreateJournalEntry(ctx context.Context, data JournalEntry) (CreateResult, error) {
	return c.create(ctx, "/journal-entry-form", data)
}

// UpdateEntry 修改既有分录（entryType 为表单路径段，如 expense-claim-form）
func (c *Client) UpdateEntry(ctx context.Context, entryType, key string, fields map[string]any) error {
	req := c.rc.R().SetContext(ctx).SetHeader("Content-Type", "application/json").SetBody(fields)
	resp, err := req.Put(fmt.Sprintf("/%s/%s", entryType, key))
	if err != nil {
		return fmt.Errorf("%w: PUT %s: %v", ErrUnavailable, entryType, err)
	}
	if err := c.checkStatus(resp, entryType); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// DeleteEntry 删除分录
func (c *Client) DeleteEntry(ctx context.Context, entryType, key string) error {
	resp, err := c.rc.R().SetContext(ctx).Delete(fmt.Sprintf("/%s/%s", entryType, key))
	if err != nil {
		return fmt.Errorf("%w: DELETE %s: %v", ErrUnavailable, entryType, err)
	}
	if err := c.checkStatus(resp, entryType); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *Client) invalidate(ctx context.Context) {
	if c.cache != nil {
		c.cache.Invalidate(ctx)
	}
}
