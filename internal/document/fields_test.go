// Copyright 2026 fanjia1024
// Tests for document classification and field extraction

package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		text string
		want Kind
	}{
		{"invoice", "INVOICE\nBill To: Acme Ltd\nDue Date: 2026-04-01", KindInvoice},
		{"receipt", "Coffee Corner\nRECEIPT\nThank you for your visit", KindReceipt},
		{"expense", "Expense reimbursement form\nEmployee: Chan Tai Man", KindExpense},
		{"unknown", "Lorem ipsum dolor sit amet", KindUnknown},
		// invoice 关键词优先：同时含 invoice 与 paid
		{"invoice wins over receipt", "Invoice #42\nStatus: PAID", KindInvoice},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.text))
		})
	}
}

func TestExtractFields_Amount(t *testing.T) {
	cases := []struct {
		text string
		want float64
	}{
		{"Total: $1,234.50", 1234.50},
		{"Amount Due: 88.00", 88},
		{"$42.50", 42.50},
		{"HKD 350", 350},
		{"no money here", 0},
	}
	for _, tc := range cases {
		f := ExtractFields(tc.text)
		assert.Equal(t, tc.want, f.Amount, "text %q", tc.text)
	}
}

func TestExtractFields_DateAndCurrency(t *testing.T) {
	f := ExtractFields("Coffee Corner\nDate: 2026-03-14\nTotal: HKD 42.50")
	assert.Equal(t, "2026-03-14", f.Date)
	assert.Equal(t, "HKD", f.Currency)

	f = ExtractFields("Paid 12 Jan 2026, 100 rmb")
	assert.Equal(t, "12 Jan 2026", f.Date)
	assert.Equal(t, "CNY", f.Currency)
}

func TestExtractFields_Vendor(t *testing.T) {
	f := ExtractFields("\n  12345 \nCoffee Corner Ltd\nTotal: $5.00")
	assert.Equal(t, "Coffee Corner Ltd", f.Vendor)

	// 纯数字行不是商户名
	f = ExtractFields("88,888\n99.99")
	assert.Empty(t, f.Vendor)
}

func TestExtractFields_EmptyText(t *testing.T) {
	f := ExtractFields("")
	assert.Equal(t, Fields{}, f)
}
