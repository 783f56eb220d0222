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

package document

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind 票据类别
type Kind string

const (
	KindReceipt Kind = "receipt"
	KindInvoice Kind = "invoice"
	KindExpense Kind = "expense"
	KindUnknown Kind = "unknown"
)

// Fields 从票据文本启发式提取的字段。匹配不上的字段留空，
// 由 entry 角色在对话中补齐，绝不臆造。
type Fields struct {
	Vendor      string  `json:"vendor,omitempty"`
	Amount      float64 `json:"amount,omitempty"`
	Date        string  `json:"date,omitempty"`
	Currency    string  `json:"currency,omitempty"`
	Description string  `json:"description,omitempty"`
}

var (
	invoiceKeywords = []string{"invoice", "bill to", "due date", "payment terms", "inv#"}
	receiptKeywords = []string{"receipt", "thank you", "paid", "change due", "subtotal"}
	expenseKeywords = []string{"expense", "reimbursement", "claim"}

	amountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:total|amount paid|amount due|amount)[:\s]*\$?\s*([\d,]+\.?\d*)`),
		regexp.MustCompile(`\$\s*([\d,]+\.?\d*)`),
		regexp.MustCompile(`(?i)hkd\s*([\d,]+\.?\d*)`),
	}
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\d{4}[-/]\d{1,2}[-/]\d{1,2}`),
		regexp.MustCompile(`\d{1,2}[-/]\d{1,2}[-/]\d{2,4}`),
		regexp.MustCompile(`(?i)\d{1,2}\s+(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s+\d{2,4}`),
	}
	currencyPattern = regexp.MustCompile(`(?i)\b(hkd|usd|cny|rmb|eur|gbp|jpy|sgd)\b`)
	markupPattern   = regexp.MustCompile(`<[^>]+>`)
)

// Classify 按关键词判定票据类别。invoice 关键词优先于 receipt，
// 与原始匹配顺序一致。
func Classify(text string) Kind {
	lower := strings.ToLower(text)
	for _, kw := range invoiceKeywords {
		if strings.Contains(lower, kw) {
			return KindInvoice
		}
	}
	for _, kw := range receiptKeywords {
		if strings.Contains(lower, kw) {
			return KindReceipt
		}
	}
	for _, kw := range expenseKeywords {
		if strings.Contains(lower, kw) {
			return KindExpense
		}
	}
	return KindUnknown
}

// ExtractFields 启发式提取金额、日期、商户、币种
func ExtractFields(text string) Fields {
	var f Fields

	for _, p := range amountPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			raw := strings.ReplaceAll(m[1], ",", "")
			if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
				f.Amount = v
				break
			}
		}
	}

	for _, p := range datePatterns {
		if m := p.FindString(text); m != "" {
			f.Date = m
			break
		}
	}

	if m := currencyPattern.FindString(text); m != "" {
		f.Currency = strings.ToUpper(m)
		if f.Currency == "RMB" {
			f.Currency = "CNY"
		}
	}

	// 商户名通常在前几行：跳过纯数字与过短的行
	lines := strings.Split(text, "\n")
	seen := 0
	for _, line := range lines {
		clean := strings.TrimSpace(markupPattern.ReplaceAllString(line, ""))
		if clean == "" {
			continue
		}
		seen++
		if seen > 5 {
			break
		}
		digitsOnly := strings.NewReplacer(".", "", ",", "", " ", "").Replace(clean)
		if len(clean) > 3 && !isAllDigits(digitsOnly) {
			if len(clean) > 100 {
				clean = clean[:100]
			}
			f.Vendor = clean
			break
		}
	}

	return f
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
