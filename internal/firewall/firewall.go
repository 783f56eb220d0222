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

// Package firewall 校验防火墙：账本写入操作执行前的最后一道闸。
// 纯函数、幂等，同一输入必得同一结论。只读操作不经过这里。
package firewall

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"ledger-agent/internal/tool"
)

// ViolationKind 违规类别
type ViolationKind string

const (
	// KindMissing 必填字段缺失或为空
	KindMissing ViolationKind = "missing"
	// KindType 类型不符
	KindType ViolationKind = "type"
	// KindRange 取值越界（金额非正等）
	KindRange ViolationKind = "range"
	// KindFormat 格式不符（日期、UUID）
	KindFormat ViolationKind = "format"
	// KindPlaceholder 占位符或编造的标识
	KindPlaceholder ViolationKind = "placeholder"
)

// Violation 单条违规，Message 直接作为纠正提示回喂给推理服务
type Violation struct {
	Field   string        `json:"field"`
	Kind    ViolationKind `json:"kind"`
	Message string        `json:"message"`
}

// Result 校验结论
type Result struct {
	OK         bool        `json:"ok"`
	Violations []Violation `json:"violations,omitempty"`
}

// Feedback 将违规拼成一段纠正提示
func (r Result) Feedback() string {
	if r.OK {
		return ""
	}
	var b strings.Builder
	b.WriteString("The tool call was rejected by validation. Fix these problems and try again:")
	for _, v := range r.Violations {
		b.WriteString("\n- ")
		b.WriteString(v.Field)
		b.WriteString(": ")
		b.WriteString(v.Message)
	}
	return b.String()
}

var (
	uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	// 顺序编造（01234567、12345678 之类）的十六进制前缀判定基串
	sequentialHex = "0123456789abcdef"
)

// 已知占位 UUID：全零、文档示例
var knownFakeUUIDs = map[string]bool{
	"00000000-0000-0000-0000-000000000000": true,
	"123e4567-e89b-12d3-a456-426614174000": true,
	"123e4567-e89b-12d3-a456-426655440000": true,
}

// Validate 依据操作 Schema 校验参数。只对写入类操作有意义，
// 调用方（编排器）负责只在 Mutating 操作上调用。
func Validate(op string, schema tool.Schema, args map[string]any) Result {
	var vs []Violation

	for _, name := range schema.Required {
		v, ok := args[name]
		if !ok || v == nil || v == "" {
			vs = append(vs, Violation{Field: name, Kind: KindMissing,
				Message: fmt.Sprintf("required field %q is missing", name)})
		}
	}

	// 违规列表有序：按字段名排序遍历，同一输入必得同一序列
	names := make([]string, 0, len(args))
	for name := range args {
		if _, known := schema.Properties[name]; known {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		v := args[name]
		prop := schema.Properties[name]
		if v == nil {
			continue
		}
		switch prop.Type {
		case "number", "integer":
			f, ok := asNumber(v)
			if !ok {
				vs = append(vs, Violation{Field: name, Kind: KindType,
					Message: fmt.Sprintf("%q must be a number", name)})
				continue
			}
			if isAmountField(name) && f <= 0 {
				vs = append(vs, Violation{Field: name, Kind: KindRange,
					Message: fmt.Sprintf("%q must be strictly positive, got %v", name, f)})
			}
		case "string":
			s, ok := v.(string)
			if !ok {
				vs = append(vs, Violation{Field: name, Kind: KindType,
					Message: fmt.Sprintf("%q must be a string", name)})
				continue
			}
			if isDateField(name) && s != "" && !datePattern.MatchString(s) {
				vs = append(vs, Violation{Field: name, Kind: KindFormat,
					Message: fmt.Sprintf("%q must be a YYYY-MM-DD date, got %q", name, s)})
			}
			if isKeyField(name) {
				if kv := checkKey(name, s); kv != nil {
					vs = append(vs, *kv)
				}
			}
		case "boolean":
			if _, ok := v.(bool); !ok {
				vs = append(vs, Violation{Field: name, Kind: KindType,
					Message: fmt.Sprintf("%q must be a boolean", name)})
			}
		}
	}

	return Result{OK: len(vs) == 0, Violations: vs}
}

// checkKey 校验 *_key 字段：必须是真实 UUID，拒绝占位符、
// 全零、示例值与顺序编造值。
func checkKey(name, s string) *Violation {
	if s == "" {
		return &Violation{Field: name, Kind: KindMissing,
			Message: fmt.Sprintf("%q is empty; look up the real key first", name)}
	}
	lower := strings.ToLower(strings.TrimSpace(s))

	if isPlaceholderText(lower) {
		return &Violation{Field: name, Kind: KindPlaceholder,
			Message: fmt.Sprintf("%q looks like a placeholder (%q); call a search tool to get the real UUID", name, s)}
	}
	if !uuidPattern.MatchString(lower) {
		return &Violation{Field: name, Kind: KindFormat,
			Message: fmt.Sprintf("%q must be a UUID, got %q", name, s)}
	}
	if knownFakeUUIDs[lower] {
		return &Violation{Field: name, Kind: KindPlaceholder,
			Message: fmt.Sprintf("%q is a well-known example UUID, not a real key", name)}
	}
	hex := strings.ReplaceAll(lower, "-", "")
	if isRepeatedDigit(hex) {
		return &Violation{Field: name, Kind: KindPlaceholder,
			Message: fmt.Sprintf("%q is a repeated-digit UUID, not a real key", name)}
	}
	if strings.Contains(sequentialHex, hex[:8]) {
		return &Violation{Field: name, Kind: KindPlaceholder,
			Message: fmt.Sprintf("%q is a sequential UUID, not a real key", name)}
	}
	return nil
}

// isPlaceholderText 文本占位符：xxx、<account_key>、your-… 之类
func isPlaceholderText(s string) bool {
	if strings.HasPrefix(s, "<") || strings.HasSuffix(s, ">") {
		return true
	}
	if strings.Contains(s, "xxx") {
		return true
	}
	for _, p := range []string{"your-", "your_", "example", "placeholder", "uuid-here", "key-here", "todo", "tbd"} {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func isRepeatedDigit(hex string) bool {
	for i := 1; i < len(hex); i++ {
		if hex[i] != hex[0] {
			return false
		}
	}
	return len(hex) > 0
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// isAmountField 金额语义字段：严格正数
func isAmountField(name string) bool {
	return name == "amount" || strings.HasSuffix(name, "_amount") ||
		name == "unit_price" || strings.HasSuffix(name, "_price") || name == "qty"
}

// isDateField 日期语义字段
func isDateField(name string) bool {
	return name == "date" || strings.HasSuffix(name, "_date")
}

// isKeyField 账本实体引用字段
func isKeyField(name string) bool {
	return name == "key" || strings.HasSuffix(name, "_key") ||
		name == "debit_account" || name == "credit_account"
}
