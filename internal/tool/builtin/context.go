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
	"time"

	"ledger-agent/internal/tool"
)

// ContextInfo 运行环境信息，推理服务解析相对日期时使用
type ContextInfo struct {
	CompanyName string
	Timezone    string
	YearEndDay  int // 财年截止：月内日
	YearEndMon  int // 财年截止：月份
	Now         func() time.Time
}

// NewCurrentContextTool 创建 get_current_context 工具。
// 相对日期（today、this month）一律由模型先调它换算。
func NewCurrentContextTool(info ContextInfo) tool.Tool {
	if info.Now == nil {
		info.Now = time.Now
	}
	if info.YearEndMon == 0 {
		info.YearEndMon = 12
		info.YearEndDay = 31
	}
	return &ledgerTool{
		name: "get_current_context",
		desc: "Get today's date, time, timezone and the company's financial year end. " +
			"Call this first when the question mentions relative dates like today, this month or this year.",
		schema: tool.Schema{Type: "object", Properties: map[string]tool.SchemaProperty{}},
		fn: func(ctx context.Context, input map[string]any) (tool.ToolResult, error) {
			now := info.Now()
			if info.Timezone != "" {
				if loc, err := time.LoadLocation(info.Timezone); err == nil {
					now = now.In(loc)
				}
			}
			yearEnd := time.Date(now.Year(), time.Month(info.YearEndMon), info.YearEndDay, 0, 0, 0, 0, now.Location())
			if yearEnd.Before(now) {
				yearEnd = yearEnd.AddDate(1, 0, 0)
			}
			return jsonResult(map[string]any{
				"company":            info.CompanyName,
				"date":               now.Format("2006-01-02"),
				"time":               now.Format("15:04:05"),
				"weekday":            now.Weekday().String(),
				"timezone":           now.Location().String(),
				"financial_year_end": yearEnd.Format("2006-01-02"),
			}), nil
		},
	}
}
