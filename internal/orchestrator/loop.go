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

package orchestrator

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Verdict 循环检测结论
type Verdict int

const (
	// VerdictContinue 继续执行
	VerdictContinue Verdict = iota
	// VerdictTerminate 检测到循环，Run 必须终止
	VerdictTerminate
)

const defaultLoopThreshold = 2

// LoopDetector 按 (操作, 参数指纹) 计数的循环检测器。
// 生命周期与单个 Run 绑定，不跨 Run 复用。
type LoopDetector struct {
	threshold int
	counts    map[string]int
}

// NewLoopDetector 创建循环检测器；threshold <= 0 时取默认 2：
// 同一调用出现第 3 次即终止
func NewLoopDetector(threshold int) *LoopDetector {
	if threshold <= 0 {
		threshold = defaultLoopThreshold
	}
	return &LoopDetector{
		threshold: threshold,
		counts:    make(map[string]int),
	}
}

// Observe 记录一次提案并给出结论。严格大于阈值才终止，
// 等于阈值仍可执行。
func (d *LoopDetector) Observe(operation string, args map[string]any) Verdict {
	key := operation + ":" + Fingerprint(args)
	d.counts[key]++
	if d.counts[key] > d.threshold {
		return VerdictTerminate
	}
	return VerdictContinue
}

// Count 某调用当前出现次数（测试与诊断用）
func (d *LoopDetector) Count(operation string, args map[string]any) int {
	return d.counts[operation+":"+Fingerprint(args)]
}

// Fingerprint 参数映射的规范化指纹：递归按键排序的 JSON 的 SHA-256。
// 键序不同但语义相同的参数必须得到相同指纹。
func Fingerprint(args map[string]any) string {
	var b strings.Builder
	writeCanonical(&b, args)
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// writeCanonical 递归写出规范化 JSON（对象键排序，数组保序）
func writeCanonical(b *strings.Builder, v any) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			kj, _ := json.Marshal(k)
			b.Write(kj)
			b.WriteByte(':')
			writeCanonical(b, val[k])
		}
		b.WriteByte('}')
	case []any:
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanonical(b, item)
		}
		b.WriteByte(']')
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			raw = []byte(fmt.Sprintf("%q", fmt.Sprint(val)))
		}
		b.Write(raw)
	}
}
