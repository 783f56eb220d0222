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
	"regexp"
	"sort"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9\s]`)

// normalizeForMatching 小写、去特殊字符、压缩空白
func normalizeForMatching(text string) string {
	text = strings.ToLower(text)
	text = nonAlnum.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}

// extractKeywords 取长度 >= 3 的词
func extractKeywords(text string) []string {
	var words []string
	for _, w := range strings.Fields(normalizeForMatching(text)) {
		if len(w) >= 3 {
			words = append(words, w)
		}
	}
	return words
}

// fuzzyScore 两串的匹配分：精确、包含、词重叠三级
func fuzzyScore(query, candidate string) float64 {
	q := normalizeForMatching(query)
	c := normalizeForMatching(candidate)
	if q == "" || c == "" {
		return 0
	}
	if q == c {
		return 1
	}
	score := 0.0
	if strings.Contains(c, q) || strings.Contains(q, c) {
		score += 0.6
	}
	qw := make(map[string]bool)
	for _, w := range extractKeywords(q) {
		qw[w] = true
	}
	cw := extractKeywords(c)
	if len(qw) > 0 && len(cw) > 0 {
		matched := 0
		for _, w := range cw {
			if qw[w] {
				matched++
			}
		}
		denom := len(qw)
		if len(cw) > denom {
			denom = len(cw)
		}
		score += 0.4 * float64(matched) / float64(denom)
	}
	if score > 1 {
		score = 1
	}
	return score
}

// namedItem 参与排序的候选项
type namedItem struct {
	Key   string  `json:"key"`
	Name  string  `json:"name"`
	Code  string  `json:"code,omitempty"`
	Score float64 `json:"score,omitempty"`
}

// rankMatches 按 fuzzyScore 降序返回全部候选；并列时按名称稳定排序
func rankMatches(query string, items []namedItem) []namedItem {
	out := make([]namedItem, len(items))
	copy(out, items)
	for i := range out {
		out[i].Score = fuzzyScore(query, out[i].Name)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Name < out[j].Name
	})
	return out
}
