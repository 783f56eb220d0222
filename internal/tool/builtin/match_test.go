// Copyright 2026 fanjia1024
// Tests for master data fuzzy matching

package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeForMatching(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Coffee Corner Ltd.", "coffee corner ltd"},
		{"  ACME   Trading  ", "acme trading"},
		{"O'Brien & Sons", "o brien sons"},
		{"", ""},
		{"***", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, normalizeForMatching(tc.in), "input %q", tc.in)
	}
}

func TestExtractKeywords(t *testing.T) {
	assert.Equal(t, []string{"coffee", "corner", "ltd"}, extractKeywords("Coffee Corner Ltd."))
	// 短词（< 3 字符）不参与匹配
	assert.Equal(t, []string{"sons"}, extractKeywords("O'Brien & Sons")[1:])
	assert.Nil(t, extractKeywords("a of to"))
}

func TestFuzzyScore(t *testing.T) {
	// 精确匹配（忽略大小写与标点）
	assert.Equal(t, 1.0, fuzzyScore("Coffee Corner Ltd", "coffee corner ltd."))

	// 包含关系高于纯词重叠
	contains := fuzzyScore("Coffee Corner", "Coffee Corner Ltd")
	overlap := fuzzyScore("Corner Coffee House", "Coffee Corner Ltd")
	assert.Greater(t, contains, overlap)
	assert.Greater(t, contains, 0.5)

	// 完全无关接近零
	assert.Equal(t, 0.0, fuzzyScore("Coffee Corner", "Utilities"))
	assert.Equal(t, 0.0, fuzzyScore("", "anything"))
	assert.Equal(t, 0.0, fuzzyScore("anything", ""))
}

func TestRankMatches(t *testing.T) {
	items := []namedItem{
		{Key: "k1", Name: "Utilities"},
		{Key: "k2", Name: "Coffee Corner Ltd"},
		{Key: "k3", Name: "Corner Shop"},
	}
	ranked := rankMatches("coffee corner", items)
	assert.Equal(t, "k2", ranked[0].Key)
	assert.Greater(t, ranked[0].Score, ranked[1].Score)

	// 原切片不被打乱
	assert.Equal(t, "k1", items[0].Key)
	assert.Zero(t, items[0].Score)
}

func TestRankMatches_TiesStableByName(t *testing.T) {
	items := []namedItem{
		{Key: "kb", Name: "Beta"},
		{Key: "ka", Name: "Alpha"},
	}
	ranked := rankMatches("zzz unrelated", items)
	// 同分按名称排序
	assert.Equal(t, "ka", ranked[0].Key)
	assert.Equal(t, "kb", ranked[1].Key)
}
