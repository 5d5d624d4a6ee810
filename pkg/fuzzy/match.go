// Package fuzzy 会话标题与消息内容的近似匹配.
package fuzzy

import (
	"math"
	"strings"
	"unicode/utf8"
)

const (
	// tokenCoverage 多关键词查询时至少命中的关键词比例
	tokenCoverage = 0.7
	// lengthTolerance 单词查询允许的长度/字符差异比例
	lengthTolerance = 0.3
	// minTokenLength 参与多关键词匹配的最短关键词长度(不含)
	minTokenLength = 2
	// minFuzzyQueryLength 启用字符覆盖匹配的最短查询长度(不含)
	minFuzzyQueryLength = 3
)

// Match reports whether query approximately occurs in text. Case-insensitive.
func Match(text, query string) bool {
	if query == "" {
		return true
	}
	if text == "" {
		return false
	}

	text = strings.ToLower(text)
	query = strings.ToLower(query)

	if strings.Contains(text, query) {
		return true
	}

	var tokens []string
	for _, t := range strings.Fields(query) {
		if utf8.RuneCountInString(t) > minTokenLength {
			tokens = append(tokens, t)
		}
	}

	if len(tokens) > 1 {
		matched := 0
		for _, t := range tokens {
			if strings.Contains(text, t) {
				matched++
			}
		}
		return matched >= int(math.Ceil(float64(len(tokens))*tokenCoverage))
	}

	queryLen := utf8.RuneCountInString(query)
	if queryLen <= minFuzzyQueryLength {
		return false
	}

	tolerance := int(math.Floor(float64(queryLen) * lengthTolerance))
	for _, word := range strings.Fields(text) {
		if abs(utf8.RuneCountInString(word)-queryLen) > tolerance {
			continue
		}
		if charCoverage(word, query) >= queryLen-tolerance {
			return true
		}
	}
	return false
}

// charCoverage 统计 query 中有多少个字符出现在 word 里, 不考虑顺序
func charCoverage(word, query string) int {
	n := 0
	for _, r := range query {
		if strings.ContainsRune(word, r) {
			n++
		}
	}
	return n
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
