// Package text 提供情绪分类前的文本归一化。
package text

import (
	"strings"
	"unicode"
)

// Clean 将自由文本归一为分类器的唯一输入形态：
// 小写、去数字、去标点符号、空白折叠为单个空格、去首尾空白。
//
//	Clean("Hello, World! 123") == "hello world"
func Clean(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsDigit(r):
			continue
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			continue
		case unicode.IsSpace(r):
			pendingSpace = true
		default:
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Tokens 在 Clean 的基础上切分为词序列，供词袋分类器使用。
func Tokens(s string) []string {
	cleaned := Clean(s)
	if cleaned == "" {
		return nil
	}
	return strings.Fields(cleaned)
}
