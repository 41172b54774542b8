package util

import "strings"

// TruncateString: rune 기준 최대 길이로 자르고, 잘렸으면 "..." 을 붙인다.
func TruncateString(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "..."
}

// Normalize: 소문자 + 양쪽 공백 제거
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ContainsFold 는 대소문자를 무시한 부분 문자열 검사다. 빈 needle 은 항상 일치한다.
func ContainsFold(haystack, needle string) bool {
	needle = Normalize(needle)
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(haystack), needle)
}
